// cmd/ecatlink/orchestrator.go
package main

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/tamzrod/ecatlink/internal/nicdrv"
	"github.com/tamzrod/ecatlink/internal/observability"
	"github.com/tamzrod/ecatlink/internal/poller"
	"github.com/tamzrod/ecatlink/internal/status"
	"github.com/tamzrod/ecatlink/internal/writer"
)

// tracker owns the status snapshot. It is only touched by the
// orchestrator goroutine.
type tracker struct {
	snap status.Snapshot
}

func newTracker() *tracker {
	// Default snapshot state on start.
	return &tracker{snap: status.Snapshot{Health: status.HealthUnknown}}
}

// observe folds one poll result and the port state into the snapshot.
// Reports whether anything changed.
func (t *tracker) observe(res poller.PollResult, port observability.PortSource) bool {
	prev := t.snap

	if res.Err == nil {
		// Recovery / OK; seconds_in_error resets here
		t.snap.Health = status.HealthOK
		t.snap.LastErrorCode = status.ErrorNone
		t.snap.SecondsInError = 0
		t.snap.Workcounter = res.Workcounter()
	} else {
		t.snap.Health = status.HealthError
		t.snap.LastErrorCode = errorCode(res.Err)
		t.snap.Workcounter = 0
		// NOTE: seconds_in_error increments on the 1Hz ticker only.
	}

	t.snap.RedState = uint16(port.RedState())
	if st, err := port.Stats(nicdrv.Primary); err == nil {
		t.snap.Timeouts = status.Saturate(st.Timeouts)
	}

	return t.snap != prev
}

// tick advances seconds_in_error while not OK. It never wraps.
func (t *tracker) tick() bool {
	if t.snap.Health == status.HealthOK || t.snap.SecondsInError == 0xFFFF {
		return false
	}
	t.snap.SecondsInError++
	return true
}

// orchestrate consumes poll results until ctx ends. sw may be nil when no
// status block is configured.
func orchestrate(
	ctx context.Context,
	in <-chan poller.PollResult,
	port observability.PortSource,
	sw writer.StatusWriter,
	logger zerolog.Logger,
) error {
	t := newTracker()

	secTicker := time.NewTicker(time.Second)
	defer secTicker.Stop()

	publish := func(reason string) {
		if sw == nil {
			return
		}
		err := sw.WriteStatus(t.snap)
		observability.RecordStatusWrite(port.Name(), err == nil)
		if err != nil {
			logger.Warn().Err(err).Str("reason", reason).Msg("status write failed")
		}
	}

	// Full block write on start (identity re-assert).
	publish("start")

	for {
		select {
		case <-ctx.Done():
			return nil

		case res := <-in:
			observability.RecordProbe(res.Master, res.Workcounter(), res.Duration, res.Err == nil)

			wasOK := t.snap.Health == status.HealthOK
			prevCode := t.snap.LastErrorCode
			if !t.observe(res, port) {
				continue
			}

			switch {
			case res.Err != nil && (wasOK || prevCode != t.snap.LastErrorCode):
				logger.Warn().Err(res.Err).Uint16("code", t.snap.LastErrorCode).Msg("probe failed")
			case res.Err == nil && !wasOK:
				logger.Info().Uint16("workcounter", t.snap.Workcounter).Msg("segment answering")
			}
			publish("probe")

		case <-secTicker.C:
			if t.tick() {
				publish("tick")
			}
		}
	}
}

// errorCode maps a probe failure onto the status block error codes.
// Errors exposing their own code pass it through; anything else is generic.
func errorCode(err error) uint16 {
	switch {
	case err == nil:
		return status.ErrorNone
	case errors.Is(err, nicdrv.ErrTxRejected):
		// checked first: a timeout caused by rejected sends wraps both
		return status.ErrorTxRejected
	case errors.Is(err, nicdrv.ErrNoFrame):
		return status.ErrorNoFrame
	case errors.Is(err, nicdrv.ErrAllocatorExhausted):
		return status.ErrorExhausted
	case errors.Is(err, poller.ErrNoResponder):
		return status.ErrorNoResponder
	}

	type coder interface{ Code() uint16 }

	var c coder
	if errors.As(err, &c) {
		return c.Code()
	}

	return status.ErrorGeneric
}
