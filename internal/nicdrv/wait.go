package nicdrv

import (
	"errors"
	"fmt"
	"time"

	"github.com/tamzrod/ecatlink/internal/ecat"
	"github.com/tamzrod/ecatlink/internal/osal"
)

// WaitInFrame polls until slot idx resolves or timeout passes. The
// deadline is taken when the call starts. In redundant mode both links
// are awaited and a broken ring is repaired by resending on the secondary.
func (p *Port) WaitInFrame(idx int, timeout time.Duration) (uint16, error) {
	if err := checkIndex(idx); err != nil {
		return 0, err
	}

	wkc, err := p.waitInFrameRed(idx, osal.StartTimer(timeout))
	if err != nil {
		p.stats.timeouts.Add(1)
	}
	return wkc, err
}

// SRConfirm transmits slot idx and waits for the answer, retransmitting
// while time is left and the last attempt produced no frame, a rejected
// send or a zero workcounter. Used for exchanges that need a definitive
// reply. A zero workcounter at the deadline is returned as such; a slot
// that cannot be sent at all fails at once.
func (p *Port) SRConfirm(idx int, timeout time.Duration) (uint16, error) {
	if err := checkIndex(idx); err != nil {
		return 0, err
	}

	overall := osal.StartTimer(timeout)
	attempt := min(timeout, p.returnTimeout)

	var (
		wkc uint16
		err error
	)
	for {
		if terr := p.OutFrameRed(idx); terr != nil {
			if !errors.Is(terr, ErrTxRejected) {
				return 0, terr
			}
			// a rejected transmit counts as an immediate timeout
			wkc, err = 0, fmt.Errorf("%w: %w", ErrNoFrame, terr)
			osal.Yield(p.pollInterval)
		} else {
			wkc, err = p.waitInFrameRed(idx, osal.StartTimer(attempt))
			if err == nil && wkc > 0 {
				return wkc, nil
			}
		}

		if overall.Expired() {
			break
		}
		p.stats.retries.Add(1)
	}

	if err != nil {
		p.stats.timeouts.Add(1)
		return 0, err
	}
	return wkc, nil
}

type legResult struct {
	wkc uint16
	ok  bool
}

// poll makes one attempt on a leg that has not resolved yet.
// Returns true if the link delivered something, matched or not.
func (r *legResult) poll(p *Port, idx int) bool {
	if r.ok {
		return false
	}
	wkc, err := p.inFrame(idx)
	switch {
	case err == nil:
		r.wkc, r.ok = wkc, true
		return true
	case errors.Is(err, ErrOtherFrame):
		return true
	}
	return false
}

func (p *Port) waitInFrameRed(idx int, tm osal.Timer) (uint16, error) {
	red := p.redMode == RedDouble

	var prim, sec legResult
	if !red {
		sec.ok = true
	}

	for {
		busy := prim.poll(p, idx)
		if red && sec.poll(p.peer, idx) {
			busy = true
		}
		if (prim.ok && sec.ok) || tm.Expired() {
			break
		}
		// more frames may be queued behind one that was not ours
		if !busy {
			osal.Yield(p.pollInterval)
		}
	}

	if !red {
		if prim.ok {
			return prim.wkc, nil
		}
		return 0, ErrNoFrame
	}

	return p.resolveRedundant(idx, prim, sec)
}

// resolveRedundant decides from the route tags which path each frame took.
//
//	primary link got   secondary link got   ring state
//	secondary tag      primary tag          intact: use the secondary copy
//	nothing/primary    secondary tag        broken: resend through secondary
//	primary tag        nothing              secondary link down: primary looped back
//	anything else                           datagram lost on both paths
func (p *Port) resolveRedundant(idx int, prim, sec legResult) (uint16, error) {
	var primRx, secRx uint16
	if prim.ok {
		primRx = p.rx[idx].source
	}
	if sec.ok {
		secRx = p.peer.rx[idx].source
	}

	if primRx == ecat.RouteSecondary && secRx == ecat.RoutePrimary {
		p.adoptPeerRx(idx)
		p.redState.Store(int32(RedStateIntact))
		return sec.wkc, nil
	}

	if secRx == ecat.RouteSecondary && (primRx == 0 || primRx == ecat.RoutePrimary) {
		if primRx == ecat.RoutePrimary {
			// send the partially processed datagram on, so the far side
			// of the break adds to the same workcounter
			p.rxToTx(idx)
		}

		p.stats.reroutes.Add(1)
		p.log.Debug().
			Int("index", idx).
			Uint16("primary_route", primRx).
			Uint16("secondary_route", secRx).
			Msg("ring broken, resending through secondary link")

		if wkc, ok := p.resendSecondary(idx); ok {
			p.adoptPeerRx(idx)
			p.redState.Store(int32(RedStateBroken))
			return wkc, nil
		}
		if prim.ok {
			p.redState.Store(int32(RedStateBroken))
			return prim.wkc, nil
		}
	}

	if primRx == ecat.RoutePrimary && secRx == 0 {
		p.redState.Store(int32(RedStateBroken))
		return prim.wkc, nil
	}

	p.redState.Store(int32(RedStateLost))
	return 0, ErrNoFrame
}

func (p *Port) resendSecondary(idx int) (uint16, bool) {
	if err := p.peer.outFrame(idx); err != nil {
		return 0, false
	}

	tm := osal.StartTimer(p.returnTimeout)
	var leg legResult
	for {
		busy := leg.poll(p.peer, idx)
		if leg.ok {
			return leg.wkc, true
		}
		if tm.Expired() {
			return 0, false
		}
		if !busy {
			osal.Yield(p.pollInterval)
		}
	}
}

// adoptPeerRx copies the secondary link's copy of a slot into the primary
// slot and completes it there.
func (p *Port) adoptPeerRx(idx int) {
	src := &p.peer.rx[idx]

	p.rxMu.Lock()
	dst := &p.rx[idx]
	dst.n = copy(dst.buf[:], src.buf[:src.n])
	dst.source = src.source
	dst.store(BufComplete)
	p.rxMu.Unlock()
}

func (p *Port) rxToTx(idx int) {
	tx := &p.tx[idx]
	rx := &p.rx[idx]
	n := min(tx.n-ecat.EthHeaderSize, rx.n)
	if n > 0 {
		copy(tx.buf[ecat.EthHeaderSize:ecat.EthHeaderSize+n], rx.buf[:n])
	}
}
