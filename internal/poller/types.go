// internal/poller/types.go
package poller

import (
	"time"

	"github.com/tamzrod/ecatlink/internal/ecat"
)

// ReadBlock describes one register read datagram.
// Geometry only: no semantics.
type ReadBlock struct {
	Command ecat.Command
	ADP     uint16
	ADO     uint16
	Length  uint16
}

// BlockResult is the raw result of a single read.
type BlockResult struct {
	Command     ecat.Command
	ADP         uint16
	ADO         uint16
	Workcounter uint16
	Data        []byte
}

// PollResult is a snapshot produced by one poll cycle.
type PollResult struct {
	Master   string
	At       time.Time
	Duration time.Duration

	Blocks []BlockResult
	Err    error // non-nil means the poll cycle failed
}

// Workcounter returns the workcounter of the first read, 0 if the cycle
// produced no blocks.
func (r PollResult) Workcounter() uint16 {
	if len(r.Blocks) == 0 {
		return 0
	}
	return r.Blocks[0].Workcounter
}
