package nicdrv

import "sync/atomic"

// Stats counts link events of one port. All fields are updated atomically.
type Stats struct {
	framesSent     atomic.Uint64
	sendErrors     atomic.Uint64
	framesReceived atomic.Uint64
	recvErrors     atomic.Uint64
	framesMatched  atomic.Uint64
	framesStored   atomic.Uint64
	framesForeign  atomic.Uint64
	framesDropped  atomic.Uint64
	timeouts       atomic.Uint64
	retries        atomic.Uint64
	exhausted      atomic.Uint64
	reroutes       atomic.Uint64
}

// StatsSnapshot is a point-in-time copy of Stats.
type StatsSnapshot struct {
	FramesSent     uint64
	SendErrors     uint64
	FramesReceived uint64
	RecvErrors     uint64
	FramesMatched  uint64 // resolved by the caller waiting for them
	FramesStored   uint64 // filed for another waiting caller
	FramesForeign  uint64 // not EtherCAT
	FramesDropped  uint64 // EtherCAT, but malformed or unexpected
	Timeouts       uint64
	Retries        uint64
	Exhausted      uint64
	Reroutes       uint64
}

func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		FramesSent:     s.framesSent.Load(),
		SendErrors:     s.sendErrors.Load(),
		FramesReceived: s.framesReceived.Load(),
		RecvErrors:     s.recvErrors.Load(),
		FramesMatched:  s.framesMatched.Load(),
		FramesStored:   s.framesStored.Load(),
		FramesForeign:  s.framesForeign.Load(),
		FramesDropped:  s.framesDropped.Load(),
		Timeouts:       s.timeouts.Load(),
		Retries:        s.retries.Load(),
		Exhausted:      s.exhausted.Load(),
		Reroutes:       s.reroutes.Load(),
	}
}
