package sim

import (
	"errors"
	"fmt"
	"sync"

	"github.com/tamzrod/ecatlink/internal/ecat"
)

// Side names the master link a frame enters or leaves the segment on.
type Side int

const (
	SideA Side = iota // primary link, in front of slave 0
	SideB             // secondary link, behind the last slave
)

const minFrameLen = 60

// NoBreak keeps every cable of the segment connected.
const NoBreak = -1

// Config describes a segment.
type Config struct {
	Slaves int

	// Redundant attaches a second master link behind the last slave.
	Redundant bool

	// BreakAt disconnects cable k: 0 is the primary link cable, k is the
	// cable in front of slave k, Slaves is the secondary link cable.
	BreakAt int

	// Reorder delivers the newest queued frame first.
	Reorder bool
}

// Segment is a simulated line or ring of slaves.
type Segment struct {
	mu        sync.Mutex
	slaves    []*Slave
	redundant bool
	breakAt   int
	reorder   bool
	dropNext  int
	queues    [2][][]byte
	ends      [2]*Endpoint
}

// NewSegment builds a segment of cfg.Slaves slaves with station addresses
// 0x1001, 0x1002, ...
func NewSegment(cfg Config) (*Segment, error) {
	if cfg.Slaves < 0 {
		return nil, errors.New("sim: slave count must be >= 0")
	}
	if cfg.BreakAt < NoBreak || cfg.BreakAt > cfg.Slaves {
		return nil, fmt.Errorf("sim: break_at %d outside 0..%d", cfg.BreakAt, cfg.Slaves)
	}

	s := &Segment{
		redundant: cfg.Redundant,
		breakAt:   cfg.BreakAt,
		reorder:   cfg.Reorder,
	}
	for i := 0; i < cfg.Slaves; i++ {
		s.slaves = append(s.slaves, NewSlave(0x1001+uint16(i)))
	}

	s.ends[SideA] = &Endpoint{seg: s, side: SideA, name: "sim0"}
	if cfg.Redundant {
		s.ends[SideB] = &Endpoint{seg: s, side: SideB, name: "sim1"}
	}
	return s, nil
}

// Primary returns the link in front of slave 0.
func (s *Segment) Primary() *Endpoint { return s.ends[SideA] }

// Secondary returns the link behind the last slave, nil unless redundant.
func (s *Segment) Secondary() *Endpoint { return s.ends[SideB] }

// Slave returns slave i.
func (s *Segment) Slave(i int) *Slave { return s.slaves[i] }

// SetBreak disconnects cable k, or reconnects everything with NoBreak.
func (s *Segment) SetBreak(k int) {
	s.mu.Lock()
	s.breakAt = k
	s.mu.Unlock()
}

// SetReorder switches between FIFO and newest-first delivery.
func (s *Segment) SetReorder(on bool) {
	s.mu.Lock()
	s.reorder = on
	s.mu.Unlock()
}

// DropNext discards the next n frames sent on any link.
func (s *Segment) DropNext(n int) {
	s.mu.Lock()
	s.dropNext = n
	s.mu.Unlock()
}

// Inject queues a raw frame for delivery on a link, bypassing the slaves.
func (s *Segment) Inject(side Side, frame []byte) {
	s.mu.Lock()
	s.queues[side] = append(s.queues[side], append([]byte(nil), frame...))
	s.mu.Unlock()
}

// Pending returns the number of frames queued on a link.
func (s *Segment) Pending(side Side) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queues[side])
}

func (s *Segment) transmit(from Side, frame []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dropNext > 0 {
		s.dropNext--
		return
	}

	b := make([]byte, max(len(frame), minFrameLen))
	copy(b, frame)

	to, ok := s.route(from, b)
	if !ok {
		return
	}
	s.queues[to] = append(s.queues[to], b)
}

// route walks the frame through the slaves and returns the link it comes
// out on. Slaves process a frame on its forward path only; a frame that
// meets a break is looped back by the last slave before it.
func (s *Segment) route(from Side, b []byte) (Side, bool) {
	n := len(s.slaves)
	brk := s.breakAt
	if !s.redundant && brk == NoBreak {
		// a line ends in the last slave, which loops back
		brk = n
	}

	if from == SideA {
		if brk == 0 {
			return SideA, false
		}
		end := n
		if brk != NoBreak {
			end = brk
		}
		s.forward(b, 0, end)
		if brk == NoBreak {
			return SideB, true
		}
		return SideA, true
	}

	// SideB: travels backwards untouched up to the break, then forward
	if !s.redundant || brk == n {
		return SideB, false
	}
	if brk == NoBreak {
		return SideA, true
	}
	s.forward(b, brk, n)
	return SideB, true
}

func (s *Segment) forward(b []byte, from, to int) {
	fr, err := ecat.ParseFrame(b)
	if err != nil || !fr.IsECAT() {
		return
	}
	p := b[ecat.EthHeaderSize:]
	for i := from; i < to; i++ {
		slave := s.slaves[i]
		// malformed datagram chains come back as sent
		_ = ecat.WalkDatagrams(p, func(dh *ecat.DatagramHeader, data, wkc []byte) error {
			slave.process(dh, data, wkc)
			return nil
		})
	}
}

func (s *Segment) receive(side Side, buf []byte) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := s.queues[side]
	if len(q) == 0 {
		return 0
	}

	var f []byte
	if s.reorder {
		f = q[len(q)-1]
		s.queues[side] = q[:len(q)-1]
	} else {
		f = q[0]
		s.queues[side] = q[1:]
	}
	return copy(buf, f)
}

// Endpoint is one master link into the segment. It satisfies the device
// contract of the frame core: Send and Recv never block.
type Endpoint struct {
	seg  *Segment
	side Side
	name string

	mu     sync.Mutex
	closed bool
}

func (e *Endpoint) Name() string { return e.name }

func (e *Endpoint) Send(frame []byte) error {
	if e.isClosed() {
		return fmt.Errorf("sim: %s closed", e.name)
	}
	e.seg.transmit(e.side, frame)
	return nil
}

func (e *Endpoint) Recv(buf []byte) (int, error) {
	if e.isClosed() {
		return 0, fmt.Errorf("sim: %s closed", e.name)
	}
	return e.seg.receive(e.side, buf), nil
}

func (e *Endpoint) Close() error {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
	return nil
}

func (e *Endpoint) isClosed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}
