// Package nicdrv multiplexes EtherCAT datagrams over one raw link, or two
// links in a redundant ring, and matches returning frames to the slot that
// sent them.
//
// Every outgoing frame carries the index of the slot it was prepared in.
// The wire may return frames in any order. Whichever caller pulls a frame
// files it under the index it carries, so one receive call can complete
// another caller's exchange; each caller polls until its own index resolves.
//
// Slot lifecycle:
//
//	EMPTY --GetIndex--> ALLOC --OutFrame--> TX --InFrame--> COMPLETE --Release--> EMPTY
//	                                         \--(pulled by another caller)--> RCVD --InFrame--> COMPLETE
package nicdrv

import (
	"errors"
	"fmt"
	"time"

	"github.com/tamzrod/ecatlink/internal/ecat"
)

// ---- LIMITS ----

// MaxBuf is the number of frame slots per port.
const MaxBuf = 16

// MaxFrameLen is the size of each slot buffer.
const MaxFrameLen = ecat.MaxFrameLen

// TimeoutRet is the default time one frame gets to return.
const TimeoutRet = 2000 * time.Microsecond

// TimeoutSafe is a conservative timeout for configuration exchanges.
const TimeoutSafe = 20000 * time.Microsecond

// ---- SLOT STATUS ----

// BufStatus is the lifecycle state of one slot.
type BufStatus int32

const (
	BufEmpty BufStatus = iota
	BufAlloc
	BufTx
	BufRcvd
	BufComplete
)

func (s BufStatus) String() string {
	switch s {
	case BufEmpty:
		return "EMPTY"
	case BufAlloc:
		return "ALLOC"
	case BufTx:
		return "TX"
	case BufRcvd:
		return "RCVD"
	case BufComplete:
		return "COMPLETE"
	}
	return fmt.Sprintf("BufStatus(%d)", int32(s))
}

// Stack selects which link of a port an operation uses.
type Stack int

const (
	Primary Stack = iota
	Secondary
)

func (s Stack) String() string {
	if s == Secondary {
		return "secondary"
	}
	return "primary"
}

// RedMode is the redundancy configuration of a port.
type RedMode int

const (
	RedNone RedMode = iota
	RedDouble
)

// RedState records the outcome of the last redundant exchange.
type RedState int32

const (
	RedStateNone   RedState = 0 // not redundant
	RedStateIntact RedState = 1 // both links delivered the other's frame
	RedStateBroken RedState = 2 // ring broken, datagram still recovered
	RedStateLost   RedState = 3 // neither path delivered the datagram
)

// ---- ERRORS ----

var (
	// ErrAllocatorExhausted means every slot is in flight. Back off or lower concurrency.
	ErrAllocatorExhausted = errors.New("nicdrv: no free frame slot")

	// ErrNoFrame means no usable response arrived before the deadline.
	ErrNoFrame = errors.New("nicdrv: frame did not arrive")

	// ErrOtherFrame means a frame was consumed but belonged to someone else.
	// It is informational: keep polling.
	ErrOtherFrame = errors.New("nicdrv: frame for another index")

	// ErrTxRejected means the link did not accept the frame for transmission.
	ErrTxRejected = errors.New("nicdrv: transmit rejected")

	ErrIndexRange   = errors.New("nicdrv: index out of range")
	ErrNoSecondary  = errors.New("nicdrv: port has no secondary link")
	ErrNotReceived  = errors.New("nicdrv: slot holds no received frame")
	ErrNotPrepared  = errors.New("nicdrv: slot has no frame prepared")
	ErrFrameTooLong = errors.New("nicdrv: frame exceeds slot buffer")
)

// Device is the raw link a port talks through.
// Send and Recv must not block; Recv returns 0, nil when nothing is queued.
type Device interface {
	Name() string
	Send(frame []byte) error
	Recv(buf []byte) (int, error)
	Close() error
}

func checkIndex(idx int) error {
	if idx < 0 || idx >= MaxBuf {
		return fmt.Errorf("%w: %d", ErrIndexRange, idx)
	}
	return nil
}
