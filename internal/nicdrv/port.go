package nicdrv

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/tamzrod/ecatlink/internal/ecat"
)

// Config is the runtime configuration of a port.
type Config struct {
	Name string

	// ReturnTimeout bounds one round trip inside SRConfirm and the
	// redundant resend. Zero means TimeoutRet.
	ReturnTimeout time.Duration

	// PollInterval is slept between empty polls. Zero only yields.
	PollInterval time.Duration

	// Logger defaults to a disabled logger.
	Logger *zerolog.Logger
}

type txSlot struct {
	buf [MaxFrameLen]byte
	n   int
}

type rxSlot struct {
	buf    [MaxFrameLen]byte
	n      int
	source uint16
	status atomic.Int32
}

func (s *rxSlot) load() BufStatus   { return BufStatus(s.status.Load()) }
func (s *rxSlot) store(v BufStatus) { s.status.Store(int32(v)) }

// Port owns the slot store of one physical link. In redundant mode the
// primary port holds a reference to the secondary and the two share the
// transmit buffers; each keeps its own receive buffers and status.
type Port struct {
	name          string
	dev           Device
	log           zerolog.Logger
	returnTimeout time.Duration
	pollInterval  time.Duration

	// allocator critical section
	idxMu   sync.Mutex
	lastIdx int

	// receive critical section: scratch buffer + demux
	rxMu    sync.Mutex
	scratch [MaxFrameLen]byte

	tx *[MaxBuf]txSlot
	rx [MaxBuf]rxSlot

	redMode RedMode
	peer    *Port

	// BRD frame sent on the secondary link alongside every redundant transmit
	dummyMu  sync.Mutex
	dummy    [MaxFrameLen]byte
	dummyLen int

	redState atomic.Int32
	stats    Stats

	// fileHook runs after a payload is copied into a slot, before the slot
	// is published. Tests only.
	fileHook func(idx int)
}

// New sets up a single-link port on dev.
func New(dev Device, cfg Config) (*Port, error) {
	if dev == nil {
		return nil, errors.New("nicdrv: device required")
	}

	name := cfg.Name
	if name == "" {
		name = dev.Name()
	}

	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	p := &Port{
		name:          name,
		dev:           dev,
		log:           logger.With().Str("port", name).Logger(),
		returnTimeout: cfg.ReturnTimeout,
		pollInterval:  cfg.PollInterval,
		tx:            new([MaxBuf]txSlot),
	}
	if p.returnTimeout <= 0 {
		p.returnTimeout = TimeoutRet
	}

	// headers are written once so callers only fill in datagrams
	for i := range p.tx {
		if err := ecat.SetupHeader(p.tx[i].buf[:]); err != nil {
			return nil, fmt.Errorf("nicdrv: tx header setup: %w", err)
		}
	}

	return p, nil
}

// NewRedundant sets up a port driving two links of one ring.
// The returned port is the primary; the secondary is reached through it.
func NewRedundant(primary, secondary Device, cfg Config) (*Port, error) {
	p, err := New(primary, cfg)
	if err != nil {
		return nil, err
	}

	scfg := cfg
	scfg.Name = p.name + "/secondary"
	if secondary != nil && cfg.Name == "" {
		scfg.Name = secondary.Name()
	}
	s, err := New(secondary, scfg)
	if err != nil {
		return nil, err
	}

	s.tx = p.tx
	p.redMode, s.redMode = RedDouble, RedDouble
	p.peer, s.peer = s, p

	if err := ecat.SetupHeader(p.dummy[:]); err != nil {
		return nil, err
	}
	if err := ecat.SetSource(p.dummy[:], ecat.SecondaryMAC); err != nil {
		return nil, err
	}
	n, err := ecat.SetupDatagram(p.dummy[:], ecat.BRD, 0, 0x0000, 0x0000, []byte{0, 0})
	if err != nil {
		return nil, err
	}
	p.dummyLen = n

	return p, nil
}

// Close closes the link devices of the port.
func (p *Port) Close() error {
	err := p.dev.Close()
	if p.redMode == RedDouble && p.peer != nil {
		if perr := p.peer.dev.Close(); err == nil {
			err = perr
		}
	}
	return err
}

func (p *Port) Name() string { return p.name }

// RedMode reports whether the port drives one or two links.
func (p *Port) RedMode() RedMode { return p.redMode }

// RedState returns the outcome of the last redundant exchange.
func (p *Port) RedState() RedState { return RedState(p.redState.Load()) }

// Stats returns the counters of the selected link.
func (p *Port) Stats(stack Stack) (StatsSnapshot, error) {
	sp, err := p.stack(stack)
	if err != nil {
		return StatsSnapshot{}, err
	}
	return sp.stats.Snapshot(), nil
}

func (p *Port) stack(s Stack) (*Port, error) {
	if s == Primary {
		return p, nil
	}
	if p.redMode != RedDouble || p.peer == nil {
		return nil, ErrNoSecondary
	}
	return p.peer, nil
}

// ---- SLOT ACCESSORS ----

// Status returns the primary status of a slot.
func (p *Port) Status(idx int) (BufStatus, error) {
	if err := checkIndex(idx); err != nil {
		return BufEmpty, err
	}
	return p.rx[idx].load(), nil
}

// TxBuffer returns the whole transmit buffer of a slot, Ethernet header
// included. It belongs to the caller holding the index until OutFrame.
func (p *Port) TxBuffer(idx int) ([]byte, error) {
	if err := checkIndex(idx); err != nil {
		return nil, err
	}
	return p.tx[idx].buf[:], nil
}

// SetTxLength sets how many bytes of the transmit buffer are sent.
func (p *Port) SetTxLength(idx, n int) error {
	if err := checkIndex(idx); err != nil {
		return err
	}
	if n < ecat.EthHeaderSize || n > MaxFrameLen {
		return fmt.Errorf("%w: length %d", ErrFrameTooLong, n)
	}
	p.tx[idx].n = n
	return nil
}

// TxLength returns the prepared transmit length of a slot.
func (p *Port) TxLength(idx int) (int, error) {
	if err := checkIndex(idx); err != nil {
		return 0, err
	}
	return p.tx[idx].n, nil
}

// SetupDatagram fills the slot with a single datagram carrying the slot
// index and sets the transmit length.
func (p *Port) SetupDatagram(idx int, cmd ecat.Command, adp, ado uint16, data []byte) error {
	if err := checkIndex(idx); err != nil {
		return err
	}
	n, err := ecat.SetupDatagram(p.tx[idx].buf[:], cmd, uint8(idx), adp, ado, data)
	if err != nil {
		return err
	}
	p.tx[idx].n = n
	return nil
}

// RxBuffer returns the received EtherCAT payload (Ethernet header stripped)
// of a slot that is RCVD or COMPLETE. The slice aliases the slot and stays
// valid until the index is released.
func (p *Port) RxBuffer(idx int) ([]byte, error) {
	if err := checkIndex(idx); err != nil {
		return nil, err
	}
	s := &p.rx[idx]
	switch s.load() {
	case BufRcvd, BufComplete:
		return s.buf[:s.n], nil
	}
	return nil, ErrNotReceived
}

// SourceTag returns the route tag of the frame last filed in a slot.
func (p *Port) SourceTag(idx int, stack Stack) (uint16, error) {
	if err := checkIndex(idx); err != nil {
		return 0, err
	}
	sp, err := p.stack(stack)
	if err != nil {
		return 0, err
	}
	return sp.rx[idx].source, nil
}
