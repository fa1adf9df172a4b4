package nicdrv

import (
	"encoding/binary"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tamzrod/ecatlink/internal/ecat"
)

// ---- fake link ----

type fakeDevice struct {
	name string

	mu      sync.Mutex
	sent    [][]byte
	inbox   [][]byte
	sendErr error
	closed  bool

	// echo, when set, turns every accepted frame into a queued reply
	echo func(frame []byte) []byte
}

func (d *fakeDevice) Name() string { return d.name }

func (d *fakeDevice) Send(frame []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.sendErr != nil {
		return d.sendErr
	}
	c := append([]byte(nil), frame...)
	d.sent = append(d.sent, c)
	if d.echo != nil {
		if r := d.echo(c); r != nil {
			d.inbox = append(d.inbox, r)
		}
	}
	return nil
}

func (d *fakeDevice) Recv(buf []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.inbox) == 0 {
		return 0, nil
	}
	f := d.inbox[0]
	d.inbox = d.inbox[1:]
	return copy(buf, f), nil
}

func (d *fakeDevice) Close() error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	return nil
}

func (d *fakeDevice) push(frames ...[]byte) {
	d.mu.Lock()
	d.inbox = append(d.inbox, frames...)
	d.mu.Unlock()
}

func (d *fakeDevice) lastSent() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.sent) == 0 {
		return nil
	}
	return d.sent[len(d.sent)-1]
}

// reply returns a copy of frame with its workcounter set, as a slave
// segment would hand it back.
func reply(frame []byte, wkc uint16) []byte {
	b := append([]byte(nil), frame...)
	p := b[ecat.EthHeaderSize:]
	l := ecat.FrameLength(p)
	binary.LittleEndian.PutUint16(p[l:], wkc)
	return b
}

func newTestPort(t *testing.T, dev *fakeDevice) *Port {
	t.Helper()
	p, err := New(dev, Config{})
	require.NoError(t, err)
	return p
}

// sendBRD allocates a slot, prepares a two byte broadcast read and sends it.
func sendBRD(t *testing.T, p *Port) int {
	t.Helper()
	idx, err := p.GetIndex()
	require.NoError(t, err)
	require.NoError(t, p.SetupDatagram(idx, ecat.BRD, 0, 0x0130, []byte{0, 0}))
	require.NoError(t, p.OutFrame(idx, Primary))
	return idx
}

// ---- tests ----

func TestNewRequiresDevice(t *testing.T) {
	_, err := New(nil, Config{})
	require.Error(t, err)
}

func TestNewWritesHeaders(t *testing.T) {
	p := newTestPort(t, &fakeDevice{name: "eth0"})
	require.Equal(t, "eth0", p.Name())
	require.Equal(t, RedNone, p.RedMode())

	for i := 0; i < MaxBuf; i++ {
		tx, err := p.TxBuffer(i)
		require.NoError(t, err)

		fr, err := ecat.ParseFrame(tx[:ecat.EthHeaderSize+ecat.HeaderSize])
		require.NoError(t, err)
		require.True(t, fr.IsECAT())
		require.Equal(t, ecat.RoutePrimary, fr.Route)
	}
}

func TestIndexRange(t *testing.T) {
	p := newTestPort(t, &fakeDevice{})

	for _, idx := range []int{-1, MaxBuf} {
		_, err := p.Status(idx)
		require.ErrorIs(t, err, ErrIndexRange)
		_, err = p.TxBuffer(idx)
		require.ErrorIs(t, err, ErrIndexRange)
		_, err = p.RxBuffer(idx)
		require.ErrorIs(t, err, ErrIndexRange)
		require.ErrorIs(t, p.OutFrame(idx, Primary), ErrIndexRange)
		_, err = p.InFrame(idx, Primary)
		require.ErrorIs(t, err, ErrIndexRange)
		_, err = p.WaitInFrame(idx, 0)
		require.ErrorIs(t, err, ErrIndexRange)
		require.ErrorIs(t, p.Release(idx), ErrIndexRange)
	}
}

func TestSecondaryOnSinglePort(t *testing.T) {
	p := newTestPort(t, &fakeDevice{})

	_, err := p.Stats(Secondary)
	require.ErrorIs(t, err, ErrNoSecondary)
	require.ErrorIs(t, p.OutFrame(0, Secondary), ErrNoSecondary)
	_, err = p.SourceTag(0, Secondary)
	require.ErrorIs(t, err, ErrNoSecondary)
}

func TestSetTxLengthBounds(t *testing.T) {
	p := newTestPort(t, &fakeDevice{})

	require.ErrorIs(t, p.SetTxLength(0, ecat.EthHeaderSize-1), ErrFrameTooLong)
	require.ErrorIs(t, p.SetTxLength(0, MaxFrameLen+1), ErrFrameTooLong)
	require.NoError(t, p.SetTxLength(0, 60))

	n, err := p.TxLength(0)
	require.NoError(t, err)
	require.Equal(t, 60, n)
}

func TestSetupDatagramCarriesIndex(t *testing.T) {
	p := newTestPort(t, &fakeDevice{})

	require.NoError(t, p.SetupDatagram(7, ecat.FPRD, 0x1001, 0x0130, []byte{0, 0}))

	n, err := p.TxLength(7)
	require.NoError(t, err)
	require.Equal(t, ecat.EthHeaderSize+ecat.HeaderSize+2+ecat.WKCSize, n)

	tx, _ := p.TxBuffer(7)
	idx, err := ecat.FrameIndex(tx[ecat.EthHeaderSize:n])
	require.NoError(t, err)
	require.Equal(t, uint8(7), idx)
}

func TestCloseClosesDevice(t *testing.T) {
	dev := &fakeDevice{}
	p := newTestPort(t, dev)
	require.NoError(t, p.Close())
	require.True(t, dev.closed)
}

func TestErrorsAreDistinct(t *testing.T) {
	all := []error{ErrAllocatorExhausted, ErrNoFrame, ErrOtherFrame, ErrTxRejected, ErrIndexRange}
	for i, a := range all {
		for j, b := range all {
			require.Equal(t, i == j, errors.Is(a, b), "%v vs %v", a, b)
		}
	}
}
