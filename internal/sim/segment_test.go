package sim

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tamzrod/ecatlink/internal/ecat"
)

func frame(t *testing.T, cmd ecat.Command, index uint8, adp, ado uint16, data []byte) []byte {
	t.Helper()
	b := make([]byte, ecat.MaxFrameLen)
	require.NoError(t, ecat.SetupHeader(b))
	n, err := ecat.SetupDatagram(b, cmd, index, adp, ado, data)
	require.NoError(t, err)
	return b[:n]
}

func recv(t *testing.T, e *Endpoint) (ecat.Received, uint16) {
	t.Helper()
	buf := make([]byte, ecat.MaxFrameLen)
	n, err := e.Recv(buf)
	require.NoError(t, err)
	require.NotZero(t, n, "no frame on %s", e.Name())

	fr, err := ecat.ParseFrame(buf[:n])
	require.NoError(t, err)
	wkc, err := ecat.WorkCounter(fr.Payload)
	require.NoError(t, err)
	return fr, wkc
}

func TestLineBroadcastRead(t *testing.T) {
	seg, err := NewSegment(Config{Slaves: 3, BreakAt: NoBreak})
	require.NoError(t, err)
	require.Nil(t, seg.Secondary())

	require.NoError(t, seg.Primary().Send(frame(t, ecat.BRD, 5, 0, 0x0000, []byte{0, 0})))

	fr, wkc := recv(t, seg.Primary())
	require.Equal(t, uint16(3), wkc)
	require.Equal(t, ecat.RoutePrimary, fr.Route)

	idx, err := ecat.FrameIndex(fr.Payload)
	require.NoError(t, err)
	require.Equal(t, uint8(5), idx)

	data, err := ecat.DatagramData(fr.Payload)
	require.NoError(t, err)
	require.Equal(t, []byte{0x11, 0x00}, data)
}

func TestShortFramesArePadded(t *testing.T) {
	seg, err := NewSegment(Config{Slaves: 1, BreakAt: NoBreak})
	require.NoError(t, err)

	f := frame(t, ecat.NOP, 0, 0, 0, nil)
	require.Less(t, len(f), minFrameLen)
	require.NoError(t, seg.Primary().Send(f))

	buf := make([]byte, ecat.MaxFrameLen)
	n, err := seg.Primary().Recv(buf)
	require.NoError(t, err)
	require.Equal(t, minFrameLen, n)
}

func TestAutoIncrementAddressing(t *testing.T) {
	seg, err := NewSegment(Config{Slaves: 3, BreakAt: NoBreak})
	require.NoError(t, err)

	// second slave sits at position -1
	require.NoError(t, seg.Primary().Send(frame(t, ecat.APRD, 1, 0xffff, 0x0010, []byte{0, 0})))

	fr, wkc := recv(t, seg.Primary())
	require.Equal(t, uint16(1), wkc)

	data, err := ecat.DatagramData(fr.Payload)
	require.NoError(t, err)
	require.Equal(t, uint16(0x1002), binary.LittleEndian.Uint16(data))
}

func TestConfiguredAddressWriteThenRead(t *testing.T) {
	seg, err := NewSegment(Config{Slaves: 2, BreakAt: NoBreak})
	require.NoError(t, err)

	require.NoError(t, seg.Primary().Send(frame(t, ecat.FPWR, 1, 0x1002, 0x0120, []byte{0x02, 0x00})))
	_, wkc := recv(t, seg.Primary())
	require.Equal(t, uint16(1), wkc)
	require.Equal(t, byte(0x02), seg.Slave(1).Mem[0x0120])
	require.Equal(t, byte(0x00), seg.Slave(0).Mem[0x0120])

	require.NoError(t, seg.Primary().Send(frame(t, ecat.FPRD, 2, 0x1002, 0x0120, []byte{0, 0})))
	fr, wkc := recv(t, seg.Primary())
	require.Equal(t, uint16(1), wkc)
	data, err := ecat.DatagramData(fr.Payload)
	require.NoError(t, err)
	require.Equal(t, []byte{0x02, 0x00}, data)

	// nobody answers an unknown station
	require.NoError(t, seg.Primary().Send(frame(t, ecat.FPRD, 3, 0x2000, 0x0120, []byte{0, 0})))
	_, wkc = recv(t, seg.Primary())
	require.Zero(t, wkc)
}

func TestRingIntact(t *testing.T) {
	seg, err := NewSegment(Config{Slaves: 4, Redundant: true, BreakAt: NoBreak})
	require.NoError(t, err)

	require.NoError(t, seg.Primary().Send(frame(t, ecat.BRD, 1, 0, 0, []byte{0, 0})))
	require.Zero(t, seg.Pending(SideA))

	_, wkc := recv(t, seg.Secondary())
	require.Equal(t, uint16(4), wkc)

	// the other direction passes without processing
	require.NoError(t, seg.Secondary().Send(frame(t, ecat.BRD, 1, 0, 0, []byte{0, 0})))
	_, wkc = recv(t, seg.Primary())
	require.Zero(t, wkc)
}

func TestRingBroken(t *testing.T) {
	seg, err := NewSegment(Config{Slaves: 4, Redundant: true, BreakAt: 1})
	require.NoError(t, err)

	require.NoError(t, seg.Primary().Send(frame(t, ecat.BRD, 1, 0, 0, []byte{0, 0})))
	_, wkc := recv(t, seg.Primary())
	require.Equal(t, uint16(1), wkc)

	require.NoError(t, seg.Secondary().Send(frame(t, ecat.BRD, 1, 0, 0, []byte{0, 0})))
	_, wkc = recv(t, seg.Secondary())
	require.Equal(t, uint16(3), wkc)

	seg.SetBreak(0)
	require.NoError(t, seg.Primary().Send(frame(t, ecat.BRD, 1, 0, 0, []byte{0, 0})))
	require.Zero(t, seg.Pending(SideA))
	require.Zero(t, seg.Pending(SideB))
}

func TestReorderDropAndInject(t *testing.T) {
	seg, err := NewSegment(Config{Slaves: 1, BreakAt: NoBreak, Reorder: true})
	require.NoError(t, err)

	for i := uint8(1); i <= 3; i++ {
		require.NoError(t, seg.Primary().Send(frame(t, ecat.BRD, i, 0, 0, []byte{0, 0})))
	}
	for _, want := range []uint8{3, 2, 1} {
		fr, _ := recv(t, seg.Primary())
		got, err := ecat.FrameIndex(fr.Payload)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}

	seg.SetReorder(false)
	seg.DropNext(1)
	require.NoError(t, seg.Primary().Send(frame(t, ecat.BRD, 1, 0, 0, []byte{0, 0})))
	require.Zero(t, seg.Pending(SideA))

	seg.Inject(SideA, []byte{0xde, 0xad})
	buf := make([]byte, ecat.MaxFrameLen)
	n, err := seg.Primary().Recv(buf)
	require.NoError(t, err)
	require.Equal(t, []byte{0xde, 0xad}, buf[:n])
}

func TestClosedEndpoint(t *testing.T) {
	seg, err := NewSegment(Config{Slaves: 1, BreakAt: NoBreak})
	require.NoError(t, err)

	require.NoError(t, seg.Primary().Close())
	require.Error(t, seg.Primary().Send(frame(t, ecat.NOP, 0, 0, 0, nil)))
	_, err = seg.Primary().Recv(make([]byte, 64))
	require.Error(t, err)
}

func TestNewSegmentRejectsBadBreak(t *testing.T) {
	_, err := NewSegment(Config{Slaves: 2, BreakAt: 3})
	require.Error(t, err)
	_, err = NewSegment(Config{Slaves: -1, BreakAt: NoBreak})
	require.Error(t, err)
}
