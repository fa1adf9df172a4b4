package ecat

import (
	"net"

	"github.com/mdlayher/ethernet"
)

// SetupHeader writes the fixed Ethernet header into the first EthHeaderSize
// bytes of b: broadcast destination, primary source, EtherCAT type.
func SetupHeader(b []byte) error {
	return writeHeader(b, PrimaryMAC)
}

// SetSource rewrites the source MAC of an already set up frame.
func SetSource(b []byte, mac net.HardwareAddr) error {
	if len(b) < EthHeaderSize || len(mac) != 6 {
		return ErrShortBuffer
	}
	copy(b[6:12], mac)
	return nil
}

func writeHeader(b []byte, src net.HardwareAddr) error {
	if len(b) < EthHeaderSize {
		return ErrShortBuffer
	}

	f := ethernet.Frame{
		Destination: ethernet.Broadcast,
		Source:      src,
		EtherType:   EtherType,
	}
	hdr, err := f.MarshalBinary()
	if err != nil {
		return err
	}

	copy(b[:EthHeaderSize], hdr[:EthHeaderSize])
	return nil
}

// Received is one classified inbound frame.
type Received struct {
	EtherType ethernet.EtherType
	Route     uint16
	Payload   []byte // Ethernet header stripped
}

// IsECAT reports whether the frame carries EtherCAT.
func (r Received) IsECAT() bool {
	return r.EtherType == EtherType
}

// ParseFrame decodes the Ethernet layer of a raw frame.
// The returned payload does not alias b.
func ParseFrame(b []byte) (Received, error) {
	var f ethernet.Frame
	if err := f.UnmarshalBinary(b); err != nil {
		return Received{}, err
	}
	return Received{
		EtherType: f.EtherType,
		Route:     RouteTag(f.Source),
		Payload:   f.Payload,
	}, nil
}
