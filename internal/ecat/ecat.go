// internal/ecat/ecat.go
package ecat

import (
	"errors"
	"net"

	"github.com/mdlayher/ethernet"
)

// ---- WIRE CONSTANTS ----

// EtherType is the registered EtherType for EtherCAT frames.
const EtherType ethernet.EtherType = 0x88a4

const (
	// EthHeaderSize is the untagged Ethernet header: destination, source, type.
	EthHeaderSize = 14

	// HeaderSize covers the EtherCAT length word plus one datagram header.
	HeaderSize = 12

	// WKCSize is the trailing workcounter of a datagram.
	WKCSize = 2

	// MaxFrameLen is the largest Ethernet frame handled, FCS excluded.
	MaxFrameLen = 1518

	// MaxDataLen is the largest datagram payload that fits one frame.
	MaxDataLen = MaxFrameLen - EthHeaderSize - HeaderSize - WKCSize - 4

	datagramHeaderLen = 10
	lengthTypeECAT    = 0x1000
	lengthMask        = 0x0fff
	dataLengthMask    = 0x07ff
	datagramFollows   = 1 << 15
)

// ---- ROUTE IDENTIFICATION ----

// The source MAC is not the NIC address. EtherCAT ignores it, so the master
// uses it to tell which physical path a returning frame traveled.
var (
	PrimaryMAC   = net.HardwareAddr{0x02, 0x01, 0x01, 0x01, 0x01, 0x01}
	SecondaryMAC = net.HardwareAddr{0x06, 0x04, 0x04, 0x04, 0x04, 0x04}
)

// Route tags are the second 16-bit word of the source MAC.
const (
	RoutePrimary   uint16 = 0x0101
	RouteSecondary uint16 = 0x0404
)

// RouteTag extracts the route discriminator from a source MAC.
// Returns 0 if the address is too short.
func RouteTag(mac net.HardwareAddr) uint16 {
	if len(mac) < 4 {
		return 0
	}
	return uint16(mac[2])<<8 | uint16(mac[3])
}

var (
	ErrShortBuffer  = errors.New("ecat: buffer too short")
	ErrShortPayload = errors.New("ecat: payload shorter than declared length")
	ErrDataTooLong  = errors.New("ecat: datagram data exceeds frame capacity")
)
