// internal/ecat/datagram.go
package ecat

import (
	"encoding/binary"
	"fmt"
)

// Command is the EtherCAT datagram command type.
type Command uint8

const (
	NOP  Command = 0
	APRD Command = 1
	APWR Command = 2
	APRW Command = 3
	FPRD Command = 4
	FPWR Command = 5
	FPRW Command = 6
	BRD  Command = 7
	BWR  Command = 8
	BRW  Command = 9
	LRD  Command = 10
	LWR  Command = 11
	LRW  Command = 12
	ARMW Command = 13
	FRMW Command = 14
)

var commandName = map[Command]string{
	NOP:  "NOP",
	APRD: "APRD",
	APWR: "APWR",
	APRW: "APRW",
	FPRD: "FPRD",
	FPWR: "FPWR",
	FPRW: "FPRW",
	BRD:  "BRD",
	BWR:  "BWR",
	BRW:  "BRW",
	LRD:  "LRD",
	LWR:  "LWR",
	LRW:  "LRW",
	ARMW: "ARMW",
	FRMW: "FRMW",
}

func (c Command) String() string {
	if s, ok := commandName[c]; ok {
		return s
	}
	return fmt.Sprintf("Command(%d)", uint8(c))
}

// Reads reports whether slaves copy memory into the datagram.
func (c Command) Reads() bool {
	switch c {
	case APRD, FPRD, BRD, LRD, APRW, FPRW, BRW, LRW, ARMW, FRMW:
		return true
	}
	return false
}

// Writes reports whether slaves copy datagram data into memory.
func (c Command) Writes() bool {
	switch c {
	case APWR, FPWR, BWR, LWR, APRW, FPRW, BRW, LRW:
		return true
	}
	return false
}

// ParseCommand maps a command mnemonic back to its value.
func ParseCommand(s string) (Command, error) {
	for c, name := range commandName {
		if name == s {
			return c, nil
		}
	}
	return NOP, fmt.Errorf("ecat: unknown command %q", s)
}

// ---- DATAGRAM HEADER ----

// DatagramHeader is the 10-byte header preceding datagram data.
// All fields are little-endian on the wire.
type DatagramHeader struct {
	Command Command
	Index   uint8
	ADP     uint16
	ADO     uint16
	LenWord uint16
	IRQ     uint16
}

// Overlay decodes the header from b and returns the remaining bytes.
func (dh *DatagramHeader) Overlay(b []byte) ([]byte, error) {
	if len(b) < datagramHeaderLen {
		return b, fmt.Errorf("ecat: need %d bytes for datagram header, have %d", datagramHeaderLen, len(b))
	}

	dh.Command = Command(b[0])
	dh.Index = b[1]
	dh.ADP = binary.LittleEndian.Uint16(b[2:4])
	dh.ADO = binary.LittleEndian.Uint16(b[4:6])
	dh.LenWord = binary.LittleEndian.Uint16(b[6:8])
	dh.IRQ = binary.LittleEndian.Uint16(b[8:10])

	return b[datagramHeaderLen:], nil
}

// Commit encodes the header into b.
func (dh *DatagramHeader) Commit(b []byte) error {
	if len(b) < datagramHeaderLen {
		return ErrShortBuffer
	}

	b[0] = uint8(dh.Command)
	b[1] = dh.Index
	binary.LittleEndian.PutUint16(b[2:4], dh.ADP)
	binary.LittleEndian.PutUint16(b[4:6], dh.ADO)
	binary.LittleEndian.PutUint16(b[6:8], dh.LenWord)
	binary.LittleEndian.PutUint16(b[8:10], dh.IRQ)
	return nil
}

func (dh *DatagramHeader) DataLength() uint16 {
	return dh.LenWord & dataLengthMask
}

// More reports whether another datagram follows in the same frame.
func (dh *DatagramHeader) More() bool {
	return dh.LenWord&datagramFollows != 0
}

// ---- FRAME BUILDING ----

// SetupDatagram writes a single-datagram EtherCAT payload behind the
// Ethernet header already present in frame. The workcounter is zeroed.
// Returns the total frame length to transmit.
func SetupDatagram(frame []byte, cmd Command, index uint8, adp, ado uint16, data []byte) (int, error) {
	if len(data) > MaxDataLen {
		return 0, ErrDataTooLong
	}

	n := EthHeaderSize + HeaderSize + len(data) + WKCSize
	if n > len(frame) {
		return 0, ErrShortBuffer
	}

	p := frame[EthHeaderSize:n]
	binary.LittleEndian.PutUint16(p[0:2], uint16(lengthTypeECAT+HeaderSize+len(data)))

	dh := DatagramHeader{
		Command: cmd,
		Index:   index,
		ADP:     adp,
		ADO:     ado,
		LenWord: uint16(len(data)),
	}
	if err := dh.Commit(p[2:HeaderSize]); err != nil {
		return 0, err
	}

	copy(p[HeaderSize:], data)
	p[HeaderSize+len(data)] = 0
	p[HeaderSize+len(data)+1] = 0

	return n, nil
}

// SetIndex rewrites the index byte of the first datagram of a set up frame.
func SetIndex(frame []byte, index uint8) error {
	if len(frame) < EthHeaderSize+HeaderSize {
		return ErrShortBuffer
	}
	frame[EthHeaderSize+3] = index
	return nil
}

// ---- PAYLOAD INSPECTION (Ethernet header stripped) ----

// FrameLength returns the 12-bit length declared at the start of an
// EtherCAT payload: low byte plus the low nibble of the second byte.
func FrameLength(p []byte) uint16 {
	if len(p) < 2 {
		return 0
	}
	return (uint16(p[0]) | uint16(p[1])<<8) & lengthMask
}

// FrameIndex returns the index field of the first datagram.
func FrameIndex(p []byte) (uint8, error) {
	if len(p) < HeaderSize {
		return 0, ErrShortPayload
	}
	return p[3], nil
}

// WorkCounter returns the two little-endian bytes that immediately follow
// the declared length.
func WorkCounter(p []byte) (uint16, error) {
	l := int(FrameLength(p))
	if len(p) < 2 || l+WKCSize > len(p) {
		return 0, ErrShortPayload
	}
	return binary.LittleEndian.Uint16(p[l : l+WKCSize]), nil
}

// DatagramData returns the data section of the first datagram.
// The slice aliases p.
func DatagramData(p []byte) ([]byte, error) {
	var dh DatagramHeader
	if len(p) < HeaderSize {
		return nil, ErrShortPayload
	}
	if _, err := dh.Overlay(p[2:]); err != nil {
		return nil, err
	}
	end := HeaderSize + int(dh.DataLength())
	if end > len(p) {
		return nil, ErrShortPayload
	}
	return p[HeaderSize:end], nil
}

// WalkDatagrams visits every datagram of an EtherCAT payload in order.
// data and wkc alias p, so fn may modify them in place.
func WalkDatagrams(p []byte, fn func(dh *DatagramHeader, data, wkc []byte) error) error {
	if len(p) < 2 {
		return ErrShortPayload
	}

	b := p[2:]
	for {
		var dh DatagramHeader
		rest, err := dh.Overlay(b)
		if err != nil {
			return err
		}

		dl := int(dh.DataLength())
		if len(rest) < dl+WKCSize {
			return fmt.Errorf("ecat: datagram needs %d bytes of data and workcounter, have %d", dl+WKCSize, len(rest))
		}

		if err := fn(&dh, rest[:dl], rest[dl:dl+WKCSize]); err != nil {
			return err
		}

		// header fields like ADP may have been modified by fn
		if err := dh.Commit(b[:datagramHeaderLen]); err != nil {
			return err
		}

		if !dh.More() {
			return nil
		}
		b = rest[dl+WKCSize:]
	}
}
