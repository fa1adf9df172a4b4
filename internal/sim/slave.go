// Package sim is an in-memory EtherCAT segment: a line of slaves between
// one or two master links, with ring breaks, loss and reordering on demand.
package sim

import (
	"encoding/binary"

	"github.com/tamzrod/ecatlink/internal/ecat"
)

const regAreaLength = 0x1000

// Slave is one simulated slave controller with a flat register space.
type Slave struct {
	Station uint16
	Mem     [regAreaLength]byte
}

// NewSlave returns a slave carrying an ET1100-like signature in its first
// registers.
func NewSlave(station uint16) *Slave {
	s := &Slave{Station: station}
	copy(s.Mem[:0x10], []byte{0x11, 0x00, 0x02, 0x00, 0x08, 0x08, 0x08, 0x0b, 0xfc})
	binary.LittleEndian.PutUint16(s.Mem[0x0010:], station)
	return s
}

// process runs one datagram through the slave on its forward path.
func (s *Slave) process(dh *ecat.DatagramHeader, data, wkc []byte) {
	addressed := false

	switch dh.Command {
	case ecat.BRD, ecat.BWR, ecat.BRW:
		addressed = true
	case ecat.APRD, ecat.APWR, ecat.APRW:
		addressed = dh.ADP == 0
		dh.ADP++
	case ecat.FPRD, ecat.FPWR, ecat.FPRW:
		addressed = dh.ADP == s.Station
	default:
		// logical and NOP datagrams pass through untouched
		return
	}
	if !addressed {
		return
	}

	start := int(dh.ADO)
	end := start + len(data)
	if end > len(s.Mem) {
		return
	}

	mem := s.Mem[start:end]
	inc := uint16(1)
	switch {
	case dh.Command == ecat.BRD:
		// broadcast reads OR together every slave's content
		for i := range data {
			data[i] |= mem[i]
		}
	case dh.Command.Reads() && dh.Command.Writes():
		for i := range data {
			data[i], mem[i] = mem[i], data[i]
		}
		inc = 3
	case dh.Command.Reads():
		copy(data, mem)
	case dh.Command.Writes():
		copy(mem, data)
	}

	binary.LittleEndian.PutUint16(wkc, binary.LittleEndian.Uint16(wkc)+inc)
}
