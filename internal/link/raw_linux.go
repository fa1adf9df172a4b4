//go:build linux

package link

import (
	"net"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/tamzrod/ecatlink/internal/ecat"
)

// RawDevice is a non-blocking AF_PACKET socket receiving only EtherCAT
// frames on one interface.
type RawDevice struct {
	mu     sync.Mutex
	fd     int
	name   string
	sa     unix.SockaddrLinklayer
	closed bool
}

// Open binds a raw socket to the named interface in promiscuous mode.
func Open(name string) (*RawDevice, error) {
	ifi, err := net.InterfaceByName(name)
	if err != nil {
		return nil, errors.Wrapf(err, "link: interface %s", name)
	}

	proto := htons(uint16(ecat.EtherType))

	fd, err := unix.Socket(unix.AF_PACKET, unix.SOCK_RAW|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, int(proto))
	if err != nil {
		return nil, errors.Wrapf(err, "link: socket on %s", name)
	}

	// EtherCAT is never routed.
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_DONTROUTE, 1); err != nil {
		unix.Close(fd)
		return nil, errors.Wrapf(err, "link: SO_DONTROUTE on %s", name)
	}

	sa := unix.SockaddrLinklayer{
		Protocol: proto,
		Ifindex:  ifi.Index,
	}
	if err := unix.Bind(fd, &sa); err != nil {
		unix.Close(fd)
		return nil, errors.Wrapf(err, "link: bind %s", name)
	}

	// Frames return with the master's fake source MAC, not addressed to the NIC.
	mreq := unix.PacketMreq{
		Ifindex: int32(ifi.Index),
		Type:    unix.PACKET_MR_PROMISC,
	}
	if err := unix.SetsockoptPacketMreq(fd, unix.SOL_PACKET, unix.PACKET_ADD_MEMBERSHIP, &mreq); err != nil {
		unix.Close(fd)
		return nil, errors.Wrapf(err, "link: promiscuous mode on %s", name)
	}

	return &RawDevice{fd: fd, name: name, sa: sa}, nil
}

func (d *RawDevice) Name() string { return d.name }

// Send hands one frame to the kernel. A nil error means the frame was
// accepted for transmission, not that it came back.
func (d *RawDevice) Send(frame []byte) error {
	if err := unix.Sendto(d.fd, frame, 0, &d.sa); err != nil {
		return errors.Wrapf(err, "link: send on %s", d.name)
	}
	return nil
}

// Recv copies one pending frame into buf. Returns 0, nil when none is queued.
func (d *RawDevice) Recv(buf []byte) (int, error) {
	n, _, err := unix.Recvfrom(d.fd, buf, unix.MSG_DONTWAIT)
	switch err {
	case nil:
		return n, nil
	case unix.EAGAIN, unix.EINTR:
		return 0, nil
	default:
		return 0, errors.Wrapf(err, "link: receive on %s", d.name)
	}
}

func (d *RawDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true
	return unix.Close(d.fd)
}

func htons(v uint16) uint16 {
	return v<<8 | v>>8
}
