//go:build !linux

package link

import (
	"github.com/pkg/errors"
)

// RawDevice is unavailable off Linux.
type RawDevice struct{}

// Open always fails: AF_PACKET sockets exist only on Linux.
func Open(name string) (*RawDevice, error) {
	return nil, errors.Errorf("link: raw EtherCAT sockets are not supported on this platform (interface %s)", name)
}

func (d *RawDevice) Name() string                { return "" }
func (d *RawDevice) Send(frame []byte) error     { return errors.New("link: unsupported") }
func (d *RawDevice) Recv(buf []byte) (int, error) { return 0, errors.New("link: unsupported") }
func (d *RawDevice) Close() error                { return nil }
