// Package link provides the physical side of a port: raw EtherCAT sockets
// bound to a named network interface, and adapter enumeration.
package link

import (
	"fmt"
	"net"
	"strings"

	"github.com/pkg/errors"
)

// Adapter is one network interface a port can be opened on.
type Adapter struct {
	Name         string
	Desc         string
	Index        int
	HardwareAddr net.HardwareAddr
	Up           bool
}

// FindAdapters lists interfaces that have an Ethernet hardware address.
func FindAdapters() ([]Adapter, error) {
	ifs, err := net.Interfaces()
	if err != nil {
		return nil, errors.Wrap(err, "link: list interfaces")
	}

	out := make([]Adapter, 0, len(ifs))
	for _, ifi := range ifs {
		if ifi.Flags&net.FlagLoopback != 0 || len(ifi.HardwareAddr) != 6 {
			continue
		}
		out = append(out, Adapter{
			Name:         ifi.Name,
			Desc:         describe(ifi),
			Index:        ifi.Index,
			HardwareAddr: ifi.HardwareAddr,
			Up:           ifi.Flags&net.FlagUp != 0,
		})
	}
	return out, nil
}

// LookupAdapter finds an adapter by interface name.
func LookupAdapter(name string) (Adapter, error) {
	all, err := FindAdapters()
	if err != nil {
		return Adapter{}, err
	}
	for _, a := range all {
		if a.Name == name {
			return a, nil
		}
	}
	return Adapter{}, fmt.Errorf("link: adapter %q not found", name)
}

func describe(ifi net.Interface) string {
	var flags []string
	if ifi.Flags&net.FlagUp != 0 {
		flags = append(flags, "up")
	} else {
		flags = append(flags, "down")
	}
	if ifi.Flags&net.FlagBroadcast != 0 {
		flags = append(flags, "broadcast")
	}
	return fmt.Sprintf("%s mtu=%d [%s]", ifi.HardwareAddr, ifi.MTU, strings.Join(flags, ","))
}
