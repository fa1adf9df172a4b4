// internal/poller/nic/client.go
package nic

import (
	"errors"
	"fmt"
	"time"

	"github.com/tamzrod/ecatlink/internal/ecat"
	"github.com/tamzrod/ecatlink/internal/nicdrv"
)

// Client runs poller exchanges as confirmed datagrams on a frame port.
// Any number of goroutines may share one Client.
type Client struct {
	port    *nicdrv.Port
	timeout time.Duration
}

type Config struct {
	// Timeout bounds one exchange including retransmissions.
	// Zero means nicdrv.TimeoutSafe.
	Timeout time.Duration
}

func New(port *nicdrv.Port, cfg Config) (*Client, error) {
	if port == nil {
		return nil, errors.New("poller nic: port required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = nicdrv.TimeoutSafe
	}
	return &Client{port: port, timeout: cfg.Timeout}, nil
}

// Exchange sends one datagram in its own slot and waits for it to return.
// The slot is handed back before returning, answered or not.
func (c *Client) Exchange(cmd ecat.Command, adp, ado uint16, data []byte) (uint16, []byte, error) {
	idx, err := c.port.GetIndex()
	if err != nil {
		return 0, nil, err
	}
	defer c.port.Release(idx)

	if err := c.port.SetupDatagram(idx, cmd, adp, ado, data); err != nil {
		return 0, nil, fmt.Errorf("poller nic: %w", err)
	}

	wkc, err := c.port.SRConfirm(idx, c.timeout)
	if err != nil {
		return 0, nil, err
	}

	rx, err := c.port.RxBuffer(idx)
	if err != nil {
		return 0, nil, err
	}
	out, err := ecat.DatagramData(rx)
	if err != nil {
		return 0, nil, fmt.Errorf("poller nic: %w", err)
	}

	// rx is reused once the slot is released
	return wkc, append([]byte(nil), out...), nil
}
