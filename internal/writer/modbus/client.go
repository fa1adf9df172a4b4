// internal/writer/modbus/client.go
package modbus

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goburrow/modbus"
)

// maxWriteRegs is the function 16 limit for one request.
const maxWriteRegs = 123

// StatusClient publishes register blocks to one Modbus TCP server.
// Requests are serialized because SlaveId is set per write.
type StatusClient struct {
	mu       sync.Mutex
	endpoint string
	handler  *modbus.TCPClientHandler
	send     func(addr, qty uint16, payload []byte) error
}

type Config struct {
	Endpoint string
	Timeout  time.Duration
}

// NewStatusClient prepares the connection without dialing. The handler
// dials on first use, so a status server that starts late does not keep
// the master down.
func NewStatusClient(cfg Config) (*StatusClient, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("writer modbus: endpoint required")
	}

	h := modbus.NewTCPClientHandler(cfg.Endpoint)
	h.Timeout = cfg.Timeout
	cli := modbus.NewClient(h)

	return &StatusClient{
		endpoint: cfg.Endpoint,
		handler:  h,
		send: func(addr, qty uint16, payload []byte) error {
			_, err := cli.WriteMultipleRegisters(addr, qty, payload)
			return err
		},
	}, nil
}

func (c *StatusClient) Endpoint() string { return c.endpoint }

func (c *StatusClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handler.Close()
}

// WriteRegisters writes holding registers, split into as many requests as
// the protocol needs. A failed request drops the connection so the next
// call starts from a fresh dial.
func (c *StatusClient) WriteRegisters(unitID uint8, addr uint16, regs []uint16) error {
	if len(regs) == 0 {
		return nil
	}
	if int(addr)+len(regs) > 0x10000 {
		return fmt.Errorf("writer modbus: %d registers at %d overrun the register space", len(regs), addr)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.handler.SlaveId = unitID

	for len(regs) > 0 {
		n := min(len(regs), maxWriteRegs)
		if err := c.send(addr, uint16(n), packRegisters(regs[:n])); err != nil {
			_ = c.handler.Close()
			return fmt.Errorf("writer modbus: %s unit %d register %d: %w", c.endpoint, unitID, addr, err)
		}
		regs = regs[n:]
		addr += uint16(n)
	}
	return nil
}

// packRegisters encodes registers big-endian, high byte first.
func packRegisters(regs []uint16) []byte {
	out := make([]byte, 0, len(regs)*2)
	for _, r := range regs {
		out = append(out, byte(r>>8), byte(r))
	}
	return out
}
