// internal/poller/poller.go
package poller

import (
	"errors"
	"fmt"
	"time"

	"github.com/tamzrod/ecatlink/internal/ecat"
)

// ErrNoResponder means a datagram came back but no slave processed it.
var ErrNoResponder = errors.New("poller: no slave answered")

// Client abstracts the single datagram exchange the poller needs.
// data is sent as the datagram payload; out is the payload that returned.
type Client interface {
	Exchange(cmd ecat.Command, adp, ado uint16, data []byte) (wkc uint16, out []byte, err error)
}

// Config is the minimal runtime config the poller needs.
type Config struct {
	Master   string
	Interval time.Duration
	Reads    []ReadBlock
}

// Poller is a dumb, clock-driven reader.
type Poller struct {
	cfg    Config
	client Client
}

// New creates a poller with immutable config.
func New(cfg Config, client Client) (*Poller, error) {
	if cfg.Master == "" {
		return nil, errors.New("poller: master name required")
	}
	if cfg.Interval <= 0 {
		return nil, errors.New("poller: interval must be > 0")
	}
	if len(cfg.Reads) == 0 {
		return nil, errors.New("poller: at least one read block required")
	}
	if client == nil {
		return nil, errors.New("poller: client required")
	}
	for _, rb := range cfg.Reads {
		if !rb.Command.Reads() || rb.Length == 0 {
			return nil, fmt.Errorf("poller: %s length %d is not a read", rb.Command, rb.Length)
		}
	}
	return &Poller{cfg: cfg, client: client}, nil
}

// PollOnce performs exactly one poll cycle.
// All-or-nothing: any failure aborts the cycle.
func (p *Poller) PollOnce() (res PollResult) {
	res = PollResult{
		Master: p.cfg.Master,
		At:     time.Now(),
	}
	defer func() { res.Duration = time.Since(res.At) }()

	var blocks []BlockResult

	for _, rb := range p.cfg.Reads {
		wkc, data, err := p.client.Exchange(rb.Command, rb.ADP, rb.ADO, make([]byte, rb.Length))
		if err == nil && wkc == 0 {
			err = ErrNoResponder
		}
		if err != nil {
			res.Err = fmt.Errorf("%s adp=0x%04x ado=0x%04x: %w", rb.Command, rb.ADP, rb.ADO, err)
			return res
		}

		blocks = append(blocks, BlockResult{
			Command:     rb.Command,
			ADP:         rb.ADP,
			ADO:         rb.ADO,
			Workcounter: wkc,
			Data:        data,
		})
	}

	// Commit only if all reads succeeded
	res.Blocks = blocks
	return res
}
