// internal/poller/builder.go
package poller

import (
	"fmt"

	"github.com/tamzrod/ecatlink/internal/config"
	"github.com/tamzrod/ecatlink/internal/ecat"
)

// Build constructs a Poller from validated, normalized configuration.
// The client owns link lifecycle; the poller never closes it.
func Build(c *config.Config, client Client) (*Poller, error) {
	reads := make([]ReadBlock, 0, len(c.Probe.Reads))
	for i, r := range c.Probe.Reads {
		cmd, err := ecat.ParseCommand(r.Command)
		if err != nil {
			return nil, fmt.Errorf("poller: read %d: %w", i, err)
		}
		reads = append(reads, ReadBlock{
			Command: cmd,
			ADP:     r.ADP,
			ADO:     r.ADO,
			Length:  r.Length,
		})
	}

	return New(
		Config{
			Master:   c.Master.Name,
			Interval: c.Probe.Interval(),
			Reads:    reads,
		},
		client,
	)
}
