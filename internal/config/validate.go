// internal/config/validate.go
package config

import (
	"fmt"
	"strings"

	"github.com/tamzrod/ecatlink/internal/ecat"
	"github.com/tamzrod/ecatlink/internal/status"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	// ------------------------------------------------------------
	// MASTER
	// ------------------------------------------------------------

	m := cfg.Master
	switch m.Link {
	case "", LinkRaw:
		if m.Interface == "" {
			return fmt.Errorf("master: interface is required for raw links")
		}
		if m.RedundantInterface != "" && m.RedundantInterface == m.Interface {
			return fmt.Errorf(
				"master: redundant_interface %q must differ from interface",
				m.RedundantInterface,
			)
		}
	case LinkSim:
		if cfg.Sim.Slaves < 1 {
			return fmt.Errorf("sim: slaves must be >= 1, got %d", cfg.Sim.Slaves)
		}
		if b := cfg.Sim.BreakAt; b != nil && (*b < 0 || *b > cfg.Sim.Slaves) {
			return fmt.Errorf(
				"sim: break_at %d outside 0..%d",
				*b,
				cfg.Sim.Slaves,
			)
		}
	default:
		return fmt.Errorf("master: unknown link %q (want raw or sim)", m.Link)
	}

	if m.ReturnTimeoutUs < 0 || m.PollIntervalUs < 0 {
		return fmt.Errorf("master: timeouts must be >= 0")
	}

	// ------------------------------------------------------------
	// PROBE READS
	// ------------------------------------------------------------

	p := cfg.Probe
	if p.IntervalMs < 0 || p.TimeoutUs < 0 {
		return fmt.Errorf("probe: interval and timeout must be >= 0")
	}
	if len(p.Reads) == 0 {
		return fmt.Errorf("probe: at least one read is required")
	}

	for i, r := range p.Reads {
		cmd, err := ecat.ParseCommand(strings.ToUpper(r.Command))
		if err != nil {
			return fmt.Errorf("probe read %d: %w", i, err)
		}
		switch cmd {
		case ecat.BRD, ecat.APRD, ecat.FPRD:
		default:
			return fmt.Errorf(
				"probe read %d: command %s is not a register read (BRD, APRD, FPRD)",
				i,
				cmd,
			)
		}

		if r.Length == 0 {
			return fmt.Errorf("probe read %d: length must be > 0", i)
		}
		if int(r.Length) > ecat.MaxDataLen {
			return fmt.Errorf(
				"probe read %d: length %d exceeds %d",
				i,
				r.Length,
				ecat.MaxDataLen,
			)
		}
		if int(r.ADO)+int(r.Length) > 0x10000 {
			return fmt.Errorf(
				"probe read %d: ado=0x%04x length=%d runs past the register space",
				i,
				r.ADO,
				r.Length,
			)
		}
	}

	// ------------------------------------------------------------
	// DEVICE STATUS BLOCK (OPT-IN)
	// ------------------------------------------------------------

	if s := cfg.Status; s != nil {
		if s.Endpoint == "" {
			return fmt.Errorf("status: endpoint is required")
		}
		if s.TimeoutMs < 0 {
			return fmt.Errorf("status: timeout_ms must be >= 0")
		}

		// device_name sanity (ASCII only)
		for i := 0; i < len(s.DeviceName); i++ {
			if s.DeviceName[i] > 0x7F {
				return fmt.Errorf("status: device_name must contain ASCII characters only")
			}
		}

		// the whole block has to be addressable
		last := int(s.Slot)*status.SlotsPerDevice + status.SlotsPerDevice - 1
		if last > 0xFFFF {
			return fmt.Errorf(
				"status: slot %d places the block beyond register 65535",
				s.Slot,
			)
		}
	}

	return nil
}
