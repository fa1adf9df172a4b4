// internal/config/normalize.go
package config

import "strings"

const (
	defaultReturnTimeoutUs = 2000
	defaultProbeIntervalMs = 1000
	defaultProbeTimeoutUs  = 20000
	defaultStatusTimeoutMs = 1000
	defaultMasterName      = "ecat0"

	// 8 registers of 2 characters
	maxDeviceNameLen = 16
)

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	// ------------------------------------------------------------
	// MASTER DEFAULTS
	// ------------------------------------------------------------

	m := &cfg.Master
	if m.Link == "" {
		m.Link = LinkRaw
	}
	if m.Name == "" {
		m.Name = m.Interface
	}
	if m.Name == "" {
		m.Name = defaultMasterName
	}
	if m.ReturnTimeoutUs == 0 {
		m.ReturnTimeoutUs = defaultReturnTimeoutUs
	}

	// ------------------------------------------------------------
	// PROBE
	// ------------------------------------------------------------

	p := &cfg.Probe
	if p.IntervalMs == 0 {
		p.IntervalMs = defaultProbeIntervalMs
	}
	if p.TimeoutUs == 0 {
		p.TimeoutUs = defaultProbeTimeoutUs
	}
	for i := range p.Reads {
		p.Reads[i].Command = strings.ToUpper(p.Reads[i].Command)
	}

	// ------------------------------------------------------------
	// DEVICE STATUS BLOCK (OPT-IN)
	// ------------------------------------------------------------

	if s := cfg.Status; s != nil {
		if s.TimeoutMs == 0 {
			s.TimeoutMs = defaultStatusTimeoutMs
		}

		// Normalize device_name:
		// - ASCII already validated
		// - Truncate to max 16 characters
		if len(s.DeviceName) > maxDeviceNameLen {
			s.DeviceName = s.DeviceName[:maxDeviceNameLen]
		}
	}
}
