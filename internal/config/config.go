// internal/config/config.go
package config

import "time"

type Config struct {
	Master  MasterConfig  `yaml:"master" toml:"master"`
	Probe   ProbeConfig   `yaml:"probe" toml:"probe"`
	Status  *StatusConfig `yaml:"status" toml:"status"` // optional Modbus status publisher
	Metrics MetricsConfig `yaml:"metrics" toml:"metrics"`
	Log     LogConfig     `yaml:"log" toml:"log"`
	Sim     SimConfig     `yaml:"sim" toml:"sim"`
}

// ---- MASTER ----

const (
	LinkRaw = "raw"
	LinkSim = "sim"
)

type MasterConfig struct {
	Name               string `yaml:"name" toml:"name"`
	Interface          string `yaml:"interface" toml:"interface"`
	RedundantInterface string `yaml:"redundant_interface" toml:"redundant_interface"`
	Link               string `yaml:"link" toml:"link"` // raw | sim

	ReturnTimeoutUs int `yaml:"return_timeout_us" toml:"return_timeout_us"`
	PollIntervalUs  int `yaml:"poll_interval_us" toml:"poll_interval_us"`
}

func (m MasterConfig) ReturnTimeout() time.Duration {
	return time.Duration(m.ReturnTimeoutUs) * time.Microsecond
}

func (m MasterConfig) PollInterval() time.Duration {
	return time.Duration(m.PollIntervalUs) * time.Microsecond
}

// ---- PROBE ----

type ProbeConfig struct {
	IntervalMs int          `yaml:"interval_ms" toml:"interval_ms"`
	TimeoutUs  int          `yaml:"timeout_us" toml:"timeout_us"`
	Reads      []ReadConfig `yaml:"reads" toml:"reads"`
}

func (p ProbeConfig) Interval() time.Duration {
	return time.Duration(p.IntervalMs) * time.Millisecond
}

func (p ProbeConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutUs) * time.Microsecond
}

// ReadConfig is one register read datagram: BRD, APRD or FPRD.
type ReadConfig struct {
	Command string `yaml:"command" toml:"command"`
	ADP     uint16 `yaml:"adp" toml:"adp"`
	ADO     uint16 `yaml:"ado" toml:"ado"`
	Length  uint16 `yaml:"length" toml:"length"`
}

// ---- STATUS ----

type StatusConfig struct {
	Endpoint   string `yaml:"endpoint" toml:"endpoint"`
	UnitID     uint8  `yaml:"unit_id" toml:"unit_id"`
	Slot       uint16 `yaml:"slot" toml:"slot"`
	DeviceName string `yaml:"device_name" toml:"device_name"`
	TimeoutMs  int    `yaml:"timeout_ms" toml:"timeout_ms"`
}

// ---- METRICS / LOG ----

type MetricsConfig struct {
	Listen string `yaml:"listen" toml:"listen"` // empty disables the endpoint
}

type LogConfig struct {
	Level string `yaml:"level" toml:"level"`
}

// ---- SIMULATED SEGMENT ----

type SimConfig struct {
	Slaves    int  `yaml:"slaves" toml:"slaves"`
	Redundant bool `yaml:"redundant" toml:"redundant"`
	BreakAt   *int `yaml:"break_at" toml:"break_at"`
	Reorder   bool `yaml:"reorder" toml:"reorder"`
}
