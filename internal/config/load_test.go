// internal/config/load_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kylelemons/godebug/pretty"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "ecatlink.yaml", `
master:
  name: line-1
  interface: eth1
  redundant_interface: eth2
  return_timeout_us: 1500
probe:
  interval_ms: 250
  reads:
    - command: BRD
      ado: 0x0130
      length: 2
    - command: FPRD
      adp: 0x1001
      ado: 0x0010
      length: 2
status:
  endpoint: 127.0.0.1:502
  unit_id: 1
  slot: 2
  device_name: LINE-1
log:
  level: debug
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Master.RedundantInterface != "eth2" || cfg.Master.ReturnTimeoutUs != 1500 {
		t.Fatalf("master = %+v", cfg.Master)
	}
	wantReads := []ReadConfig{
		{Command: "BRD", ADO: 0x0130, Length: 2},
		{Command: "FPRD", ADP: 0x1001, ADO: 0x0010, Length: 2},
	}
	if diff := pretty.Compare(cfg.Probe.Reads, wantReads); diff != "" {
		t.Fatalf("reads: (-got +want)\n%s", diff)
	}
	if cfg.Status == nil || cfg.Status.Slot != 2 || cfg.Status.UnitID != 1 {
		t.Fatalf("status = %+v", cfg.Status)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("log level = %q", cfg.Log.Level)
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("loaded config does not validate: %v", err)
	}
}

func TestLoad_TOML(t *testing.T) {
	path := writeFile(t, "ecatlink.toml", `
[master]
link = "sim"

[sim]
slaves = 4
redundant = true
break_at = 2

[probe]
interval_ms = 100

[[probe.reads]]
command = "BRD"
ado = 0x0000
length = 1

[metrics]
listen = ":9108"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Master.Link != LinkSim || cfg.Sim.Slaves != 4 || !cfg.Sim.Redundant {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.Sim.BreakAt == nil || *cfg.Sim.BreakAt != 2 {
		t.Fatalf("break_at = %v", cfg.Sim.BreakAt)
	}
	if cfg.Status != nil {
		t.Fatalf("status should stay unset")
	}
	if cfg.Metrics.Listen != ":9108" {
		t.Fatalf("metrics = %+v", cfg.Metrics)
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("loaded config does not validate: %v", err)
	}
}

func TestLoad_UnknownKey(t *testing.T) {
	for name, body := range map[string]string{
		"bad.yaml": "master:\n  iface: eth0\n",
		"bad.toml": "[master]\niface = \"eth0\"\n",
	} {
		if _, err := Load(writeFile(t, name, body)); err == nil {
			t.Fatalf("%s: expected unknown key error, got nil", name)
		}
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error, got nil")
	}
}
