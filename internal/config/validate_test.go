// internal/config/validate_test.go
package config

import "testing"

// helper to build a minimal valid configuration
func valid() *Config {
	return &Config{
		Master: MasterConfig{
			Interface: "eth0",
		},
		Probe: ProbeConfig{
			Reads: []ReadConfig{
				{Command: "BRD", ADO: 0x0130, Length: 2},
			},
		},
	}
}

func intPtr(v int) *int { return &v }

// ---- tests ----

func TestValidate_Minimal(t *testing.T) {
	if err := Validate(valid()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_Nil(t *testing.T) {
	if err := Validate(nil); err == nil {
		t.Fatalf("expected error, got nil")
	}
}

func TestValidate_RawNeedsInterface(t *testing.T) {
	cfg := valid()
	cfg.Master.Interface = ""

	if err := Validate(cfg); err == nil {
		t.Fatalf("expected missing interface error, got nil")
	}
}

func TestValidate_RedundantSameInterface(t *testing.T) {
	cfg := valid()
	cfg.Master.RedundantInterface = "eth0"

	if err := Validate(cfg); err == nil {
		t.Fatalf("expected redundant interface error, got nil")
	}
}

func TestValidate_UnknownLink(t *testing.T) {
	cfg := valid()
	cfg.Master.Link = "pcap"

	if err := Validate(cfg); err == nil {
		t.Fatalf("expected unknown link error, got nil")
	}
}

func TestValidate_SimSegment(t *testing.T) {
	cfg := valid()
	cfg.Master.Link = LinkSim
	cfg.Master.Interface = ""
	cfg.Sim = SimConfig{Slaves: 3, Redundant: true, BreakAt: intPtr(3)}

	if err := Validate(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg.Sim.BreakAt = intPtr(4)
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected break_at range error, got nil")
	}

	cfg.Sim = SimConfig{}
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected slave count error, got nil")
	}
}

func TestValidate_NoReads(t *testing.T) {
	cfg := valid()
	cfg.Probe.Reads = nil

	if err := Validate(cfg); err == nil {
		t.Fatalf("expected missing reads error, got nil")
	}
}

func TestValidate_ReadCommands(t *testing.T) {
	for _, c := range []struct {
		cmd string
		ok  bool
	}{
		{"BRD", true},
		{"aprd", true},
		{"FPRD", true},
		{"FPWR", false},
		{"LRW", false},
		{"XYZ", false},
	} {
		cfg := valid()
		cfg.Probe.Reads[0].Command = c.cmd

		err := Validate(cfg)
		if c.ok && err != nil {
			t.Fatalf("%s: unexpected error: %v", c.cmd, err)
		}
		if !c.ok && err == nil {
			t.Fatalf("%s: expected error, got nil", c.cmd)
		}
	}
}

func TestValidate_ReadGeometry(t *testing.T) {
	cfg := valid()
	cfg.Probe.Reads[0].Length = 0
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected zero length error, got nil")
	}

	cfg = valid()
	cfg.Probe.Reads[0].Length = 1500
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected oversize error, got nil")
	}

	cfg = valid()
	cfg.Probe.Reads[0].ADO = 0xFFFF
	cfg.Probe.Reads[0].Length = 2
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected register space error, got nil")
	}

	// last register exactly
	cfg.Probe.Reads[0].Length = 1
	if err := Validate(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_StatusBlock(t *testing.T) {
	cfg := valid()
	cfg.Status = &StatusConfig{Endpoint: "127.0.0.1:502", Slot: 3, DeviceName: "LINE-A"}
	if err := Validate(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg.Status.DeviceName = "LINÉ"
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected ASCII error, got nil")
	}

	cfg.Status.DeviceName = ""
	cfg.Status.Slot = 3276
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected slot range error, got nil")
	}

	cfg.Status.Slot = 3275
	if err := Validate(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg.Status.Endpoint = ""
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected missing endpoint error, got nil")
	}
}
