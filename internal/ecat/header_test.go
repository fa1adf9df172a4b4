package ecat

import (
	"testing"
)

func TestSetupHeaderAndParse(t *testing.T) {
	frame := make([]byte, 64)
	if err := SetupHeader(frame); err != nil {
		t.Fatalf("SetupHeader err=%v", err)
	}

	for i := 0; i < 6; i++ {
		if frame[i] != 0xff {
			t.Fatalf("destination byte %d not broadcast: %#x", i, frame[i])
		}
	}
	if frame[12] != 0x88 || frame[13] != 0xa4 {
		t.Fatalf("ethertype bytes: %#x %#x", frame[12], frame[13])
	}

	r, err := ParseFrame(frame)
	if err != nil {
		t.Fatalf("ParseFrame err=%v", err)
	}
	if !r.IsECAT() {
		t.Fatalf("expected EtherCAT frame, got type %#x", uint16(r.EtherType))
	}
	if r.Route != RoutePrimary {
		t.Fatalf("route: got=%#x want=%#x", r.Route, RoutePrimary)
	}
	if len(r.Payload) != len(frame)-EthHeaderSize {
		t.Fatalf("payload length: got=%d want=%d", len(r.Payload), len(frame)-EthHeaderSize)
	}

	if err := SetSource(frame, SecondaryMAC); err != nil {
		t.Fatalf("SetSource err=%v", err)
	}
	r, err = ParseFrame(frame)
	if err != nil {
		t.Fatalf("ParseFrame err=%v", err)
	}
	if r.Route != RouteSecondary {
		t.Fatalf("route after SetSource: got=%#x want=%#x", r.Route, RouteSecondary)
	}
}

func TestParseFrameTooShort(t *testing.T) {
	if _, err := ParseFrame(make([]byte, 10)); err == nil {
		t.Fatalf("expected error for truncated header")
	}
}

func TestRouteTag(t *testing.T) {
	if RouteTag(PrimaryMAC) != RoutePrimary {
		t.Fatalf("primary tag mismatch")
	}
	if RouteTag(SecondaryMAC) != RouteSecondary {
		t.Fatalf("secondary tag mismatch")
	}
	if RouteTag(nil) != 0 {
		t.Fatalf("nil mac should give zero tag")
	}
}
