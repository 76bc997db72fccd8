package protocol

import "testing"

func TestDetectFormatCaseInsensitive(t *testing.T) {
	cases := map[string]Format{
		"a.vcd": FormatVCD,
		"a.VCD": FormatVCD,
		"a.fst": FormatFST,
		"a.FsT": FormatFST,
	}
	for name, want := range cases {
		ext := name[len(name)-3:]
		got, ok := DetectFormat(ext)
		if !ok || got != want {
			t.Fatalf("DetectFormat(%q) = (%v, %v), want (%v, true)", ext, got, ok, want)
		}
	}
	if _, ok := DetectFormat("txt"); ok {
		t.Fatalf("txt should not be a recognised waveform format")
	}
}

func TestSignalIDRoundTrip(t *testing.T) {
	id := SignalID("/t/a.vcd", "top.sub", "clk")
	file, scope, variable, ok := SplitSignalID(id)
	if !ok || file != "/t/a.vcd" || scope != "top.sub" || variable != "clk" {
		t.Fatalf("round trip failed: %q %q %q %v", file, scope, variable, ok)
	}
}

func TestDefaultFormatForWidth(t *testing.T) {
	if got := DefaultFormatFor(Signal{WidthBits: 1}); got != FormatBinary {
		t.Fatalf("1-bit signal should default to binary, got %v", got)
	}
	if got := DefaultFormatFor(Signal{WidthBits: 32, Name: "clk"}); got != FormatHexadecimal {
		t.Fatalf("plain wide signal should default to hex, got %v", got)
	}
	if got := DefaultFormatFor(Signal{WidthBits: 32, Name: "counter_signed"}); got != FormatSigned {
		t.Fatalf("signed-hinted name should default to signed, got %v", got)
	}
}

func TestPlanMigration(t *testing.T) {
	if s := PlanMigration(CurrentConfigVersion); s.Kind != MigrationNone {
		t.Fatalf("current version should need no migration")
	}
	if s := PlanMigration(1); s.Kind != MigrationUpgrade {
		t.Fatalf("older known version should upgrade")
	}
	if s := PlanMigration(999); s.Kind != MigrationRecreate {
		t.Fatalf("unknown future version should recreate, not crash")
	}
	if s := PlanMigration(0); s.Kind != MigrationRecreate {
		t.Fatalf("version 0 should recreate")
	}
}
