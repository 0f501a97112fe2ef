package config

import (
	"testing"

	"github.com/xplshn/plc0/pkg/cli"
)

func TestDefaults(t *testing.T) {
	cfg := NewConfig()
	if cfg.IsFeatureEnabled(FeatReserveSlots) {
		t.Error("reserve-slots is on by default")
	}
	want := map[Warning]bool{WarnUnused: true, WarnSlotGap: false, WarnEmptyStmt: false, WarnPedantic: false}
	for wt, on := range want {
		if cfg.IsWarningEnabled(wt) != on {
			t.Errorf("warning %s enabled = %v; want %v", cfg.Warnings[wt].Name, !on, on)
		}
	}
	if cfg.StdName != "plc0" || cfg.BackendName != "vm" {
		t.Errorf("std/backend = %s/%s; want plc0/vm", cfg.StdName, cfg.BackendName)
	}
	if ft, ok := cfg.FeatureMap["reserve-slots"]; !ok || ft != FeatReserveSlots {
		t.Error("FeatureMap lacks reserve-slots")
	}
	if wt, ok := cfg.WarningMap["slot-gap"]; !ok || wt != WarnSlotGap {
		t.Error("WarningMap lacks slot-gap")
	}
}

func TestApplyStd(t *testing.T) {
	cfg := NewConfig()
	if err := cfg.ApplyStd("strict"); err != nil {
		t.Fatal(err)
	}
	if !cfg.IsFeatureEnabled(FeatReserveSlots) {
		t.Error("strict does not reserve slots")
	}
	for i := Warning(0); i < WarnCount; i++ {
		if !cfg.IsWarningEnabled(i) {
			t.Errorf("strict leaves %s off", cfg.Warnings[i].Name)
		}
	}
	if err := cfg.ApplyStd("plc0"); err != nil || cfg.IsFeatureEnabled(FeatReserveSlots) {
		t.Errorf("plc0 std: err=%v reserve-slots=%v", err, cfg.IsFeatureEnabled(FeatReserveSlots))
	}
	if err := cfg.ApplyStd("c89"); err == nil {
		t.Error("unknown std accepted")
	}
}

func TestSetAllWarningsSkipsPedantic(t *testing.T) {
	cfg := NewConfig()
	cfg.SetAllWarnings(true)
	if cfg.IsWarningEnabled(WarnPedantic) {
		t.Error("SetAllWarnings enabled pedantic")
	}
	if !cfg.IsWarningEnabled(WarnSlotGap) {
		t.Error("SetAllWarnings left slot-gap off")
	}
}

func TestSetTarget(t *testing.T) {
	tests := []struct {
		target, name, sub string
		wantErr           bool
	}{
		{"", "vm", "", false},
		{"vm", "vm", "", false},
		{"llvm", "llvm", "", false},
		{"llvm/aarch64-linux-gnu", "llvm", "aarch64-linux-gnu", false},
		{"qbe/rv64", "qbe", "rv64", false},
		{"gcc", "", "", true},
	}
	for _, tt := range tests {
		cfg := NewConfig()
		err := cfg.SetTarget("linux", "amd64", tt.target)
		if (err != nil) != tt.wantErr {
			t.Errorf("SetTarget(%q) error = %v", tt.target, err)
			continue
		}
		if !tt.wantErr && (cfg.BackendName != tt.name || cfg.BackendTarget != tt.sub) {
			t.Errorf("SetTarget(%q) = %s/%s; want %s/%s", tt.target, cfg.BackendName, cfg.BackendTarget, tt.name, tt.sub)
		}
	}

	cfg := NewConfig()
	if err := cfg.SetTarget("linux", "amd64", "qbe"); err != nil {
		t.Fatal(err)
	}
	if cfg.BackendTarget == "" {
		t.Error("qbe without a target did not pick the host default")
	}
}

func TestFlagGroups(t *testing.T) {
	cfg := NewConfig()
	fs := cli.NewFlagSet("test")
	warningFlags, featureFlags := cfg.SetupFlagGroups(fs)
	if err := fs.Parse([]string{"-Wslot-gap", "-Wno-unused", "-Freserve-slots", "prog.plc0"}); err != nil {
		t.Fatal(err)
	}
	cfg.ApplyFlagGroups(warningFlags, featureFlags)

	if !cfg.IsWarningEnabled(WarnSlotGap) || cfg.IsWarningEnabled(WarnUnused) {
		t.Errorf("slot-gap=%v unused=%v; want true/false", cfg.IsWarningEnabled(WarnSlotGap), cfg.IsWarningEnabled(WarnUnused))
	}
	if !cfg.IsFeatureEnabled(FeatReserveSlots) {
		t.Error("-Freserve-slots ignored")
	}
	if args := fs.Args(); len(args) != 1 || args[0] != "prog.plc0" {
		t.Errorf("Args() = %v", args)
	}
}
