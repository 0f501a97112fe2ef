//go:build !windows

package codegen

import (
	"regexp"
	"testing"

	"github.com/xplshn/plc0/pkg/config"
)

func TestQBEGenerateAssembles(t *testing.T) {
	cfg := config.NewConfig()
	if err := cfg.SetTarget("linux", "amd64", "qbe/amd64_sysv"); err != nil {
		t.Fatal(err)
	}
	asm, err := NewQBEBackend().Generate(compile(t, sample), cfg)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if !regexp.MustCompile(`(?m)^main:`).Match(asm.Bytes()) {
		t.Errorf("assembly has no main label:\n%s", asm)
	}
	if !regexp.MustCompile(`callq?\s+printf`).Match(asm.Bytes()) {
		t.Errorf("assembly does not call printf:\n%s", asm)
	}
}
