package codegen

import (
	"bytes"
	"fmt"

	"github.com/xplshn/plc0/pkg/config"
	"github.com/xplshn/plc0/pkg/ir"
)

// Backend is the interface that all native code generation backends must implement.
type Backend interface {
	// GenerateIR returns the backend's textual intermediate language for prog.
	GenerateIR(prog *ir.Program, cfg *config.Config) (string, error)
	// Generate produces the final artifact: assembly for QBE, IR text for LLVM.
	Generate(prog *ir.Program, cfg *config.Config) (*bytes.Buffer, error)
}

func SelectBackend(name string) (Backend, error) {
	switch name {
	case "qbe":
		return NewQBEBackend(), nil
	case "llvm":
		return NewLLVMBackend(), nil
	}
	return nil, fmt.Errorf("unsupported backend '%s'", name)
}

// layout checks prog and returns the number of 32-bit slots it needs.
func layout(prog *ir.Program) (int, error) {
	slots, err := prog.Slots()
	if err != nil {
		return 0, fmt.Errorf("invalid program: %w", err)
	}
	return max(slots, 1), nil
}

const printFormat = "%d\n"
