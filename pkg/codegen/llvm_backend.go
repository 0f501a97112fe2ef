package codegen

import (
	"bytes"
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/xplshn/plc0/pkg/config"
	plc0ir "github.com/xplshn/plc0/pkg/ir"
)

// llvmBackend builds the same slot layout as the QBE backend with llir/llvm:
// one [N x i32] alloca whose elements are addressed by constant GEPs.
type llvmBackend struct {
	block  *ir.Block
	mem    *ir.InstAlloca
	memTyp *types.ArrayType
	slots  []value.Value
	printf *ir.Func
	format value.Value
}

func NewLLVMBackend() Backend { return &llvmBackend{} }

func (b *llvmBackend) Generate(prog *plc0ir.Program, cfg *config.Config) (*bytes.Buffer, error) {
	text, err := b.GenerateIR(prog, cfg)
	if err != nil {
		return nil, err
	}
	return bytes.NewBufferString(text), nil
}

func (b *llvmBackend) GenerateIR(prog *plc0ir.Program, cfg *config.Config) (string, error) {
	n, err := layout(prog)
	if err != nil {
		return "", err
	}

	m := ir.NewModule()
	if cfg.BackendTarget != "" {
		m.TargetTriple = cfg.BackendTarget
	}
	fmtData := constant.NewCharArrayFromString(printFormat + "\x00")
	fmtGlobal := m.NewGlobalDef("fmt", fmtData)
	fmtGlobal.Immutable = true
	fmtGlobal.Linkage = enum.LinkagePrivate

	b.printf = m.NewFunc("printf", types.I32, ir.NewParam("format", types.NewPointer(types.I8)))
	b.printf.Sig.Variadic = true

	mainFn := m.NewFunc("main", types.I32)
	b.block = mainFn.NewBlock("entry")
	b.memTyp = types.NewArray(uint64(n), types.I32)
	b.mem = b.block.NewAlloca(b.memTyp)

	zero64 := constant.NewInt(types.I64, 0)
	b.format = b.block.NewGetElementPtr(fmtData.Typ, fmtGlobal, zero64, zero64)
	b.slots = make([]value.Value, n)
	for i := range b.slots {
		b.slots[i] = b.block.NewGetElementPtr(b.memTyp, b.mem, zero64, constant.NewInt(types.I64, int64(i)))
	}
	for i := 0; i < prog.FrameSize; i++ {
		b.block.NewStore(constant.NewInt(types.I32, 0), b.slots[i])
	}

	sp := 0
	for _, ins := range prog.Instructions {
		if sp, err = b.genInstr(ins, sp); err != nil {
			return "", err
		}
	}
	b.block.NewRet(constant.NewInt(types.I32, 0))
	return m.String(), nil
}

func (b *llvmBackend) load(slot int) value.Value { return b.block.NewLoad(types.I32, b.slots[slot]) }

func (b *llvmBackend) store(v value.Value, slot int) { b.block.NewStore(v, b.slots[slot]) }

func (b *llvmBackend) genInstr(ins plc0ir.Instruction, sp int) (int, error) {
	switch ins.Op {
	case plc0ir.OpLIT:
		b.store(constant.NewInt(types.I32, int64(ins.Operand)), sp)
		return sp + 1, nil
	case plc0ir.OpLOD:
		b.store(b.load(int(ins.Operand)), sp)
		return sp + 1, nil
	case plc0ir.OpSTO:
		b.store(b.load(sp-1), int(ins.Operand))
		return sp - 1, nil
	case plc0ir.OpADD, plc0ir.OpSUB, plc0ir.OpMUL, plc0ir.OpDIV:
		lhs, rhs := b.load(sp-2), b.load(sp-1)
		var res value.Value
		switch ins.Op {
		case plc0ir.OpADD:
			res = b.block.NewAdd(lhs, rhs)
		case plc0ir.OpSUB:
			res = b.block.NewSub(lhs, rhs)
		case plc0ir.OpMUL:
			res = b.block.NewMul(lhs, rhs)
		default:
			res = b.block.NewSDiv(lhs, rhs)
		}
		b.store(res, sp-2)
		return sp - 1, nil
	case plc0ir.OpWRT:
		b.block.NewCall(b.printf, b.format, b.load(sp-1))
		return sp - 1, nil
	}
	return sp, fmt.Errorf("llvm backend: unhandled operation %s", ins.Op)
}
