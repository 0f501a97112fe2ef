package codegen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xplshn/plc0/pkg/config"
	"github.com/xplshn/plc0/pkg/ir"
)

// qbeBackend lowers the stack code to QBE IL. The stack pointer of
// straight-line code is known at every instruction, so each stack position
// becomes a fixed slot of one alloc'd block and no runtime stack pointer is
// needed.
type qbeBackend struct {
	out   *strings.Builder
	temps int
}

func NewQBEBackend() Backend { return &qbeBackend{} }

func (b *qbeBackend) GenerateIR(prog *ir.Program, cfg *config.Config) (string, error) {
	slots, err := layout(prog)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	b.out, b.temps = &sb, 0

	fmt.Fprintf(b.out, "data $fmt = { b %s, b 0 }\n", strconv.Quote(printFormat))
	b.out.WriteString("\nexport function w $main() {\n@start\n")
	fmt.Fprintf(b.out, "\t%%mem =l alloc4 %d\n", slots*cfg.WordSize)
	for i := 0; i < slots; i++ {
		fmt.Fprintf(b.out, "\t%%s%d =l add %%mem, %d\n", i, i*cfg.WordSize)
	}
	for i := 0; i < prog.FrameSize; i++ {
		fmt.Fprintf(b.out, "\tstorew 0, %%s%d\n", i)
	}

	sp := 0
	for _, ins := range prog.Instructions {
		fmt.Fprintf(b.out, "# %s\n", ins)
		if sp, err = b.genInstr(ins, sp); err != nil {
			return "", err
		}
	}
	b.out.WriteString("\tret 0\n}\n")
	return sb.String(), nil
}

func (b *qbeBackend) temp() string {
	b.temps++
	return fmt.Sprintf("%%t%d", b.temps)
}

func (b *qbeBackend) load(slot int) string {
	t := b.temp()
	fmt.Fprintf(b.out, "\t%s =w loadw %%s%d\n", t, slot)
	return t
}

func (b *qbeBackend) store(value string, slot int) {
	fmt.Fprintf(b.out, "\tstorew %s, %%s%d\n", value, slot)
}

// genInstr emits ins with the stack pointer at sp and returns the new one.
func (b *qbeBackend) genInstr(ins ir.Instruction, sp int) (int, error) {
	switch ins.Op {
	case ir.OpLIT:
		b.store(strconv.Itoa(int(ins.Operand)), sp)
		return sp + 1, nil
	case ir.OpLOD:
		b.store(b.load(int(ins.Operand)), sp)
		return sp + 1, nil
	case ir.OpSTO:
		b.store(b.load(sp-1), int(ins.Operand))
		return sp - 1, nil
	case ir.OpADD, ir.OpSUB, ir.OpMUL, ir.OpDIV:
		lhs, rhs := b.load(sp-2), b.load(sp-1)
		res := b.temp()
		fmt.Fprintf(b.out, "\t%s =w %s %s, %s\n", res, qbeOps[ins.Op], lhs, rhs)
		b.store(res, sp-2)
		return sp - 1, nil
	case ir.OpWRT:
		v := b.load(sp - 1)
		fmt.Fprintf(b.out, "\tcall $printf(l $fmt, ..., w %s)\n", v)
		return sp - 1, nil
	}
	return sp, fmt.Errorf("qbe backend: unhandled operation %s", ins.Op)
}

var qbeOps = map[ir.Op]string{
	ir.OpADD: "add",
	ir.OpSUB: "sub",
	ir.OpMUL: "mul",
	ir.OpDIV: "div",
}
