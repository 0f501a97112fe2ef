// Package vm executes compiled programs.
//
// Memory is a single slot array. The first FrameSize slots exist and are zero
// before the first instruction runs; the operand stack grows upward from slot
// 0 through the same array, so values pushed while declarations are compiled
// end up in the slots of the symbols they initialise. LOD and STO address
// slots directly.
package vm

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/xplshn/plc0/pkg/ir"
)

var (
	ErrDivisionByZero = errors.New("division by zero")
	ErrStackUnderflow = errors.New("stack underflow")
	ErrBadOffset      = errors.New("offset outside frame")
	ErrUnknownOp      = errors.New("unknown operation")
	ErrBadFrame       = errors.New("frame size out of range")
)

type RuntimeError struct {
	PC          int
	Instruction ir.Instruction
	Err         error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("instruction %d (%s): %v", e.PC, e.Instruction, e.Err)
}

func (e *RuntimeError) Unwrap() error { return e.Err }

type Machine struct {
	prog *ir.Program
	out  *bufio.Writer
	mem  []int32
	sp   int
}

func New(prog *ir.Program, out io.Writer) *Machine {
	return &Machine{prog: prog, out: bufio.NewWriter(out)}
}

// Frame returns the first FrameSize slots after a run, or nil before one.
func (m *Machine) Frame() []int32 {
	if m.mem == nil {
		return nil
	}
	return m.mem[:m.prog.FrameSize]
}

func (m *Machine) push(v int32) {
	if m.sp == len(m.mem) {
		m.mem = append(m.mem, 0)
	}
	m.mem[m.sp] = v
	m.sp++
}

func (m *Machine) pop() (int32, error) {
	if m.sp == 0 {
		return 0, ErrStackUnderflow
	}
	m.sp--
	return m.mem[m.sp], nil
}

func (m *Machine) slot(off int32) (*int32, error) {
	if off < 0 || int(off) >= m.prog.FrameSize {
		return nil, ErrBadOffset
	}
	return &m.mem[off], nil
}

// Run executes the program from the start. Output is flushed even when the
// run fails.
func (m *Machine) Run(ctx context.Context) (err error) {
	if ferr := m.prog.CheckFrame(); ferr != nil {
		return fmt.Errorf("%w: %v", ErrBadFrame, ferr)
	}
	m.mem = make([]int32, m.prog.FrameSize, m.prog.FrameSize+16)
	m.sp = 0
	defer func() {
		if ferr := m.out.Flush(); err == nil && ferr != nil {
			err = fmt.Errorf("writing output: %w", ferr)
		}
	}()

	for pc, ins := range m.prog.Instructions {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := m.step(ins); err != nil {
			return &RuntimeError{PC: pc, Instruction: ins, Err: err}
		}
	}
	return nil
}

func (m *Machine) step(ins ir.Instruction) error {
	switch ins.Op {
	case ir.OpLIT:
		m.push(ins.Operand)
	case ir.OpLOD:
		p, err := m.slot(ins.Operand)
		if err != nil {
			return err
		}
		m.push(*p)
	case ir.OpSTO:
		v, err := m.pop()
		if err != nil {
			return err
		}
		p, err := m.slot(ins.Operand)
		if err != nil {
			return err
		}
		*p = v
	case ir.OpADD, ir.OpSUB, ir.OpMUL, ir.OpDIV:
		rhs, err := m.pop()
		if err != nil {
			return err
		}
		lhs, err := m.pop()
		if err != nil {
			return err
		}
		v, err := arith(ins.Op, lhs, rhs)
		if err != nil {
			return err
		}
		m.push(v)
	case ir.OpWRT:
		v, err := m.pop()
		if err != nil {
			return err
		}
		m.out.WriteString(strconv.FormatInt(int64(v), 10))
		m.out.WriteByte('\n')
	default:
		return ErrUnknownOp
	}
	return nil
}

// arith uses 32-bit wraparound; division truncates toward zero.
func arith(op ir.Op, lhs, rhs int32) (int32, error) {
	switch op {
	case ir.OpADD:
		return lhs + rhs, nil
	case ir.OpSUB:
		return lhs - rhs, nil
	case ir.OpMUL:
		return lhs * rhs, nil
	}
	if rhs == 0 {
		return 0, ErrDivisionByZero
	}
	return lhs / rhs, nil
}

// Run is a convenience wrapper around New(prog, out).Run(ctx).
func Run(ctx context.Context, prog *ir.Program, out io.Writer) error {
	return New(prog, out).Run(ctx)
}
