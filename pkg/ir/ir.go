package ir

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

type Op int

const (
	OpLIT Op = iota
	OpLOD
	OpSTO
	OpADD
	OpSUB
	OpMUL
	OpDIV
	OpWRT
)

var opNames = [...]string{
	OpLIT: "LIT",
	OpLOD: "LOD",
	OpSTO: "STO",
	OpADD: "ADD",
	OpSUB: "SUB",
	OpMUL: "MUL",
	OpDIV: "DIV",
	OpWRT: "WRT",
}

var opByName = func() map[string]Op {
	m := make(map[string]Op, len(opNames))
	for op, name := range opNames {
		m[name] = Op(op)
	}
	return m
}()

// MaxFrameSize bounds the frame an engine is asked to allocate.
const MaxFrameSize = 1 << 20

func (op Op) Valid() bool { return op >= 0 && int(op) < len(opNames) }

func (op Op) String() string {
	if op.Valid() {
		return opNames[op]
	}
	return "Op(" + strconv.Itoa(int(op)) + ")"
}

// HasOperand reports whether instructions with this operation carry an operand.
func (op Op) HasOperand() bool { return op == OpLIT || op == OpLOD || op == OpSTO }

// StackEffect returns how many values op pops and pushes.
func (op Op) StackEffect() (pops, pushes int) {
	switch op {
	case OpLIT, OpLOD:
		return 0, 1
	case OpSTO, OpWRT:
		return 1, 0
	case OpADD, OpSUB, OpMUL, OpDIV:
		return 2, 1
	}
	return 0, 0
}

type Instruction struct {
	Op      Op
	Operand int32
}

func New(op Op) Instruction { return Instruction{Op: op} }

func NewWith(op Op, operand int32) Instruction { return Instruction{Op: op, Operand: operand} }

func (i Instruction) String() string {
	if i.Op.HasOperand() {
		return fmt.Sprintf("%s %d", i.Op, i.Operand)
	}
	return i.Op.String()
}

// Symbol records where a declared name lives in the frame.
type Symbol struct {
	Name       string
	Offset     int
	IsConstant bool
}

// Program is the compiled artifact. An engine must allocate FrameSize slots
// before executing the first instruction.
type Program struct {
	Instructions []Instruction
	FrameSize    int
	Symbols      []Symbol
}

func (p *Program) Emit(ins Instruction) { p.Instructions = append(p.Instructions, ins) }

// StackDepth simulates the operand stack pointer through the program, which
// is straight-line code, and returns the highest value it reaches.
func (p *Program) StackDepth() (int, error) {
	if err := p.CheckFrame(); err != nil {
		return 0, err
	}
	sp, maxSp := 0, 0
	for idx, ins := range p.Instructions {
		if !ins.Op.Valid() {
			return 0, fmt.Errorf("instruction %d (%s): unknown operation", idx, ins)
		}
		pops, pushes := ins.Op.StackEffect()
		if sp < pops {
			return 0, fmt.Errorf("instruction %d (%s): stack underflow", idx, ins)
		}
		if (ins.Op == OpLOD || ins.Op == OpSTO) && (ins.Operand < 0 || int(ins.Operand) >= p.FrameSize) {
			return 0, fmt.Errorf("instruction %d (%s): offset outside frame of size %d", idx, ins, p.FrameSize)
		}
		sp += pushes - pops
		if sp > maxSp {
			maxSp = sp
		}
	}
	return maxSp, nil
}

// CheckFrame reports a frame size no engine should allocate.
func (p *Program) CheckFrame() error {
	if p.FrameSize < 0 || p.FrameSize > MaxFrameSize {
		return fmt.Errorf("frame of %d slots outside 0..%d", p.FrameSize, MaxFrameSize)
	}
	return nil
}

// Slots is the number of value slots an engine using the stack-as-frame model
// needs: the frame itself or the deepest stack, whichever is larger.
func (p *Program) Slots() (int, error) {
	depth, err := p.StackDepth()
	if err != nil {
		return 0, err
	}
	return max(depth, p.FrameSize), nil
}

func (p *Program) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "; frame %d\n", p.FrameSize)
	for _, s := range p.Symbols {
		kind := "var"
		if s.IsConstant {
			kind = "const"
		}
		fmt.Fprintf(&buf, "; symbol %s %d %s\n", s.Name, s.Offset, kind)
	}
	for _, ins := range p.Instructions {
		buf.WriteString(ins.String())
		buf.WriteByte('\n')
	}
	return buf.WriteTo(w)
}

func (p *Program) String() string {
	var sb strings.Builder
	p.WriteTo(&sb)
	return sb.String()
}

// Fingerprint is a hash of the textual listing.
func (p *Program) Fingerprint() uint64 { return xxhash.Sum64String(p.String()) }

// ParseListing reads the format produced by WriteTo.
func ParseListing(r io.Reader) (*Program, error) {
	prog := &Program{}
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if fields[0] == ";" {
			if err := parseHeader(prog, fields[1:]); err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			continue
		}
		op, ok := opByName[fields[0]]
		if !ok {
			return nil, fmt.Errorf("line %d: unknown operation '%s'", lineNo, fields[0])
		}
		ins := Instruction{Op: op}
		if op.HasOperand() {
			if len(fields) != 2 {
				return nil, fmt.Errorf("line %d: %s needs one operand", lineNo, op)
			}
			v, err := strconv.ParseInt(fields[1], 10, 32)
			if err != nil {
				return nil, fmt.Errorf("line %d: bad operand: %w", lineNo, err)
			}
			ins.Operand = int32(v)
		} else if len(fields) != 1 {
			return nil, fmt.Errorf("line %d: %s takes no operand", lineNo, op)
		}
		prog.Emit(ins)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return prog, nil
}

func parseHeader(prog *Program, fields []string) error {
	if len(fields) == 0 {
		return nil
	}
	switch fields[0] {
	case "frame":
		if len(fields) != 2 {
			return fmt.Errorf("malformed frame header")
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil || n < 0 || n > MaxFrameSize {
			return fmt.Errorf("bad frame size '%s'", fields[1])
		}
		prog.FrameSize = n
	case "symbol":
		if len(fields) != 4 {
			return fmt.Errorf("malformed symbol header")
		}
		off, err := strconv.Atoi(fields[2])
		if err != nil {
			return fmt.Errorf("bad symbol offset '%s'", fields[2])
		}
		prog.Symbols = append(prog.Symbols, Symbol{Name: fields[1], Offset: off, IsConstant: fields[3] == "const"})
	}
	return nil
}
