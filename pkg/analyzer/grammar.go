package analyzer

import (
	"github.com/xplshn/plc0/pkg/config"
	"github.com/xplshn/plc0/pkg/ir"
	"github.com/xplshn/plc0/pkg/token"
	"github.com/xplshn/plc0/pkg/util"
)

// program ::= 'begin' main 'end' EOF
func (s *state) program() error {
	if _, err := s.expect(token.Begin); err != nil {
		return err
	}
	if err := s.main(); err != nil {
		return err
	}
	if _, err := s.expect(token.End); err != nil {
		return err
	}
	_, err := s.expect(token.EOF)
	return err
}

// main ::= constDecls varDecls statements
func (s *state) main() error {
	if err := s.constDecls(); err != nil {
		return err
	}
	if err := s.varDecls(); err != nil {
		return err
	}
	return s.statements()
}

// constDecls ::= { 'const' ident '=' constExpr ';' }
func (s *state) constDecls() error {
	for {
		_, ok, err := s.nextIf(token.Const)
		if err != nil || !ok {
			return err
		}
		name, err := s.declaredName()
		if err != nil {
			return err
		}
		if _, err := s.expect(token.Equal); err != nil {
			return err
		}
		value, err := s.constExpr()
		if err != nil {
			return err
		}
		if _, err := s.expect(token.Semicolon); err != nil {
			return err
		}
		if err := s.declare(name, true, true); err != nil {
			return err
		}
		s.emitWith(ir.OpLIT, value)
	}
}

// constExpr ::= ['+'|'-'] uint
func (s *state) constExpr() (int32, error) {
	negative := false
	if plus, ok, err := s.nextIf(token.Plus); err != nil {
		return 0, err
	} else if ok {
		s.warn(config.WarnPedantic, plus, "redundant unary '+'")
	} else if _, negative, err = s.nextIf(token.Minus); err != nil {
		return 0, err
	}
	tok, err := s.expect(token.Uint)
	if err != nil {
		return 0, err
	}
	if negative {
		return -tok.Int, nil
	}
	return tok.Int, nil
}

// varDecls ::= { 'var' ident [ '=' expr ] ';' }
//
// An initializer leaves its value on the stack and is not stored: the value
// lands in the variable's slot only while declaration pushes line up with
// offsets. Without an initializer nothing is pushed unless reserve-slots is on.
func (s *state) varDecls() error {
	for {
		_, ok, err := s.nextIf(token.Var)
		if err != nil || !ok {
			return err
		}
		name, err := s.declaredName()
		if err != nil {
			return err
		}
		_, hasInit, err := s.nextIf(token.Equal)
		if err != nil {
			return err
		}
		if hasInit {
			if err := s.expr(); err != nil {
				return err
			}
		}
		if _, err := s.expect(token.Semicolon); err != nil {
			return err
		}
		if err := s.declare(name, false, hasInit); err != nil {
			return err
		}
		if hasInit {
			continue
		}
		if s.cfg.IsFeatureEnabled(config.FeatReserveSlots) {
			s.emitWith(ir.OpLIT, 0)
		} else {
			s.warn(config.WarnSlotGap, name, "slot of '%s' is not reserved; operand pushes may overwrite it before it is assigned", name.Value)
		}
	}
}

func isStatementStart(t token.Type) bool {
	return t == token.Ident || t == token.Print || t == token.Semicolon
}

// statements ::= { statement }
func (s *state) statements() error {
	for {
		tok, err := s.peek()
		if err != nil {
			return err
		}
		if !isStatementStart(tok.Type) {
			return nil
		}
		if err := s.statement(); err != nil {
			return err
		}
	}
}

// statement ::= assignStmt | printStmt | ';'
func (s *state) statement() error {
	tok, err := s.peek()
	if err != nil {
		return err
	}
	switch tok.Type {
	case token.Ident:
		return s.assignStmt()
	case token.Print:
		return s.printStmt()
	case token.Semicolon:
		s.warn(config.WarnEmptyStmt, tok, "empty statement")
		_, err := s.next()
		return err
	}
	return util.ExpectedError(tok, token.Ident, token.Uint, token.LParen)
}

// assignStmt ::= ident '=' expr ';'
func (s *state) assignStmt() error {
	name, err := s.expect(token.Ident)
	if err != nil {
		return err
	}
	entry, ok := s.symbols.Lookup(name.Value)
	if !ok {
		return util.ErrorAt(util.NotDeclared, name)
	}
	if entry.IsConstant {
		return util.ErrorAt(util.AssignToConstant, name)
	}
	if _, err := s.expect(token.Equal); err != nil {
		return err
	}
	if err := s.expr(); err != nil {
		return err
	}
	if _, err := s.expect(token.Semicolon); err != nil {
		return err
	}
	entry.IsInitialized = true
	s.emitWith(ir.OpSTO, int32(entry.Offset))
	return nil
}

// printStmt ::= 'print' '(' expr ')' ';'
func (s *state) printStmt() error {
	for _, tt := range []token.Type{token.Print, token.LParen} {
		if _, err := s.expect(tt); err != nil {
			return err
		}
	}
	if err := s.expr(); err != nil {
		return err
	}
	for _, tt := range []token.Type{token.RParen, token.Semicolon} {
		if _, err := s.expect(tt); err != nil {
			return err
		}
	}
	s.emit(ir.OpWRT)
	return nil
}

var (
	addOps = map[token.Type]ir.Op{token.Plus: ir.OpADD, token.Minus: ir.OpSUB}
	mulOps = map[token.Type]ir.Op{token.Star: ir.OpMUL, token.Slash: ir.OpDIV}
)

// expr ::= term { ('+'|'-') term }
func (s *state) expr() error { return s.binary(s.term, addOps) }

// term ::= factor { ('*'|'/') factor }
func (s *state) term() error { return s.binary(s.factor, mulOps) }

// binary parses a left-associative chain of operand separated by the
// operators in ops, emitting each operation after its right operand.
func (s *state) binary(operand func() error, ops map[token.Type]ir.Op) error {
	if err := operand(); err != nil {
		return err
	}
	for {
		tok, err := s.peek()
		if err != nil {
			return err
		}
		op, ok := ops[tok.Type]
		if !ok {
			return nil
		}
		if _, err := s.next(); err != nil {
			return err
		}
		if err := operand(); err != nil {
			return err
		}
		s.emit(op)
	}
}

// factor ::= ['+'|'-'] ( ident | uint | '(' expr ')' )
//
// Negation is emitted as 0 - operand; there is no negate instruction.
func (s *state) factor() error {
	_, negate, err := s.nextIf(token.Minus)
	if err != nil {
		return err
	}
	if negate {
		s.emitWith(ir.OpLIT, 0)
	} else if plus, ok, err := s.nextIf(token.Plus); err != nil {
		return err
	} else if ok {
		s.warn(config.WarnPedantic, plus, "redundant unary '+'")
	}

	tok, err := s.peek()
	if err != nil {
		return err
	}
	switch tok.Type {
	case token.Ident:
		s.next()
		entry, ok := s.symbols.Lookup(tok.Value)
		if !ok {
			return util.ErrorAt(util.NotDeclared, tok)
		}
		if !entry.IsInitialized {
			return util.ErrorAt(util.NotInitialized, tok)
		}
		entry.Reads++
		s.emitWith(ir.OpLOD, int32(entry.Offset))
	case token.Uint:
		s.next()
		s.emitWith(ir.OpLIT, tok.Int)
	case token.LParen:
		s.next()
		if err := s.expr(); err != nil {
			return err
		}
		if _, err := s.expect(token.RParen); err != nil {
			return err
		}
	default:
		return util.ExpectedError(tok, token.Ident, token.Uint, token.LParen)
	}

	if negate {
		s.emit(ir.OpSUB)
	}
	return nil
}
