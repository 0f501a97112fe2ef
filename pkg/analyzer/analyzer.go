// Package analyzer is the single-pass front end: it parses the token stream
// by recursive descent, checks declarations against the symbol table and
// emits stack-machine instructions as each rule is recognised. No syntax
// tree is built.
package analyzer

import (
	"fmt"

	"github.com/xplshn/plc0/pkg/config"
	"github.com/xplshn/plc0/pkg/ir"
	"github.com/xplshn/plc0/pkg/symbol"
	"github.com/xplshn/plc0/pkg/token"
	"github.com/xplshn/plc0/pkg/util"
)

// TokenSource is anything that hands out tokens one at a time. After the end
// of input it must keep returning EOF tokens.
type TokenSource interface {
	NextToken() (token.Token, error)
}

type Result struct {
	Program  *ir.Program
	Warnings []util.Diagnostic
}

// state lives for exactly one call to Analyze.
type state struct {
	src      TokenSource
	cfg      *config.Config
	peeked   *token.Token
	symbols  *symbol.Table
	prog     *ir.Program
	warnings []util.Diagnostic
}

// Analyze compiles one program. On failure it returns the first error and no
// program. A nil cfg means defaults.
func Analyze(src TokenSource, cfg *config.Config) (*Result, error) {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	s := &state{
		src:     src,
		cfg:     cfg,
		symbols: symbol.NewTable(),
		prog:    &ir.Program{},
	}
	if err := s.program(); err != nil {
		return nil, err
	}

	for _, e := range s.symbols.Entries() {
		s.prog.Symbols = append(s.prog.Symbols, ir.Symbol{Name: e.Name, Offset: e.Offset, IsConstant: e.IsConstant})
		if e.Reads == 0 {
			s.warn(config.WarnUnused, e.Decl, "'%s' is declared but never read", e.Name)
		}
	}
	s.prog.FrameSize = s.symbols.NextOffset()
	return &Result{Program: s.prog, Warnings: s.warnings}, nil
}

func (s *state) peek() (token.Token, error) {
	if s.peeked == nil {
		tok, err := s.src.NextToken()
		if err != nil {
			return tok, err
		}
		s.peeked = &tok
	}
	return *s.peeked, nil
}

func (s *state) next() (token.Token, error) {
	if s.peeked != nil {
		tok := *s.peeked
		s.peeked = nil
		return tok, nil
	}
	return s.src.NextToken()
}

func (s *state) check(tokType token.Type) (bool, error) {
	tok, err := s.peek()
	if err != nil {
		return false, err
	}
	return tok.Type == tokType, nil
}

// nextIf consumes the lookahead only when it has type tokType.
func (s *state) nextIf(tokType token.Type) (token.Token, bool, error) {
	tok, err := s.peek()
	if err != nil || tok.Type != tokType {
		return tok, false, err
	}
	tok, err = s.next()
	return tok, err == nil, err
}

func (s *state) expect(tokType token.Type) (token.Token, error) {
	tok, err := s.peek()
	if err != nil {
		return tok, err
	}
	if tok.Type != tokType {
		return tok, util.ExpectedError(tok, tokType)
	}
	return s.next()
}

func (s *state) emit(op ir.Op) { s.prog.Emit(ir.New(op)) }

func (s *state) emitWith(op ir.Op, operand int32) { s.prog.Emit(ir.NewWith(op, operand)) }

func (s *state) warn(wt config.Warning, tok token.Token, format string, args ...any) {
	s.warnings = append(s.warnings, util.Diagnostic{Warning: wt, Tok: tok, Msg: fmt.Sprintf(format, args...)})
}

// declare registers name at the next offset.
func (s *state) declare(name token.Token, isConstant, isInitialized bool) error {
	if _, ok := s.symbols.Declare(name, isConstant, isInitialized); !ok {
		return util.ErrorAt(util.DuplicateDeclaration, name)
	}
	return nil
}

// declaredName consumes an identifier that must not be declared yet.
func (s *state) declaredName() (token.Token, error) {
	name, err := s.expect(token.Ident)
	if err != nil {
		return name, err
	}
	if s.symbols.Contains(name.Value) {
		return name, util.ErrorAt(util.DuplicateDeclaration, name)
	}
	return name, nil
}
