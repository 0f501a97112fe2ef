package token

import (
	"fmt"
	"strconv"
)

type Type int

const (
	EOF Type = iota
	Uint
	Ident
	Begin
	End
	Var
	Const
	Print
	Plus
	Minus
	Star
	Slash
	LParen
	RParen
	Equal
	Semicolon
)

var KeywordMap = map[string]Type{
	"begin": Begin,
	"end":   End,
	"var":   Var,
	"const": Const,
	"print": Print,
}

// Single-character operators and punctuation
var OperatorMap = map[rune]Type{
	'+': Plus,
	'-': Minus,
	'*': Star,
	'/': Slash,
	'(': LParen,
	')': RParen,
	'=': Equal,
	';': Semicolon,
}

var typeNames = [...]string{
	EOF:       "EOF",
	Uint:      "Uint",
	Ident:     "Ident",
	Begin:     "Begin",
	End:       "End",
	Var:       "Var",
	Const:     "Const",
	Print:     "Print",
	Plus:      "Plus",
	Minus:     "Minus",
	Star:      "Star",
	Slash:     "Slash",
	LParen:    "LParen",
	RParen:    "RParen",
	Equal:     "Equal",
	Semicolon: "Semicolon",
}

func (t Type) String() string {
	if t >= 0 && int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "Type(" + strconv.Itoa(int(t)) + ")"
}

func (t Type) IsKeyword() bool { return t >= Begin && t <= Print }

// Pos is a location in the source text. Line and Column are 0-based.
type Pos struct {
	Offset int
	Line   int
	Column int
}

func (p Pos) String() string { return fmt.Sprintf("%d:%d", p.Line+1, p.Column+1) }

// Token is one lexeme. Value holds the literal text of identifiers and
// keywords, Int the parsed value of Uint tokens.
type Token struct {
	Type  Type
	Value string
	Int   int32
	Start Pos
	End   Pos
}

func (t Token) Len() int { return t.End.Offset - t.Start.Offset }

func (t Token) String() string {
	switch t.Type {
	case Uint:
		return fmt.Sprintf("Uint(%d)", t.Int)
	case Ident:
		return fmt.Sprintf("Ident(%q)", t.Value)
	}
	return t.Type.String()
}
