package util

import (
	"fmt"
	"strings"

	"github.com/xplshn/plc0/pkg/token"
)

type ErrorKind int

const (
	InvalidInput ErrorKind = iota
	IntegerOverflow
	ExpectedToken
	DuplicateDeclaration
	NotDeclared
	NotInitialized
	AssignToConstant
)

var errorKindNames = map[ErrorKind]string{
	InvalidInput:         "InvalidInput",
	IntegerOverflow:      "IntegerOverflow",
	ExpectedToken:        "ExpectedToken",
	DuplicateDeclaration: "DuplicateDeclaration",
	NotDeclared:          "NotDeclared",
	NotInitialized:       "NotInitialized",
	AssignToConstant:     "AssignToConstant",
}

func (k ErrorKind) String() string {
	if name, ok := errorKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// CompileError is the single failure type of the front end. Expected and
// Found are only meaningful for ExpectedToken; Found also carries the span of
// the offending token when one exists.
type CompileError struct {
	Kind     ErrorKind
	Pos      token.Pos
	Expected []token.Type
	Found    token.Token
	Detail   string
}

func (e *CompileError) Error() string { return fmt.Sprintf("%s: %s", e.Pos, e.Message()) }

// Message is the error text without the position prefix.
func (e *CompileError) Message() string {
	switch e.Kind {
	case ExpectedToken:
		names := make([]string, len(e.Expected))
		for i, t := range e.Expected {
			names[i] = t.String()
		}
		return fmt.Sprintf("expected %s, found %s", strings.Join(names, " or "), e.Found)
	case InvalidInput:
		if e.Detail != "" {
			return fmt.Sprintf("invalid input %s", e.Detail)
		}
		return "invalid input"
	case IntegerOverflow:
		return fmt.Sprintf("integer literal %s does not fit in 32 bits", e.Detail)
	case DuplicateDeclaration:
		return fmt.Sprintf("duplicate declaration of '%s'", e.Detail)
	case NotDeclared:
		return fmt.Sprintf("'%s' is not declared", e.Detail)
	case NotInitialized:
		return fmt.Sprintf("'%s' is read before it is initialized", e.Detail)
	case AssignToConstant:
		return fmt.Sprintf("cannot assign to constant '%s'", e.Detail)
	}
	return e.Kind.String()
}

// Span returns the source range to underline.
func (e *CompileError) Span() (token.Pos, int) {
	if e.Found.Len() > 0 && e.Found.Start == e.Pos {
		return e.Pos, e.Found.Len()
	}
	return e.Pos, 1
}

func NewError(kind ErrorKind, pos token.Pos, detail string) *CompileError {
	return &CompileError{Kind: kind, Pos: pos, Detail: detail}
}

// ErrorAt reports a semantic error on tok, keeping its span for diagnostics.
func ErrorAt(kind ErrorKind, tok token.Token) *CompileError {
	return &CompileError{Kind: kind, Pos: tok.Start, Found: tok, Detail: tok.Value}
}

func ExpectedError(found token.Token, expected ...token.Type) *CompileError {
	return &CompileError{Kind: ExpectedToken, Pos: found.Start, Expected: expected, Found: found}
}
