// Package source supplies characters to the lexer with one character of
// lookahead and line/column tracking.
package source

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/xplshn/plc0/pkg/token"
)

type Source struct {
	text []rune
	pos  token.Pos
	prev token.Pos
}

func New(text []rune) *Source { return &Source{text: text} }

func FromString(s string) *Source { return New([]rune(s)) }

// FromReader reads r to completion before returning.
func FromReader(r io.Reader) (*Source, error) {
	var sb strings.Builder
	br := bufio.NewReader(r)
	if _, err := io.Copy(&sb, br); err != nil {
		return nil, fmt.Errorf("reading source: %w", err)
	}
	return FromString(sb.String()), nil
}

func (s *Source) Text() []rune { return s.text }

func (s *Source) IsEOF() bool { return s.pos.Offset >= len(s.text) }

// Peek returns the current character without consuming it, or 0 at end of input.
func (s *Source) Peek() rune {
	if s.IsEOF() {
		return 0
	}
	return s.text[s.pos.Offset]
}

// Next consumes and returns the current character. At end of input it
// returns 0 and the position does not move.
func (s *Source) Next() rune {
	if s.IsEOF() {
		return 0
	}
	ch := s.text[s.pos.Offset]
	s.prev = s.pos
	s.pos.Offset++
	if ch == '\n' {
		s.pos.Line++
		s.pos.Column = 0
	} else {
		s.pos.Column++
	}
	return ch
}

func (s *Source) CurrentPos() token.Pos { return s.pos }

// PreviousPos is the position of the character most recently returned by Next.
func (s *Source) PreviousPos() token.Pos { return s.prev }
