package lexer

import (
	"strconv"
	"unicode"

	"github.com/xplshn/plc0/pkg/source"
	"github.com/xplshn/plc0/pkg/token"
	"github.com/xplshn/plc0/pkg/util"
)

type Lexer struct {
	src *source.Source
}

func NewLexer(src *source.Source) *Lexer { return &Lexer{src: src} }

// NextToken returns the next token. Once the input is exhausted every call
// returns an EOF token at the end position.
func (l *Lexer) NextToken() (token.Token, error) {
	l.skipWhitespace()

	start := l.src.CurrentPos()
	if l.src.IsEOF() {
		return token.Token{Type: token.EOF, Start: start, End: start}, nil
	}

	ch := l.src.Peek()
	switch {
	case isDigit(ch):
		return l.uintLiteral(start)
	case unicode.IsLetter(ch):
		return l.identifierOrKeyword(start), nil
	}
	return l.operator(start)
}

// Tokenize lexes the whole input, EOF token included.
func (l *Lexer) Tokenize() ([]token.Token, error) {
	var toks []token.Token
	for {
		tok, err := l.NextToken()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.Type == token.EOF {
			return toks, nil
		}
	}
}

func isDigit(ch rune) bool { return '0' <= ch && ch <= '9' }

func (l *Lexer) makeToken(tokType token.Type, value string, start token.Pos) token.Token {
	return token.Token{Type: tokType, Value: value, Start: start, End: l.src.CurrentPos()}
}

func (l *Lexer) skipWhitespace() {
	for !l.src.IsEOF() && unicode.IsSpace(l.src.Peek()) {
		l.src.Next()
	}
}

func (l *Lexer) lexeme(start token.Pos) string {
	return string(l.src.Text()[start.Offset:l.src.CurrentPos().Offset])
}

func (l *Lexer) uintLiteral(start token.Pos) (token.Token, error) {
	for isDigit(l.src.Peek()) {
		l.src.Next()
	}
	text := l.lexeme(start)
	tok := l.makeToken(token.Uint, text, start)

	val, err := strconv.ParseInt(text, 10, 32)
	if err != nil {
		return tok, &util.CompileError{Kind: util.IntegerOverflow, Pos: start, Found: tok, Detail: text}
	}
	tok.Int = int32(val)
	return tok, nil
}

func (l *Lexer) identifierOrKeyword(start token.Pos) token.Token {
	for unicode.IsLetter(l.src.Peek()) || isDigit(l.src.Peek()) {
		l.src.Next()
	}
	value := l.lexeme(start)
	if tokType, isKeyword := token.KeywordMap[value]; isKeyword {
		return l.makeToken(tokType, value, start)
	}
	return l.makeToken(token.Ident, value, start)
}

func (l *Lexer) operator(start token.Pos) (token.Token, error) {
	ch := l.src.Next()
	if tokType, ok := token.OperatorMap[ch]; ok {
		return l.makeToken(tokType, string(ch), start), nil
	}
	return token.Token{}, util.NewError(util.InvalidInput, l.src.PreviousPos(), strconv.QuoteRune(ch))
}
