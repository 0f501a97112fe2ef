package lexer

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/xplshn/plc0/pkg/source"
	"github.com/xplshn/plc0/pkg/token"
	"github.com/xplshn/plc0/pkg/util"
)

func tokenStrings(t *testing.T, input string) []string {
	t.Helper()
	toks, err := NewLexer(source.FromString(input)).Tokenize()
	if err != nil {
		t.Fatalf("Tokenize(%q) failed: %v", input, err)
	}
	out := make([]string, len(toks))
	for i, tok := range toks {
		out[i] = tok.String()
	}
	return out
}

func TestTokenizeProgram(t *testing.T) {
	got := tokenStrings(t, "begin const c = 5; var x; x = c + 1; print(x); end")
	want := []string{
		"Begin", "Const", `Ident("c")`, "Equal", "Uint(5)", "Semicolon",
		"Var", `Ident("x")`, "Semicolon",
		`Ident("x")`, "Equal", `Ident("c")`, "Plus", "Uint(1)", "Semicolon",
		"Print", "LParen", `Ident("x")`, "RParen", "Semicolon",
		"End", "EOF",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("token mismatch (-want +got):\n%s", diff)
	}
}

func TestTokenizeLexemes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty", "", []string{"EOF"}},
		{"whitespace only", " \t\r\n  \n", []string{"EOF"}},
		{"digit run", "007 42", []string{"Uint(7)", "Uint(42)", "EOF"}},
		{"ident with digits", "a1b2 x9", []string{`Ident("a1b2")`, `Ident("x9")`, "EOF"}},
		{"keyword prefix", "beginx print2", []string{`Ident("beginx")`, `Ident("print2")`, "EOF"}},
		{"keywords are case sensitive", "BEGIN", []string{`Ident("BEGIN")`, "EOF"}},
		{"digits then letters", "12ab", []string{"Uint(12)", `Ident("ab")`, "EOF"}},
		{"operators", "+-*/()=;", []string{"Plus", "Minus", "Star", "Slash", "LParen", "RParen", "Equal", "Semicolon", "EOF"}},
		{"max int32", "2147483647", []string{"Uint(2147483647)", "EOF"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, tokenStrings(t, tt.input)); diff != "" {
				t.Errorf("token mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEOFIsSticky(t *testing.T) {
	lx := NewLexer(source.FromString("  x  "))
	if tok, err := lx.NextToken(); err != nil || tok.Type != token.Ident {
		t.Fatalf("first token = %v, %v; want Ident", tok, err)
	}
	first, err := lx.NextToken()
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		tok, err := lx.NextToken()
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(first, tok); diff != "" {
			t.Errorf("call %d returned a different EOF token (-first +got):\n%s", i, diff)
		}
	}
	if first.Type != token.EOF || first.Start.Offset != 5 {
		t.Errorf("EOF token = %+v; want EOF at offset 5", first)
	}
}

func TestTokenPositions(t *testing.T) {
	toks, err := NewLexer(source.FromString("begin\n  var abc;\nend")).Tokenize()
	if err != nil {
		t.Fatal(err)
	}
	type span struct {
		Text      string
		Line, Col int
		Len       int
	}
	var got []span
	for _, tok := range toks {
		got = append(got, span{tok.String(), tok.Start.Line, tok.Start.Column, tok.Len()})
	}
	want := []span{
		{"Begin", 0, 0, 5},
		{"Var", 1, 2, 3},
		{`Ident("abc")`, 1, 6, 3},
		{"Semicolon", 1, 9, 1},
		{"End", 2, 0, 3},
		{"EOF", 2, 3, 0},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("position mismatch (-want +got):\n%s", diff)
	}
}

func TestLexErrors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantKind util.ErrorKind
		wantCol  int
	}{
		{"unknown character", "begin # end", util.InvalidInput, 6},
		{"underscore", "a_b", util.InvalidInput, 1},
		{"overflow just above int32", "x = 2147483648", util.IntegerOverflow, 4},
		{"overflow beyond int64", "99999999999999999999999", util.IntegerOverflow, 0},
		{"non-ascii digit", "x = ٣", util.InvalidInput, 4},
		{"non-ascii digit after ascii", "x = 1٣", util.InvalidInput, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLexer(source.FromString(tt.input)).Tokenize()
			var ce *util.CompileError
			if !errors.As(err, &ce) {
				t.Fatalf("Tokenize(%q) error = %v; want *util.CompileError", tt.input, err)
			}
			if ce.Kind != tt.wantKind || ce.Pos.Column != tt.wantCol {
				t.Errorf("got %s at column %d; want %s at column %d", ce.Kind, ce.Pos.Column, tt.wantKind, tt.wantCol)
			}
		})
	}
}

func TestTokenizeIsDeterministic(t *testing.T) {
	const text = "begin const a = 10; var b = a * (2 - 3); print(b / a); end"
	first, err := NewLexer(source.FromString(text)).Tokenize()
	if err != nil {
		t.Fatal(err)
	}
	second, err := NewLexer(source.New([]rune(text))).Tokenize()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("two sources over the same text disagree (-first +second):\n%s", diff)
	}
}
