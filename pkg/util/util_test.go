package util

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/xplshn/plc0/pkg/config"
	"github.com/xplshn/plc0/pkg/token"
)

const program = "begin\n  const k = 1;\n  k = 2;\nend"

func newReporter(buf *bytes.Buffer) *Reporter {
	return NewReporter(buf, SourceFileRecord{Name: "k.plc0", Content: []rune(program)})
}

func TestReporterError(t *testing.T) {
	kTok := token.Token{
		Type: token.Ident, Value: "k",
		Start: token.Pos{Offset: 23, Line: 2, Column: 2},
		End:   token.Pos{Offset: 24, Line: 2, Column: 3},
	}
	var buf bytes.Buffer
	newReporter(&buf).Error(ErrorAt(AssignToConstant, kTok))
	want := "k.plc0:3:3: error: cannot assign to constant 'k'\n" +
		"    k = 2;\n" +
		"    ^\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("report (-want +got):\n%s", diff)
	}
}

func TestReporterUnderlinesToken(t *testing.T) {
	found := token.Token{
		Type: token.Const, Value: "const",
		Start: token.Pos{Offset: 8, Line: 1, Column: 2},
		End:   token.Pos{Offset: 13, Line: 1, Column: 7},
	}
	var buf bytes.Buffer
	newReporter(&buf).Error(ExpectedError(found, token.Ident, token.Print))
	want := "k.plc0:2:3: error: expected Ident or Print, found Const\n" +
		"    const k = 1;\n" +
		"    ^~~~~\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("report (-want +got):\n%s", diff)
	}
}

func TestReporterPlainError(t *testing.T) {
	var buf bytes.Buffer
	newReporter(&buf).Error(errors.New("disk on fire"))
	if got, want := buf.String(), "k.plc0: error: disk on fire\n"; got != want {
		t.Errorf("got %q; want %q", got, want)
	}
}

func TestReporterWarnRespectsConfig(t *testing.T) {
	cfg := config.NewConfig()
	d := Diagnostic{
		Warning: config.WarnEmptyStmt,
		Tok:     token.Token{Type: token.Semicolon, Start: token.Pos{Offset: 3, Column: 3}, End: token.Pos{Offset: 4, Column: 4}},
		Msg:     "empty statement",
	}
	var buf bytes.Buffer
	r := newReporter(&buf)
	r.Warn(cfg, d)
	if buf.Len() != 0 {
		t.Fatalf("disabled warning printed %q", buf.String())
	}

	cfg.SetWarning(config.WarnEmptyStmt, true)
	r.Warn(cfg, d)
	want := "k.plc0:1:4: warning: empty statement [-Wempty-stmt]\n" +
		"  begin\n" +
		"     ^\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("warning (-want +got):\n%s", diff)
	}
}

func TestReporterColor(t *testing.T) {
	var buf bytes.Buffer
	r := newReporter(&buf)
	r.SetColor(true)
	r.Error(NewError(InvalidInput, token.Pos{}, "'#'"))
	if !bytes.Contains(buf.Bytes(), []byte("\033[31merror:\033[0m")) {
		t.Errorf("coloured output lacks escape codes: %q", buf.String())
	}
}

func TestCompileErrorMessages(t *testing.T) {
	tests := []struct {
		err  *CompileError
		want string
	}{
		{NewError(InvalidInput, token.Pos{Line: 0, Column: 4}, "'#'"), "1:5: invalid input '#'"},
		{NewError(IntegerOverflow, token.Pos{}, "4294967296"), "1:1: integer literal 4294967296 does not fit in 32 bits"},
		{ErrorAt(DuplicateDeclaration, token.Token{Type: token.Ident, Value: "a"}), "1:1: duplicate declaration of 'a'"},
		{ErrorAt(NotInitialized, token.Token{Type: token.Ident, Value: "u"}), "1:1: 'u' is read before it is initialized"},
		{ExpectedError(token.Token{Type: token.EOF}, token.End), "1:1: expected End, found EOF"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q; want %q", got, tt.want)
		}
	}
}
