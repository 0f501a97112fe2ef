package util

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/xplshn/plc0/pkg/config"
	"github.com/xplshn/plc0/pkg/token"
)

// Diagnostic is a non-fatal finding produced during analysis.
type Diagnostic struct {
	Warning config.Warning
	Tok     token.Token
	Msg     string
}

// SourceFileRecord tracks the name and content of the file being compiled.
type SourceFileRecord struct {
	Name    string
	Content []rune
}

// Reporter renders errors and warnings against one source file.
type Reporter struct {
	w     io.Writer
	src   SourceFileRecord
	color bool
}

func NewReporter(w io.Writer, src SourceFileRecord) *Reporter {
	r := &Reporter{w: w, src: src}
	if f, ok := w.(*os.File); ok {
		r.color = term.IsTerminal(int(f.Fd()))
	}
	return r
}

func (r *Reporter) SetColor(enabled bool) { r.color = enabled }

func (r *Reporter) paint(code, s string) string {
	if !r.color {
		return s
	}
	return code + s + "\033[0m"
}

// printErrorLine prints the source line and a caret indicating the error position
func (r *Reporter) printErrorLine(pos token.Pos, length int) {
	content := r.src.Content
	if len(content) == 0 {
		return
	}
	lineNum := pos.Line
	lineStart := 0
	// Find the start of the error line
	for i, ch := range content {
		if lineNum <= 0 {
			break
		}
		if ch == '\n' {
			lineNum--
			lineStart = i + 1
		}
	}
	lineEnd := len(content)
	for i := lineStart; i < len(content); i++ {
		if content[i] == '\n' {
			lineEnd = i
			break
		}
	}

	fmt.Fprintf(r.w, "  %s\n", string(content[lineStart:lineEnd]))
	underline := "^"
	if length > 1 {
		underline += strings.Repeat("~", length-1)
	}
	fmt.Fprintf(r.w, "  %s%s\n", strings.Repeat(" ", pos.Column), r.paint("\033[32m", underline))
}

// Error prints err. Compile errors get a position and a source excerpt.
func (r *Reporter) Error(err error) {
	var ce *CompileError
	if !errors.As(err, &ce) {
		fmt.Fprintf(r.w, "%s: %s %v\n", r.src.Name, r.paint("\033[31m", "error:"), err)
		return
	}
	pos, length := ce.Span()
	fmt.Fprintf(r.w, "%s:%s: %s %s\n", r.src.Name, pos, r.paint("\033[31m", "error:"), ce.Message())
	r.printErrorLine(pos, length)
}

// Warn prints d if its warning is enabled in cfg.
func (r *Reporter) Warn(cfg *config.Config, d Diagnostic) {
	if !cfg.IsWarningEnabled(d.Warning) {
		return
	}
	fmt.Fprintf(r.w, "%s:%s: %s %s [-W%s]\n", r.src.Name, d.Tok.Start, r.paint("\033[33m", "warning:"), d.Msg, cfg.Warnings[d.Warning].Name)
	r.printErrorLine(d.Tok.Start, d.Tok.Len())
}
