package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type parsed struct {
	Out, Target string
	Verbose     bool
	Args        []string
}

func parse(t *testing.T, args ...string) (parsed, error) {
	t.Helper()
	var p parsed
	fs := NewFlagSet("test")
	fs.String(&p.Out, "output", "o", "", "output file", "file")
	fs.String(&p.Target, "target", "t", "vm", "backend", "backend")
	fs.Bool(&p.Verbose, "verbose", "v", false, "verbose")
	err := fs.Parse(args)
	p.Args = fs.Args()
	return p, err
}

func TestParseForms(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want parsed
	}{
		{"defaults", []string{"in.plc0"}, parsed{Target: "vm", Args: []string{"in.plc0"}}},
		{"long with space", []string{"--output", "a.out", "in"}, parsed{Out: "a.out", Target: "vm", Args: []string{"in"}}},
		{"single dash long", []string{"-target=qbe", "in"}, parsed{Target: "qbe", Args: []string{"in"}}},
		{"double dash equals", []string{"--target=llvm/x86_64"}, parsed{Target: "llvm/x86_64", Args: []string{}}},
		{"shorthand separate", []string{"-o", "bin", "-v"}, parsed{Out: "bin", Target: "vm", Verbose: true, Args: []string{}}},
		{"shorthand attached", []string{"-obin", "-tqbe"}, parsed{Out: "bin", Target: "qbe", Args: []string{}}},
		{"bool explicit", []string{"--verbose=false", "x"}, parsed{Target: "vm", Args: []string{"x"}}},
		{"terminator", []string{"-v", "--", "-o", "x"}, parsed{Target: "vm", Verbose: true, Args: []string{"-o", "x"}}},
		{"stdin dash", []string{"-"}, parsed{Target: "vm", Args: []string{"-"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parse(t, tt.args...)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("parse mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	for _, args := range [][]string{
		{"--nope"},
		{"-o"},
		{"--verbose=maybe"},
	} {
		if _, err := parse(t, args...); err == nil {
			t.Errorf("Parse(%v) succeeded", args)
		}
	}
}

func TestWriteHelp(t *testing.T) {
	app := NewApp("plc0")
	app.Synopsis = "[options] <input.plc0>"
	app.Authors = []string{"someone"}
	var out string
	app.FlagSet.String(&out, "output", "o", "", "Place the output into <file>.", "file")
	on, off := false, false
	app.FlagSet.AddFlagGroup("Warning Flags", "", "warning", "Available Warnings:", []FlagGroupEntry{
		{Name: "unused", Prefix: "W", Usage: "Warn about unused names.", Enabled: &on, Disabled: &off},
	})

	var buf bytes.Buffer
	app.WriteHelp(&buf, 80)
	help := buf.String()
	for _, want := range []string{"Synopsis", "plc0 [options] <input.plc0>", "-o, --output <file>", "Warning Flags", "-Wno-<warning>", "unused"} {
		if !strings.Contains(help, want) {
			t.Errorf("help lacks %q:\n%s", want, help)
		}
	}
	if strings.Contains(help, "--Wunused") {
		t.Errorf("grouped flag listed among options:\n%s", help)
	}
}

func TestWrapText(t *testing.T) {
	got := wrapText("one two three four", 9)
	if diff := cmp.Diff([]string{"one two", "three", "four"}, got); diff != "" {
		t.Errorf("wrapText (-want +got):\n%s", diff)
	}
}
