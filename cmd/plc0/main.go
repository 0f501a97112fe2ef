package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"runtime"

	"github.com/xplshn/plc0/pkg/analyzer"
	"github.com/xplshn/plc0/pkg/cli"
	"github.com/xplshn/plc0/pkg/codegen"
	"github.com/xplshn/plc0/pkg/config"
	"github.com/xplshn/plc0/pkg/ir"
	"github.com/xplshn/plc0/pkg/lexer"
	"github.com/xplshn/plc0/pkg/source"
	"github.com/xplshn/plc0/pkg/util"
	"github.com/xplshn/plc0/pkg/vm"
)

func main() {
	app := cli.NewApp("plc0")
	app.Synopsis = "[options] <input.plc0>"
	app.Description = "A single-pass compiler for the PL/0-like teaching language: begin/end, const, var, print and integer arithmetic. Runs programs on the built-in stack machine or builds them natively through QBE or LLVM."
	app.Authors = []string{"xplshn"}
	app.Repository = "<https://github.com/xplshn/plc0>"

	var (
		outFile    string
		std        string
		target     string
		dumpIR     bool
		dumpTokens bool
		asmOnly    bool
		runListing bool
		verbose    bool
		wall       bool
		wNoAll     bool
	)

	fs := app.FlagSet
	fs.String(&outFile, "output", "o", "", "Place the output into <file>.", "file")
	fs.String(&target, "target", "t", "vm", "Backend and target: vm, llvm, qbe or qbe/<qbe-target>.", "backend/target")
	fs.String(&std, "std", "", "plc0", "Language standard preset (plc0, strict).", "std")
	fs.Bool(&dumpIR, "dump-ir", "d", false, "Print the stack-machine instruction listing and exit.")
	fs.Bool(&dumpTokens, "tokens", "", false, "Print the token stream and exit.")
	fs.Bool(&asmOnly, "asm", "S", false, "With the qbe backend, stop after emitting assembly.")
	fs.Bool(&runListing, "run-listing", "", false, "Treat the input as an instruction listing and run it on the VM.")
	fs.Bool(&verbose, "verbose", "v", false, "Report each compilation stage on stderr.")
	fs.Bool(&wall, "Wall", "", false, "Enable most warnings.")
	fs.Bool(&wNoAll, "Wno-all", "", false, "Disable all warnings.")

	cfg := config.NewConfig()
	warningFlags, featureFlags := cfg.SetupFlagGroups(fs)

	app.Action = func(args []string) error {
		if len(args) != 1 {
			return fmt.Errorf("expected exactly one input file, got %d", len(args))
		}
		if err := cfg.ApplyStd(std); err != nil {
			return err
		}
		if wall {
			cfg.SetAllWarnings(true)
		}
		if wNoAll {
			cfg.SetAllWarnings(false)
		}
		cfg.ApplyFlagGroups(warningFlags, featureFlags)
		if err := cfg.SetTarget(runtime.GOOS, runtime.GOARCH, target); err != nil {
			return err
		}

		d := &driver{cfg: cfg, outFile: outFile, verbose: verbose}
		switch {
		case runListing:
			return d.runListing(args[0])
		case dumpTokens:
			return d.dumpTokens(args[0])
		}
		prog, err := d.compile(args[0])
		if err != nil {
			return err
		}
		if dumpIR {
			_, err := prog.WriteTo(os.Stdout)
			return err
		}
		return d.emit(prog, asmOnly)
	}

	if err := app.Run(os.Args[1:]); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "plc0: error: %v\n", err)
		}
		os.Exit(1)
	}
}

// errReported marks failures whose diagnostics were already printed.
var errReported = errors.New("compilation failed")

type driver struct {
	cfg      *config.Config
	outFile  string
	verbose  bool
	reporter *util.Reporter
}

func (d *driver) info(format string, args ...any) {
	if d.verbose {
		fmt.Fprintf(os.Stderr, "plc0: info: "+format+"\n", args...)
	}
}

func (d *driver) load(path string) (*source.Source, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("could not read file '%s': %w", path, err)
		}
		defer f.Close()
		r = f
	}
	src, err := source.FromReader(r)
	if err != nil {
		return nil, err
	}
	d.reporter = util.NewReporter(os.Stderr, util.SourceFileRecord{Name: path, Content: src.Text()})
	return src, nil
}

func (d *driver) dumpTokens(path string) error {
	src, err := d.load(path)
	if err != nil {
		return err
	}
	toks, err := lexer.NewLexer(src).Tokenize()
	if err != nil {
		d.reporter.Error(err)
		return errReported
	}
	for _, tok := range toks {
		fmt.Printf("%s-%s\t%s\n", tok.Start, tok.End, tok)
	}
	return nil
}

func (d *driver) compile(path string) (*ir.Program, error) {
	src, err := d.load(path)
	if err != nil {
		return nil, err
	}
	d.info("compiling %s (std %s)", path, d.cfg.StdName)
	res, err := analyzer.Analyze(lexer.NewLexer(src), d.cfg)
	if err != nil {
		d.reporter.Error(err)
		return nil, errReported
	}
	for _, w := range res.Warnings {
		d.reporter.Warn(d.cfg, w)
	}
	d.info("%d instructions, frame of %d slots, fingerprint %016x", len(res.Program.Instructions), res.Program.FrameSize, res.Program.Fingerprint())
	return res.Program, nil
}

func (d *driver) runListing(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("could not read file '%s': %w", path, err)
	}
	defer f.Close()
	prog, err := ir.ParseListing(f)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return d.run(prog)
}

func (d *driver) run(prog *ir.Program) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	d.info("running on the VM")
	if err := vm.Run(ctx, prog, os.Stdout); err != nil {
		return fmt.Errorf("runtime: %w", err)
	}
	return nil
}

func (d *driver) emit(prog *ir.Program, asmOnly bool) error {
	if d.cfg.BackendName == "vm" {
		return d.run(prog)
	}

	backend, err := codegen.SelectBackend(d.cfg.BackendName)
	if err != nil {
		return err
	}
	d.info("generating code with '%s' backend (target %q)", d.cfg.BackendName, d.cfg.BackendTarget)
	out, err := backend.Generate(prog, d.cfg)
	if err != nil {
		return fmt.Errorf("backend code generation failed: %w", err)
	}

	if d.cfg.BackendName == "llvm" || asmOnly {
		if d.outFile == "" {
			_, err := out.WriteTo(os.Stdout)
			return err
		}
		return os.WriteFile(d.outFile, out.Bytes(), 0644)
	}

	outFile := d.outFile
	if outFile == "" {
		outFile = "a.out"
	}
	d.info("linking to create '%s'", outFile)
	if err := assembleAndLink(outFile, out.String()); err != nil {
		return fmt.Errorf("assembler/linker failed: %w", err)
	}
	return nil
}

func assembleAndLink(outFile, asm string) error {
	asmFile, err := os.CreateTemp("", "plc0-main-*.s")
	if err != nil {
		return fmt.Errorf("failed to create temp file for asm: %w", err)
	}
	defer os.Remove(asmFile.Name())
	if _, err := asmFile.WriteString(asm); err != nil {
		asmFile.Close()
		return fmt.Errorf("failed to write asm: %w", err)
	}
	asmFile.Close()

	cmd := exec.Command("cc", "-no-pie", "-o", outFile, asmFile.Name())
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("cc command failed: %w\nOutput:\n%s", err, string(output))
	}
	return nil
}
