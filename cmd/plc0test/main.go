// plc0test runs .plc0 programs through the compiler and checks the output of
// each run against a golden JSON file stored next to the source. With
// --native it also builds every program through the QBE backend and requires
// the native binary to print exactly what the VM printed.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/go-cmp/cmp"
)

type Execution struct {
	Stdout   string        `json:"stdout"`
	Stderr   string        `json:"stderr"`
	ExitCode int           `json:"exitCode"`
	Duration time.Duration `json:"duration,omitempty"`
	TimedOut bool          `json:"timed_out,omitempty"`
}

type FileTestResult struct {
	File    string     `json:"file"`
	Status  string     `json:"status"` // PASS, FAIL, SKIP, ERROR
	Message string     `json:"message,omitempty"`
	Diff    string     `json:"diff,omitempty"`
	VM      *Execution `json:"vm,omitempty"`
	Native  *Execution `json:"native,omitempty"`
}

var (
	compiler       = flag.String("compiler", "./plc0", "Path to the plc0 compiler.")
	compilerArgs   = flag.String("compiler-args", "", "Extra compiler arguments (space-separated).")
	generateGolden = flag.String("generate-golden", "", "Generate a golden .json file for a given source file.")
	testFiles      = flag.String("test-files", "tests/*.plc0", "Glob pattern(s) for files to test (space-separated).")
	skipFiles      = flag.String("skip-files", "", "Files to skip (space-separated).")
	outputJSON     = flag.String("output", ".test_results.json", "Output file for the JSON test report.")
	jsonDir        = flag.String("dir", "", "Directory to store/read golden JSON files (defaults to source file dir).")
	timeout        = flag.Duration("timeout", 5*time.Second, "Timeout for each command execution.")
	jobs           = flag.Int("j", 4, "Number of parallel test jobs.")
	native         = flag.Bool("native", false, "Also build with the qbe backend and compare against the VM.")
	verbose        = flag.Bool("v", false, "Enable verbose logging.")
	ignoreLines    = flag.String("ignore-lines", "", "Comma-separated substrings to ignore during output comparison.")
)

const (
	cRed    = "\x1b[91m"
	cYellow = "\x1b[93m"
	cGreen  = "\x1b[92m"
	cCyan   = "\x1b[96m"
	cBold   = "\x1b[1m"
	cNone   = "\x1b[0m"
)

func main() {
	flag.Parse()
	log.SetFlags(0)

	tempDir, err := os.MkdirTemp("", "plc0test-*")
	if err != nil {
		log.Fatalf("%s[ERROR]%s Failed to create temp directory: %v\n", cRed, cNone, err)
	}
	defer os.RemoveAll(tempDir)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if *generateGolden != "" {
		handleGenerateGolden(ctx, *generateGolden)
		return
	}
	if !handleRunTestSuite(ctx, tempDir) {
		os.RemoveAll(tempDir)
		os.Exit(1)
	}
}

func getJSONPath(sourceFile string) string {
	name := "." + filepath.Base(sourceFile) + ".json"
	if *jsonDir != "" {
		return filepath.Join(*jsonDir, name)
	}
	return filepath.Join(filepath.Dir(sourceFile), name)
}

// hashFile computes the xxhash of a file's content
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("%016x", h.Sum64()), nil
}

func handleGenerateGolden(ctx context.Context, sourceFile string) {
	log.Printf("Generating golden file for %s...\n", sourceFile)
	result := runOnVM(ctx, sourceFile)
	result.Duration, result.TimedOut = 0, false

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Fatalf("%s[ERROR]%s Failed to marshal golden data to JSON: %v\n", cRed, cNone, err)
	}
	if *jsonDir != "" {
		if err := os.MkdirAll(*jsonDir, 0755); err != nil {
			log.Fatalf("%s[ERROR]%s Failed to create directory %s: %v\n", cRed, cNone, *jsonDir, err)
		}
	}
	goldenFile := getJSONPath(sourceFile)
	if err := os.WriteFile(goldenFile, data, 0644); err != nil {
		log.Fatalf("%s[ERROR]%s Failed to write golden file %s: %v\n", cRed, cNone, goldenFile, err)
	}
	log.Printf("%s[SUCCESS]%s Golden file created at %s\n", cGreen, cNone, goldenFile)
}

func handleRunTestSuite(ctx context.Context, tempDir string) bool {
	files, err := expandGlobPatterns(*testFiles)
	if err != nil {
		log.Fatalf("%s[ERROR]%s Invalid glob pattern(s): %v\n", cRed, cNone, err)
	}
	if len(files) == 0 {
		log.Println("No test files found matching the pattern(s).")
		return true
	}

	skipList := make(map[string]bool)
	for _, f := range strings.Fields(*skipFiles) {
		skipList[f] = true
	}

	tasks := make(chan [2]string, len(files))
	resultsChan := make(chan *FileTestResult, len(files))
	var wg sync.WaitGroup
	for i := 0; i < max(*jobs, 1); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range tasks {
				resultsChan <- testFile(ctx, task[0], task[1], tempDir)
			}
		}()
	}

	// Files with identical content are only tested once
	seenHashes := make(map[string]string)
	for _, file := range files {
		if skipList[file] || skipList[filepath.Base(file)] {
			resultsChan <- &FileTestResult{File: file, Status: "SKIP", Message: "Explicitly skipped"}
			continue
		}
		fileHash, err := hashFile(file)
		if err != nil {
			resultsChan <- &FileTestResult{File: file, Status: "ERROR", Message: fmt.Sprintf("Failed to read file for hashing: %v", err)}
			continue
		}
		if first, seen := seenHashes[fileHash]; seen {
			resultsChan <- &FileTestResult{File: file, Status: "SKIP", Message: fmt.Sprintf("Content is identical to %s", first)}
			continue
		}
		seenHashes[fileHash] = file
		tasks <- [2]string{file, fileHash}
	}
	close(tasks)
	wg.Wait()
	close(resultsChan)

	var results []*FileTestResult
	for r := range resultsChan {
		results = append(results, r)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].File < results[j].File })

	printSummary(results)
	writeJSONReport(results)
	for _, r := range results {
		if r.Status == "FAIL" || r.Status == "ERROR" {
			return false
		}
	}
	return true
}

func testFile(ctx context.Context, file, fileHash, tempDir string) *FileTestResult {
	res := &FileTestResult{File: file}
	vmRun := runOnVM(ctx, file)
	res.VM = &vmRun

	var diffs strings.Builder
	goldenData, err := os.ReadFile(getJSONPath(file))
	switch {
	case errors.Is(err, os.ErrNotExist):
		if !*native {
			res.Status, res.Message = "SKIP", "No golden file; run with --generate-golden first"
			return res
		}
	case err != nil:
		res.Status, res.Message = "ERROR", fmt.Sprintf("Could not read golden file: %v", err)
		return res
	default:
		var golden Execution
		if err := json.Unmarshal(goldenData, &golden); err != nil {
			res.Status, res.Message = "ERROR", fmt.Sprintf("Could not parse golden file: %v", err)
			return res
		}
		compareExecutions(&diffs, "golden", "vm", golden, vmRun, true)
	}

	if *native && vmRun.ExitCode == 0 {
		nativeRun, err := runNative(ctx, file, filepath.Join(tempDir, fileHash))
		if err != nil {
			res.Status, res.Message = "FAIL", err.Error()
			res.Diff = nativeRun.Stderr
			return res
		}
		res.Native = &nativeRun
		compareExecutions(&diffs, "vm", "native", vmRun, nativeRun, false)
	}

	if diffs.Len() > 0 {
		res.Status, res.Message, res.Diff = "FAIL", "Output or exit code mismatch", diffs.String()
		return res
	}
	res.Status, res.Message = "PASS", "All checks passed"
	return res
}

func compareExecutions(diffs *strings.Builder, refName, targetName string, ref, target Execution, checkStderr bool) {
	ignored := []string{}
	if *ignoreLines != "" {
		ignored = strings.Split(*ignoreLines, ",")
	}
	if ref.ExitCode != target.ExitCode {
		fmt.Fprintf(diffs, "Exit code mismatch:\n  - %s: %d\n  - %s: %d\n", refName, ref.ExitCode, targetName, target.ExitCode)
	}
	if filterOutput(ref.Stdout, ignored) != filterOutput(target.Stdout, ignored) {
		fmt.Fprintf(diffs, "STDOUT mismatch (%s -> %s):\n%s", refName, targetName, cmp.Diff(ref.Stdout, target.Stdout))
	}
	if checkStderr && filterOutput(ref.Stderr, ignored) != filterOutput(target.Stderr, ignored) {
		fmt.Fprintf(diffs, "STDERR mismatch (%s -> %s):\n%s", refName, targetName, cmp.Diff(ref.Stderr, target.Stderr))
	}
}

func runOnVM(ctx context.Context, file string) Execution {
	args := append(strings.Fields(*compilerArgs), "-t", "vm", file)
	return executeCommand(ctx, *compiler, args...)
}

func runNative(ctx context.Context, file, binaryPath string) (Execution, error) {
	args := append(strings.Fields(*compilerArgs), "-t", "qbe", "-o", binaryPath, file)
	build := executeCommand(ctx, *compiler, args...)
	if build.ExitCode != 0 || build.TimedOut {
		return build, fmt.Errorf("native build failed with exit code %d", build.ExitCode)
	}
	return executeCommand(ctx, binaryPath), nil
}

// executeCommand runs a command with a timeout and captures its output
func executeCommand(parent context.Context, command string, args ...string) Execution {
	ctx, cancel := context.WithTimeout(parent, *timeout)
	defer cancel()

	start := time.Now()
	cmd := exec.CommandContext(ctx, command, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout, cmd.Stderr = &stdout, &stderr
	err := cmd.Run()

	result := Execution{Stdout: stdout.String(), Stderr: stderr.String(), Duration: time.Since(start)}
	var exitErr *exec.ExitError
	switch {
	case ctx.Err() == context.DeadlineExceeded:
		result.TimedOut, result.ExitCode = true, -1
	case errors.As(err, &exitErr):
		result.ExitCode = exitErr.ExitCode()
	case err != nil:
		result.ExitCode = -2
		result.Stderr += "\nExecution error: " + err.Error()
	}
	if *verbose {
		log.Printf("%s %s -> exit %d in %s", command, strings.Join(args, " "), result.ExitCode, result.Duration)
	}
	return result
}

// filterOutput removes lines containing any of the given substrings
func filterOutput(output string, ignored []string) string {
	if len(ignored) == 0 || output == "" {
		return output
	}
	lines := strings.Split(output, "\n")
	kept := lines[:0]
	for _, line := range lines {
		drop := false
		for _, sub := range ignored {
			if sub != "" && strings.Contains(line, sub) {
				drop = true
				break
			}
		}
		if !drop {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

func printSummary(results []*FileTestResult) {
	var passed, failed, skipped, errored int
	for _, r := range results {
		fmt.Println("----------------------------------------------------------------------")
		fmt.Printf("Testing %s%s%s...\n", cCyan, r.File, cNone)
		switch r.Status {
		case "PASS":
			passed++
			fmt.Printf("  [%sPASS%s] %s\n", cGreen, cNone, r.Message)
		case "FAIL":
			failed++
			fmt.Printf("  [%sFAIL%s] %s\n", cRed, cNone, r.Message)
			fmt.Println(formatDiff(r.Diff))
		case "SKIP":
			skipped++
			fmt.Printf("  [%sSKIP%s] %s\n", cYellow, cNone, r.Message)
		case "ERROR":
			errored++
			fmt.Printf("  [%sERROR%s] %s\n", cRed, cNone, r.Message)
		}
		if *verbose && r.VM != nil {
			fmt.Printf("    vm: %s", r.VM.Duration)
			if r.Native != nil {
				fmt.Printf(", native: %s", r.Native.Duration)
			}
			fmt.Println()
		}
	}
	fmt.Println("----------------------------------------------------------------------")
	fmt.Printf("%sTest Summary:%s %s%d Passed%s, %s%d Failed%s, %s%d Skipped%s, %s%d Errored%s, %d Total\n",
		cBold, cNone, cGreen, passed, cNone, cRed, failed, cNone, cYellow, skipped, cNone, cRed, errored, cNone, len(results))
}

func formatDiff(diff string) string {
	if diff == "" {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("    --- Diff ---\n")
	for _, line := range strings.Split(diff, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "-"):
			sb.WriteString(cRed)
		case strings.HasPrefix(trimmed, "+"):
			sb.WriteString(cGreen)
		}
		sb.WriteString("    " + line + cNone + "\n")
	}
	return sb.String()
}

func writeJSONReport(results []*FileTestResult) {
	byFile := make(map[string]*FileTestResult, len(results))
	for _, r := range results {
		byFile[r.File] = r
	}
	data, err := json.MarshalIndent(byFile, "", "  ")
	if err != nil {
		log.Printf("%s[ERROR]%s Failed to marshal results to JSON: %v\n", cRed, cNone, err)
		return
	}
	outputFile := *outputJSON
	if *jsonDir != "" {
		if err := os.MkdirAll(*jsonDir, 0755); err != nil {
			log.Printf("%s[ERROR]%s Failed to create dir %s: %v\n", cRed, cNone, *jsonDir, err)
		}
		outputFile = filepath.Join(*jsonDir, *outputJSON)
	}
	if err := os.WriteFile(outputFile, data, 0644); err != nil {
		log.Printf("%s[ERROR]%s Failed to write JSON report to %s: %v\n", cRed, cNone, outputFile, err)
		return
	}
	fmt.Printf("Full test report saved to %s\n", outputFile)
}

func expandGlobPatterns(patterns string) ([]string, error) {
	var all []string
	seen := make(map[string]bool)
	for _, pattern := range strings.Fields(patterns) {
		files, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %s: %w", pattern, err)
		}
		for _, file := range files {
			abs, err := filepath.Abs(file)
			if err != nil || seen[abs] {
				continue
			}
			if info, err := os.Stat(abs); err == nil && info.Mode().IsRegular() {
				all = append(all, abs)
				seen[abs] = true
			}
		}
	}
	return all, nil
}
