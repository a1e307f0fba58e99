package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"cmakesmoke/internal/config"
	"cmakesmoke/internal/output"

	"github.com/fatih/color"
)

func init() {
	color.NoColor = true
}

func writeStub(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("test uses a shell script formatter stub")
	}
	path := filepath.Join(t.TempDir(), "fmt-stub")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755); err != nil {
		t.Fatalf("WriteFile stub: %v", err)
	}
	return path
}

func writeCorpus(t *testing.T, names ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, name := range names {
		p := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatalf("MkdirAll: %v", err)
		}
		if err := os.WriteFile(p, []byte("project(x)\n"), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}
	return root
}

func newTestEngine() (*Engine, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	return &Engine{Stdout: &stdout, Stderr: &stderr, isTerminal: func() bool { return false }}, &stdout, &stderr
}

func testConfig(root, formatter string) *config.Config {
	cfg := config.New()
	cfg.Smoke.TestRoot = root
	cfg.Smoke.Formatter = formatter
	cfg.Smoke.SlowThreshold = 10 * time.Second
	return cfg
}

func TestExitCodeForRun(t *testing.T) {
	tests := []struct {
		fatal, failures bool
		want            int
	}{
		{false, false, 0},
		{false, true, 1},
		{true, false, 3},
		{true, true, 3},
	}
	for _, tt := range tests {
		if got := exitCodeForRun(tt.fatal, tt.failures); got != tt.want {
			t.Errorf("exitCodeForRun(%v, %v) = %d, want %d", tt.fatal, tt.failures, got, tt.want)
		}
	}
}

func TestEngine_Run_AllPass(t *testing.T) {
	root := writeCorpus(t, "a/CMakeLists.txt", "b/CMakeLists.txt")
	eng, stdout, _ := newTestEngine()

	code := eng.Run(context.Background(), testConfig(root, writeStub(t, "exit 0\n")))
	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
	if got, want := stdout.String(), "total 2\nfailures 0\n"; got != want {
		t.Fatalf("stdout = %q, want %q", got, want)
	}
}

func TestEngine_Run_ReportsFailures(t *testing.T) {
	root := writeCorpus(t, "one/CMakeLists.txt", "two/CMakeLists.txt", "three/CMakeLists.txt")
	stub := writeStub(t, `case "$1" in */two/*) exit 1;; esac
exit 0
`)
	eng, stdout, _ := newTestEngine()

	code := eng.Run(context.Background(), testConfig(root, stub))
	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	want := filepath.Join(root, "two", "CMakeLists.txt") + "\ntotal 3\nfailures 1\n"
	if got := stdout.String(); got != want {
		t.Fatalf("stdout = %q, want %q", got, want)
	}
}

func TestEngine_Run_MissingRootIsFatal(t *testing.T) {
	eng, stdout, stderr := newTestEngine()

	code := eng.Run(context.Background(), testConfig(filepath.Join(t.TempDir(), "missing"), "true"))
	if code != 3 {
		t.Fatalf("exit code = %d, want 3", code)
	}
	if stdout.Len() != 0 {
		t.Fatalf("expected no stdout, got %q", stdout.String())
	}
	if !strings.Contains(stderr.String(), "Error enumerating test files") {
		t.Fatalf("stderr = %q", stderr.String())
	}
}

func TestEngine_Run_NoConsole(t *testing.T) {
	root := writeCorpus(t, "CMakeLists.txt")
	eng, stdout, stderr := newTestEngine()

	cfg := testConfig(root, writeStub(t, "exit 1\n"))
	cfg.Output.NoConsole = true

	if code := eng.Run(context.Background(), cfg); code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if strings.TrimSpace(stdout.String()+stderr.String()) != "" {
		t.Errorf("expected no console output when NoConsole is true; got:\n%s%s", stdout.String(), stderr.String())
	}
}

func TestEngine_Run_EmitNDJSON(t *testing.T) {
	root := writeCorpus(t, "a.cmake", "b.cmake")
	eng, stdout, _ := newTestEngine()

	cfg := testConfig(root, writeStub(t, "exit 0\n"))
	cfg.Output.NoConsole = true
	cfg.Output.Emit = []string{"ndjson"}

	if code := eng.Run(context.Background(), cfg); code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}

	var types []string
	for _, line := range strings.Split(strings.TrimSpace(stdout.String()), "\n") {
		var ev output.Event
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			t.Fatalf("invalid ndjson line %q: %v", line, err)
		}
		types = append(types, ev.Type)
		if ev.Type == output.EventRunStarted && ev.Files != 2 {
			t.Fatalf("run.started files = %d, want 2", ev.Files)
		}
		if ev.Type == output.EventRunFinished && (ev.Summary == nil || ev.Summary.TotalFiles != 2) {
			t.Fatalf("run.finished summary = %+v", ev.Summary)
		}
	}
	want := []string{"run.started", "file.result", "file.result", "run.finished"}
	if strings.Join(types, ",") != strings.Join(want, ",") {
		t.Fatalf("event types = %v, want %v", types, want)
	}
}

func TestEngine_Run_WritesOutFileAndReport(t *testing.T) {
	root := writeCorpus(t, "ok.cmake", "bad.cmake")
	stub := writeStub(t, `case "$1" in */bad.cmake) exit 2;; esac
exit 0
`)
	dir := t.TempDir()
	eng, _, _ := newTestEngine()

	cfg := testConfig(root, stub)
	cfg.Output.NoConsole = true
	cfg.Output.Out = filepath.Join(dir, "summary.json")
	cfg.Output.OutFormat = "json"
	cfg.Output.Report = filepath.Join(dir, "report.md")

	if code := eng.Run(context.Background(), cfg); code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}

	raw, err := os.ReadFile(cfg.Output.Out)
	if err != nil {
		t.Fatalf("read out file: %v", err)
	}
	var sum struct {
		TotalFiles   int      `json:"total_files"`
		FailureCount int      `json:"failure_count"`
		Failed       []string `json:"failed"`
	}
	if err := json.Unmarshal(raw, &sum); err != nil {
		t.Fatalf("decode summary: %v\n%s", err, raw)
	}
	if sum.TotalFiles != 2 || sum.FailureCount != 1 || len(sum.Failed) != 1 || !strings.HasSuffix(sum.Failed[0], "bad.cmake") {
		t.Fatalf("summary = %+v", sum)
	}

	report, err := os.ReadFile(cfg.Output.Report)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if !strings.Contains(string(report), "bad.cmake") {
		t.Fatalf("report does not mention failing file:\n%s", report)
	}
}

func TestEngine_Run_CancelledContextIsFatal(t *testing.T) {
	root := writeCorpus(t, "a.cmake", "b.cmake")
	eng, _, stderr := newTestEngine()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if code := eng.Run(ctx, testConfig(root, writeStub(t, "exit 0\n"))); code != 3 {
		t.Fatalf("exit code = %d, want 3", code)
	}
	if !strings.Contains(stderr.String(), "interrupted") {
		t.Fatalf("stderr = %q", stderr.String())
	}
}

func TestEngine_WantProgress(t *testing.T) {
	tests := []struct {
		progress  string
		noConsole bool
		tty       bool
		want      bool
	}{
		{"always", false, false, true},
		{"never", false, true, false},
		{"auto", false, true, true},
		{"auto", false, false, false},
		{"auto", true, true, false},
	}
	for _, tt := range tests {
		eng := &Engine{isTerminal: func() bool { return tt.tty }}
		cfg := config.New()
		cfg.Smoke.Progress = tt.progress
		cfg.Output.NoConsole = tt.noConsole
		if got := eng.wantProgress(cfg); got != tt.want {
			t.Errorf("wantProgress(%q, noConsole=%v, tty=%v) = %v, want %v", tt.progress, tt.noConsole, tt.tty, got, tt.want)
		}
	}
}

func TestEngine_Run_ShowOutputForwardsToStderr(t *testing.T) {
	root := writeCorpus(t, "a.cmake")
	eng, _, stderr := newTestEngine()

	cfg := testConfig(root, writeStub(t, "echo formatted-output\nexit 0\n"))
	cfg.Smoke.ShowOutput = true

	if code := eng.Run(context.Background(), cfg); code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
	if !strings.Contains(stderr.String(), "formatted-output") {
		t.Fatalf("stderr = %q, want formatter output", stderr.String())
	}
}
