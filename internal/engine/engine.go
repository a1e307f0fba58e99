// Package engine wires the smoke runner to the output sinks for `cmakesmoke test`.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"cmakesmoke/internal/config"
	"cmakesmoke/internal/output"
	"cmakesmoke/internal/smoke"

	"github.com/mattn/go-isatty"
)

func exitCodeForRun(fatal, failures bool) int {
	// Exit code contract:
	// 0 = every file formatted successfully
	// 1 = at least one file failed
	// 3 = fatal error (run did not start or was interrupted)
	if fatal {
		return 3
	}
	if failures {
		return 1
	}
	return 0
}

type Engine struct {
	Stdout io.Writer
	Stderr io.Writer

	// isTerminal reports whether Stderr is an interactive terminal.
	isTerminal func() bool
}

func NewEngine() *Engine {
	return &Engine{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		isTerminal: func() bool {
			fd := os.Stderr.Fd()
			return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
		},
	}
}

// Run executes a smoke test with a default Engine.
func Run(ctx context.Context, cfg *config.Config) int {
	return NewEngine().Run(ctx, cfg)
}

func (e *Engine) wantProgress(cfg *config.Config) bool {
	switch cfg.Smoke.Progress {
	case "always":
		return true
	case "never":
		return false
	default:
		return !cfg.Output.NoConsole && e.isTerminal != nil && e.isTerminal()
	}
}

func (e *Engine) setupOutputManager(cfg *config.Config) (*output.Manager, error) {
	outMgr := output.NewManager()

	// Console Sink
	if !cfg.Output.NoConsole {
		if err := outMgr.AddSink(output.NewConsoleSink(e.Stdout, cfg.Output.ConsoleFormat)); err != nil {
			outMgr.Close()
			return nil, err
		}
	}

	// Emit Sinks (additional structured streams)
	for _, emit := range cfg.Output.Emit {
		es, err := output.NewEmitSink(e.Stdout, emit)
		if err != nil {
			outMgr.Close()
			return nil, err
		}
		if err := outMgr.AddSink(es); err != nil {
			outMgr.Close()
			return nil, err
		}
	}

	// File Sink
	if cfg.Output.Out != "" {
		fs, err := output.NewFileSink(cfg.Output.Out, cfg.Output.OutFormat)
		if err != nil {
			outMgr.Close()
			return nil, err
		}
		if err := outMgr.AddSink(fs); err != nil {
			outMgr.Close()
			return nil, err
		}
	}

	// Report Sink
	if cfg.Output.Report != "" {
		rs, err := output.NewReportSink(cfg.Output.Report)
		if err != nil {
			outMgr.Close()
			return nil, err
		}
		if err := outMgr.AddSink(rs); err != nil {
			outMgr.Close()
			return nil, err
		}
	}

	// Progress Sink
	if e.wantProgress(cfg) {
		if err := outMgr.AddSink(output.NewProgressSink(e.Stderr)); err != nil {
			outMgr.Close()
			return nil, err
		}
	}

	return outMgr, nil
}

func (e *Engine) Run(ctx context.Context, cfg *config.Config) int {
	files, err := smoke.Enumerate(cfg.Smoke.TestRoot)
	if err != nil {
		fmt.Fprintf(e.Stderr, "Error enumerating test files: %v\n", err)
		return exitCodeForRun(true, false)
	}

	outMgr, err := e.setupOutputManager(cfg)
	if err != nil {
		fmt.Fprintf(e.Stderr, "Error creating output sinks: %v\n", err)
		return exitCodeForRun(true, false)
	}

	runner := smoke.NewRunner(smoke.Options{
		Formatter:     cfg.Smoke.Formatter,
		Args:          cfg.Smoke.FormatterArgs,
		SlowThreshold: cfg.Smoke.SlowThreshold,
		Output:        e.formatterOutput(cfg),
	})

	var sinkErr error
	write := func(v any) {
		if err := outMgr.Write(v); err != nil && sinkErr == nil {
			sinkErr = err
		}
	}

	write(output.Event{Type: output.EventRunStarted, Root: cfg.Smoke.TestRoot, Files: len(files)})

	summary := runner.RunFiles(ctx, cfg.Smoke.TestRoot, files, func(r smoke.FileResult) {
		write(r)
	})
	write(summary)

	fatal := false
	if err := ctx.Err(); err != nil {
		fmt.Fprintf(e.Stderr, "Run interrupted after %d of %d files: %v\n", summary.TotalFiles, len(files), err)
		fatal = true
	}

	code := exitCodeForRun(fatal, summary.FailureCount > 0)
	write(output.Event{Type: output.EventRunFinished, Summary: &summary, ExitCode: code})

	closeErr := outMgr.Close()
	if err := errors.Join(sinkErr, closeErr); err != nil {
		fmt.Fprintf(e.Stderr, "Error writing output: %v\n", err)
		return exitCodeForRun(true, false)
	}
	return code
}

func (e *Engine) formatterOutput(cfg *config.Config) io.Writer {
	if !cfg.Smoke.ShowOutput {
		return nil
	}
	return e.Stderr
}
