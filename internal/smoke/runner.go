// Package smoke runs an external formatter over every file of a corpus and
// aggregates which files it rejects and which runs are slow.
package smoke

import (
	"context"
	"io"
	"os/exec"
	"time"
)

const (
	DefaultFormatter     = "cmakefmt"
	DefaultSlowThreshold = 100 * time.Millisecond
)

// Options configures a Runner.
type Options struct {
	// Formatter is the executable name or path.
	Formatter string
	// Args are passed to the formatter before the file path.
	Args []string
	// SlowThreshold marks runs taking strictly longer as slow.
	SlowThreshold time.Duration
	// Output receives the formatter's stdout and stderr. Nil discards them.
	Output io.Writer
}

// Observer is called after each file, in enumeration order.
type Observer func(FileResult)

// Runner invokes the formatter once per file, sequentially.
type Runner struct {
	opts Options
	now  func() time.Time
}

// NewRunner returns a Runner, filling in the default formatter and threshold.
func NewRunner(opts Options) *Runner {
	if opts.Formatter == "" {
		opts.Formatter = DefaultFormatter
	}
	if opts.SlowThreshold <= 0 {
		opts.SlowThreshold = DefaultSlowThreshold
	}
	return &Runner{opts: opts, now: time.Now}
}

// RunOne invokes the formatter on a single file. Launch failures and non-zero
// exits both produce Succeeded=false; RunOne never returns an error.
func (r *Runner) RunOne(ctx context.Context, file string) FileResult {
	args := make([]string, 0, len(r.opts.Args)+1)
	args = append(args, r.opts.Args...)
	args = append(args, file)

	cmd := exec.CommandContext(ctx, r.opts.Formatter, args...)
	if r.opts.Output != nil {
		cmd.Stdout = r.opts.Output
		cmd.Stderr = r.opts.Output
	}

	start := r.now()
	// Run waits for the process, releasing it on the failure path too.
	err := cmd.Run()
	dur := r.now().Sub(start)
	if dur < 0 {
		dur = 0
	}

	res := FileResult{
		File:           file,
		Succeeded:      err == nil,
		Duration:       dur,
		DurationMillis: dur.Milliseconds(),
		Slow:           dur > r.opts.SlowThreshold,
		Err:            err,
	}
	if err != nil {
		res.Error = err.Error()
	}
	return res
}

// Run enumerates root and runs the formatter on each file in turn. A failing
// file never stops the run; only an enumeration error is returned.
func (r *Runner) Run(ctx context.Context, root string, observe Observer) (Summary, error) {
	files, err := Enumerate(root)
	if err != nil {
		return r.newSummary(root), err
	}
	return r.RunFiles(ctx, root, files, observe), nil
}

// RunFiles is Run over an already enumerated file list. It stops early only
// when ctx is cancelled; the returned summary then covers the files that
// finished. A formatter killed by the cancellation is not counted.
func (r *Runner) RunFiles(ctx context.Context, root string, files []string, observe Observer) Summary {
	summary := r.newSummary(root)
	for _, file := range files {
		if ctx.Err() != nil {
			break
		}
		res := r.RunOne(ctx, file)
		if ctx.Err() != nil {
			break
		}
		summary.Add(res)
		if observe != nil {
			observe(res)
		}
	}
	return summary
}

// SlowThreshold returns the effective threshold after defaults.
func (r *Runner) SlowThreshold() time.Duration {
	return r.opts.SlowThreshold
}

func (r *Runner) newSummary(root string) Summary {
	return Summary{
		Root:        root,
		Failed:      []string{},
		Slow:        []SlowFile{},
		ThresholdMs: r.opts.SlowThreshold.Milliseconds(),
	}
}
