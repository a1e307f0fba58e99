package output

import (
	"fmt"
	"io"
	"sync"

	"cmakesmoke/internal/smoke"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
)

// ProgressSink draws a progress bar (normally on stderr) while the run is in
// flight. The bar is created on run.started, once the file count is known.
type ProgressSink struct {
	w      io.Writer
	mu     sync.Mutex
	bar    *progressbar.ProgressBar
	passed int
	failed int
}

func NewProgressSink(w io.Writer) *ProgressSink {
	return &ProgressSink{w: w}
}

func (p *ProgressSink) Write(v any) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch t := v.(type) {
	case Event:
		if t.Type == EventRunStarted && p.bar == nil {
			p.bar = p.newBar(t.Files)
		}
	case smoke.FileResult:
		if p.bar == nil {
			return nil
		}
		if t.Succeeded {
			p.passed++
		} else {
			p.failed++
		}
		p.bar.Describe(describe(p.passed, p.failed))
		return p.bar.Add(1)
	}
	return nil
}

func (p *ProgressSink) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar == nil {
		return nil
	}
	return p.bar.Finish()
}

func (p *ProgressSink) newBar(total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(describe(0, 0)),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        color.CyanString("█"),
			SaucerHead:    color.CyanString("█"),
			SaucerPadding: "░",
			BarStart:      "│",
			BarEnd:        "│",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWriter(p.w),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(p.w, "\n")
		}),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func describe(passed, failed int) string {
	return color.CyanString("Formatting: ") +
		color.GreenString("[ok: %d", passed) +
		" | " +
		color.RedString("failed: %d]", failed)
}
