package output

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"cmakesmoke/internal/smoke"
)

// slowestShown caps the slow table in the Markdown report.
const slowestShown = 50

// ReportSink writes a Markdown summary of the run when closed.
type ReportSink struct {
	path         string
	file         *os.File
	mu           sync.Mutex
	summary      *smoke.Summary
	exitCode     int
	haveExitCode bool
}

func NewReportSink(path string) (*ReportSink, error) {
	if path == "" {
		return nil, fmt.Errorf("report path required")
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create report file: %w", err)
	}
	return &ReportSink{path: path, file: f}, nil
}

func (s *ReportSink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch t := v.(type) {
	case smoke.Summary:
		s.summary = &t
	case Event:
		if t.Type == EventRunFinished {
			s.exitCode = t.ExitCode
			s.haveExitCode = true
		}
	}
	return nil
}

func (s *ReportSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.file.WriteString(renderReport(s.summary, s.exitCode, s.haveExitCode))
	if closeErr := s.file.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}

func renderReport(sum *smoke.Summary, exitCode int, haveExitCode bool) string {
	var b strings.Builder
	b.WriteString("# cmakesmoke Report\n\n")

	if sum == nil {
		b.WriteString("The run did not complete; no results were recorded.\n")
		return b.String()
	}

	passed := sum.TotalFiles - sum.FailureCount
	b.WriteString("| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Test root | `%s` |\n", sum.Root)
	fmt.Fprintf(&b, "| Files | %d |\n", sum.TotalFiles)
	fmt.Fprintf(&b, "| Passed | %d |\n", passed)
	fmt.Fprintf(&b, "| Failed | %d |\n", sum.FailureCount)
	fmt.Fprintf(&b, "| Slow (> %dms) | %d |\n", sum.ThresholdMs, len(sum.Slow))
	if haveExitCode {
		fmt.Fprintf(&b, "| Exit code | %d |\n", exitCode)
	}

	b.WriteString("\n## Failed files\n\n")
	if len(sum.Failed) == 0 {
		b.WriteString("None.\n")
	}
	for _, f := range sum.Failed {
		fmt.Fprintf(&b, "- `%s`\n", f)
	}

	b.WriteString("\n## Slow files\n\n")
	if len(sum.Slow) == 0 {
		b.WriteString("None.\n")
		return b.String()
	}

	slow := append([]smoke.SlowFile(nil), sum.Slow...)
	sort.SliceStable(slow, func(i, j int) bool {
		return slow[i].DurationMillis > slow[j].DurationMillis
	})
	b.WriteString("| File | Duration |\n|---|---|\n")
	for i, sf := range slow {
		if i == slowestShown {
			fmt.Fprintf(&b, "\n_%d more not shown._\n", len(slow)-slowestShown)
			break
		}
		fmt.Fprintf(&b, "| `%s` | %dms |\n", sf.File, sf.DurationMillis)
	}
	return b.String()
}
