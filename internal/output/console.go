package output

import (
	"fmt"
	"io"
	"os"
	"sync"

	"cmakesmoke/internal/smoke"

	"github.com/fatih/color"
)

// ConsoleSink is the human-facing sink. In text mode it prints, as results
// arrive, one line per failing file and one "slow <file> <N>ms" line per slow
// run, then "total N" and "failures N" once the summary is written.
type ConsoleSink struct {
	writer     io.Writer
	format     string // "text", "json", "ndjson"
	mu         sync.Mutex
	structured *structuredWriter
	failColor  *color.Color
	slowColor  *color.Color
}

func NewConsoleSink(w io.Writer, format string) *ConsoleSink {
	if w == nil {
		w = os.Stdout
	}
	if format == "" {
		format = "text"
	}
	return &ConsoleSink{
		writer:     w,
		format:     format,
		structured: &structuredWriter{w: w, format: format},
		failColor:  color.New(color.FgRed),
		slowColor:  color.New(color.FgYellow),
	}
}

func (s *ConsoleSink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.format {
	case "json", "ndjson":
		return s.structured.write(v)
	case "text":
		return s.writeText(v)
	default:
		return fmt.Errorf("unsupported console format: %s", s.format)
	}
}

func (s *ConsoleSink) writeText(v any) error {
	switch t := v.(type) {
	case smoke.FileResult:
		if !t.Succeeded {
			if _, err := s.failColor.Fprintln(s.writer, t.File); err != nil {
				return err
			}
		}
		if t.Slow {
			if _, err := s.slowColor.Fprintf(s.writer, "slow %s %dms\n", t.File, t.DurationMillis); err != nil {
				return err
			}
		}
	case smoke.Summary:
		if _, err := fmt.Fprintf(s.writer, "total %d\nfailures %d\n", t.TotalFiles, t.FailureCount); err != nil {
			return err
		}
	default:
		// Lifecycle events are not shown in text mode.
		return nil
	}
	return flushIfPossible(s.writer)
}

func (s *ConsoleSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.format {
	case "text":
		return nil
	case "json", "ndjson":
		return s.structured.close()
	default:
		return fmt.Errorf("unsupported console format: %s", s.format)
	}
}
