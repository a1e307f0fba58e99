package output

import (
	"encoding/json"
	"fmt"
	"io"

	"cmakesmoke/internal/smoke"
)

// structuredWriter implements the json and ndjson formats shared by the
// console, emit and file sinks.
//
//   - json: remembers the last smoke.Summary and writes it on close
//   - ndjson: streams Events, converting file results as they arrive
type structuredWriter struct {
	w       io.Writer
	format  string
	summary *smoke.Summary
}

func validStructuredFormat(format string) bool {
	return format == "json" || format == "ndjson"
}

func (s *structuredWriter) write(v any) error {
	switch s.format {
	case "json":
		if sum, ok := v.(smoke.Summary); ok {
			s.summary = &sum
		}
		return nil
	case "ndjson":
		var e Event
		switch t := v.(type) {
		case Event:
			e = t
		case smoke.FileResult:
			e = eventFromResult(t)
		default:
			return nil
		}
		if err := json.NewEncoder(s.w).Encode(e); err != nil {
			return err
		}
		return flushIfPossible(s.w)
	default:
		return fmt.Errorf("unsupported structured format: %s", s.format)
	}
}

func (s *structuredWriter) close() error {
	if s.format != "json" {
		return nil
	}
	if s.summary == nil {
		// Nothing ran (e.g. fatal error before the summary): write an explicit null.
		_, err := io.WriteString(s.w, "null\n")
		return err
	}
	encoder := json.NewEncoder(s.w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(s.summary); err != nil {
		return err
	}
	return flushIfPossible(s.w)
}

type flusher interface {
	Flush() error
}

func flushIfPossible(w io.Writer) error {
	f, ok := w.(flusher)
	if !ok {
		return nil
	}
	return f.Flush()
}
