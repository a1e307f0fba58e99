package output

import (
	"fmt"
	"io"
	"sync"
)

// EmitSink writes an additional structured stream (json or ndjson), typically
// to stdout alongside a suppressed console.
type EmitSink struct {
	mu         sync.Mutex
	structured *structuredWriter
}

func NewEmitSink(w io.Writer, format string) (*EmitSink, error) {
	if w == nil {
		return nil, fmt.Errorf("emit sink writer must not be nil")
	}
	if !validStructuredFormat(format) {
		return nil, fmt.Errorf("unsupported emit format: %s", format)
	}
	return &EmitSink{structured: &structuredWriter{w: w, format: format}}, nil
}

func (s *EmitSink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.structured.write(v)
}

func (s *EmitSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.structured.close()
}
