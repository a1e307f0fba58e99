package smoke

import "time"

// FileResult is the outcome of one formatter invocation.
type FileResult struct {
	File      string        `json:"file"`
	Succeeded bool          `json:"succeeded"`
	Duration  time.Duration `json:"-"`
	// DurationMillis mirrors Duration for structured output.
	DurationMillis int64 `json:"duration_ms"`
	Slow           bool  `json:"slow,omitempty"`
	// Err is the launch or exit error; only used for structured output.
	Err error `json:"-"`
	// Error is Err rendered for structured output.
	Error string `json:"error,omitempty"`
}

// SlowFile is a file whose formatter run exceeded the slow threshold.
type SlowFile struct {
	File           string        `json:"file"`
	Duration       time.Duration `json:"-"`
	DurationMillis int64         `json:"duration_ms"`
}

// Summary aggregates one smoke-test run. Failed keeps enumeration order.
type Summary struct {
	Root         string     `json:"root"`
	TotalFiles   int        `json:"total_files"`
	FailureCount int        `json:"failure_count"`
	Failed       []string   `json:"failed"`
	Slow         []SlowFile `json:"slow"`
	ThresholdMs  int64      `json:"slow_threshold_ms"`
}

// Add folds one result into the summary.
func (s *Summary) Add(r FileResult) {
	s.TotalFiles++
	if !r.Succeeded {
		s.FailureCount++
		s.Failed = append(s.Failed, r.File)
	}
	if r.Slow {
		s.Slow = append(s.Slow, SlowFile{File: r.File, Duration: r.Duration, DurationMillis: r.DurationMillis})
	}
}
