package output

import "cmakesmoke/internal/smoke"

const (
	EventRunStarted  = "run.started"
	EventFileResult  = "file.result"
	EventRunFinished = "run.finished"
)

// Event is a lifecycle record for NDJSON streaming output.
//
// In NDJSON mode, sinks emit Events (one JSON object per line):
// - run.started (root, files)
// - file.result (nested "result" object)
// - run.finished (nested "summary" object, exit_code)
//
// JSON mode writes only the final smoke.Summary.
type Event struct {
	Type     string            `json:"type"`
	Root     string            `json:"root,omitempty"`
	Files    int               `json:"files,omitempty"`
	Result   *smoke.FileResult `json:"result,omitempty"`
	Summary  *smoke.Summary    `json:"summary,omitempty"`
	ExitCode int               `json:"exit_code,omitempty"`
}

func eventFromResult(r smoke.FileResult) Event {
	return Event{Type: EventFileResult, Result: &r}
}
