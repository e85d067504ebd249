package agent

import "fmt"

// RunError reports a run that aborted before COMPLETE. No Outcome is
// produced; Trace holds the steps recorded before the failure.
//
// Err wraps the underlying cause, so errors.As reaches
// *providers.TransportError, *providers.MalformedResponseError or
// *tools.MissingFieldError.
type RunError struct {
	RunID string
	Step  string // step that was executing when the run failed
	Trace []Step
	Err   error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("run %s failed at %s: %v", e.RunID, e.Step, e.Err)
}

func (e *RunError) Unwrap() error { return e.Err }
