package supervise

import (
	"fmt"

	"github.com/rohmanhakim/exitwrap/internal/clierr"
	"github.com/rohmanhakim/exitwrap/pkg/failure"
)

// ExitStatusError is a child run that finished with a non-zero status.
// Kind is the classification read back from the status.
type ExitStatusError struct {
	Command string
	Status  int
	Kind    clierr.Kind
}

func (e *ExitStatusError) Error() string {
	return fmt.Sprintf("%s exited with status %d", e.Command, e.Status)
}

func (e *ExitStatusError) Severity() failure.Severity {
	if e.IsRetryable() {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

func (e *ExitStatusError) IsRetryable() bool {
	return e.Kind == clierr.KindRetryable
}

// LaunchError means the child could not be started or waited on.
type LaunchError struct {
	Command string
	Err     error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("launch %s: %v", e.Command, e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

func (e *LaunchError) Severity() failure.Severity {
	return failure.SeverityFatal
}

func (e *LaunchError) IsRetryable() bool {
	return false
}
