// Package supervise is the caller side of the retryable contract: it runs a
// child command and runs it again only while the child reports a retryable
// failure.
package supervise

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rohmanhakim/exitwrap/internal/clierr"
	"github.com/rohmanhakim/exitwrap/pkg/failure"
	"github.com/rohmanhakim/exitwrap/pkg/retry"
)

type Supervisor struct {
	launcher Launcher
	param    retry.RetryParam
	logger   *slog.Logger
}

func NewSupervisor(launcher Launcher, param retry.RetryParam, logger *slog.Logger) *Supervisor {
	return &Supervisor{
		launcher: launcher,
		param:    param,
		logger:   logger,
	}
}

// Run executes argv until it exits 0, exits with a non-retryable status, or
// the attempt budget is spent. The returned error is already classified:
// the child's processing status stays processing, exhaustion and
// interruption are retryable, and anything else is opaque.
func (s *Supervisor) Run(ctx context.Context, argv []string) error {
	if len(argv) == 0 {
		return clierr.Processing("no command to supervise")
	}
	command := argv[0]

	result := retry.Retry(ctx, s.param, func(attempt int) (int, failure.ClassifiedError) {
		s.logger.Info("starting child", "command", command, "attempt", attempt, "maxAttempts", s.param.MaxAttempts)

		status, err := s.launcher.Launch(ctx, argv)
		if err == nil && status == 0 {
			return status, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return status, &retry.RetryError{
				Message: fmt.Sprintf("%s interrupted: %v", command, ctxErr),
				Cause:   retry.ErrCancelled,
			}
		}
		if err != nil {
			return status, &LaunchError{Command: command, Err: err}
		}

		kind, _ := clierr.KindForExitCode(status)
		s.logger.Info("child failed", "command", command, "attempt", attempt, "status", status, "kind", kind.String())
		return status, &ExitStatusError{Command: command, Status: status, Kind: kind}
	})

	if result.IsFailure() {
		return s.classify(result.Err(), result.Attempts())
	}
	s.logger.Debug("child succeeded", "command", command, "status", result.Value(), "attempts", result.Attempts())
	return nil
}

func (s *Supervisor) classify(err failure.ClassifiedError, attempts int) error {
	var retryErr *retry.RetryError
	if errors.As(err, &retryErr) {
		if retryErr.Cause == retry.ErrCancelled {
			return clierr.WrapRetryable("interrupted", retryErr)
		}
		var last error = retryErr
		if retryErr.Last != nil {
			last = retryErr.Last
		}
		s.logger.Warn("giving up", "attempts", attempts, "error", last)
		return clierr.WrapRetryable(fmt.Sprintf("giving up after %d attempts", attempts), last)
	}

	var statusErr *ExitStatusError
	if errors.As(err, &statusErr) {
		return &clierr.Error{Kind: statusErr.Kind, Err: statusErr}
	}

	return clierr.Opaque(err)
}
