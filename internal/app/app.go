// Package app holds the program's fallible entry point. Its only job is to
// produce a result for the termination handler; it never retries and never
// decides exit statuses.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rohmanhakim/exitwrap/internal/clierr"
	"github.com/rohmanhakim/exitwrap/internal/config"
)

const greeting = "Hello, world!"

// Run prints the greeting to stdout and returns the failure selected by cfg.
func Run(ctx context.Context, cfg config.Config, stdout io.Writer) error {
	if err := ctx.Err(); err != nil {
		return clierr.WrapRetryable("interrupted before start", err)
	}

	if _, err := fmt.Fprintln(stdout, greeting); err != nil {
		return clierr.WrapProcessing("write greeting", err)
	}

	kind, failing := cfg.Failure()
	if !failing {
		return nil
	}

	switch kind {
	case clierr.KindProcessing:
		return clierr.Processing(cfg.FailMessage())
	case clierr.KindRetryable:
		return clierr.Retryable(cfg.FailMessage())
	default:
		// opaque: a plain error the termination handler has to classify itself
		return errors.New(cfg.FailMessage())
	}
}
