package report

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/rohmanhakim/exitwrap/internal/clierr"
	"github.com/rohmanhakim/exitwrap/pkg/hashutil"
)

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Reporter is the termination handler: it renders a failure once and turns
// it into a process exit status.
type Reporter struct {
	w      io.Writer
	format Format
	algo   hashutil.HashAlgo
	logger *slog.Logger
}

func NewReporter(w io.Writer, format Format, algo hashutil.HashAlgo, logger *slog.Logger) *Reporter {
	return &Reporter{
		w:      w,
		format: format,
		algo:   algo,
		logger: logger,
	}
}

type jsonReport struct {
	Error       string `json:"error"`
	Kind        string `json:"kind"`
	ExitCode    int    `json:"exitCode"`
	Fingerprint string `json:"fingerprint,omitempty"`
}

// Report writes nothing and returns 0 for a nil error. Otherwise it writes
// the failure to the reporter's writer and returns its exit status. The
// status does not depend on whether writing succeeded.
func (r *Reporter) Report(err error) int {
	classified := clierr.Classify(err)
	if classified == nil {
		return clierr.ExitSuccess
	}

	code := classified.Kind.ExitCode()
	message := classified.Error()

	fingerprint, hashErr := hashutil.Digest(r.algo, classified.Kind.String(), message)
	if hashErr != nil {
		r.logger.Warn("fingerprint unavailable", "error", hashErr)
	}

	r.logger.Debug("terminating",
		"kind", classified.Kind.String(),
		"exitCode", code,
		"fingerprint", fingerprint,
	)

	var writeErr error
	switch r.format {
	case FormatJSON:
		writeErr = json.NewEncoder(r.w).Encode(jsonReport{
			Error:       message,
			Kind:        classified.Kind.String(),
			ExitCode:    code,
			Fingerprint: fingerprint,
		})
	default:
		_, writeErr = fmt.Fprintf(r.w, "Error: %s\n", message)
	}
	if writeErr != nil {
		r.logger.Error("failed to write report", "error", writeErr)
	}

	return code
}
