package clierr

// Process exit statuses.
const (
	ExitSuccess    = 0
	ExitOpaque     = 1
	ExitProcessing = 2
	ExitRetryable  = 100
)

// ExitCode maps every Kind to exactly one status.
func (k Kind) ExitCode() int {
	switch k {
	case KindProcessing:
		return ExitProcessing
	case KindRetryable:
		return ExitRetryable
	case KindOpaque:
		return ExitOpaque
	default:
		return ExitOpaque
	}
}

// ExitCode returns ExitSuccess for nil and the classified status otherwise.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	return Classify(err).Kind.ExitCode()
}

// KindForExitCode is the reverse mapping, used when reading the status of a
// child process. Zero has no kind; ok is false.
func KindForExitCode(code int) (kind Kind, ok bool) {
	switch code {
	case ExitSuccess:
		return KindOpaque, false
	case ExitProcessing:
		return KindProcessing, true
	case ExitRetryable:
		return KindRetryable, true
	default:
		return KindOpaque, true
	}
}
