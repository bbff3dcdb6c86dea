package failure

type Severity int

// Severity decides whether a caller may run the failed operation again.
const (
	SeverityFatal Severity = iota
	SeverityRecoverable
)

func (s Severity) String() string {
	switch s {
	case SeverityRecoverable:
		return "recoverable"
	default:
		return "fatal"
	}
}

// ClassifiedError is implemented by every error type that crosses a package
// boundary in this module.
type ClassifiedError interface {
	error
	Severity() Severity
}

// IsRecoverable reports whether err is a ClassifiedError with recoverable severity.
// Nil and unclassified errors are not recoverable.
func IsRecoverable(err error) bool {
	ce, ok := err.(ClassifiedError)
	if !ok {
		return false
	}
	return ce.Severity() == SeverityRecoverable
}
