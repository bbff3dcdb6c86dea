package failure_test

import (
	"errors"
	"testing"

	"github.com/rohmanhakim/exitwrap/pkg/failure"
)

type stubError struct {
	severity failure.Severity
}

func (s *stubError) Error() string { return "stub" }
func (s *stubError) Severity() failure.Severity { return s.severity }

func TestSeverityString(t *testing.T) {
	if got := failure.SeverityFatal.String(); got != "fatal" {
		t.Errorf("SeverityFatal.String() = %q, want %q", got, "fatal")
	}
	if got := failure.SeverityRecoverable.String(); got != "recoverable" {
		t.Errorf("SeverityRecoverable.String() = %q, want %q", got, "recoverable")
	}
}

func TestIsRecoverable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain error", errors.New("boom"), false},
		{"fatal", &stubError{severity: failure.SeverityFatal}, false},
		{"recoverable", &stubError{severity: failure.SeverityRecoverable}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := failure.IsRecoverable(tt.err); got != tt.want {
				t.Errorf("IsRecoverable() = %v, want %v", got, tt.want)
			}
		})
	}
}
