package supervise

import (
	"context"
	"errors"
	"io"
	"os/exec"
)

// Launcher runs a command to completion and reports its exit status.
// A non-nil error means no status could be obtained.
type Launcher interface {
	Launch(ctx context.Context, argv []string) (int, error)
}

// ExecLauncher starts argv as a child process wired to the given streams.
// Cancelling ctx kills the child.
type ExecLauncher struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

func (l ExecLauncher) Launch(ctx context.Context, argv []string) (int, error) {
	if len(argv) == 0 {
		return -1, errors.New("empty command")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdin = l.Stdin
	cmd.Stdout = l.Stdout
	cmd.Stderr = l.Stderr

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, err
}
