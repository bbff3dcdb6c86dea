package cmd_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	cmd "github.com/rohmanhakim/exitwrap/internal/cli"
	"github.com/rohmanhakim/exitwrap/internal/clierr"
	"github.com/rohmanhakim/exitwrap/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type runResult struct {
	code   int
	stdout string
	stderr string
}

func execute(t *testing.T, environ []string, args ...string) runResult {
	t.Helper()
	cmd.ResetFlags()
	t.Cleanup(cmd.ResetFlags)

	var stdout, stderr bytes.Buffer
	code := cmd.Execute(context.Background(), cmd.Invocation{
		Args:    args,
		Environ: environ,
		Stdin:   strings.NewReader(""),
		Stdout:  &stdout,
		Stderr:  &stderr,
	})
	return runResult{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func TestExecute_DefaultEntryPoint(t *testing.T) {
	res := execute(t, nil)

	assert.Equal(t, 100, res.code)
	assert.Equal(t, "Hello, world!\n", res.stdout)
	assert.Equal(t, "Error: Retryable error: Error processing\n", res.stderr)
}

func TestExecute_FailureKinds(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		wantCode   int
		wantStderr string
	}{
		{"retryable", []string{"--fail", "retryable", "--message", "x"}, 100, "x"},
		{"processing", []string{"--fail", "processing", "--message", "y"}, 2, "y"},
		{"opaque", []string{"--fail", "opaque", "--message", "z"}, 1, "z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := execute(t, nil, tt.args...)

			assert.Equal(t, tt.wantCode, res.code)
			assert.Contains(t, res.stderr, tt.wantStderr)
			assert.True(t, strings.HasPrefix(res.stderr, "Error: "), "stderr: %q", res.stderr)
		})
	}
}

func TestExecute_SuccessPrintsNothingToStderr(t *testing.T) {
	res := execute(t, nil, "--fail", "none")

	assert.Equal(t, 0, res.code)
	assert.Empty(t, res.stderr)
	assert.Equal(t, "Hello, world!\n", res.stdout)
}

func TestExecute_JSONReport(t *testing.T) {
	res := execute(t, nil, "--format", "json", "--fail", "processing", "--message", "y")

	require.Equal(t, 2, res.code)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(res.stderr), &got))
	assert.Equal(t, "Processing error: y", got["error"])
	assert.Equal(t, "processing", got["kind"])
	assert.Equal(t, float64(2), got["exitCode"])
	assert.NotEmpty(t, got["fingerprint"])
}

func TestExecute_UnknownFlagIsUnclassified(t *testing.T) {
	res := execute(t, nil, "--no-such-flag")

	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "no-such-flag")
	assert.Empty(t, res.stdout)
}

func TestExecute_InvalidConfigIsUnclassified(t *testing.T) {
	res := execute(t, nil, "--format", "yaml")

	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "invalid config")
}

func TestExecute_InvalidConfigKeepsRequestedFormat(t *testing.T) {
	res := execute(t, nil, "--format", "json", "--fail", "sometimes")

	require.Equal(t, 1, res.code)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(res.stderr), &got), "stderr: %q", res.stderr)
	assert.Equal(t, "opaque", got["kind"])
	assert.Equal(t, float64(1), got["exitCode"])
	assert.Contains(t, got["error"], `unknown failure kind "sometimes"`)
}

func TestExecute_EmptyMessageFlag(t *testing.T) {
	res := execute(t, nil, "--fail", "processing", "--message", "")

	assert.Equal(t, 2, res.code)
	assert.Equal(t, "Error: Processing error: \n", res.stderr)

	// a later run without the flag is back on the default message
	res = execute(t, nil)
	assert.Equal(t, "Error: Retryable error: Error processing\n", res.stderr)
}

func TestExecute_EnvironmentOverrides(t *testing.T) {
	res := execute(t, []string{"EXITWRAP_FAIL=processing", "EXITWRAP_MESSAGE=from env"})

	assert.Equal(t, 2, res.code)
	assert.Contains(t, res.stderr, "from env")
}

func TestExecute_FlagsWinOverEnvironment(t *testing.T) {
	res := execute(t, []string{"EXITWRAP_FAIL=processing"}, "--fail", "none")

	assert.Equal(t, 0, res.code)
	assert.Empty(t, res.stderr)
}

func TestExecute_EnvFile(t *testing.T) {
	envPath := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("EXITWRAP_FAIL=opaque\nEXITWRAP_MESSAGE=from file\n"), 0644))

	res := execute(t, nil, "--env-file", envPath)

	assert.Equal(t, 1, res.code)
	assert.Equal(t, "Error: from file\n", res.stderr)
}

func TestExecute_Version(t *testing.T) {
	res := execute(t, nil, "version")

	assert.Equal(t, 0, res.code)
	assert.True(t, strings.HasPrefix(res.stdout, "exitwrap "), "stdout: %q", res.stdout)
	assert.Empty(t, res.stderr)
}

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestExecute_SuperviseExhausted(t *testing.T) {
	requireShell(t)

	res := execute(t, nil,
		"--log-level", "off",
		"supervise", "--max-attempt", "2", "--backoff-initial", "1ms", "--jitter", "1ms",
		"--", "sh", "-c", "echo run; exit 100",
	)

	assert.Equal(t, 100, res.code)
	assert.Equal(t, "run\nrun\n", res.stdout)
	assert.Equal(t, "Error: Retryable error: giving up after 2 attempts: sh exited with status 100\n", res.stderr)
}

func TestExecute_SuperviseProcessingStops(t *testing.T) {
	requireShell(t)

	res := execute(t, nil, "supervise", "--max-attempt", "5", "sh", "-c", "echo run; exit 2")

	assert.Equal(t, 2, res.code)
	assert.Equal(t, "run\n", res.stdout)
	assert.Contains(t, res.stderr, "Processing error: sh exited with status 2")
}

func TestExecute_SuperviseSuccess(t *testing.T) {
	requireShell(t)

	res := execute(t, nil, "supervise", "sh", "-c", "exit 0")

	assert.Equal(t, 0, res.code)
	assert.Empty(t, res.stderr)
}

func TestExecute_SuperviseRequiresCommand(t *testing.T) {
	res := execute(t, nil, "supervise")

	assert.Equal(t, 1, res.code)
}

func TestInitConfigNoFlags(t *testing.T) {
	cmd.ResetFlags()

	cfg, err := cmd.InitConfigWithError(nil)
	require.NoError(t, err)

	defaultCfg, err := config.WithDefault().Build()
	require.NoError(t, err)

	assert.Equal(t, defaultCfg.Format(), cfg.Format())
	assert.Equal(t, defaultCfg.FailKind(), cfg.FailKind())
	assert.Equal(t, defaultCfg.FailMessage(), cfg.FailMessage())
	assert.Equal(t, defaultCfg.MaxAttempt(), cfg.MaxAttempt())
}

func TestInitConfigWithMaxAttempt(t *testing.T) {
	tests := []struct {
		name       string
		maxAttempt int
		want       int
	}{
		{"zero keeps default", 0, 3},
		{"negative keeps default", -1, 3},
		{"positive overrides", 8, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd.ResetFlags()
			cmd.SetMaxAttemptForTest(tt.maxAttempt)

			cfg, err := cmd.InitConfigWithError(nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.MaxAttempt())
		})
	}
}

func TestInitConfigWithConfigFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "exitwrap.json")
	require.NoError(t, os.WriteFile(configPath, []byte(`{"fail": "processing", "format": "json"}`), 0644))

	cmd.ResetFlags()
	cmd.SetConfigFileForTest(configPath)
	cmd.SetFormatForTest("text")

	cfg, err := cmd.InitConfigWithError([]string{"EXITWRAP_FAIL=opaque"})
	require.NoError(t, err)

	assert.Equal(t, clierr.KindOpaque.String(), cfg.FailKind(), "environment wins over the file")
	assert.Equal(t, config.FormatText, cfg.Format(), "flags win over the file")
}

func TestInitConfigWithMissingFiles(t *testing.T) {
	cmd.ResetFlags()
	cmd.SetConfigFileForTest(filepath.Join(t.TempDir(), "missing.json"))

	_, err := cmd.InitConfigWithError(nil)
	assert.True(t, errors.Is(err, config.ErrFileDoesNotExist))

	cmd.ResetFlags()
	cmd.SetEnvFileForTest(filepath.Join(t.TempDir(), "missing.env"))

	_, err = cmd.InitConfigWithError(nil)
	assert.True(t, errors.Is(err, config.ErrEnvFileFail))
}

func TestInitConfigWithInvalidFailKind(t *testing.T) {
	cmd.ResetFlags()
	cmd.SetFailKindForTest("sometimes")

	_, err := cmd.InitConfigWithError(nil)
	assert.True(t, errors.Is(err, config.ErrInvalidConfig))
}
