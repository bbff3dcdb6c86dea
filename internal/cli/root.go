package cmd

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/rohmanhakim/exitwrap/internal/app"
	"github.com/rohmanhakim/exitwrap/internal/config"
	"github.com/rohmanhakim/exitwrap/internal/logging"
	"github.com/rohmanhakim/exitwrap/internal/report"
	"github.com/rohmanhakim/exitwrap/pkg/hashutil"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	cfgFile         string
	envFile         string
	logLevel        string
	format          string
	fingerprintAlgo string
	failKind        string
	failMessage     string

	maxAttempt        int
	jitter            time.Duration
	randomSeed        int64
	backoffInitial    time.Duration
	backoffMultiplier float64
	backoffMax        time.Duration
)

// state shared between the pre-run hook, the commands and the termination
// handler for a single Execute call
var (
	environ      []string
	activeConfig config.Config
	activeLogger *slog.Logger
	configLoaded bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "exitwrap",
	Short: "Run a fallible entry point and turn its failure into an exit status.",
	Long: `exitwrap runs its entry point, classifies the failure it returns and
exits with a status derived from that classification:

  0    success
  1    unclassified failure
  2    processing failure (do not retry)
  100  retryable failure (the caller may run again)

The failure is printed to stderr; nothing is printed there on success.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.Run(cmd.Context(), activeConfig, cmd.OutOrStdout())
	},
}

// Invocation carries everything a single run reads from the process.
type Invocation struct {
	Args    []string
	Environ []string
	Stdin   io.Reader
	Stdout  io.Writer
	Stderr  io.Writer
}

// Execute runs the command tree once and returns the process exit status.
// It is the only place where an error is turned into a status; main passes
// the result to os.Exit.
func Execute(ctx context.Context, inv Invocation) int {
	environ = inv.Environ
	activeConfig, _ = config.WithDefault().Build()
	activeLogger = logging.Discard()
	configLoaded = false

	rootCmd.SetArgs(inv.Args)
	rootCmd.SetIn(inv.Stdin)
	rootCmd.SetOut(inv.Stdout)
	rootCmd.SetErr(inv.Stderr)

	err := rootCmd.ExecuteContext(ctx)

	reporter := report.NewReporter(
		inv.Stderr,
		reportFormat(),
		activeConfig.FingerprintAlgo(),
		activeLogger,
	)
	return reporter.Report(err)
}

// reportFormat is the configured format, or the --format flag when the
// configuration could not be loaded and the flag names a known format.
func reportFormat() report.Format {
	if !configLoaded && (format == config.FormatText || format == config.FormatJSON) {
		return report.Format(format)
	}
	return report.Format(activeConfig.Format())
}

func init() {
	// assigned in init: loadRuntime refers back to rootCmd
	rootCmd.PersistentPreRunE = loadRuntime

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config-file", "", "config file path (e.g., /home/myuser/exitwrap.json)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "dotenv file with EXITWRAP_* variables")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "diagnostic log level: debug, info, warn, error or off")
	rootCmd.PersistentFlags().StringVar(&format, "format", "", "failure report format: text or json")
	rootCmd.PersistentFlags().StringVar(&fingerprintAlgo, "fingerprint-algo", "", "digest for the report fingerprint: blake3 or sha256")

	rootCmd.Flags().StringVar(&failKind, "fail", "", "failure returned by the entry point: retryable, processing, opaque or none")
	rootCmd.Flags().StringVar(&failMessage, "message", "", "message carried by the failure")

	rootCmd.AddCommand(superviseCmd)
	rootCmd.AddCommand(versionCmd)
}

func loadRuntime(cmd *cobra.Command, args []string) error {
	cfg, err := InitConfigWithError(environ)
	if err != nil {
		return err
	}
	logger, err := logging.New(cmd.ErrOrStderr(), cfg.LogLevel())
	if err != nil {
		return err
	}

	activeConfig = cfg
	activeLogger = logger
	configLoaded = true
	activeLogger.Debug("configuration loaded",
		"format", cfg.Format(),
		"fail", cfg.FailKind(),
		"maxAttempt", cfg.MaxAttempt(),
	)
	return nil
}

// InitConfigWithError layers defaults, the config file, EXITWRAP_* variables
// and finally command-line flags, returning any errors.
func InitConfigWithError(environ []string) (config.Config, error) {
	configBuilder := config.WithDefault()
	if cfgFile != "" {
		fromFile, err := config.WithConfigFile(cfgFile)
		if err != nil {
			return config.Config{}, err
		}
		configBuilder = fromFile
	}

	env, err := config.LoadEnv(envFile, environ)
	if err != nil {
		return config.Config{}, err
	}
	configBuilder = configBuilder.WithEnv(env)

	if logLevel != "" {
		configBuilder = configBuilder.WithLogLevel(logLevel)
	}

	if format != "" {
		configBuilder = configBuilder.WithFormat(format)
	}

	if fingerprintAlgo != "" {
		configBuilder = configBuilder.WithFingerprintAlgo(hashutil.HashAlgo(fingerprintAlgo))
	}

	if failKind != "" {
		configBuilder = configBuilder.WithFailKind(failKind)
	}

	if failMessage != "" || rootCmd.Flags().Changed("message") {
		configBuilder = configBuilder.WithFailMessage(failMessage)
	}

	if maxAttempt > 0 {
		configBuilder = configBuilder.WithMaxAttempt(maxAttempt)
	}

	if jitter > 0 {
		configBuilder = configBuilder.WithJitter(jitter)
	}

	if randomSeed != 0 {
		configBuilder = configBuilder.WithRandomSeed(randomSeed)
	}

	if backoffInitial > 0 {
		configBuilder = configBuilder.WithBackoffInitialDuration(backoffInitial)
	}

	if backoffMultiplier > 0 {
		configBuilder = configBuilder.WithBackoffMultiplier(backoffMultiplier)
	}

	if backoffMax > 0 {
		configBuilder = configBuilder.WithBackoffMaxDuration(backoffMax)
	}

	return configBuilder.Build()
}

func ResetFlags() {
	cfgFile = ""
	envFile = ""
	logLevel = ""
	format = ""
	fingerprintAlgo = ""
	failKind = ""
	failMessage = ""
	maxAttempt = 0
	jitter = 0
	randomSeed = 0
	backoffInitial = 0
	backoffMultiplier = 0
	backoffMax = 0
	resetChanged(rootCmd)
}

func resetChanged(c *cobra.Command) {
	unset := func(f *pflag.Flag) { f.Changed = false }
	c.Flags().VisitAll(unset)
	c.PersistentFlags().VisitAll(unset)
	for _, sub := range c.Commands() {
		resetChanged(sub)
	}
}

// Test helper functions to set flag values from tests
func SetConfigFileForTest(path string) {
	cfgFile = path
}

func SetEnvFileForTest(path string) {
	envFile = path
}

func SetFormatForTest(f string) {
	format = f
}

func SetFailKindForTest(kind string) {
	failKind = kind
}

func SetMaxAttemptForTest(n int) {
	maxAttempt = n
}
