package cmd

import (
	"github.com/rohmanhakim/exitwrap/internal/supervise"
	"github.com/rohmanhakim/exitwrap/pkg/retry"
	"github.com/rohmanhakim/exitwrap/pkg/timeutil"
	"github.com/spf13/cobra"
)

var superviseCmd = &cobra.Command{
	Use:   "supervise [flags] -- command [args...]",
	Short: "Run a command and run it again while it exits with the retryable status.",
	Long: `supervise runs a child command. Exit status 100 means the child may be run
again; supervise does so with exponential backoff until the child succeeds,
fails with any other status, or the attempt budget is spent. An exhausted
budget exits with 100 so the next caller up can decide in turn.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		launcher := supervise.ExecLauncher{
			Stdin:  cmd.InOrStdin(),
			Stdout: cmd.OutOrStdout(),
			Stderr: cmd.ErrOrStderr(),
		}
		return supervise.NewSupervisor(launcher, retryParamFromConfig(), activeLogger).
			Run(cmd.Context(), args)
	},
}

func init() {
	superviseCmd.Flags().SetInterspersed(false)
	superviseCmd.Flags().IntVar(&maxAttempt, "max-attempt", 0, "maximum number of runs, including the first")
	superviseCmd.Flags().DurationVar(&jitter, "jitter", 0, "random jitter added to each backoff")
	superviseCmd.Flags().Int64Var(&randomSeed, "random-seed", 0, "seed for the jitter generator (0 for current time)")
	superviseCmd.Flags().DurationVar(&backoffInitial, "backoff-initial", 0, "delay before the first rerun")
	superviseCmd.Flags().Float64Var(&backoffMultiplier, "backoff-multiplier", 0, "growth factor between reruns")
	superviseCmd.Flags().DurationVar(&backoffMax, "backoff-max", 0, "upper bound for a single backoff")
}

func retryParamFromConfig() retry.RetryParam {
	return retry.NewRetryParam(
		activeConfig.Jitter(),
		activeConfig.RandomSeed(),
		activeConfig.MaxAttempt(),
		timeutil.NewBackoffParam(
			activeConfig.BackoffInitialDuration(),
			activeConfig.BackoffMultiplier(),
			activeConfig.BackoffMaxDuration(),
		),
	)
}
