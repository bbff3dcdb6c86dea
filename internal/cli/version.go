package cmd

import (
	"fmt"

	"github.com/rohmanhakim/exitwrap/internal/build"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the build version.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), build.Summary(cmd.Root().Name()))
		return err
	},
}
