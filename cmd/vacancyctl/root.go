package main

import (
	"github.com/spf13/cobra"

	"github.com/okian/vacancy/pkg/logger"
)

// newRootCmd builds the command tree. Logs go to stderr so tables on stdout
// stay clean.
func newRootCmd() *cobra.Command {
	var (
		logLevel  string
		logFormat string
	)
	root := &cobra.Command{
		Use:   "vacancyctl",
		Short: "Offline tools for rank-priority slot allocation.",
		Long: `vacancyctl computes assignments from a population and preference ` +
			`file, validates inputs, and replays random edits through the ` +
			`coordinator to check that concurrent edits converge.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.InitWithWriter(cmd.ErrOrStderr(), logger.Format(logFormat)); err != nil {
				return err
			}
			return logger.SetLevelString(logLevel)
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format: text or json")

	root.AddCommand(newAllocateCmd(), newValidateCmd(), newSimulateCmd())
	return root
}
