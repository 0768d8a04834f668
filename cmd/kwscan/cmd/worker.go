package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/kwscan/internal/executor"
)

// newWorkerCmd is the isolated strategy's child entry point. It reads one
// assignment from stdin and exits 0 only after the collector acknowledged
// the partial result.
func newWorkerCmd() *cobra.Command {
	return &cobra.Command{
		Use:    executor.WorkerSubcommand,
		Short:  "Run one isolated scan worker (internal)",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			level := os.Getenv("KWSCAN_LOG_LEVEL")
			if level == "" {
				level = "info"
			}
			setConsoleLogger(cmd, level)
			return executor.RunWorker(cmd.Context(), cmd.InOrStdin())
		},
	}
}
