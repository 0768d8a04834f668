// Package cmd provides the CLI commands for kwscan.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	kerrors "github.com/Aman-CERP/kwscan/internal/errors"
	"github.com/Aman-CERP/kwscan/internal/logging"
	"github.com/Aman-CERP/kwscan/internal/profiling"
	"github.com/Aman-CERP/kwscan/pkg/version"
)

// Profiling flags
var (
	profileCPU   string
	profileMem   string
	profileTrace string
	profile      *profiling.Session
)

// Debug logging flag
var (
	debugMode      bool
	loggingCleanup func()
)

// NewRootCmd creates the root command for the kwscan CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kwscan",
		Short: "Parallel keyword scanner over a directory",
		Long: `kwscan scans every regular file in a directory for a set of keywords
and reports, per keyword, the files that contain it.

The same scan runs under two strategies so they can be compared:
  shared    goroutines merging into one guarded result
  isolated  child processes each sending one partial result to a collector`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("kwscan version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&profileCPU, "profile-cpu", "", "Write CPU profile to file")
	cmd.PersistentFlags().StringVar(&profileMem, "profile-mem", "", "Write memory profile to file")
	cmd.PersistentFlags().StringVar(&profileTrace, "profile-trace", "", "Write execution trace to file")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.kwscan/logs/")

	cmd.PersistentPreRunE = startProfilingAndLogging
	cmd.PersistentPostRunE = stopProfilingAndLogging

	cmd.AddCommand(newScanCmd())
	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newWorkerCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// startProfilingAndLogging starts profiling and debug logging if flags are set.
func startProfilingAndLogging(_ *cobra.Command, _ []string) error {
	if debugMode {
		logger, cleanup, err := logging.Setup(logging.DebugConfig())
		if err != nil {
			return fmt.Errorf("failed to setup debug logging: %w", err)
		}
		loggingCleanup = cleanup
		slog.SetDefault(logger)
		slog.Info("debug_logging_enabled",
			slog.String("log_file", logging.DefaultLogPath()),
			slog.String("version", version.Version))
	}

	opts := profiling.Options{CPUPath: profileCPU, MemPath: profileMem, TracePath: profileTrace}
	if opts.Enabled() {
		s, err := profiling.Start(opts)
		if err != nil {
			return err
		}
		profile = s
	}

	return nil
}

// stopProfilingAndLogging stops profiling and logging.
func stopProfilingAndLogging(_ *cobra.Command, _ []string) error {
	var err error
	if profile != nil {
		err = profile.Stop()
		profile = nil
	}

	if loggingCleanup != nil {
		slog.Debug("debug_logging_stopped", slog.String("heap_in_use", profiling.HeapInUse()))
		loggingCleanup()
		loggingCleanup = nil
	}

	return err
}

// setConsoleLogger installs the stderr logger at level unless --debug
// already installed the file logger.
func setConsoleLogger(cmd *cobra.Command, level string) {
	if debugMode {
		return
	}
	slog.SetDefault(logging.NewConsoleLogger(cmd.ErrOrStderr(), level))
}

// Execute runs the root command and prints any error in CLI form. SIGINT and
// SIGTERM cancel the command context, which kills isolated workers and stops
// watch mode.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCmd()
	err := root.ExecuteContext(ctx)
	if err != nil {
		_, _ = fmt.Fprint(root.ErrOrStderr(), kerrors.FormatForCLI(err))
	}
	return err
}
