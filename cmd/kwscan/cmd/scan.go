package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/kwscan/internal/compare"
	"github.com/Aman-CERP/kwscan/internal/config"
	"github.com/Aman-CERP/kwscan/internal/executor"
	"github.com/Aman-CERP/kwscan/internal/match"
	"github.com/Aman-CERP/kwscan/internal/partition"
	"github.com/Aman-CERP/kwscan/internal/scanner"
	"github.com/Aman-CERP/kwscan/internal/ui"
)

// scanFlags are the flags shared by scan and watch.
type scanFlags struct {
	keywords  []string
	exclude   []string
	ignore    string
	workers   int
	strategy  string
	partition string
	format    string
	noColor   bool
}

func (f *scanFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&f.keywords, "keyword", "k", nil, "Keyword to search for, taken literally (repeatable)")
	cmd.Flags().StringArrayVar(&f.exclude, "exclude", nil, "File name pattern to skip (repeatable)")
	cmd.Flags().StringVar(&f.ignore, "ignore-file", "", "Name of a gitignore-style file in the directory (e.g. .kwscanignore)")
	cmd.Flags().IntVarP(&f.workers, "workers", "w", 0, "Number of workers (0 = number of CPUs)")
	cmd.Flags().StringVarP(&f.strategy, "strategy", "s", "", "Strategy: shared, isolated or both")
	cmd.Flags().StringVar(&f.partition, "partition", "", "Remainder policy: contiguous or balanced")
	cmd.Flags().StringVarP(&f.format, "format", "f", "text", "Output format: text or json")
	cmd.Flags().BoolVar(&f.noColor, "no-color", false, "Disable colored output")
}

// apply overlays flags the user set on cfg and revalidates it.
func (f *scanFlags) apply(cmd *cobra.Command, cfg *config.Config, args []string) error {
	if len(args) > 0 {
		cfg.Scan.Dir = args[0]
	}
	if len(f.keywords) > 0 {
		cfg.Scan.Keywords = f.keywords
	}
	if len(f.exclude) > 0 {
		cfg.Scan.Exclude = append(cfg.Scan.Exclude, f.exclude...)
	}
	if f.ignore != "" {
		cfg.Scan.IgnoreFile = f.ignore
	}
	if cmd.Flags().Changed("workers") {
		cfg.Workers.Parallelism = f.workers
	}
	if f.strategy != "" {
		cfg.Workers.Strategies = config.SplitList(f.strategy)
	}
	if f.partition != "" {
		cfg.Workers.Partition = f.partition
	}
	return cfg.Validate()
}

func newScanCmd() *cobra.Command {
	var flags scanFlags

	cmd := &cobra.Command{
		Use:   "scan [dir]",
		Short: "Scan a directory for keywords",
		Long: `Scan every regular file directly inside a directory for the configured
keywords and print, per keyword, the files containing it.

Each selected strategy scans the same file list; when more than one runs,
their results must agree.`,
		Example: `  # Scan the current directory with both strategies
  kwscan scan -k error -k warning

  # Four workers, shared strategy only, JSON output
  kwscan scan ./logs -k critical -w 4 -s shared -f json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadScanConfig(cmd, &flags, args)
			if err != nil {
				return err
			}
			return runScan(cmd.Context(), cmd, cfg, flags.format, flags.noColor)
		},
	}

	flags.register(cmd)

	return cmd
}

// loadScanConfig loads the effective config for the working directory and
// applies flags on top.
func loadScanConfig(cmd *cobra.Command, flags *scanFlags, args []string) (*config.Config, error) {
	cfg, err := config.Load(".")
	if err != nil {
		return nil, err
	}
	if err := flags.apply(cmd, cfg, args); err != nil {
		return nil, err
	}
	setConsoleLogger(cmd, cfg.Logging.Level)
	return cfg, nil
}

// newRunner builds both executors from cfg.
func newRunner(cfg *config.Config) (*compare.Runner, error) {
	opts := executor.Options{
		Parallelism: cfg.Workers.Parallelism,
		Partition:   partition.Policy(cfg.Workers.Partition),
	}

	launcher, err := executor.NewCommandLauncher(cfg.Isolated.WorkerCommand)
	if err != nil {
		return nil, err
	}

	return compare.NewRunner(compare.RunnerDependencies{
		Executors: []executor.Executor{
			executor.NewSharedExecutor(opts, match.OSReader{}),
			executor.NewIsolatedExecutor(opts, launcher, cfg.Isolated.RuntimeDir),
		},
	})
}

// runnerConfig converts cfg into one comparison request.
func runnerConfig(cfg *config.Config) (compare.RunnerConfig, error) {
	var strategies []executor.Strategy
	for _, name := range cfg.Strategies() {
		s, err := executor.ParseStrategy(name)
		if err != nil {
			return compare.RunnerConfig{}, err
		}
		strategies = append(strategies, s)
	}

	return compare.RunnerConfig{
		Dir:        cfg.Scan.Dir,
		Keywords:   cfg.Scan.Keywords,
		Strategies: strategies,
		Listing: scanner.Options{
			Exclude:     cfg.Scan.Exclude,
			MaxFileSize: cfg.Scan.MaxFileSize,
			IgnoreFile:  cfg.Scan.IgnoreFile,
		},
	}, nil
}

func runScan(ctx context.Context, cmd *cobra.Command, cfg *config.Config, format string, noColor bool) error {
	if ctx == nil {
		ctx = context.Background()
	}

	f, err := ui.ParseFormat(strings.ToLower(format))
	if err != nil {
		return err
	}

	runner, err := newRunner(cfg)
	if err != nil {
		return err
	}
	rc, err := runnerConfig(cfg)
	if err != nil {
		return err
	}

	report, runErr := runner.Run(ctx, rc)
	if report == nil {
		return runErr
	}

	renderer := ui.NewRenderer(ui.NewConfig(cmd.OutOrStdout(),
		ui.WithFormat(f),
		ui.WithNoColor(noColor),
	))
	if err := renderer.Render(report); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}

	// A mismatch is reported after the results so both can be inspected.
	return runErr
}
