// Package compare runs the configured strategies over the same directory and
// checks that they agree.
package compare

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Aman-CERP/kwscan/internal/aggregate"
	kerrors "github.com/Aman-CERP/kwscan/internal/errors"
	"github.com/Aman-CERP/kwscan/internal/executor"
	"github.com/Aman-CERP/kwscan/internal/match"
	"github.com/Aman-CERP/kwscan/internal/scanner"
)

// RunnerConfig configures one comparison.
type RunnerConfig struct {
	// Dir is the directory whose regular files are scanned.
	Dir string

	// Keywords are matched case-sensitively as substrings.
	Keywords []string

	// Strategies run in this order over the same file list.
	Strategies []executor.Strategy

	// Listing controls which directory entries are scanned.
	Listing scanner.Options
}

// StrategyRun is the outcome of one strategy.
type StrategyRun struct {
	Strategy executor.Strategy `json:"strategy"`
	Result   aggregate.Result  `json:"result"`
	Stats    executor.RunStats `json:"stats"`
}

// Report is the outcome of a comparison.
type Report struct {
	Dir        string        `json:"dir"`
	Keywords   []string      `json:"keywords"`
	Files      int           `json:"files"`
	Skipped    int           `json:"skipped"`
	Runs       []StrategyRun `json:"runs"`
	Equivalent bool          `json:"equivalent"`
	Duration   time.Duration `json:"duration_ns"`
}

// Run returns the run for strategy, or nil.
func (r *Report) Run(strategy executor.Strategy) *StrategyRun {
	for i := range r.Runs {
		if r.Runs[i].Strategy == strategy {
			return &r.Runs[i]
		}
	}
	return nil
}

// RunnerDependencies contains the injected executors.
type RunnerDependencies struct {
	// Executors available by strategy (at least one required).
	Executors []executor.Executor
}

// Runner times each strategy and verifies their results are equivalent.
type Runner struct {
	executors map[executor.Strategy]executor.Executor
}

// NewRunner creates a Runner with injected executors.
func NewRunner(deps RunnerDependencies) (*Runner, error) {
	if len(deps.Executors) == 0 {
		return nil, fmt.Errorf("at least one executor is required")
	}
	executors := make(map[executor.Strategy]executor.Executor, len(deps.Executors))
	for _, e := range deps.Executors {
		executors[e.Strategy()] = e
	}
	return &Runner{executors: executors}, nil
}

// Run lists cfg.Dir once and runs every requested strategy over the same
// files. If two strategies disagree the report is still returned together
// with an ERR_506 error.
func (r *Runner) Run(ctx context.Context, cfg RunnerConfig) (*Report, error) {
	start := time.Now()

	m, err := match.New(cfg.Keywords)
	if err != nil {
		return nil, err
	}
	if len(cfg.Strategies) == 0 {
		return nil, kerrors.New(kerrors.ErrCodeInvalidStrategy, "no strategies selected", nil)
	}

	listing, err := scanner.List(cfg.Dir, cfg.Listing)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Dir:        listing.Dir,
		Keywords:   m.Keywords(),
		Files:      len(listing.Files),
		Skipped:    listing.Skipped,
		Runs:       make([]StrategyRun, 0, len(cfg.Strategies)),
		Equivalent: true,
	}

	for _, strategy := range cfg.Strategies {
		exec, ok := r.executors[strategy]
		if !ok {
			return nil, kerrors.New(kerrors.ErrCodeInvalidStrategy,
				fmt.Sprintf("no executor for strategy %q", strategy), nil)
		}

		out, err := exec.Run(ctx, listing.Files, m)
		if err != nil {
			return nil, err
		}

		report.Runs = append(report.Runs, StrategyRun{
			Strategy: strategy,
			Result:   out.Result,
			Stats:    out.Stats,
		})
	}

	report.Duration = time.Since(start)

	if mismatch := firstMismatch(report.Runs); mismatch != "" {
		report.Equivalent = false
		slog.Error("strategy_mismatch",
			slog.String("baseline", string(report.Runs[0].Strategy)),
			slog.String("other", string(mismatch)))
		return report, kerrors.New(kerrors.ErrCodeStrategyMismatch,
			fmt.Sprintf("strategy %s disagrees with %s", mismatch, report.Runs[0].Strategy), nil)
	}

	return report, nil
}

// firstMismatch returns the first strategy whose result differs from the
// first run's, or "".
func firstMismatch(runs []StrategyRun) executor.Strategy {
	for i := 1; i < len(runs); i++ {
		if !runs[0].Result.Equivalent(runs[i].Result) {
			return runs[i].Strategy
		}
	}
	return ""
}
