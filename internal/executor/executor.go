// Package executor runs a keyword scan over partitioned files with one of
// two strategies: goroutines merging into a shared, lock-guarded result, or
// isolated child processes that each send their whole partial result to a
// single collector.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Aman-CERP/kwscan/internal/aggregate"
	kerrors "github.com/Aman-CERP/kwscan/internal/errors"
	"github.com/Aman-CERP/kwscan/internal/match"
	"github.com/Aman-CERP/kwscan/internal/partition"
)

// Strategy names a parallelization strategy.
type Strategy string

const (
	// StrategyShared runs goroutines that merge into one guarded result.
	StrategyShared Strategy = "shared"
	// StrategyIsolated runs child processes that report over a socket.
	StrategyIsolated Strategy = "isolated"
)

// AllStrategies lists every strategy in reporting order.
var AllStrategies = []Strategy{StrategyShared, StrategyIsolated}

// ParseStrategy converts a name to a Strategy.
func ParseStrategy(name string) (Strategy, error) {
	switch Strategy(name) {
	case StrategyShared, StrategyIsolated:
		return Strategy(name), nil
	default:
		return "", kerrors.New(kerrors.ErrCodeInvalidStrategy,
			fmt.Sprintf("unknown strategy %q", name), nil).
			WithSuggestion("use one of: shared, isolated, both")
	}
}

// Executor scans files with a keyword matcher and returns the merged result.
type Executor interface {
	Strategy() Strategy
	Run(ctx context.Context, files []string, m *match.Matcher) (*Outcome, error)
}

// Options are shared by both executors.
type Options struct {
	// Parallelism caps the worker count (0 = available CPUs).
	Parallelism int

	// Partition selects how the remainder is distributed (default contiguous).
	Partition partition.Policy
}

// RunStats summarizes one run.
type RunStats struct {
	Strategy    Strategy      `json:"strategy"`
	Files       int           `json:"files"`
	Workers     int           `json:"workers"`
	ChunkSizes  []int         `json:"chunk_sizes"`
	FilesFailed int           `json:"files_failed"`
	Duration    time.Duration `json:"duration_ns"`
}

// Outcome is the final result of a run plus its statistics.
type Outcome struct {
	Result aggregate.Result `json:"result"`
	Stats  RunStats         `json:"stats"`
}

// plan splits files into chunks and records them on status.
func plan(opts Options, files []string, status *RunStatus) []partition.Chunk {
	workers := partition.WorkerCount(len(files), opts.Parallelism)
	policy := opts.Partition
	if policy == "" {
		policy = partition.PolicyContiguous
	}
	chunks := partition.Split(policy, files, workers)
	status.SetPartitioned(len(files), len(chunks))

	slog.Debug("files_partitioned",
		slog.Int("files", len(files)),
		slog.Int("workers", len(chunks)),
		slog.String("policy", string(policy)),
		slog.Any("chunk_sizes", partition.Sizes(chunks)))

	return chunks
}

// emptyOutcome is returned when there is nothing to scan.
func emptyOutcome(strategy Strategy, status *RunStatus) *Outcome {
	status.SetPhase(PhaseDone)
	return &Outcome{
		Result: aggregate.Result{},
		Stats:  RunStats{Strategy: strategy, ChunkSizes: []int{}},
	}
}
