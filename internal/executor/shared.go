package executor

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/kwscan/internal/aggregate"
	kerrors "github.com/Aman-CERP/kwscan/internal/errors"
	"github.com/Aman-CERP/kwscan/internal/match"
	"github.com/Aman-CERP/kwscan/internal/partition"
)

// SharedExecutor runs one goroutine per chunk in this process. Each worker
// scans its chunk into a local partial and then merges it, once, into a
// mutex-guarded shared result.
type SharedExecutor struct {
	opts   Options
	reader match.Reader
	status atomic.Pointer[RunStatus]
}

// NewSharedExecutor creates a shared-memory executor. A nil reader reads
// from the local filesystem.
func NewSharedExecutor(opts Options, reader match.Reader) *SharedExecutor {
	if reader == nil {
		reader = match.OSReader{}
	}
	return &SharedExecutor{opts: opts, reader: reader}
}

// Strategy implements Executor.
func (e *SharedExecutor) Strategy() Strategy { return StrategyShared }

// Status returns the tracker of the most recently started run, or nil
// before the first. Concurrent runs each keep their own tracker.
func (e *SharedExecutor) Status() *RunStatus { return e.status.Load() }

// Run implements Executor. It returns after every worker has merged. A
// worker that panics fails the run; unreadable files never do.
func (e *SharedExecutor) Run(ctx context.Context, files []string, m *match.Matcher) (*Outcome, error) {
	start := time.Now()
	status := NewRunStatus(StrategyShared)
	e.status.Store(status)

	chunks := plan(e.opts, files, status)
	if len(chunks) == 0 {
		return emptyOutcome(StrategyShared, status), nil
	}

	slog.Info("run_started",
		slog.String("strategy", string(StrategyShared)),
		slog.Int("files", len(files)),
		slog.Int("workers", len(chunks)))

	shared := aggregate.NewShared()
	var failed atomic.Int64

	status.SetPhase(PhaseRunning)

	// Workers are not cancelled by ctx: a started scan always finishes.
	var g errgroup.Group
	for id, chunk := range chunks {
		g.Go(func() error {
			return e.runWorker(id, chunk, m, shared, status, &failed)
		})
	}

	if err := g.Wait(); err != nil {
		status.SetError(err.Error())
		return nil, err
	}

	status.SetPhase(PhaseMerged)
	result := shared.Snapshot()
	status.SetPhase(PhaseDone)

	stats := RunStats{
		Strategy:    StrategyShared,
		Files:       len(files),
		Workers:     len(chunks),
		ChunkSizes:  partition.Sizes(chunks),
		FilesFailed: int(failed.Load()),
		Duration:    time.Since(start),
	}

	slog.Info("run_completed",
		slog.String("strategy", string(StrategyShared)),
		slog.Int("workers", stats.Workers),
		slog.Int("files_failed", stats.FilesFailed),
		slog.Duration("duration", stats.Duration))

	return &Outcome{Result: result, Stats: stats}, nil
}

func (e *SharedExecutor) runWorker(id int, chunk partition.Chunk, m *match.Matcher,
	shared *aggregate.Shared, status *RunStatus, failed *atomic.Int64) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = kerrors.WorkerError(kerrors.ErrCodeWorkerCrashed, id,
				fmt.Sprintf("worker %d panicked: %v", id, r), nil)
			slog.Error("worker_crashed",
				slog.Int("worker_id", id),
				slog.Any("panic", r))
		}
	}()

	partial, stats := m.ScanFiles(chunk, e.reader)
	failed.Add(int64(stats.Failed))

	shared.Merge(partial)
	status.WorkerMerged()

	slog.Debug("worker_merged",
		slog.Int("worker_id", id),
		slog.Int("files", len(chunk)),
		slog.Int("files_failed", stats.Failed))

	return nil
}
