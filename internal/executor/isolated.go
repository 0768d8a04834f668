package executor

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/Aman-CERP/kwscan/internal/aggregate"
	kerrors "github.com/Aman-CERP/kwscan/internal/errors"
	"github.com/Aman-CERP/kwscan/internal/match"
	"github.com/Aman-CERP/kwscan/internal/partition"
)

// socketName is the collector socket inside the per-run directory.
const socketName = "collector.sock"

// IsolatedExecutor runs one child process per chunk. Children share no
// memory with the parent or each other; each sends its whole partial result
// as one message to the collector, which is drained exactly once per worker
// before a single-threaded MergeAll.
type IsolatedExecutor struct {
	opts       Options
	launcher   Launcher
	runtimeDir string
	status     atomic.Pointer[RunStatus]
}

// NewIsolatedExecutor creates a process-based executor. runtimeDir is the
// parent of each run's socket directory (empty = the OS temp directory).
func NewIsolatedExecutor(opts Options, launcher Launcher, runtimeDir string) *IsolatedExecutor {
	return &IsolatedExecutor{opts: opts, launcher: launcher, runtimeDir: runtimeDir}
}

// Strategy implements Executor.
func (e *IsolatedExecutor) Strategy() Strategy { return StrategyIsolated }

// Status returns the tracker of the most recently started run, or nil
// before the first. Concurrent runs each keep their own tracker.
func (e *IsolatedExecutor) Status() *RunStatus { return e.status.Load() }

type workerExit struct {
	id  int
	err error
}

// isolatedRun holds the bookkeeping of one run.
type isolatedRun struct {
	workers  int
	messages <-chan PartialMessage
	partials []aggregate.Result
	reported map[int]bool
	failed   int
	status   *RunStatus
}

// accept records one drained message.
func (r *isolatedRun) accept(msg PartialMessage) {
	r.partials = append(r.partials, msg.Result)
	r.reported[msg.WorkerID] = true
	r.failed += msg.FilesFailed
	r.status.WorkerMerged()
}

// drainPending accepts every message already queued without blocking.
func (r *isolatedRun) drainPending() {
	for len(r.partials) < r.workers {
		select {
		case msg := <-r.messages:
			r.accept(msg)
		default:
			return
		}
	}
}

// Run implements Executor. It returns only after every launched child has
// exited. A child that exits non-zero before reporting, or exits without
// reporting, fails the run; remaining children are then killed. Cancelling
// ctx kills all children.
func (e *IsolatedExecutor) Run(ctx context.Context, files []string, m *match.Matcher) (*Outcome, error) {
	start := time.Now()
	status := NewRunStatus(StrategyIsolated)
	e.status.Store(status)

	chunks := plan(e.opts, files, status)
	if len(chunks) == 0 {
		return emptyOutcome(StrategyIsolated, status), nil
	}
	workers := len(chunks)

	runDir, err := os.MkdirTemp(e.runtimeDir, "kwscan-run-")
	if err != nil {
		err = kerrors.New(kerrors.ErrCodeRuntimeDir, "failed to create runtime directory", err).
			WithSuggestion("check isolated.runtime_dir is writable")
		status.SetError(err.Error())
		return nil, err
	}
	defer os.RemoveAll(runDir)

	collector := NewCollector(filepath.Join(runDir, socketName), workers)
	if err := collector.Listen(); err != nil {
		kerr := kerrors.New(kerrors.ErrCodeCollectorFailed, "failed to start collector", err)
		status.SetError(kerr.Error())
		return nil, kerr
	}

	serveCtx, stopServe := context.WithCancel(context.Background())
	serveDone := make(chan struct{})
	go func() {
		defer close(serveDone)
		collector.Serve(serveCtx)
	}()
	defer func() {
		stopServe()
		<-serveDone
	}()

	slog.Info("run_started",
		slog.String("strategy", string(StrategyIsolated)),
		slog.Int("files", len(files)),
		slog.Int("workers", workers),
		slog.String("socket", collector.SocketPath()))

	keywords := m.Keywords()
	exits := make(chan workerExit, workers)
	procs := make([]Process, 0, workers)

	for id, chunk := range chunks {
		proc, err := e.launcher.Launch(ctx, Assignment{
			WorkerID:   id,
			SocketPath: collector.SocketPath(),
			Files:      chunk,
			Keywords:   keywords,
		})
		if err != nil {
			killAll(procs)
			for range procs {
				<-exits
			}
			kerr := kerrors.WorkerError(kerrors.ErrCodeWorkerLaunch, id,
				fmt.Sprintf("failed to launch worker %d", id), err)
			status.SetError(kerr.Error())
			return nil, kerr
		}
		procs = append(procs, proc)

		go func() {
			exits <- workerExit{id: id, err: proc.Wait()}
		}()
		slog.Debug("worker_launched", slog.Int("worker_id", id), slog.Int("pid", proc.PID()))
	}

	status.SetPhase(PhaseRunning)

	run := &isolatedRun{
		workers:  workers,
		messages: collector.Messages(),
		partials: make([]aggregate.Result, 0, workers),
		reported: make(map[int]bool, workers),
		status:   status,
	}

	// Drain exactly W messages, counting them; exits are observed
	// alongside so a dead worker cannot stall the drain.
	exited := 0
	var runErr error
	for len(run.partials) < workers && runErr == nil {
		select {
		case msg := <-run.messages:
			run.accept(msg)

		case ex := <-exits:
			exited++
			runErr = e.checkExit(run, ex)

		case <-ctx.Done():
			runErr = ctx.Err()
		}
	}

	if runErr != nil {
		killAll(procs)
	}

	// Reap every child.
	for ; exited < workers; exited++ {
		ex := <-exits
		if ex.err != nil && runErr == nil {
			slog.Warn("worker_exit_after_report",
				slog.Int("worker_id", ex.id),
				slog.String("error", ex.err.Error()))
		}
	}

	if runErr != nil {
		status.SetError(runErr.Error())
		slog.Error("run_failed",
			slog.String("strategy", string(StrategyIsolated)),
			slog.String("error", runErr.Error()))
		return nil, runErr
	}

	result := aggregate.MergeAll(run.partials)
	status.SetPhase(PhaseMerged)
	status.SetPhase(PhaseDone)

	stats := RunStats{
		Strategy:    StrategyIsolated,
		Files:       len(files),
		Workers:     workers,
		ChunkSizes:  partition.Sizes(chunks),
		FilesFailed: run.failed,
		Duration:    time.Since(start),
	}

	slog.Info("run_completed",
		slog.String("strategy", string(StrategyIsolated)),
		slog.Int("workers", stats.Workers),
		slog.Int("files_failed", stats.FilesFailed),
		slog.Duration("duration", stats.Duration))

	return &Outcome{Result: result, Stats: stats}, nil
}

// checkExit classifies a child exit seen before all messages arrived.
// A child acknowledges only after its message is queued, so any report it
// made is already pending on the channel.
func (e *IsolatedExecutor) checkExit(run *isolatedRun, ex workerExit) error {
	run.drainPending()
	if run.reported[ex.id] {
		if ex.err != nil {
			slog.Warn("worker_exit_after_report",
				slog.Int("worker_id", ex.id),
				slog.String("error", ex.err.Error()))
		}
		return nil
	}

	if ex.err != nil {
		return kerrors.WorkerError(kerrors.ErrCodeWorkerCrashed, ex.id,
			fmt.Sprintf("worker %d exited before reporting", ex.id), ex.err)
	}
	return kerrors.WorkerError(kerrors.ErrCodeWorkerNoReport, ex.id,
		fmt.Sprintf("worker %d exited without reporting", ex.id), nil)
}

func killAll(procs []Process) {
	for _, p := range procs {
		if err := p.Kill(); err != nil {
			slog.Debug("worker_kill_failed", slog.Int("pid", p.PID()), slog.String("error", err.Error()))
		}
	}
}
