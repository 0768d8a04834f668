package executor

import (
	"sync"
	"time"
)

// Phase is the lifecycle state of one run.
type Phase string

const (
	// PhaseIdle is the state before the file list is partitioned.
	PhaseIdle Phase = "idle"
	// PhasePartitioned means chunks are assigned but no worker started.
	PhasePartitioned Phase = "partitioned"
	// PhaseRunning means workers are scanning.
	PhaseRunning Phase = "running"
	// PhaseMerged means every partial has been merged.
	PhaseMerged Phase = "merged"
	// PhaseDone means the final result was handed to the caller.
	PhaseDone Phase = "done"
	// PhaseFailed means the run ended with a fatal error.
	PhaseFailed Phase = "failed"
)

// RunStatusSnapshot is an immutable snapshot of a run's progress.
type RunStatusSnapshot struct {
	Strategy      string `json:"strategy"`
	Phase         string `json:"phase"`
	Workers       int    `json:"workers"`
	WorkersMerged int    `json:"workers_merged"`
	FilesTotal    int    `json:"files_total"`
	ElapsedMillis int64  `json:"elapsed_ms"`
	ErrorMessage  string `json:"error_message,omitempty"`
}

// RunStatus provides thread-safe tracking of one run.
type RunStatus struct {
	mu sync.RWMutex

	strategy      Strategy
	phase         Phase
	workers       int
	workersMerged int
	filesTotal    int
	startTime     time.Time
	errorMessage  string
}

// NewRunStatus creates a tracker in the idle phase.
func NewRunStatus(strategy Strategy) *RunStatus {
	return &RunStatus{
		strategy:  strategy,
		phase:     PhaseIdle,
		startTime: time.Now(),
	}
}

// SetPartitioned records the file and worker counts.
func (s *RunStatus) SetPartitioned(files, workers int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.phase = PhasePartitioned
	s.filesTotal = files
	s.workers = workers
}

// SetPhase moves the run to phase.
func (s *RunStatus) SetPhase(phase Phase) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.phase = phase
}

// WorkerMerged counts one more worker whose partial reached the result.
func (s *RunStatus) WorkerMerged() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.workersMerged++
}

// SetError marks the run as failed.
func (s *RunStatus) SetError(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.phase = PhaseFailed
	s.errorMessage = message
}

// Phase returns the current phase.
func (s *RunStatus) Phase() Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.phase
}

// Snapshot returns an immutable copy of the current state.
func (s *RunStatus) Snapshot() RunStatusSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return RunStatusSnapshot{
		Strategy:      string(s.strategy),
		Phase:         string(s.phase),
		Workers:       s.workers,
		WorkersMerged: s.workersMerged,
		FilesTotal:    s.filesTotal,
		ElapsedMillis: time.Since(s.startTime).Milliseconds(),
		ErrorMessage:  s.errorMessage,
	}
}
