package executor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/kwscan/internal/aggregate"
	kerrors "github.com/Aman-CERP/kwscan/internal/errors"
	"github.com/Aman-CERP/kwscan/internal/match"
	"github.com/Aman-CERP/kwscan/internal/partition"
)

func TestParseStrategy(t *testing.T) {
	s, err := ParseStrategy("shared")
	require.NoError(t, err)
	assert.Equal(t, StrategyShared, s)

	s, err = ParseStrategy("isolated")
	require.NoError(t, err)
	assert.Equal(t, StrategyIsolated, s)

	_, err = ParseStrategy("threads")
	require.Error(t, err)
	assert.Equal(t, kerrors.ErrCodeInvalidStrategy, kerrors.GetCode(err))
}

func TestExecutors_ConcreteScenario(t *testing.T) {
	// Given: a.txt (warning), b.txt (nothing), c.txt (critical, error)
	a, b, c := writeScenario(t)
	m := newMatcher(t)

	for _, exec := range newExecutors(Options{Parallelism: 2}) {
		t.Run(string(exec.Strategy()), func(t *testing.T) {
			// When: running with two workers
			out, err := exec.Run(context.Background(), []string{a, b, c}, m)

			// Then: chunks are [a] and [b, c]; b.txt never appears
			require.NoError(t, err)
			assert.Equal(t, []int{1, 2}, out.Stats.ChunkSizes)
			assert.Equal(t, aggregate.Result{
				"error":    {c},
				"warning":  {a},
				"critical": {c},
			}, out.Result.Sorted())
			for _, files := range out.Result {
				assert.NotContains(t, files, b)
			}
		})
	}
}

func TestExecutors_MatchSequentialReference(t *testing.T) {
	files := writeCorpus(t, 23)
	m := newMatcher(t)
	reference, _ := m.ScanFiles(files, match.OSReader{})

	for _, parallelism := range []int{1, 2, 3, 7, 16} {
		for _, policy := range []partition.Policy{partition.PolicyContiguous, partition.PolicyBalanced} {
			opts := Options{Parallelism: parallelism, Partition: policy}
			for _, exec := range newExecutors(opts) {
				name := fmt.Sprintf("%s/%s/w=%d", exec.Strategy(), policy, parallelism)
				t.Run(name, func(t *testing.T) {
					out, err := exec.Run(context.Background(), files, m)

					require.NoError(t, err)
					assert.True(t, reference.Equivalent(out.Result),
						"want %v, got %v", reference.Sorted(), out.Result.Sorted())
					assert.Equal(t, reference.Pairs(), out.Result.Pairs())
					assert.Equal(t, parallelism, out.Stats.Workers)
					assert.Equal(t, len(files), out.Stats.Files)
				})
			}
		}
	}
}

func TestExecutors_StrategiesAgree(t *testing.T) {
	files := writeCorpus(t, 40)
	m := newMatcher(t)
	opts := Options{Parallelism: 5}

	shared, err := NewSharedExecutor(opts, nil).Run(context.Background(), files, m)
	require.NoError(t, err)
	isolated, err := NewIsolatedExecutor(opts, helperLauncher(modeReport), "").Run(context.Background(), files, m)
	require.NoError(t, err)

	assert.True(t, shared.Result.Equivalent(isolated.Result))
}

func TestExecutors_NonUTF8FileNames(t *testing.T) {
	// Given: a file whose name is not valid UTF-8 next to a plain one
	dir := t.TempDir()
	odd := filepath.Join(dir, "log\xff.txt")
	if err := os.WriteFile(odd, []byte("an error here"), 0o644); err != nil {
		t.Skipf("filesystem rejects non-UTF-8 names: %v", err)
	}
	plain := filepath.Join(dir, "ok.txt")
	require.NoError(t, os.WriteFile(plain, []byte("error"), 0o644))
	files := []string{odd, plain}
	m := newMatcher(t)

	for _, exec := range newExecutors(Options{Parallelism: 2}) {
		t.Run(string(exec.Strategy()), func(t *testing.T) {
			// When: scanning with each strategy
			out, err := exec.Run(context.Background(), files, m)

			// Then: both files are read and reported under their exact names
			require.NoError(t, err)
			assert.Zero(t, out.Stats.FilesFailed)
			assert.True(t, aggregate.Result{"error": {odd, plain}}.Equivalent(out.Result), "%q", out.Result)
		})
	}
}

func TestExecutors_OneFilePerWorker(t *testing.T) {
	// Given: as many workers as files, each with a hit for every keyword
	files := writeCorpus(t, 8)
	m := newMatcher(t)
	reference, _ := m.ScanFiles(files, match.OSReader{})

	for _, exec := range newExecutors(Options{Parallelism: 8}) {
		t.Run(string(exec.Strategy()), func(t *testing.T) {
			out, err := exec.Run(context.Background(), files, m)

			// Then: no update is lost
			require.NoError(t, err)
			assert.Equal(t, []int{1, 1, 1, 1, 1, 1, 1, 1}, out.Stats.ChunkSizes)
			assert.True(t, reference.Equivalent(out.Result))
		})
	}
}

func TestExecutors_EmptyInput(t *testing.T) {
	m := newMatcher(t)

	for _, exec := range newExecutors(Options{}) {
		t.Run(string(exec.Strategy()), func(t *testing.T) {
			out, err := exec.Run(context.Background(), nil, m)

			require.NoError(t, err)
			assert.Empty(t, out.Result)
			assert.Zero(t, out.Stats.Workers)
			assert.Zero(t, out.Stats.Duration)
		})
	}
}

func TestSharedExecutor_ReadFailuresAbsorbed(t *testing.T) {
	reader := match.ReaderFunc(func(path string) ([]byte, error) {
		if path == "bad" {
			return nil, fmt.Errorf("device gone")
		}
		return []byte("error"), nil
	})
	exec := NewSharedExecutor(Options{Parallelism: 2}, reader)

	out, err := exec.Run(context.Background(), []string{"good1", "bad", "good2", "good3"}, newMatcher(t))

	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"good1", "good2", "good3"}, out.Result["error"])
	assert.Equal(t, 1, out.Stats.FilesFailed)
	assert.Equal(t, PhaseDone, exec.Status().Phase())
}

func TestSharedExecutor_WorkerPanicIsFatal(t *testing.T) {
	// Given: a reader that panics for one file
	reader := match.ReaderFunc(func(path string) ([]byte, error) {
		if path == "boom" {
			panic("corrupted state")
		}
		return []byte("warning"), nil
	})
	exec := NewSharedExecutor(Options{Parallelism: 3}, reader)

	// When: running
	out, err := exec.Run(context.Background(), []string{"x", "boom", "y"}, newMatcher(t))

	// Then: the run fails with a fatal crash error, not a read failure
	require.Error(t, err)
	assert.Nil(t, out)
	assert.Equal(t, kerrors.ErrCodeWorkerCrashed, kerrors.GetCode(err))
	assert.True(t, kerrors.IsFatal(err))
	assert.Equal(t, PhaseFailed, exec.Status().Phase())
}

func TestSharedExecutor_StatusCountsMerges(t *testing.T) {
	files := writeCorpus(t, 10)
	exec := NewSharedExecutor(Options{Parallelism: 4}, nil)

	_, err := exec.Run(context.Background(), files, newMatcher(t))
	require.NoError(t, err)

	snap := exec.Status().Snapshot()
	assert.Equal(t, "shared", snap.Strategy)
	assert.Equal(t, "done", snap.Phase)
	assert.Equal(t, 4, snap.Workers)
	assert.Equal(t, 4, snap.WorkersMerged)
	assert.Equal(t, 10, snap.FilesTotal)
}

func TestSharedExecutor_ConcurrentRunsAndStatus(t *testing.T) {
	// Given: one executor shared by several callers
	files := writeCorpus(t, 12)
	m := newMatcher(t)
	exec := NewSharedExecutor(Options{Parallelism: 3}, nil)
	reference, _ := m.ScanFiles(files, match.OSReader{})

	// When: runs overlap while Status is polled
	var wg sync.WaitGroup
	errs := make(chan error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := exec.Run(context.Background(), files, m)
			if err == nil && !reference.Equivalent(out.Result) {
				err = fmt.Errorf("result differs: %v", out.Result)
			}
			errs <- err
		}()
	}
	stop := make(chan struct{})
	go func() {
		for {
			select {
			case <-stop:
				return
			default:
				if s := exec.Status(); s != nil {
					_ = s.Snapshot()
				}
			}
		}
	}()
	wg.Wait()
	close(stop)
	close(errs)

	// Then: every run is correct and the last tracker is complete
	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, PhaseDone, exec.Status().Phase())
}
