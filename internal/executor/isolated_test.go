package executor

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kerrors "github.com/Aman-CERP/kwscan/internal/errors"
)

func TestIsolatedExecutor_WorkerCrashIsFatal(t *testing.T) {
	// Given: worker 0 exits non-zero before reporting
	files := writeCorpus(t, 6)
	exec := NewIsolatedExecutor(Options{Parallelism: 3}, helperLauncher(modeCrash0), "")

	// When: running
	out, err := exec.Run(context.Background(), files, newMatcher(t))

	// Then: the run fails instead of returning a partial result
	require.Error(t, err)
	assert.Nil(t, out)
	assert.Equal(t, kerrors.ErrCodeWorkerCrashed, kerrors.GetCode(err))
	assert.True(t, kerrors.IsFatal(err))
	assert.Equal(t, PhaseFailed, exec.Status().Phase())
}

func TestIsolatedExecutor_WorkerWithoutReportIsFatal(t *testing.T) {
	files := writeCorpus(t, 4)
	exec := NewIsolatedExecutor(Options{Parallelism: 2}, helperLauncher(modeSilent0), "")

	_, err := exec.Run(context.Background(), files, newMatcher(t))

	require.Error(t, err)
	assert.Equal(t, kerrors.ErrCodeWorkerNoReport, kerrors.GetCode(err))
}

func TestIsolatedExecutor_LaunchFailure(t *testing.T) {
	files := writeCorpus(t, 3)
	launcher := &CommandLauncher{Path: filepath.Join(t.TempDir(), "missing-binary")}
	exec := NewIsolatedExecutor(Options{Parallelism: 3}, launcher, "")

	_, err := exec.Run(context.Background(), files, newMatcher(t))

	require.Error(t, err)
	assert.Equal(t, kerrors.ErrCodeWorkerLaunch, kerrors.GetCode(err))
}

func TestIsolatedExecutor_CancelKillsChildren(t *testing.T) {
	// Given: workers that never report
	files := writeCorpus(t, 2)
	exec := NewIsolatedExecutor(Options{Parallelism: 2}, helperLauncher(modeHang), "")
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	// When: the context expires
	start := time.Now()
	_, err := exec.Run(ctx, files, newMatcher(t))

	// Then: children are killed and the run returns promptly
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Less(t, time.Since(start), 30*time.Second)
}

func TestIsolatedExecutor_ReadFailuresCounted(t *testing.T) {
	files := writeCorpus(t, 3)
	files = append(files, filepath.Join(t.TempDir(), "vanished.txt"))
	exec := NewIsolatedExecutor(Options{Parallelism: 2}, helperLauncher(modeReport), "")

	out, err := exec.Run(context.Background(), files, newMatcher(t))

	require.NoError(t, err)
	assert.Equal(t, 1, out.Stats.FilesFailed)
	assert.Len(t, out.Result["error"], 2)
}

func TestIsolatedExecutor_RuntimeDirMissing(t *testing.T) {
	files := writeCorpus(t, 2)
	exec := NewIsolatedExecutor(Options{}, helperLauncher(modeReport), filepath.Join(t.TempDir(), "no", "such"))

	_, err := exec.Run(context.Background(), files, newMatcher(t))

	require.Error(t, err)
	assert.Equal(t, kerrors.ErrCodeRuntimeDir, kerrors.GetCode(err))
}
