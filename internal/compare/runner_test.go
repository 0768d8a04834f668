package compare

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/kwscan/internal/aggregate"
	kerrors "github.com/Aman-CERP/kwscan/internal/errors"
	"github.com/Aman-CERP/kwscan/internal/executor"
	"github.com/Aman-CERP/kwscan/internal/match"
)

// stubExecutor returns a fixed result under a chosen strategy name.
type stubExecutor struct {
	strategy executor.Strategy
	result   aggregate.Result
	calls    int
}

func (s *stubExecutor) Strategy() executor.Strategy { return s.strategy }

func (s *stubExecutor) Run(_ context.Context, files []string, _ *match.Matcher) (*executor.Outcome, error) {
	s.calls++
	return &executor.Outcome{
		Result: s.result,
		Stats:  executor.RunStats{Strategy: s.strategy, Files: len(files)},
	}, nil
}

func writeScenario(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range map[string]string{
		"a.txt": "warning: low disk",
		"b.txt": "all clear",
		"c.txt": "critical error detected",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func TestNewRunner_RequiresExecutors(t *testing.T) {
	_, err := NewRunner(RunnerDependencies{})
	assert.Error(t, err)
}

func TestRunner_ConcreteScenario(t *testing.T) {
	// Given: the a/b/c fixture and a real shared executor
	dir := writeScenario(t)
	runner, err := NewRunner(RunnerDependencies{
		Executors: []executor.Executor{executor.NewSharedExecutor(executor.Options{Parallelism: 2}, nil)},
	})
	require.NoError(t, err)

	// When: running the shared strategy
	report, err := runner.Run(context.Background(), RunnerConfig{
		Dir:        dir,
		Keywords:   []string{"error", "warning", "critical"},
		Strategies: []executor.Strategy{executor.StrategyShared},
	})

	// Then: the report holds the expected mapping
	require.NoError(t, err)
	assert.Equal(t, 3, report.Files)
	assert.True(t, report.Equivalent)
	run := report.Run(executor.StrategyShared)
	require.NotNil(t, run)

	abs, err := filepath.Abs(dir)
	require.NoError(t, err)
	assert.Equal(t, aggregate.Result{
		"error":    {filepath.Join(abs, "c.txt")},
		"warning":  {filepath.Join(abs, "a.txt")},
		"critical": {filepath.Join(abs, "c.txt")},
	}, run.Result.Sorted())
	assert.Nil(t, report.Run(executor.StrategyIsolated))
}

func TestRunner_StrategiesAgree(t *testing.T) {
	dir := writeScenario(t)
	shared := executor.NewSharedExecutor(executor.Options{}, nil)
	abs, _ := filepath.Abs(dir)
	twin := &stubExecutor{
		strategy: executor.StrategyIsolated,
		result: aggregate.Result{
			"critical": {filepath.Join(abs, "c.txt")},
			"error":    {filepath.Join(abs, "c.txt")},
			"warning":  {filepath.Join(abs, "a.txt")},
		},
	}
	runner, err := NewRunner(RunnerDependencies{Executors: []executor.Executor{shared, twin}})
	require.NoError(t, err)

	report, err := runner.Run(context.Background(), RunnerConfig{
		Dir:        dir,
		Keywords:   []string{"error", "warning", "critical"},
		Strategies: executor.AllStrategies,
	})

	require.NoError(t, err)
	assert.True(t, report.Equivalent)
	assert.Len(t, report.Runs, 2)
	assert.Equal(t, 1, twin.calls)
}

func TestRunner_MismatchIsReported(t *testing.T) {
	dir := writeScenario(t)
	shared := executor.NewSharedExecutor(executor.Options{}, nil)
	broken := &stubExecutor{strategy: executor.StrategyIsolated, result: aggregate.Result{}}
	runner, err := NewRunner(RunnerDependencies{Executors: []executor.Executor{shared, broken}})
	require.NoError(t, err)

	report, err := runner.Run(context.Background(), RunnerConfig{
		Dir:        dir,
		Keywords:   []string{"error"},
		Strategies: executor.AllStrategies,
	})

	require.Error(t, err)
	assert.Equal(t, kerrors.ErrCodeStrategyMismatch, kerrors.GetCode(err))
	require.NotNil(t, report)
	assert.False(t, report.Equivalent)
}

func TestRunner_EmptyDirectory(t *testing.T) {
	runner, err := NewRunner(RunnerDependencies{
		Executors: []executor.Executor{executor.NewSharedExecutor(executor.Options{}, nil)},
	})
	require.NoError(t, err)

	report, err := runner.Run(context.Background(), RunnerConfig{
		Dir:        t.TempDir(),
		Keywords:   []string{"error"},
		Strategies: []executor.Strategy{executor.StrategyShared},
	})

	require.NoError(t, err)
	assert.Zero(t, report.Files)
	assert.Empty(t, report.Runs[0].Result)
	assert.Zero(t, report.Runs[0].Stats.Workers)
}

func TestRunner_InputErrors(t *testing.T) {
	runner, err := NewRunner(RunnerDependencies{
		Executors: []executor.Executor{executor.NewSharedExecutor(executor.Options{}, nil)},
	})
	require.NoError(t, err)
	ctx := context.Background()

	tests := []struct {
		name string
		cfg  RunnerConfig
		code string
	}{
		{
			name: "no keywords",
			cfg:  RunnerConfig{Dir: t.TempDir(), Strategies: []executor.Strategy{executor.StrategyShared}},
			code: kerrors.ErrCodeNoKeywords,
		},
		{
			name: "missing directory",
			cfg:  RunnerConfig{Dir: filepath.Join(t.TempDir(), "gone"), Keywords: []string{"x"}, Strategies: []executor.Strategy{executor.StrategyShared}},
			code: kerrors.ErrCodeDirNotFound,
		},
		{
			name: "strategy without executor",
			cfg:  RunnerConfig{Dir: t.TempDir(), Keywords: []string{"x"}, Strategies: []executor.Strategy{executor.StrategyIsolated}},
			code: kerrors.ErrCodeInvalidStrategy,
		},
		{
			name: "no strategies",
			cfg:  RunnerConfig{Dir: t.TempDir(), Keywords: []string{"x"}},
			code: kerrors.ErrCodeInvalidStrategy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runner.Run(ctx, tt.cfg)
			require.Error(t, err)
			assert.Equal(t, tt.code, kerrors.GetCode(err))
		})
	}
}
