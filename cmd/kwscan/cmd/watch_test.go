package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/kwscan/internal/lock"
)

func TestWatchCmd_RescansOnChange(t *testing.T) {
	// Given: a watcher on the scenario directory
	setupWorkspace(t)
	dir := writeScenario(t)
	lockDir := t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stdout := &syncBuffer{}
	root := NewRootCmd()
	root.SetOut(stdout)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"watch", dir, "-k", "critical", "-s", "shared", "--lock-dir", lockDir})

	done := make(chan error, 1)
	go func() { done <- root.ExecuteContext(ctx) }()

	require.Eventually(t, func() bool {
		return strings.Contains(stdout.String(), "watching")
	}, 5*time.Second, 20*time.Millisecond)

	// When: a file with a keyword appears
	require.NoError(t, os.WriteFile(filepath.Join(dir, "d.txt"), []byte("critical"), 0o644))

	// Then: a rescan reports it
	require.Eventually(t, func() bool {
		out := stdout.String()
		return strings.Contains(out, "rescanning") && strings.Contains(out, "d.txt")
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}

func TestWatchCmd_ReloadAppliesExcludes(t *testing.T) {
	// Given: a watcher on the working directory, which holds .kwscan.yaml
	work := setupWorkspace(t)
	lockDir := t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stdout := &syncBuffer{}
	root := NewRootCmd()
	root.SetOut(stdout)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"watch", ".", "-k", "critical", "-s", "shared", "--lock-dir", lockDir})

	done := make(chan error, 1)
	go func() { done <- root.ExecuteContext(ctx) }()

	require.Eventually(t, func() bool {
		return strings.Contains(stdout.String(), "watching")
	}, 5*time.Second, 20*time.Millisecond)

	// When: the config starts excluding skip* files
	cfgPath := filepath.Join(work, ".kwscan.yaml")
	existing, err := os.ReadFile(cfgPath)
	require.NoError(t, err)
	updated := string(existing) + "scan:\n  exclude: [\"skip*\"]\nwatch:\n  debounce: 50ms\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(updated), 0o644))

	require.Eventually(t, func() bool {
		return strings.Contains(stdout.String(), "config reloaded")
	}, 5*time.Second, 20*time.Millisecond)
	time.Sleep(500 * time.Millisecond)
	mark := len(stdout.String())

	require.NoError(t, os.WriteFile(filepath.Join(work, "skip.txt"), []byte("critical"), 0o644))
	time.Sleep(500 * time.Millisecond)

	// Then: the excluded file triggers nothing
	assert.NotContains(t, stdout.String()[mark:], "rescanning")

	// When/Then: a kept file still triggers a rescan that reports it
	require.NoError(t, os.WriteFile(filepath.Join(work, "keep.txt"), []byte("critical"), 0o644))
	require.Eventually(t, func() bool {
		return strings.Contains(stdout.String()[mark:], "keep.txt")
	}, 5*time.Second, 20*time.Millisecond)
	assert.NotContains(t, stdout.String()[mark:], "skip.txt")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}

func TestWatchCmd_SecondWatcherRefused(t *testing.T) {
	// Given: the directory lock is already held
	setupWorkspace(t)
	dir := writeScenario(t)
	lockDir := t.TempDir()

	held, err := lock.ForDirectory(lockDir, dir)
	require.NoError(t, err)
	acquired, err := held.TryLock()
	require.NoError(t, err)
	require.True(t, acquired)
	defer func() { _ = held.Unlock() }()

	// When: another watch starts on the same directory
	root := NewRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"watch", dir, "-s", "shared", "--lock-dir", lockDir})
	err = root.Execute()

	// Then: it exits with an error
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already running")
}
