package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/kwscan/internal/config"
	kerrors "github.com/Aman-CERP/kwscan/internal/errors"
	"github.com/Aman-CERP/kwscan/internal/lock"
	"github.com/Aman-CERP/kwscan/internal/output"
	"github.com/Aman-CERP/kwscan/internal/watcher"
)

func newWatchCmd() *cobra.Command {
	var (
		flags   scanFlags
		lockDir string
	)

	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Rescan a directory whenever it changes",
		Long: `Scan a directory, then rescan it after every burst of file changes.

Changes to .kwscan.yaml reload the configuration before the rescan; new
excludes and debounce settings rebuild the watcher, while the watched
directory stays fixed. Only one watcher may run per directory; a second one
exits with an error.`,
		Example: `  kwscan watch ./logs -k error -s shared`,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadScanConfig(cmd, &flags, args)
			if err != nil {
				return err
			}
			return runWatch(cmd.Context(), cmd, cfg, &flags, args, lockDir)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&lockDir, "lock-dir", lock.DefaultLockDir(), "Directory holding watcher lock files")

	return cmd
}

func runWatch(ctx context.Context, cmd *cobra.Command, cfg *config.Config, flags *scanFlags, args []string, lockDir string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	out := output.New(cmd.OutOrStdout())
	dir := cfg.Scan.Dir

	dirLock, err := lock.ForDirectory(lockDir, dir)
	if err != nil {
		return err
	}
	acquired, err := dirLock.TryLock()
	if err != nil {
		return err
	}
	if !acquired {
		return kerrors.New(kerrors.ErrCodeInvalidInput,
			fmt.Sprintf("another watcher is already running for %s", dirLock.Dir()), nil).
			WithDetail("lock", dirLock.Path())
	}
	defer func() { _ = dirLock.Unlock() }()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	dw, err := startDirWatch(ctx, cfg, dir)
	if err != nil {
		return err
	}
	defer func() { dw.stop() }()

	out.Eventf("watching %s", dirLock.Dir())
	rescan(ctx, cmd, out, cfg, flags)

	for {
		select {
		case <-ctx.Done():
			out.Eventf("stopped")
			return nil

		case err := <-dw.done:
			if err == nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return err

		case err := <-dw.w.Errors():
			out.Warningf("watch error: %v", err)

		case batch, ok := <-dw.w.Events():
			if !ok {
				return nil
			}
			if configChanged(batch) {
				reloaded, err := loadScanConfig(cmd, flags, args)
				if err != nil {
					out.Warningf("config not reloaded: %v", err)
				} else {
					// The locked directory stays the watched one.
					reloaded.Scan.Dir = dir
					if watchSettingsChanged(cfg, reloaded) {
						next, err := startDirWatch(ctx, reloaded, dir)
						if err != nil {
							return err
						}
						dw.stop()
						dw = next
					}
					cfg = reloaded
					out.Eventf("config reloaded")
				}
			}
			out.Eventf("%d change(s), rescanning", len(batch))
			rescan(ctx, cmd, out, cfg, flags)
		}
	}
}

// dirWatch is one running watcher and the result of its Start.
type dirWatch struct {
	w      *watcher.DirWatcher
	done   chan error
	cancel context.CancelFunc
}

// startDirWatch starts a watcher on dir with cfg's excludes and debounce and
// waits until it is registered.
func startDirWatch(ctx context.Context, cfg *config.Config, dir string) (*dirWatch, error) {
	w, err := watcher.New(watcher.Options{
		DebounceWindow: cfg.DebounceDuration(),
		Exclude:        cfg.Scan.Exclude,
	})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	dw := &dirWatch{w: w, done: make(chan error, 1), cancel: cancel}
	go func() { dw.done <- w.Start(ctx, dir) }()

	select {
	case <-w.Ready():
		return dw, nil
	case err := <-dw.done:
		dw.stop()
		return nil, kerrors.IOError(fmt.Sprintf("cannot watch %s", dir), err)
	}
}

func (dw *dirWatch) stop() {
	dw.cancel()
	_ = dw.w.Stop()
}

// watchSettingsChanged reports whether the watcher itself must be rebuilt.
func watchSettingsChanged(old, cur *config.Config) bool {
	return old.DebounceDuration() != cur.DebounceDuration() ||
		!slices.Equal(old.Scan.Exclude, cur.Scan.Exclude)
}

// rescan runs one scan; failures are reported and watching continues.
func rescan(ctx context.Context, cmd *cobra.Command, out *output.Writer, cfg *config.Config, flags *scanFlags) {
	if err := runScan(ctx, cmd, cfg, flags.format, flags.noColor); err != nil {
		if ctx.Err() != nil {
			return
		}
		slog.Warn("rescan_failed", slog.String("error", err.Error()))
		out.Error(strings.TrimRight(kerrors.FormatForCLI(err), "\n"))
	}
}

func configChanged(batch []watcher.FileEvent) bool {
	for _, ev := range batch {
		if ev.Operation == watcher.OpConfigChange {
			return true
		}
	}
	return false
}
