// Package watcher reports changes to the files of one directory so that
// `kwscan watch` can rescan it.
//
// Only direct entries of the directory are watched, matching the
// non-recursive scan. Events are debounced so an editor's burst of writes
// triggers a single rescan.
//
// Usage:
//
//	w, err := watcher.New(watcher.DefaultOptions())
//	if err != nil {
//	    return err
//	}
//	defer w.Stop()
//
//	go func() { _ = w.Start(ctx, dir) }()
//
//	for batch := range w.Events() {
//	    // rescan
//	}
package watcher
