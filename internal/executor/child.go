package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/Aman-CERP/kwscan/internal/match"
)

// DecodeAssignment reads a child's work order.
func DecodeAssignment(r io.Reader) (Assignment, error) {
	var a Assignment
	if err := json.NewDecoder(r).Decode(&a); err != nil {
		return Assignment{}, fmt.Errorf("failed to decode assignment: %w", err)
	}
	if err := a.Validate(); err != nil {
		return Assignment{}, fmt.Errorf("invalid assignment: %w", err)
	}
	return a, nil
}

// RunWorker is the child-process entry point: it reads an Assignment from
// stdin, scans the assigned files and submits the whole partial result to
// the collector. A nil return means the collector acknowledged it.
func RunWorker(ctx context.Context, stdin io.Reader) error {
	a, err := DecodeAssignment(stdin)
	if err != nil {
		return err
	}
	return RunAssignment(ctx, a, match.OSReader{})
}

// RunAssignment scans one assignment and reports it.
func RunAssignment(ctx context.Context, a Assignment, reader match.Reader) error {
	m, err := match.New(a.Keywords)
	if err != nil {
		return err
	}

	partial, stats := m.ScanFiles(a.Files, reader)

	msg := PartialMessage{
		WorkerID:     a.WorkerID,
		Result:       partial,
		FilesScanned: stats.Scanned,
		FilesFailed:  stats.Failed,
	}
	if err := NewReporter(a.SocketPath, DefaultReportTimeout).Submit(ctx, msg); err != nil {
		return fmt.Errorf("worker %d: %w", a.WorkerID, err)
	}

	slog.Debug("partial_submitted",
		slog.Int("worker_id", a.WorkerID),
		slog.Int("files", len(a.Files)))
	return nil
}
