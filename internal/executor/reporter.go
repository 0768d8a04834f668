package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"
)

// DefaultReportTimeout bounds dialing the collector and awaiting its ack.
const DefaultReportTimeout = 30 * time.Second

// Reporter is the child-side client of the collector.
type Reporter struct {
	socketPath string
	timeout    time.Duration
}

// NewReporter creates a reporter for the collector at socketPath.
func NewReporter(socketPath string, timeout time.Duration) *Reporter {
	if timeout <= 0 {
		timeout = DefaultReportTimeout
	}
	return &Reporter{socketPath: socketPath, timeout: timeout}
}

// Submit sends msg and waits for the acknowledgement. A nil error means the
// partial is queued in the collector.
func (r *Reporter) Submit(ctx context.Context, msg PartialMessage) error {
	conn, err := net.DialTimeout("unix", r.socketPath, r.timeout)
	if err != nil {
		return fmt.Errorf("failed to connect to collector: %w", err)
	}
	defer conn.Close()

	// Set deadline from context or timeout
	deadline := time.Now().Add(r.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return fmt.Errorf("failed to set deadline: %w", err)
	}

	params, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode partial: %w", err)
	}

	req := Request{
		JSONRPC: "2.0",
		Method:  MethodSubmitPartial,
		Params:  params,
		ID:      fmt.Sprintf("worker-%d", msg.WorkerID),
	}
	if err := json.NewEncoder(conn).Encode(req); err != nil {
		return fmt.Errorf("failed to send partial: %w", err)
	}

	var resp Response
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return fmt.Errorf("failed to receive ack: %w", err)
	}
	if resp.Error != nil {
		return fmt.Errorf("partial rejected: %w", resp.Error)
	}
	return nil
}
