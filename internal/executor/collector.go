package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"
)

// connDeadline bounds how long one child may hold a connection.
const connDeadline = 30 * time.Second

// Collector is the single consumer of worker partials. It listens on a Unix
// socket, accepts one submit_partial message per expected worker, and
// queues each on a channel buffered to the worker count, so a submitting
// child is never blocked on the consumer.
type Collector struct {
	socketPath string
	expected   int
	listener   net.Listener
	messages   chan PartialMessage

	mu       sync.Mutex
	received map[int]bool
	shutdown bool
	wg       sync.WaitGroup
}

// NewCollector creates a collector expecting one message from each of
// workers workers, identified 0..workers-1.
func NewCollector(socketPath string, workers int) *Collector {
	return &Collector{
		socketPath: socketPath,
		expected:   workers,
		messages:   make(chan PartialMessage, workers),
		received:   make(map[int]bool, workers),
	}
}

// SocketPath returns the path children dial.
func (c *Collector) SocketPath() string { return c.socketPath }

// Messages is the MPSC channel of accepted partials.
func (c *Collector) Messages() <-chan PartialMessage { return c.messages }

// Listen binds the socket. Children may dial as soon as it returns.
func (c *Collector) Listen() error {
	// Clean up any stale socket
	_ = os.Remove(c.socketPath)

	listener, err := net.Listen("unix", c.socketPath)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", c.socketPath, err)
	}
	c.listener = listener

	slog.Debug("collector_listening", slog.String("socket", c.socketPath))
	return nil
}

// Serve accepts connections until Close is called or ctx is done.
func (c *Collector) Serve(ctx context.Context) {
	go func() {
		<-ctx.Done()
		_ = c.Close()
	}()

	for {
		conn, err := c.listener.Accept()
		if err != nil {
			c.mu.Lock()
			shutdown := c.shutdown
			c.mu.Unlock()
			if shutdown {
				return
			}
			slog.Error("collector_accept_failed", slog.String("error", err.Error()))
			continue
		}

		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			c.handleConnection(conn)
		}()
	}
}

// Close stops accepting, waits for in-flight connections and removes the
// socket. It is safe to call more than once.
func (c *Collector) Close() error {
	c.mu.Lock()
	if c.shutdown {
		c.mu.Unlock()
		return nil
	}
	c.shutdown = true
	c.mu.Unlock()

	var err error
	if c.listener != nil {
		err = c.listener.Close()
	}
	c.wg.Wait()
	_ = os.Remove(c.socketPath)
	return err
}

func (c *Collector) handleConnection(conn net.Conn) {
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(connDeadline)); err != nil {
		slog.Warn("collector_deadline_failed", slog.String("error", err.Error()))
	}

	decoder := json.NewDecoder(conn)
	encoder := json.NewEncoder(conn)

	var req Request
	if err := decoder.Decode(&req); err != nil {
		_ = encoder.Encode(NewErrorResponse("", RPCParseError, "failed to parse request"))
		return
	}

	_ = encoder.Encode(c.handleRequest(req))
}

func (c *Collector) handleRequest(req Request) Response {
	if req.Method != MethodSubmitPartial {
		return NewErrorResponse(req.ID, RPCMethodNotFound, fmt.Sprintf("method not found: %s", req.Method))
	}

	var msg PartialMessage
	if err := json.Unmarshal(req.Params, &msg); err != nil {
		return NewErrorResponse(req.ID, RPCInvalidParams, "failed to decode params")
	}

	if code, reason := c.admit(msg.WorkerID); code != 0 {
		slog.Warn("partial_rejected",
			slog.Int("worker_id", msg.WorkerID),
			slog.String("reason", reason))
		return NewErrorResponse(req.ID, code, reason)
	}

	// Capacity equals the number of admissible messages: never blocks.
	c.messages <- msg

	slog.Debug("partial_received",
		slog.Int("worker_id", msg.WorkerID),
		slog.Int("keywords", len(msg.Result)),
		slog.Int("files_failed", msg.FilesFailed))

	return NewSuccessResponse(req.ID, SubmitAck{Accepted: true})
}

// admit records the first submission of a known worker. It returns a
// non-zero RPC error code when the message must be rejected.
func (c *Collector) admit(workerID int) (int, string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.shutdown {
		return RPCCollectorShutdown, "collector is shutting down"
	}
	if workerID < 0 || workerID >= c.expected {
		return RPCUnknownWorker, fmt.Sprintf("unknown worker %d", workerID)
	}
	if c.received[workerID] {
		return RPCDuplicateReport, fmt.Sprintf("worker %d already reported", workerID)
	}
	c.received[workerID] = true
	return 0, ""
}
