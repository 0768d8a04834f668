package executor

import (
	"encoding/json"
	"fmt"

	"github.com/Aman-CERP/kwscan/internal/aggregate"
)

// JSON-RPC 2.0 method names understood by the collector.
const (
	MethodSubmitPartial = "submit_partial"
)

// Standard JSON-RPC 2.0 error codes.
const (
	RPCParseError     = -32700
	RPCInvalidRequest = -32600
	RPCMethodNotFound = -32601
	RPCInvalidParams  = -32602
)

// Collector-specific error codes.
const (
	RPCUnknownWorker     = -32001
	RPCDuplicateReport   = -32002
	RPCCollectorShutdown = -32003
)

// Request is a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      string          `json:"id"`
}

// Response is a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string `json:"jsonrpc"`
	Result  any    `json:"result,omitempty"`
	Error   *Error `json:"error,omitempty"`
	ID      string `json:"id"`
}

// Error is a JSON-RPC 2.0 error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (code: %d)", e.Message, e.Code)
}

// NewSuccessResponse creates a successful response.
func NewSuccessResponse(id string, result any) Response {
	return Response{JSONRPC: "2.0", Result: result, ID: id}
}

// NewErrorResponse creates an error response.
func NewErrorResponse(id string, code int, message string) Response {
	return Response{
		JSONRPC: "2.0",
		Error:   &Error{Code: code, Message: message},
		ID:      id,
	}
}

// Assignment is the work order a child process reads from stdin.
//
// File names and keywords are arbitrary bytes, which JSON strings cannot
// carry (invalid UTF-8 becomes U+FFFD), so they go on the wire as byte
// strings (base64).
type Assignment struct {
	WorkerID   int
	SocketPath string
	Files      []string
	Keywords   []string
}

type assignmentWire struct {
	WorkerID   int      `json:"worker_id"`
	SocketPath []byte   `json:"socket_path"`
	Files      [][]byte `json:"files"`
	Keywords   [][]byte `json:"keywords"`
}

// MarshalJSON implements json.Marshaler.
func (a Assignment) MarshalJSON() ([]byte, error) {
	return json.Marshal(assignmentWire{
		WorkerID:   a.WorkerID,
		SocketPath: []byte(a.SocketPath),
		Files:      toWire(a.Files),
		Keywords:   toWire(a.Keywords),
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *Assignment) UnmarshalJSON(data []byte) error {
	var w assignmentWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*a = Assignment{
		WorkerID:   w.WorkerID,
		SocketPath: string(w.SocketPath),
		Files:      fromWire(w.Files),
		Keywords:   fromWire(w.Keywords),
	}
	return nil
}

// Validate checks that the assignment can be executed.
func (a *Assignment) Validate() error {
	if a.WorkerID < 0 {
		return fmt.Errorf("worker_id must be non-negative, got %d", a.WorkerID)
	}
	if a.SocketPath == "" {
		return fmt.Errorf("socket_path is required")
	}
	if len(a.Keywords) == 0 {
		return fmt.Errorf("keywords are required")
	}
	return nil
}

// PartialMessage carries one worker's whole partial result. It is sent
// exactly once per worker. Keywords and paths are byte strings on the wire,
// as in Assignment.
type PartialMessage struct {
	WorkerID     int
	Result       aggregate.Result
	FilesScanned int
	FilesFailed  int
}

type partialWire struct {
	WorkerID     int       `json:"worker_id"`
	Hits         []hitWire `json:"hits"`
	FilesScanned int       `json:"files_scanned"`
	FilesFailed  int       `json:"files_failed"`
}

type hitWire struct {
	Keyword []byte   `json:"keyword"`
	Files   [][]byte `json:"files"`
}

// MarshalJSON implements json.Marshaler.
func (m PartialMessage) MarshalJSON() ([]byte, error) {
	w := partialWire{
		WorkerID:     m.WorkerID,
		Hits:         make([]hitWire, 0, len(m.Result)),
		FilesScanned: m.FilesScanned,
		FilesFailed:  m.FilesFailed,
	}
	for kw, files := range m.Result {
		w.Hits = append(w.Hits, hitWire{Keyword: []byte(kw), Files: toWire(files)})
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *PartialMessage) UnmarshalJSON(data []byte) error {
	var w partialWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	result := make(aggregate.Result, len(w.Hits))
	for _, h := range w.Hits {
		kw := string(h.Keyword)
		result[kw] = append(result[kw], fromWire(h.Files)...)
	}
	*m = PartialMessage{
		WorkerID:     w.WorkerID,
		Result:       result,
		FilesScanned: w.FilesScanned,
		FilesFailed:  w.FilesFailed,
	}
	return nil
}

func toWire(values []string) [][]byte {
	if values == nil {
		return nil
	}
	out := make([][]byte, len(values))
	for i, v := range values {
		out[i] = []byte(v)
	}
	return out
}

func fromWire(values [][]byte) []string {
	if values == nil {
		return nil
	}
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

// SubmitAck acknowledges that a partial was queued for merging.
type SubmitAck struct {
	Accepted bool `json:"accepted"`
}
