// Package match finds which keywords occur in a file's content.
package match

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/Aman-CERP/kwscan/internal/aggregate"
	kerrors "github.com/Aman-CERP/kwscan/internal/errors"
)

// Reader reads one file's full content.
type Reader interface {
	ReadFile(path string) ([]byte, error)
}

// OSReader reads files from the local filesystem.
type OSReader struct{}

// ReadFile implements Reader.
func (OSReader) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// ReaderFunc adapts a function to the Reader interface.
type ReaderFunc func(path string) ([]byte, error)

// ReadFile implements Reader.
func (f ReaderFunc) ReadFile(path string) ([]byte, error) {
	return f(path)
}

// Matcher tests content for a fixed, case-sensitive keyword set.
// It holds no mutable state and is safe for concurrent use.
type Matcher struct {
	keywords []string
}

// New creates a Matcher. Duplicate keywords are dropped keeping the first
// occurrence; empty keywords and an empty set are rejected.
func New(keywords []string) (*Matcher, error) {
	kws, err := Normalize(keywords)
	if err != nil {
		return nil, err
	}
	return &Matcher{keywords: kws}, nil
}

// Normalize validates a keyword list and removes duplicates, preserving the
// caller's order.
func Normalize(keywords []string) ([]string, error) {
	if len(keywords) == 0 {
		return nil, kerrors.New(kerrors.ErrCodeNoKeywords, "no keywords configured", nil).
			WithSuggestion("pass --keyword at least once or set scan.keywords in .kwscan.yaml")
	}

	seen := make(map[string]struct{}, len(keywords))
	out := make([]string, 0, len(keywords))
	for i, kw := range keywords {
		if kw == "" {
			return nil, kerrors.ValidationError(fmt.Sprintf("keyword %d is empty", i), nil)
		}
		if _, dup := seen[kw]; dup {
			continue
		}
		seen[kw] = struct{}{}
		out = append(out, kw)
	}
	return out, nil
}

// Keywords returns a copy of the matcher's keywords in configured order.
func (m *Matcher) Keywords() []string {
	return append([]string(nil), m.keywords...)
}

// Scan returns the keywords occurring in content as substrings, in
// configured order. Keywords without an occurrence are not returned.
func (m *Matcher) Scan(content string) []string {
	var hits []string
	for _, kw := range m.keywords {
		if strings.Contains(content, kw) {
			hits = append(hits, kw)
		}
	}
	return hits
}

// ScanStats counts the outcome of scanning one chunk.
type ScanStats struct {
	Scanned int `json:"scanned"`
	Failed  int `json:"failed"`
}

// Add accumulates other into s.
func (s *ScanStats) Add(other ScanStats) {
	s.Scanned += other.Scanned
	s.Failed += other.Failed
}

// ScanFiles scans every file of one chunk and returns the partial result.
// A file that cannot be read is logged and contributes no hits; it never
// aborts the scan. Within each keyword, files keep the chunk's order.
func (m *Matcher) ScanFiles(files []string, reader Reader) (aggregate.Result, ScanStats) {
	partial := make(aggregate.Result)
	var stats ScanStats

	for _, path := range files {
		data, err := reader.ReadFile(path)
		if err != nil {
			stats.Failed++
			slog.Warn("file_read_failed",
				slog.String("path", path),
				slog.String("error", err.Error()))
			continue
		}
		stats.Scanned++

		for _, kw := range m.Scan(string(data)) {
			partial.Add(kw, path)
		}
	}

	return partial, stats
}
