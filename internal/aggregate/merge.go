package aggregate

import "sync"

// Merge appends every keyword's files from partial onto into, preserving the
// partial's relative file order. Merge is not synchronized; use Shared when
// several goroutines merge into the same result.
func Merge(partial, into Result) {
	for keyword, files := range partial {
		if len(files) == 0 {
			continue
		}
		into[keyword] = append(into[keyword], files...)
	}
}

// MergeAll combines partials into a new Result. It is the batch form used by
// a single collector once every partial has been received, so it takes no
// lock. Arrival order of partials does not affect the per-keyword file sets.
func MergeAll(partials []Result) Result {
	out := make(Result)
	for _, p := range partials {
		Merge(p, out)
	}
	return out
}

// Shared is a Result guarded by a single mutex. The only mutation it exposes
// is Merge, which runs the whole read-append-write sequence for every keyword
// of one partial as one critical section.
type Shared struct {
	mu     sync.Mutex
	result Result
	merges int
}

// NewShared creates an empty shared result.
func NewShared() *Shared {
	return &Shared{result: make(Result)}
}

// Merge folds partial into the shared result. Safe for concurrent use.
func (s *Shared) Merge(partial Result) {
	s.mu.Lock()
	defer s.mu.Unlock()

	Merge(partial, s.result)
	s.merges++
}

// Merges returns how many partials have been merged so far.
func (s *Shared) Merges() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.merges
}

// Snapshot returns a deep copy of the current result.
func (s *Shared) Snapshot() Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result.Clone()
}
