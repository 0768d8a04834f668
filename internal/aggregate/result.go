// Package aggregate merges per-worker keyword findings into one result.
//
// A Result maps a keyword to the files it occurred in. Workers build their
// own partial Result with no synchronization; partials are combined either
// through a Shared container (concurrent merge under one lock) or with
// MergeAll (single collector after every partial arrived).
package aggregate

import (
	"slices"
	"sort"
)

// Result maps a keyword to the ordered list of files containing it.
// A keyword without hits is absent, never mapped to an empty list.
type Result map[string][]string

// Add records that file contains keyword.
func (r Result) Add(keyword, file string) {
	r[keyword] = append(r[keyword], file)
}

// Files returns the files recorded for keyword.
func (r Result) Files(keyword string) []string {
	return r[keyword]
}

// Keywords returns the keywords present in r, sorted.
func (r Result) Keywords() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Pairs returns the total number of (keyword, file) entries.
func (r Result) Pairs() int {
	n := 0
	for _, files := range r {
		n += len(files)
	}
	return n
}

// Clone returns a deep copy of r.
func (r Result) Clone() Result {
	out := make(Result, len(r))
	for k, files := range r {
		out[k] = slices.Clone(files)
	}
	return out
}

// Sorted returns a deep copy of r with every file list sorted.
// Useful for stable reporting since merge order across workers is not fixed.
func (r Result) Sorted() Result {
	out := r.Clone()
	for _, files := range out {
		sort.Strings(files)
	}
	return out
}

// Equivalent reports whether r and other hold the same keywords with the
// same multiset of files per keyword, ignoring order.
func (r Result) Equivalent(other Result) bool {
	if len(r) != len(other) {
		return false
	}
	for k, files := range r {
		theirs, ok := other[k]
		if !ok || len(theirs) != len(files) {
			return false
		}
		a, b := slices.Clone(files), slices.Clone(theirs)
		sort.Strings(a)
		sort.Strings(b)
		if !slices.Equal(a, b) {
			return false
		}
	}
	return true
}
