// Package partition splits an ordered file list into contiguous chunks,
// one per worker.
package partition

import "runtime"

// Chunk is a contiguous run of file paths assigned to exactly one worker.
type Chunk []string

// Policy selects how the division remainder is distributed.
type Policy string

const (
	// PolicyContiguous gives every chunk floor(n/w) files and the last chunk
	// the remainder as well. This is the reference policy.
	PolicyContiguous Policy = "contiguous"
	// PolicyBalanced gives the first n%w chunks one extra file each, so chunk
	// sizes differ by at most one.
	PolicyBalanced Policy = "balanced"
)

// Valid reports whether p is a known policy.
func (p Policy) Valid() bool {
	return p == PolicyContiguous || p == PolicyBalanced
}

// AvailableParallelism returns the number of parallelism units used when
// none is configured.
func AvailableParallelism() int {
	return runtime.NumCPU()
}

// WorkerCount returns min(fileCount, parallelism).
// A parallelism of zero or less means AvailableParallelism().
func WorkerCount(fileCount, parallelism int) int {
	if fileCount <= 0 {
		return 0
	}
	if parallelism <= 0 {
		parallelism = AvailableParallelism()
	}
	return min(fileCount, parallelism)
}

// Partition splits files into at most workers contiguous chunks using the
// reference policy: the first workers-1 chunks hold exactly
// len(files)/workers files and the last chunk holds everything left.
//
// Empty input or workers <= 0 yields no chunks. workers is clamped to
// len(files) so no chunk is ever empty.
func Partition(files []string, workers int) []Chunk {
	if len(files) == 0 || workers <= 0 {
		return nil
	}
	workers = min(workers, len(files))

	size := len(files) / workers
	chunks := make([]Chunk, 0, workers)
	for i := 0; i < workers; i++ {
		start := i * size
		end := start + size
		if i == workers-1 {
			end = len(files)
		}
		chunks = append(chunks, Chunk(files[start:end:end]))
	}
	return chunks
}

// PartitionBalanced splits files into at most workers contiguous chunks whose
// sizes differ by at most one. Order and coverage guarantees match Partition.
func PartitionBalanced(files []string, workers int) []Chunk {
	if len(files) == 0 || workers <= 0 {
		return nil
	}
	workers = min(workers, len(files))

	size, extra := len(files)/workers, len(files)%workers
	chunks := make([]Chunk, 0, workers)
	start := 0
	for i := 0; i < workers; i++ {
		end := start + size
		if i < extra {
			end++
		}
		chunks = append(chunks, Chunk(files[start:end:end]))
		start = end
	}
	return chunks
}

// Split dispatches to the partitioner for the given policy.
// Unknown policies fall back to the reference policy.
func Split(policy Policy, files []string, workers int) []Chunk {
	if policy == PolicyBalanced {
		return PartitionBalanced(files, workers)
	}
	return Partition(files, workers)
}

// Sizes returns the length of each chunk, in order.
func Sizes(chunks []Chunk) []int {
	sizes := make([]int, len(chunks))
	for i, c := range chunks {
		sizes[i] = len(c)
	}
	return sizes
}
