package executor

import (
	"context"
	"testing"
)

func benchmarkExecutor(b *testing.B, exec Executor) {
	files := writeCorpus(b, 500)
	m := newMatcher(b)
	ctx := context.Background()

	for b.Loop() {
		if _, err := exec.Run(ctx, files, m); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkSharedExecutor(b *testing.B) {
	benchmarkExecutor(b, NewSharedExecutor(Options{}, nil))
}

func BenchmarkIsolatedExecutor(b *testing.B) {
	benchmarkExecutor(b, NewIsolatedExecutor(Options{}, helperLauncher(modeReport), ""))
}
