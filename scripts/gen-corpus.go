//go:build ignore

// Package main generates a flat directory of text files for benchmarking
// kwscan, plus a <output>.expected.json manifest holding the keyword → files mapping a
// correct scan must report.
// Usage: go run scripts/gen-corpus.go -files 5000 -output testdata/bench
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var (
	numFiles  = flag.Int("files", 1000, "Number of files to generate")
	lines     = flag.Int("lines", 200, "Lines per file")
	outputDir = flag.String("output", "testdata/bench", "Output directory")
	keywords  = flag.String("keywords", "error,warning,critical", "Comma-separated keywords to plant")
	hitRate   = flag.Float64("hit-rate", 0.3, "Probability that a file contains a given keyword")
	seed      = flag.Int64("seed", 42, "Random seed for reproducibility")
)

var filler = []string{
	"request handled in %dms",
	"cache refreshed with %d entries",
	"connection pool size is %d",
	"processed batch %d",
	"heartbeat %d ok",
}

func main() {
	flag.Parse()
	rng := rand.New(rand.NewSource(*seed))
	kws := strings.Split(*keywords, ",")

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "failed to create output dir: %v\n", err)
		os.Exit(1)
	}

	expected := make(map[string][]string)
	for i := 0; i < *numFiles; i++ {
		name := fmt.Sprintf("file_%05d.log", i)

		var planted []string
		for _, kw := range kws {
			if rng.Float64() < *hitRate {
				planted = append(planted, kw)
				expected[kw] = append(expected[kw], name)
			}
		}

		var b strings.Builder
		for l := 0; l < *lines; l++ {
			fmt.Fprintf(&b, filler[rng.Intn(len(filler))]+"\n", rng.Intn(10000))
		}
		for _, kw := range planted {
			fmt.Fprintf(&b, "%s: synthetic event %d\n", kw, rng.Intn(1000))
		}

		if err := os.WriteFile(filepath.Join(*outputDir, name), []byte(b.String()), 0644); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write %s: %v\n", name, err)
			os.Exit(1)
		}
	}

	for _, files := range expected {
		sort.Strings(files)
	}
	data, err := json.MarshalIndent(expected, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to encode manifest: %v\n", err)
		os.Exit(1)
	}
	// Written beside, not inside, the corpus so it is not scanned.
	manifest := filepath.Clean(*outputDir) + ".expected.json"
	if err := os.WriteFile(manifest, data, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write manifest: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Generated %d files in %s (manifest: %s)\n", *numFiles, *outputDir, manifest)
}
