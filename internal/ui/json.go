package ui

import (
	"encoding/json"
	"io"

	"github.com/Aman-CERP/kwscan/internal/compare"
)

// JSONRenderer writes the report as one indented JSON document with every
// file list sorted.
type JSONRenderer struct {
	out io.Writer
}

// NewJSONRenderer creates a JSON renderer.
func NewJSONRenderer(cfg Config) *JSONRenderer {
	return &JSONRenderer{out: cfg.Output}
}

// Render implements Renderer.
func (r *JSONRenderer) Render(report *compare.Report) error {
	out := *report
	out.Runs = make([]compare.StrategyRun, len(report.Runs))
	for i, run := range report.Runs {
		run.Result = run.Result.Sorted()
		out.Runs[i] = run
	}

	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(&out)
}
