package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Aman-CERP/kwscan/internal/compare"
)

// PlainRenderer writes unstyled text (for CI and pipes).
type PlainRenderer struct {
	out io.Writer
}

// NewPlainRenderer creates a plain text renderer.
func NewPlainRenderer(cfg Config) *PlainRenderer {
	return &PlainRenderer{out: cfg.Output}
}

// Render implements Renderer.
func (r *PlainRenderer) Render(report *compare.Report) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Directory: %s (%d files", report.Dir, report.Files)
	if report.Skipped > 0 {
		fmt.Fprintf(&b, ", %d skipped", report.Skipped)
	}
	b.WriteString(")\n")
	fmt.Fprintf(&b, "Keywords:  %s\n", strings.Join(report.Keywords, ", "))

	for _, run := range report.Runs {
		b.WriteString("\n")
		fmt.Fprintf(&b, "[%s] %d workers, chunks %v, %s\n",
			run.Strategy, run.Stats.Workers, run.Stats.ChunkSizes, formatDuration(run.Stats.Duration))
		if run.Stats.FilesFailed > 0 {
			fmt.Fprintf(&b, "  WARN: %d file(s) could not be read\n", run.Stats.FilesFailed)
		}

		sorted := run.Result.Sorted()
		for _, kw := range report.Keywords {
			files := sorted[kw]
			if len(files) == 0 {
				fmt.Fprintf(&b, "  %s: (none)\n", kw)
				continue
			}
			shown := make([]string, len(files))
			for i, f := range files {
				shown[i] = displayPath(report.Dir, f)
			}
			fmt.Fprintf(&b, "  %s: %s\n", kw, strings.Join(shown, ", "))
		}
	}

	if len(report.Runs) > 1 {
		b.WriteString("\n")
		if report.Equivalent {
			b.WriteString("Strategies agree.\n")
		} else {
			b.WriteString("ERROR: strategies disagree.\n")
		}
	}

	_, err := io.WriteString(r.out, b.String())
	return err
}

// formatDuration rounds for display; sub-millisecond runs keep microseconds.
func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return d.Round(time.Microsecond).String()
	}
	return d.Round(100 * time.Microsecond).String()
}
