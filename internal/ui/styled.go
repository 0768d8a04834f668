package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Aman-CERP/kwscan/internal/compare"
)

// StyledRenderer writes a lipgloss report with one panel per strategy.
type StyledRenderer struct {
	out    io.Writer
	styles Styles
}

// NewStyledRenderer creates a styled renderer.
func NewStyledRenderer(cfg Config) *StyledRenderer {
	return &StyledRenderer{out: cfg.Output, styles: GetStyles(cfg.NoColor)}
}

// Render implements Renderer.
func (r *StyledRenderer) Render(report *compare.Report) error {
	s := r.styles

	header := s.Header.Render("kwscan") + " " + s.Label.Render(report.Dir)
	summary := s.Label.Render(fmt.Sprintf("%d files", report.Files))
	if report.Skipped > 0 {
		summary += s.Dim.Render(fmt.Sprintf(" · %d skipped", report.Skipped))
	}

	blocks := []string{header, summary}
	for _, run := range report.Runs {
		blocks = append(blocks, s.Panel.Render(r.renderRun(report, run)))
	}

	if len(report.Runs) > 1 {
		if report.Equivalent {
			blocks = append(blocks, s.Success.Render("✓ strategies agree"))
		} else {
			blocks = append(blocks, s.Error.Render("✗ strategies disagree"))
		}
	}

	_, err := fmt.Fprintln(r.out, lipgloss.JoinVertical(lipgloss.Left, blocks...))
	return err
}

func (r *StyledRenderer) renderRun(report *compare.Report, run compare.StrategyRun) string {
	s := r.styles
	var lines []string

	title := s.Strategy.Render(string(run.Strategy)) + "  " +
		s.Label.Render(fmt.Sprintf("%d workers · %s", run.Stats.Workers, formatDuration(run.Stats.Duration)))
	lines = append(lines, title)

	if run.Stats.FilesFailed > 0 {
		lines = append(lines, s.Warning.Render(fmt.Sprintf("⚠ %d file(s) could not be read", run.Stats.FilesFailed)))
	}

	sorted := run.Result.Sorted()
	for _, kw := range report.Keywords {
		files := sorted[kw]
		label := s.Keyword.Render(kw)
		if len(files) == 0 {
			lines = append(lines, label+" "+s.Dim.Render("none"))
			continue
		}
		shown := make([]string, len(files))
		for i, f := range files {
			shown[i] = displayPath(report.Dir, f)
		}
		lines = append(lines, label+" "+s.Dim.Render(fmt.Sprintf("(%d)", len(files)))+" "+s.File.Render(strings.Join(shown, ", ")))
	}

	return strings.Join(lines, "\n")
}
