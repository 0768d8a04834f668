// Package ui renders comparison reports for the terminal, for pipes, and as
// JSON.
package ui

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"

	"github.com/Aman-CERP/kwscan/internal/compare"
)

// Format selects the report encoding.
type Format string

const (
	// FormatText is human-readable output (styled on a terminal).
	FormatText Format = "text"
	// FormatJSON is one JSON document.
	FormatJSON Format = "json"
)

// ParseFormat validates a --format value.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatText, FormatJSON:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unknown format %q (use text or json)", s)
	}
}

// Renderer writes a comparison report.
type Renderer interface {
	Render(report *compare.Report) error
}

// Config configures report rendering.
type Config struct {
	Output     io.Writer
	Format     Format
	ForcePlain bool
	NoColor    bool
}

// ConfigOption is a function that modifies Config.
type ConfigOption func(*Config)

// WithFormat sets the output format.
func WithFormat(f Format) ConfigOption {
	return func(c *Config) {
		c.Format = f
	}
}

// WithForcePlain forces plain text output.
func WithForcePlain(force bool) ConfigOption {
	return func(c *Config) {
		c.ForcePlain = force
	}
}

// WithNoColor disables color output.
func WithNoColor(noColor bool) ConfigOption {
	return func(c *Config) {
		c.NoColor = noColor
	}
}

// NewConfig creates a Config for output with the given options.
func NewConfig(output io.Writer, opts ...ConfigOption) Config {
	cfg := Config{Output: output, Format: FormatText}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// NewRenderer picks a renderer: JSON when requested, styled text on an
// interactive terminal, and plain text for pipes, CI and NO_COLOR.
func NewRenderer(cfg Config) Renderer {
	if cfg.Format == FormatJSON {
		return NewJSONRenderer(cfg)
	}
	if cfg.ForcePlain || !IsTTY(cfg.Output) || DetectCI() {
		return NewPlainRenderer(cfg)
	}
	if cfg.NoColor || DetectNoColor() {
		cfg.NoColor = true
	}
	return NewStyledRenderer(cfg)
}

// IsTTY checks if output is a terminal.
func IsTTY(w io.Writer) bool {
	if w == nil {
		return false
	}
	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return false
}

// DetectNoColor checks if the NO_COLOR environment variable is set.
func DetectNoColor() bool {
	_, exists := os.LookupEnv("NO_COLOR")
	return exists
}

// DetectCI checks if running in a CI environment.
func DetectCI() bool {
	for _, v := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "TRAVIS"} {
		if _, exists := os.LookupEnv(v); exists {
			return true
		}
	}
	return false
}

// displayPath shows file relative to dir when possible.
func displayPath(dir, file string) string {
	if rel, err := filepath.Rel(dir, file); err == nil {
		return rel
	}
	return file
}
