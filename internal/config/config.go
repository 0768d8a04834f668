// Package config loads kwscan settings from defaults, a user config file, a
// project config file and KWSCAN_* environment variables, in that order of
// increasing precedence. CLI flags are applied on top by the caller.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	kerrors "github.com/Aman-CERP/kwscan/internal/errors"
	"github.com/Aman-CERP/kwscan/internal/partition"
)

// ProjectConfigName is the project-level config file.
const ProjectConfigName = ".kwscan.yaml"

// Strategy names accepted in workers.strategies.
const (
	StrategyShared   = "shared"
	StrategyIsolated = "isolated"
)

// Config is the complete kwscan configuration.
type Config struct {
	Version  int            `yaml:"version"`
	Scan     ScanConfig     `yaml:"scan"`
	Workers  WorkersConfig  `yaml:"workers"`
	Isolated IsolatedConfig `yaml:"isolated"`
	Logging  LoggingConfig  `yaml:"logging"`
	Watch    WatchConfig    `yaml:"watch"`
}

// ScanConfig selects the files and keywords.
type ScanConfig struct {
	Dir         string   `yaml:"dir"`
	Keywords    []string `yaml:"keywords"`
	Exclude     []string `yaml:"exclude,omitempty"`
	MaxFileSize int64    `yaml:"max_file_size"` // bytes, 0 = no limit
	IgnoreFile  string   `yaml:"ignore_file,omitempty"`
}

// WorkersConfig controls partitioning and which strategies run.
type WorkersConfig struct {
	Parallelism int      `yaml:"parallelism"` // 0 = number of CPUs
	Strategies  []string `yaml:"strategies"`
	Partition   string   `yaml:"partition"`
}

// IsolatedConfig controls the child-process strategy.
type IsolatedConfig struct {
	// RuntimeDir holds per-run socket directories (empty = OS temp dir).
	RuntimeDir string `yaml:"runtime_dir,omitempty"`

	// WorkerCommand replaces "<this binary> worker" when set.
	WorkerCommand []string `yaml:"worker_command,omitempty"`
}

// LoggingConfig controls the log level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// WatchConfig controls `kwscan watch`.
type WatchConfig struct {
	Debounce string `yaml:"debounce"`
}

// NewConfig returns the default configuration.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Scan: ScanConfig{
			Dir:      ".",
			Keywords: []string{"error", "warning", "critical"},
		},
		Workers: WorkersConfig{
			Parallelism: 0,
			Strategies:  []string{StrategyShared, StrategyIsolated},
			Partition:   string(partition.PolicyContiguous),
		},
		Logging: LoggingConfig{Level: "info"},
		Watch:   WatchConfig{Debounce: "200ms"},
	}
}

// GetUserConfigPath returns the user config file path, honoring
// XDG_CONFIG_HOME.
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "kwscan", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "kwscan", "config.yaml")
	}
	return filepath.Join(home, ".config", "kwscan", "config.yaml")
}

// UserConfigExists reports whether the user config file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

func loadUserConfig() (*Config, error) {
	configPath := GetUserConfigPath()
	if !fileExists(configPath) {
		return nil, nil // No user config is fine
	}

	var parsed Config
	if err := parseYAML(configPath, &parsed); err != nil {
		return nil, err
	}
	return &parsed, nil
}

// Load builds the effective configuration for a project directory.
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	// Step 1: user config
	userCfg, err := loadUserConfig()
	if err != nil {
		return nil, err
	}
	if userCfg != nil {
		cfg.mergeWith(userCfg)
	}

	// Step 2: project config
	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	// Step 3: environment (highest precedence below flags)
	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ProjectConfigPath returns the project config file in dir, preferring
// .kwscan.yaml over .kwscan.yml. It returns "" when neither exists.
func ProjectConfigPath(dir string) string {
	for _, name := range []string{ProjectConfigName, ".kwscan.yml"} {
		path := filepath.Join(dir, name)
		if fileExists(path) {
			return path
		}
	}
	return ""
}

func (c *Config) loadFromFile(dir string) error {
	path := ProjectConfigPath(dir)
	if path == "" {
		return nil
	}

	var parsed Config
	if err := parseYAML(path, &parsed); err != nil {
		return err
	}
	c.mergeWith(&parsed)
	return nil
}

func parseYAML(path string, into *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return kerrors.New(kerrors.ErrCodeConfigNotFound,
			fmt.Sprintf("failed to read config file %s", path), err)
	}
	if err := yaml.Unmarshal(data, into); err != nil {
		return kerrors.ConfigError(fmt.Sprintf("failed to parse config file %s", path), err).
			WithDetail("path", path)
	}
	return nil
}

// mergeWith overlays the non-zero values of other onto c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}

	// Scan
	if other.Scan.Dir != "" {
		c.Scan.Dir = other.Scan.Dir
	}
	if len(other.Scan.Keywords) > 0 {
		c.Scan.Keywords = other.Scan.Keywords
	}
	if len(other.Scan.Exclude) > 0 {
		// Merge with lower layers rather than replace
		c.Scan.Exclude = append(c.Scan.Exclude, other.Scan.Exclude...)
	}
	if other.Scan.MaxFileSize != 0 {
		c.Scan.MaxFileSize = other.Scan.MaxFileSize
	}
	if other.Scan.IgnoreFile != "" {
		c.Scan.IgnoreFile = other.Scan.IgnoreFile
	}

	// Workers
	if other.Workers.Parallelism != 0 {
		c.Workers.Parallelism = other.Workers.Parallelism
	}
	if len(other.Workers.Strategies) > 0 {
		c.Workers.Strategies = other.Workers.Strategies
	}
	if other.Workers.Partition != "" {
		c.Workers.Partition = other.Workers.Partition
	}

	// Isolated
	if other.Isolated.RuntimeDir != "" {
		c.Isolated.RuntimeDir = other.Isolated.RuntimeDir
	}
	if len(other.Isolated.WorkerCommand) > 0 {
		c.Isolated.WorkerCommand = other.Isolated.WorkerCommand
	}

	if other.Logging.Level != "" {
		c.Logging.Level = other.Logging.Level
	}
	if other.Watch.Debounce != "" {
		c.Watch.Debounce = other.Watch.Debounce
	}
}

func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("KWSCAN_DIR"); v != "" {
		c.Scan.Dir = v
	}
	if v := os.Getenv("KWSCAN_KEYWORDS"); v != "" {
		c.Scan.Keywords = SplitKeywords(v)
	}
	if v := os.Getenv("KWSCAN_IGNORE_FILE"); v != "" {
		c.Scan.IgnoreFile = v
	}
	if v := os.Getenv("KWSCAN_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return kerrors.ConfigError(fmt.Sprintf("KWSCAN_WORKERS must be an integer, got %q", v), err)
		}
		c.Workers.Parallelism = n
	}
	if v := os.Getenv("KWSCAN_STRATEGIES"); v != "" {
		c.Workers.Strategies = SplitList(v)
	}
	if v := os.Getenv("KWSCAN_PARTITION"); v != "" {
		c.Workers.Partition = v
	}
	if v := os.Getenv("KWSCAN_RUNTIME_DIR"); v != "" {
		c.Isolated.RuntimeDir = v
	}
	if v := os.Getenv("KWSCAN_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("KWSCAN_WATCH_DEBOUNCE"); v != "" {
		c.Watch.Debounce = v
	}
	return nil
}

// SplitList splits a comma-separated list, trimming blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// SplitKeywords splits KWSCAN_KEYWORDS on commas. Entries are literal:
// spaces are kept and an empty entry is left for Validate to reject.
// Keywords containing a comma must come from a config file or -k.
func SplitKeywords(s string) []string {
	return strings.Split(s, ",")
}

// ExpandStrategies resolves the "both" alias and drops repeats, keeping the
// first occurrence.
func ExpandStrategies(names []string) []string {
	var out []string
	seen := make(map[string]bool, len(names))
	add := func(n string) {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	for _, n := range names {
		if n == "both" {
			add(StrategyShared)
			add(StrategyIsolated)
			continue
		}
		add(n)
	}
	return out
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if len(c.Scan.Keywords) == 0 {
		return kerrors.New(kerrors.ErrCodeNoKeywords, "scan.keywords is empty", nil).
			WithSuggestion("list at least one keyword under scan.keywords")
	}
	for i, kw := range c.Scan.Keywords {
		if kw == "" {
			return kerrors.ConfigError(fmt.Sprintf("scan.keywords[%d] is empty", i), nil)
		}
	}
	if c.Scan.MaxFileSize < 0 {
		return kerrors.ConfigError("scan.max_file_size must be >= 0", nil)
	}
	if strings.ContainsRune(c.Scan.IgnoreFile, filepath.Separator) || strings.Contains(c.Scan.IgnoreFile, "/") {
		return kerrors.ConfigError(fmt.Sprintf("scan.ignore_file must be a file name, got %q", c.Scan.IgnoreFile), nil)
	}
	if c.Workers.Parallelism < 0 {
		return kerrors.ConfigError("workers.parallelism must be >= 0", nil)
	}

	strategies := ExpandStrategies(c.Workers.Strategies)
	if len(strategies) == 0 {
		return kerrors.New(kerrors.ErrCodeInvalidStrategy, "workers.strategies is empty", nil)
	}
	for _, s := range strategies {
		if s != StrategyShared && s != StrategyIsolated {
			return kerrors.New(kerrors.ErrCodeInvalidStrategy,
				fmt.Sprintf("unknown strategy %q", s), nil).
				WithSuggestion("use shared, isolated or both")
		}
	}

	if !partition.Policy(c.Workers.Partition).Valid() {
		return kerrors.ConfigError(fmt.Sprintf("workers.partition must be contiguous or balanced, got %q", c.Workers.Partition), nil)
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return kerrors.ConfigError(fmt.Sprintf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level), nil)
	}

	if _, err := time.ParseDuration(c.Watch.Debounce); err != nil {
		return kerrors.ConfigError(fmt.Sprintf("watch.debounce is not a duration: %q", c.Watch.Debounce), err)
	}

	return nil
}

// Strategies returns the configured strategies with "both" expanded.
func (c *Config) Strategies() []string {
	return ExpandStrategies(c.Workers.Strategies)
}

// DebounceDuration returns watch.debounce, or 200ms if it does not parse.
func (c *Config) DebounceDuration() time.Duration {
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil {
		return 200 * time.Millisecond
	}
	return d
}

// WriteYAML saves the configuration to path.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
