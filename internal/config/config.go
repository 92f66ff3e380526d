// Package config loads and validates the optional .pipewalk.yaml settings
// file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"github.com/deixis/pipewalk/internal/traverse"
)

// FileName is the settings file looked up from the workspace upward.
const FileName = ".pipewalk.yaml"

// Default values for settings left unset.
const (
	DefaultMaxOutput   = 1 << 20 // 1 MB
	DefaultReportCache = 5
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "text"
)

// Config holds the parsed settings. All fields are optional; zero values
// represent defaults.
type Config struct {
	Version      int          `yaml:"version"`
	RawTimeout   string       `yaml:"timeout"`    // per shell command, e.g. "5m"; empty means none
	RawMaxOutput int          `yaml:"max_output"` // bytes
	Order        string       `yaml:"order"`      // dfs or bfs
	Rollback     string       `yaml:"rollback"`   // backtrace, parent-chain or parent-pointer
	Log          LogConfig    `yaml:"log"`
	Reports      ReportConfig `yaml:"reports"`
}

// LogConfig controls the logger.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// ReportConfig controls where run reports are kept.
type ReportConfig struct {
	Cache int    `yaml:"cache"` // reports kept in memory
	Dir   string `yaml:"dir"`   // directory for report files; temp dir when empty
}

// Timeout returns the configured command timeout, or zero for none.
func (c *Config) Timeout() time.Duration {
	if c.RawTimeout != "" {
		d, err := time.ParseDuration(c.RawTimeout)
		if err == nil && d > 0 {
			return d
		}
	}
	return 0
}

// MaxOutputBytes returns the configured max output size or the default.
func (c *Config) MaxOutputBytes() int {
	if c.RawMaxOutput > 0 {
		return c.RawMaxOutput
	}
	return DefaultMaxOutput
}

// TraversalOrder returns the configured order, depth-first by default.
func (c *Config) TraversalOrder() (traverse.Order, error) {
	return traverse.ParseOrder(c.Order)
}

// RollbackMode returns the configured rollback mode, backtrace by default.
func (c *Config) RollbackMode() (traverse.RollbackMode, error) {
	return traverse.ParseRollbackMode(c.Rollback)
}

// LogLevel returns the configured log level or the default.
func (c *Config) LogLevel() string {
	if c.Log.Level != "" {
		return c.Log.Level
	}
	return DefaultLogLevel
}

// LogFormat returns the configured log format or the default.
func (c *Config) LogFormat() string {
	if c.Log.Format != "" {
		return c.Log.Format
	}
	return DefaultLogFormat
}

// ReportCache returns how many reports to keep in memory.
func (c *Config) ReportCache() int {
	if c.Reports.Cache > 0 {
		return c.Reports.Cache
	}
	return DefaultReportCache
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var result *multierror.Error
	if c.RawTimeout != "" {
		if d, err := time.ParseDuration(c.RawTimeout); err != nil || d < 0 {
			result = multierror.Append(result, fmt.Errorf("timeout: invalid duration %q", c.RawTimeout))
		}
	}
	if c.RawMaxOutput < 0 {
		result = multierror.Append(result, fmt.Errorf("max_output: must not be negative"))
	}
	if _, err := c.TraversalOrder(); err != nil {
		result = multierror.Append(result, fmt.Errorf("order: %w", err))
	}
	if _, err := c.RollbackMode(); err != nil {
		result = multierror.Append(result, fmt.Errorf("rollback: %w", err))
	}
	return result.ErrorOrNil()
}

// LoadResult holds the parsed config and the discovered project root.
type LoadResult struct {
	Config   *Config
	RepoRoot string // directory containing the settings file; falls back to workspace
}

// Load reads the settings file found by walking upward from workspace. If
// none exists, a default Config rooted at workspace is returned.
func Load(workspace string) (*LoadResult, error) {
	root, err := findRoot(workspace)
	if err != nil {
		abs, absErr := filepath.Abs(workspace)
		if absErr != nil {
			return nil, fmt.Errorf("resolving workspace: %w", absErr)
		}
		return &LoadResult{Config: &Config{}, RepoRoot: abs}, nil
	}

	data, err := os.ReadFile(filepath.Join(root, FileName))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", FileName, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", FileName, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", FileName, err)
	}
	return &LoadResult{Config: cfg, RepoRoot: root}, nil
}

// findRoot walks upward from dir looking for the settings file.
func findRoot(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, FileName)); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%s not found", FileName)
		}
		dir = parent
	}
}
