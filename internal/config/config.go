// Package config loads jcallgraph settings from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultFile is the config file looked up in the working directory.
const DefaultFile = "jcallgraph.yaml"

// Modes accepted for Config.Mode.
const (
	ModeBestEffort = "best-effort"
	ModeStrict     = "strict"
)

// Config represents the jcallgraph configuration.
type Config struct {
	Jobs      int           `yaml:"jobs"`
	Extension string        `yaml:"extension"`
	Mode      string        `yaml:"mode"`
	Exclude   ExcludeConfig `yaml:"exclude"`
	Log       LogConfig     `yaml:"log"`
	Output    OutputConfig  `yaml:"output"`
	Watch     WatchConfig   `yaml:"watch"`
}

// ExcludeConfig defines directories skipped during discovery.
type ExcludeConfig struct {
	Dirs []string `yaml:"dirs"`
}

// LogConfig controls the stderr logger.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// OutputConfig names the optional sinks. Empty values disable them.
type OutputConfig struct {
	DOTDir      string `yaml:"dot_dir"`
	DB          string `yaml:"db"`
	MetricsFile string `yaml:"metrics_file"`
	MaxNodes    int    `yaml:"max_nodes"`
}

// WatchConfig tunes watch mode.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Jobs:      runtime.GOMAXPROCS(0),
		Extension: ".class",
		Mode:      ModeBestEffort,
		Exclude: ExcludeConfig{
			Dirs: []string{".git", ".gradle", ".idea"},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Output: OutputConfig{
			MaxNodes: 500,
		},
		Watch: WatchConfig{
			Debounce: 500 * time.Millisecond,
		},
	}
}

// Load reads configuration from file, falling back to defaults.
// If configPath is empty, it looks for jcallgraph.yaml in the current
// directory and a missing file is not an error. Values present in the file
// replace the defaults.
func Load(configPath string) (*Config, error) {
	defaults := Default()

	explicit := configPath != ""
	if !explicit {
		configPath = DefaultFile
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return defaults, nil
		}
		return nil, fmt.Errorf("config: %w", err)
	}

	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", configPath, err)
	}

	defaults.Merge(&fileCfg)
	if err := defaults.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", configPath, err)
	}
	return defaults, nil
}

// Merge combines another config into this one, with non-zero fields of
// other taking precedence.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if other.Jobs > 0 {
		c.Jobs = other.Jobs
	}
	if other.Extension != "" {
		c.Extension = other.Extension
	}
	if other.Mode != "" {
		c.Mode = other.Mode
	}
	if len(other.Exclude.Dirs) > 0 {
		c.Exclude.Dirs = other.Exclude.Dirs
	}
	if other.Log.Level != "" {
		c.Log.Level = other.Log.Level
	}
	if other.Log.Format != "" {
		c.Log.Format = other.Log.Format
	}
	if other.Output.DOTDir != "" {
		c.Output.DOTDir = other.Output.DOTDir
	}
	if other.Output.DB != "" {
		c.Output.DB = other.Output.DB
	}
	if other.Output.MetricsFile != "" {
		c.Output.MetricsFile = other.Output.MetricsFile
	}
	if other.Output.MaxNodes > 0 {
		c.Output.MaxNodes = other.Output.MaxNodes
	}
	if other.Watch.Debounce > 0 {
		c.Watch.Debounce = other.Watch.Debounce
	}
}

// Validate reports values no command can run with.
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeBestEffort, ModeStrict:
	default:
		return fmt.Errorf("mode %q: want %q or %q", c.Mode, ModeBestEffort, ModeStrict)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format %q: want text or json", c.Log.Format)
	}
	if c.Jobs < 1 {
		return fmt.Errorf("jobs %d: must be at least 1", c.Jobs)
	}
	if !strings.HasPrefix(c.Extension, ".") {
		return fmt.Errorf("extension %q: must start with '.'", c.Extension)
	}
	return nil
}

// IsExcludedDir reports whether a directory is skipped during discovery.
func (c *Config) IsExcludedDir(dir string) bool {
	base := filepath.Base(dir)
	for _, excluded := range c.Exclude.Dirs {
		if base == excluded {
			return true
		}
	}
	return false
}
