// Package config loads errchain settings from .errchain.yaml and the
// environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/xgx-io/xgx-errchain/internal/diag"
	"github.com/xgx-io/xgx-errchain/internal/render"
)

// FileName is the config file looked up in the working directory.
const FileName = ".errchain.yaml"

// Config holds generator settings.
type Config struct {
	// Tag is the struct tag key that marks cause fields.
	Tag string `yaml:"tag"`
	// Output is the generated file name. Empty means "<package>_errchain.go".
	Output string `yaml:"output,omitempty"`
	// Receiver is the default receiver of product methods: value or pointer.
	Receiver string `yaml:"receiver"`
	// Runtime is the import path of the chain runtime.
	Runtime string `yaml:"runtime"`
	// Jobs bounds how many packages are generated concurrently.
	Jobs int `yaml:"jobs"`
	// IncludeTests also scans _test.go files.
	IncludeTests bool `yaml:"include_tests,omitempty"`
	// Watch configures watch mode.
	Watch WatchConfig `yaml:"watch"`
	// Logging configures the CLI logger.
	Logging LoggingConfig `yaml:"logging"`
}

// WatchConfig configures watch mode.
type WatchConfig struct {
	// Debounce is how long to wait after the last change, e.g. "200ms".
	Debounce string `yaml:"debounce"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console, json
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Tag:      "error",
		Receiver: "value",
		Runtime:  render.DefaultRuntime,
		Jobs:     runtime.NumCPU(),
		Watch:    WatchConfig{Debounce: "200ms"},
		Logging:  LoggingConfig{Level: "info", Format: "console"},
	}
}

// Load loads configuration from a YAML file. A missing file yields defaults;
// environment overrides apply either way.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, diag.IO("read config", path, err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, diag.InvalidConfig(path, err.Error())
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to path.
func (c *Config) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return diag.IO("create config directory", dir, err)
		}
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return diag.IO("write config", path, err)
	}
	return nil
}

// applyEnvOverrides applies ERRCHAIN_* environment variables.
func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("ERRCHAIN_TAG"); v != "" {
		c.Tag = v
	}
	if v := os.Getenv("ERRCHAIN_OUTPUT"); v != "" {
		c.Output = v
	}
	if v := os.Getenv("ERRCHAIN_RUNTIME"); v != "" {
		c.Runtime = v
	}
	if v := os.Getenv("ERRCHAIN_JOBS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return diag.InvalidConfig("ERRCHAIN_JOBS", "not an integer: "+strconv.Quote(v))
		}
		c.Jobs = n
	}
	return nil
}

// OutputFor returns the generated file name for package pkg.
func (c *Config) OutputFor(pkg string) string {
	if c.Output != "" {
		return c.Output
	}
	return pkg + "_errchain.go"
}

// PointerReceiver reports whether products default to pointer receivers.
func (c *Config) PointerReceiver() bool { return c.Receiver == "pointer" }

// DebounceDuration parses Watch.Debounce. Empty means 200ms.
func (c *Config) DebounceDuration() (time.Duration, error) {
	if c.Watch.Debounce == "" {
		return 200 * time.Millisecond, nil
	}
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %s", d)
	}
	return d, nil
}

// ValidReceivers lists the accepted receiver settings.
var ValidReceivers = []string{"value", "pointer"}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Tag == "" {
		return diag.InvalidConfig("tag", "must not be empty")
	}
	if strings.ContainsAny(c.Tag, " \t:\"") {
		return diag.InvalidConfig("tag", "not a valid struct tag key: "+strconv.Quote(c.Tag))
	}
	if c.Output != "" && (filepath.Base(c.Output) != c.Output || !strings.HasSuffix(c.Output, ".go")) {
		return diag.InvalidConfig("output", "must be a bare .go file name, got "+strconv.Quote(c.Output))
	}
	valid := false
	for _, r := range ValidReceivers {
		if c.Receiver == r {
			valid = true
			break
		}
	}
	if !valid {
		return diag.InvalidConfig("receiver", fmt.Sprintf("%q (valid: %v)", c.Receiver, ValidReceivers))
	}
	if c.Runtime == "" {
		return diag.InvalidConfig("runtime", "must not be empty")
	}
	if c.Jobs < 1 {
		return diag.InvalidConfig("jobs", fmt.Sprintf("must be at least 1, got %d", c.Jobs))
	}
	if _, err := c.DebounceDuration(); err != nil {
		return diag.InvalidConfig("watch.debounce", err.Error())
	}
	return nil
}
