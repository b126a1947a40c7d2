// Package config loads parley's settings from a TOML file, applies
// environment overrides and keeps the live values current while the file
// changes on disk.
package config

import (
	"errors"
	"fmt"
	iofs "io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Environment variables consulted by ApplyEnvOverrides.
const (
	EnvBaseURL     = "PARLEY_OLLAMA_URL"
	EnvModel       = "PARLEY_MODEL"
	EnvAutoExecute = "PARLEY_AUTO_EXECUTE"
)

// Config is the on-disk configuration.
type Config struct {
	BaseURL      string `toml:"base_url"`
	Model        string `toml:"model"`
	AutoExecute  bool   `toml:"auto_execute"`
	SystemPrompt string `toml:"system_prompt"` // empty selects the built-in preamble

	Sandbox SandboxConfig `toml:"sandbox"`
	Scene   SceneConfig   `toml:"scene"`
	Log     LogConfig     `toml:"log"`
}

// SandboxConfig configures code execution.
type SandboxConfig struct {
	Command []string `toml:"command"`
	Timeout string   `toml:"timeout"` // Go duration, "0s" disables the bound
}

// TimeoutDuration parses Timeout. Validate guarantees it parses.
func (s SandboxConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(s.Timeout)
	return d
}

// SceneConfig configures the workspace listing sent with every request.
type SceneConfig struct {
	Root       string   `toml:"root"`
	Patterns   []string `toml:"patterns"`
	MaxEntries int      `toml:"max_entries"`
}

// LogConfig configures the rotating log file.
type LogConfig struct {
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
}

// Dir returns the directory holding parley's config and log files.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".parley"
	}
	return filepath.Join(home, ".parley")
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.toml")
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		BaseURL: "http://localhost:11434",
		Model:   "llama3",
		Sandbox: SandboxConfig{
			Command: []string{"python3", "-"},
			Timeout: "60s",
		},
		Scene: SceneConfig{
			Root:       ".",
			Patterns:   []string{"*"},
			MaxEntries: 200,
		},
		Log: LogConfig{
			File:       filepath.Join(Dir(), "parley.log"),
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
// Unknown keys are rejected so typos do not pass silently.
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := os.Stat(path); errors.Is(err, iofs.ErrNotExist) {
		return cfg, nil
	}
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("config: %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return cfg, nil
}

// ApplyEnvOverrides overrides values from the environment. getenv is
// usually os.Getenv.
func (c *Config) ApplyEnvOverrides(getenv func(string) string) error {
	if v := getenv(EnvBaseURL); v != "" {
		c.BaseURL = v
	}
	if v := getenv(EnvModel); v != "" {
		c.Model = v
	}
	if v := getenv(EnvAutoExecute); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", EnvAutoExecute, err)
		}
		c.AutoExecute = b
	}
	return nil
}

// Validate reports every invalid value.
func (c *Config) Validate() error {
	var errs []error
	if u, err := url.Parse(c.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("base_url %q must be an http(s) URL", c.BaseURL))
	}
	if strings.TrimSpace(c.Model) == "" {
		errs = append(errs, errors.New("model must not be empty"))
	}
	if len(c.Sandbox.Command) == 0 || c.Sandbox.Command[0] == "" {
		errs = append(errs, errors.New("sandbox.command must name an interpreter"))
	}
	if d, err := time.ParseDuration(c.Sandbox.Timeout); err != nil || d < 0 {
		errs = append(errs, fmt.Errorf("sandbox.timeout %q must be a non-negative duration", c.Sandbox.Timeout))
	}
	if c.Scene.MaxEntries < 0 {
		errs = append(errs, errors.New("scene.max_entries must not be negative"))
	}
	if c.Log.MaxSizeMB < 0 || c.Log.MaxBackups < 0 || c.Log.MaxAgeDays < 0 {
		errs = append(errs, errors.New("log limits must not be negative"))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("config: %w", errors.Join(errs...))
}
