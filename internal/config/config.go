package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	APIBind string `toml:"api_bind"`
}

// Rulebook contains settings for the rulebook parse collaborator.
type Rulebook struct {
	FetchTimeout int   `toml:"fetch_timeout"`
	MaxBytes     int64 `toml:"max_bytes"`
	MinTextChars int   `toml:"min_text_chars"`
}

// Generator contains the LLM connection settings used for content generation.
type Generator struct {
	APIKey         string   `toml:"api_key"`
	BaseURL        string   `toml:"base_url"`
	Model          string   `toml:"model"`
	ContentTypes   []string `toml:"content_types"`
	Referer        string   `toml:"referer"`
	Title          string   `toml:"title"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
	Temperature    float64  `toml:"temperature"`
	MaxTokens      int      `toml:"max_tokens"`
}

// Pipeline contains batch defaults and in-flight supervision timing.
type Pipeline struct {
	// InFlightTimeout is the number of seconds a game may sit in parsing or
	// generating before the reclaimer rolls it back. Zero disables reclaim.
	InFlightTimeout int  `toml:"in_flight_timeout"`
	ReclaimInterval int  `toml:"reclaim_interval"`
	SkipBlocked     bool `toml:"skip_blocked"`
	StopOnError     bool `toml:"stop_on_error"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for Vecna.
//
// Configuration sections by subsystem:
//   - Paths: data directory (database, logs, lock) and API bind address
//   - Rulebook: rulebook fetch limits and text extraction thresholds
//   - Generator: LLM settings for content generation
//   - Pipeline: batch defaults and stale in-flight reclaim timing
//   - Logging: log format and level
type Config struct {
	Paths     Paths     `toml:"paths"`
	Rulebook  Rulebook  `toml:"rulebook"`
	Generator Generator `toml:"generator"`
	Pipeline  Pipeline  `toml:"pipeline"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/vecna/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("vecna.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the data directory.
func (c *Config) EnsureDirectories() error {
	if err := os.MkdirAll(c.Paths.DataDir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", c.Paths.DataDir, err)
	}
	return nil
}

// DatabasePath returns the SQLite game store location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "vecna.db")
}

// LogPath returns the log file location.
func (c *Config) LogPath() string {
	return filepath.Join(c.Paths.DataDir, "vecna.log")
}

// LockPath returns the single-instance lock file used by `vecna serve`.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "vecna.lock")
}

// InFlightTimeout returns the stale in-flight cutoff as a duration.
func (c *Config) InFlightTimeout() time.Duration {
	return time.Duration(c.Pipeline.InFlightTimeout) * time.Second
}

// ReclaimInterval returns how often the reclaimer runs.
func (c *Config) ReclaimInterval() time.Duration {
	return time.Duration(c.Pipeline.ReclaimInterval) * time.Second
}

// FetchTimeout returns the rulebook download timeout.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.Rulebook.FetchTimeout) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
