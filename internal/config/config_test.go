package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"vecna/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("VECNA_LLM_API_KEY", "test-key")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "vecna")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.DatabasePath() != filepath.Join(wantData, "vecna.db") {
		t.Fatalf("unexpected database path: %q", cfg.DatabasePath())
	}
	if cfg.Paths.APIBind != "127.0.0.1:7490" {
		t.Fatalf("unexpected api bind: %q", cfg.Paths.APIBind)
	}
	if cfg.Generator.APIKey != "test-key" {
		t.Fatalf("expected generator key from env, got %q", cfg.Generator.APIKey)
	}
	if len(cfg.Generator.ContentTypes) != 3 || cfg.Generator.ContentTypes[0] != "overview" {
		t.Fatalf("unexpected default content types: %v", cfg.Generator.ContentTypes)
	}
	if !cfg.Pipeline.SkipBlocked || cfg.Pipeline.StopOnError {
		t.Fatalf("unexpected pipeline defaults: %+v", cfg.Pipeline)
	}
	if cfg.InFlightTimeout().Minutes() != 30 {
		t.Fatalf("unexpected in-flight timeout: %s", cfg.InFlightTimeout())
	}
}

func TestLoadCustomConfigFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")
	dataDir := filepath.Join(dir, "data")

	payload := map[string]any{
		"paths": map[string]any{
			"data_dir": dataDir,
			"api_bind": "0.0.0.0:9000",
		},
		"generator": map[string]any{
			"api_key":       "file-key",
			"content_types": []string{" Overview ", "faq", "overview", ""},
		},
		"pipeline": map[string]any{
			"stop_on_error":     true,
			"in_flight_timeout": 600,
		},
		"logging": map[string]any{
			"format": "JSON",
			"level":  "Debug",
		},
	}
	raw, err := toml.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(configPath, raw, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("unexpected resolution: %q exists=%v", resolved, exists)
	}
	if cfg.Paths.DataDir != dataDir {
		t.Fatalf("unexpected data dir: %q", cfg.Paths.DataDir)
	}
	if got := strings.Join(cfg.Generator.ContentTypes, ","); got != "overview,faq" {
		t.Fatalf("unexpected content types: %q", got)
	}
	if !cfg.Pipeline.StopOnError {
		t.Fatal("expected stop_on_error from file")
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected logging config: %+v", cfg.Logging)
	}
	if cfg.Generator.Model == "" {
		t.Fatal("expected default model to survive partial generator section")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"bad bind", func(c *config.Config) { c.Paths.APIBind = "nope" }, "paths.api_bind"},
		{"bad fetch timeout", func(c *config.Config) { c.Rulebook.FetchTimeout = 0 }, "rulebook.fetch_timeout"},
		{"bad max bytes", func(c *config.Config) { c.Rulebook.MaxBytes = 0 }, "rulebook.max_bytes"},
		{"no content types", func(c *config.Config) { c.Generator.ContentTypes = nil }, "generator.content_types"},
		{"hot temperature", func(c *config.Config) { c.Generator.Temperature = 2.5 }, "generator.temperature"},
		{"negative max tokens", func(c *config.Config) { c.Generator.MaxTokens = -1 }, "generator.max_tokens"},
		{"negative timeout", func(c *config.Config) { c.Pipeline.InFlightTimeout = -1 }, "pipeline.in_flight_timeout"},
		{"reclaim interval", func(c *config.Config) { c.Pipeline.ReclaimInterval = 0 }, "pipeline.reclaim_interval"},
		{"log format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Paths.DataDir = t.TempDir()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected validation error containing %q", tc.want)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if cfg.Pipeline.ReclaimInterval != 60 {
		t.Fatalf("unexpected reclaim interval: %d", cfg.Pipeline.ReclaimInterval)
	}
}
