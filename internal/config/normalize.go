package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeGenerator()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if value, ok := os.LookupEnv("VECNA_DATA_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.DataDir = strings.TrimSpace(value)
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	return nil
}

func (c *Config) normalizeGenerator() {
	c.Generator.APIKey = strings.TrimSpace(c.Generator.APIKey)
	if c.Generator.APIKey == "" {
		if value, ok := os.LookupEnv("VECNA_LLM_API_KEY"); ok {
			c.Generator.APIKey = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("OPENROUTER_API_KEY"); ok {
			c.Generator.APIKey = strings.TrimSpace(value)
		}
	}
	c.Generator.BaseURL = strings.TrimSpace(c.Generator.BaseURL)
	if c.Generator.BaseURL == "" {
		c.Generator.BaseURL = defaultGeneratorBaseURL
	}
	c.Generator.Model = strings.TrimSpace(c.Generator.Model)
	if c.Generator.Model == "" {
		c.Generator.Model = defaultGeneratorModel
	}
	c.Generator.Referer = strings.TrimSpace(c.Generator.Referer)
	c.Generator.Title = strings.TrimSpace(c.Generator.Title)

	seen := make(map[string]struct{}, len(c.Generator.ContentTypes))
	types := make([]string, 0, len(c.Generator.ContentTypes))
	for _, value := range c.Generator.ContentTypes {
		normalized := strings.ToLower(strings.TrimSpace(value))
		if normalized == "" {
			continue
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		types = append(types, normalized)
	}
	if len(types) == 0 {
		types = append(types, defaultContentTypes...)
	}
	c.Generator.ContentTypes = types
}

func (c *Config) normalizeLogging() {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if format == "" {
		format = defaultLogFormat
	}
	c.Logging.Format = format

	level := strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if level == "" {
		level = defaultLogLevel
	}
	c.Logging.Level = level
}
