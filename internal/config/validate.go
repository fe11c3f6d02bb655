package config

import (
	"errors"
	"fmt"
	"net"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateRulebook(); err != nil {
		return err
	}
	if err := c.validateGenerator(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.DataDir == "" {
		return errors.New("paths.data_dir must be set")
	}
	if _, _, err := net.SplitHostPort(c.Paths.APIBind); err != nil {
		return fmt.Errorf("paths.api_bind: %w", err)
	}
	return nil
}

func (c *Config) validateRulebook() error {
	if err := ensurePositiveMap(map[string]int{
		"rulebook.fetch_timeout":  c.Rulebook.FetchTimeout,
		"rulebook.min_text_chars": c.Rulebook.MinTextChars,
	}); err != nil {
		return err
	}
	if c.Rulebook.MaxBytes <= 0 {
		return errors.New("rulebook.max_bytes must be positive")
	}
	return nil
}

func (c *Config) validateGenerator() error {
	if c.Generator.TimeoutSeconds <= 0 {
		return errors.New("generator.timeout_seconds must be positive")
	}
	if len(c.Generator.ContentTypes) == 0 {
		return errors.New("generator.content_types must list at least one content type")
	}
	if c.Generator.Temperature < 0 || c.Generator.Temperature > 2 {
		return errors.New("generator.temperature must be between 0 and 2")
	}
	if c.Generator.MaxTokens < 0 {
		return errors.New("generator.max_tokens must not be negative")
	}
	return nil
}

func (c *Config) validatePipeline() error {
	if c.Pipeline.InFlightTimeout < 0 {
		return errors.New("pipeline.in_flight_timeout must not be negative")
	}
	if c.Pipeline.InFlightTimeout > 0 && c.Pipeline.ReclaimInterval <= 0 {
		return errors.New("pipeline.reclaim_interval must be positive when pipeline.in_flight_timeout is set")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
