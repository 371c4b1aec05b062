package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateLLM(); err != nil {
		return err
	}
	if err := c.validateBatch(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.ResultsDir == "" {
		return errors.New("paths.results_dir must be set")
	}
	if c.Paths.LogDir == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateLLM() error {
	if c.LLM.BaseURL == "" {
		return errors.New("llm.base_url must be set")
	}
	if c.LLM.Model == "" {
		return errors.New("llm.model must be set")
	}
	if c.LLM.TimeoutSeconds < 0 {
		return errors.New("llm.timeout_seconds must not be negative")
	}
	return nil
}

func (c *Config) validateBatch() error {
	if c.Batch.MaxWorkers < 1 || c.Batch.MaxWorkers > 64 {
		return fmt.Errorf("batch.max_workers must be between 1 and 64, got %d", c.Batch.MaxWorkers)
	}
	if c.Batch.ItemTimeoutSeconds < 0 {
		return errors.New("batch.item_timeout_seconds must not be negative")
	}
	if c.Batch.SinkLockTimeoutSeconds < 1 {
		return errors.New("batch.sink_lock_timeout_seconds must be at least 1")
	}
	return nil
}

func (c *Config) validatePipeline() error {
	if c.Pipeline.MaxStrategies < 0 || c.Pipeline.MaxStrategies > 4 {
		return fmt.Errorf("pipeline.max_strategies must be between 0 and 4, got %d", c.Pipeline.MaxStrategies)
	}
	if c.Pipeline.Temperature < 0 || c.Pipeline.Temperature > 2 {
		return errors.New("pipeline.temperature must be between 0 and 2")
	}
	for name, value := range map[string]int{
		"pipeline.max_tokens":                   c.Pipeline.MaxTokens,
		"pipeline.refinement_max_tokens":        c.Pipeline.RefinementMaxTokens,
		"pipeline.natural_reasoning_max_tokens": c.Pipeline.NaturalReasoningMaxTokens,
		"pipeline.final_response_max_tokens":    c.Pipeline.FinalResponseMaxTokens,
	} {
		if value < 1 {
			return fmt.Errorf("%s must be at least 1", name)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
