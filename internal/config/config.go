package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	ResultsDir string `toml:"results_dir"`
	DataDir    string `toml:"data_dir"`
	LogDir     string `toml:"log_dir"`
}

// LLM contains connection settings for the hosted model endpoint.
type LLM struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	TextModel      string `toml:"text_model"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Batch contains worker-pool and persistence settings for batch runs.
type Batch struct {
	MaxWorkers             int  `toml:"max_workers"`
	ItemTimeoutSeconds     int  `toml:"item_timeout_seconds"`
	SinkLockTimeoutSeconds int  `toml:"sink_lock_timeout_seconds"`
	StrictLedger           bool `toml:"strict_ledger"`
}

// Pipeline contains reasoning-pipeline tuning knobs.
type Pipeline struct {
	MaxStrategies             int     `toml:"max_strategies"`
	MaxTokens                 int     `toml:"max_tokens"`
	RefinementMaxTokens       int     `toml:"refinement_max_tokens"`
	NaturalReasoningMaxTokens int     `toml:"natural_reasoning_max_tokens"`
	FinalResponseMaxTokens    int     `toml:"final_response_max_tokens"`
	Temperature               float64 `toml:"temperature"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Handwriting configures the handwriting OCR domain.
type Handwriting struct {
	ImagesDir   string `toml:"images_dir"`
	XMLDir      string `toml:"xml_dir"`
	PromptsFile string `toml:"prompts_file"`
}

// Documents configures the business-document OCR domain.
type Documents struct {
	ManifestPath string `toml:"manifest_path"`
	Granularity  string `toml:"granularity"`
	PromptsFile  string `toml:"prompts_file"`
}

// Radiology configures the medical-imaging domain.
type Radiology struct {
	ManifestPath string `toml:"manifest_path"`
	Modality     string `toml:"modality"`
	PromptsFile  string `toml:"prompts_file"`
}

// Config encapsulates all configuration values for traceloom.
//
// Configuration sections by subsystem:
//   - Paths: result, data, and log directories
//   - LLM: hosted model connection settings
//   - Batch: worker pool size, per-item timeout, sink locking
//   - Pipeline: reasoning refinement limits and token budgets
//   - Logging: log format and level
//   - Handwriting / Documents / Radiology: per-domain dataset locations
type Config struct {
	Paths       Paths       `toml:"paths"`
	LLM         LLM         `toml:"llm"`
	Batch       Batch       `toml:"batch"`
	Pipeline    Pipeline    `toml:"pipeline"`
	Logging     Logging     `toml:"logging"`
	Handwriting Handwriting `toml:"handwriting"`
	Documents   Documents   `toml:"documents"`
	Radiology   Radiology   `toml:"radiology"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/traceloom/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized.
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

	projectPath, err := filepath.Abs("traceloom.toml")
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

// EnsureDirectories creates the directories batch runs write into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.ResultsDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
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

// LLMConfig contains resolved LLM settings handed to the client.
type LLMConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	TextModel      string
	Referer        string
	Title          string
	TimeoutSeconds int
}

// GetLLM returns the model connection settings with the API key env fallback applied.
func (c *Config) GetLLM() LLMConfig {
	apiKey := strings.TrimSpace(c.LLM.APIKey)
	if apiKey == "" {
		apiKey = strings.TrimSpace(os.Getenv("OPENROUTER_API_KEY"))
	}
	return LLMConfig{
		APIKey:         apiKey,
		BaseURL:        strings.TrimSpace(c.LLM.BaseURL),
		Model:          strings.TrimSpace(c.LLM.Model),
		TextModel:      strings.TrimSpace(c.LLM.TextModel),
		Referer:        strings.TrimSpace(c.LLM.Referer),
		Title:          strings.TrimSpace(c.LLM.Title),
		TimeoutSeconds: c.LLM.TimeoutSeconds,
	}
}
