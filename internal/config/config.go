package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const DefaultPath = "configs/config.yaml"

type Config struct {
	Generation GenerationConfig `yaml:"generation"`
	Tests      TestConfig       `yaml:"tests"`
	Storage    StorageConfig    `yaml:"storage"`
}

type GenerationConfig struct {
	Provider    string   `yaml:"provider,omitempty"` // "rest", "claude", or "openai"
	Endpoint    string   `yaml:"endpoint,omitempty"`
	APIKey      string   `yaml:"api_key,omitempty"`
	Model       string   `yaml:"model,omitempty"`
	Timeout     Duration `yaml:"timeout,omitempty"`
	MaxTokens   int      `yaml:"max_tokens,omitempty"`
	Temperature float64  `yaml:"temperature,omitempty"`
	Concurrency int      `yaml:"concurrency,omitempty"`
}

// Duration decodes YAML values like "30s" or "1m" via time.ParseDuration.
// Bare integers are taken as nanoseconds for compatibility with
// time.Duration's native encoding.
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err == nil {
		parsed, perr := time.ParseDuration(strings.TrimSpace(raw))
		if perr != nil {
			return fmt.Errorf("config: invalid duration %q: %w", raw, perr)
		}
		*d = Duration(parsed)
		return nil
	}

	var ns int64
	if err := value.Decode(&ns); err != nil {
		return fmt.Errorf("config: invalid duration %q", value.Value)
	}
	*d = Duration(ns)
	return nil
}

type TestConfig struct {
	Command    string `yaml:"command,omitempty"`
	WorkingDir string `yaml:"working_dir,omitempty"`
}

type StorageConfig struct {
	Type string `yaml:"type,omitempty"` // "sqlite" or "memory"
	Path string `yaml:"path,omitempty"` // SQLite file path
}

// Load reads the config file and applies environment credential overrides.
// CODEPILOT_API_KEY wins over the file for any provider; the per-provider
// ANTHROPIC_API_KEY and OPENAI_API_KEY apply when that provider is selected.
func Load(path string) (*Config, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = DefaultPath
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}

	applyEnv(&cfg)
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if cfg == nil {
		return
	}

	if v := strings.TrimSpace(os.Getenv("CODEPILOT_API_KEY")); v != "" {
		cfg.Generation.APIKey = v
		return
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Generation.Provider)) {
	case "claude", "anthropic":
		if v := strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY")); v != "" {
			cfg.Generation.APIKey = v
		}
	case "openai":
		if v := strings.TrimSpace(os.Getenv("OPENAI_API_KEY")); v != "" {
			cfg.Generation.APIKey = v
		}
	}
}
