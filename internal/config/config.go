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
	Subject    SubjectConfig    `yaml:"subject"`
	Evaluation EvaluationConfig `yaml:"evaluation"`
	Storage    StorageConfig    `yaml:"storage"`
	LLM        LLMConfig        `yaml:"llm"`
	Server     ServerConfig     `yaml:"server"`
}

type SubjectConfig struct {
	URL               string        `yaml:"url"`
	Timeout           time.Duration `yaml:"timeout,omitempty"`
	Retries           int           `yaml:"retries,omitempty"`
	ReadinessAttempts int           `yaml:"readiness_attempts,omitempty"`
	ReadinessInterval time.Duration `yaml:"readiness_interval,omitempty"`
}

type EvaluationConfig struct {
	Concurrency      int           `yaml:"concurrency,omitempty"`
	GlobalThreshold  float64       `yaml:"global_threshold,omitempty"`
	DefaultThreshold float64       `yaml:"default_threshold,omitempty"`
	Grace            time.Duration `yaml:"grace,omitempty"`
	OutputPath       string        `yaml:"output_path,omitempty"`
}

type StorageConfig struct {
	Type string `yaml:"type,omitempty"` // "sqlite" or "memory"
	Path string `yaml:"path,omitempty"` // SQLite file path
}

type LLMConfig struct {
	DefaultProvider string                    `yaml:"default_provider,omitempty"`
	Providers       map[string]ProviderConfig `yaml:"providers,omitempty"`
}

type ProviderConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url,omitempty"`
	Model   string `yaml:"model,omitempty"`
}

type ServerConfig struct {
	Addr string `yaml:"addr,omitempty"`
}

// Defaults applied when a field is unset in the file.
const (
	DefaultConcurrency       = 8
	DefaultGlobalThreshold   = 0.70
	DefaultCategoryThreshold = 0.90
	DefaultReadinessAttempts = 10
	DefaultReadinessInterval = time.Second
)

// Load reads a YAML config file and applies environment overrides. A
// missing file at the default path yields a default config.
func Load(path string) (*Config, error) {
	path = strings.TrimSpace(path)
	usingDefault := path == ""
	if usingDefault {
		path = DefaultPath
	}

	var cfg Config
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %q: %w", path, err)
		}
	case usingDefault && os.IsNotExist(err):
		// No config file is fine; flags and env cover the essentials.
	default:
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}

	applyDefaults(&cfg)
	applyEnv(&cfg)

	if cfg.Evaluation.GlobalThreshold < 0 || cfg.Evaluation.GlobalThreshold > 1 {
		return nil, fmt.Errorf("config: global_threshold %v outside [0,1]", cfg.Evaluation.GlobalThreshold)
	}
	if cfg.Evaluation.DefaultThreshold < 0 || cfg.Evaluation.DefaultThreshold > 1 {
		return nil, fmt.Errorf("config: default_threshold %v outside [0,1]", cfg.Evaluation.DefaultThreshold)
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Evaluation.Concurrency <= 0 {
		cfg.Evaluation.Concurrency = DefaultConcurrency
	}
	if cfg.Evaluation.GlobalThreshold == 0 {
		cfg.Evaluation.GlobalThreshold = DefaultGlobalThreshold
	}
	if cfg.Evaluation.DefaultThreshold == 0 {
		cfg.Evaluation.DefaultThreshold = DefaultCategoryThreshold
	}
	if cfg.Subject.ReadinessAttempts <= 0 {
		cfg.Subject.ReadinessAttempts = DefaultReadinessAttempts
	}
	if cfg.Subject.ReadinessInterval <= 0 {
		cfg.Subject.ReadinessInterval = DefaultReadinessInterval
	}
	if cfg.LLM.Providers == nil {
		cfg.LLM.Providers = make(map[string]ProviderConfig)
	}
	if strings.TrimSpace(cfg.LLM.DefaultProvider) == "" {
		cfg.LLM.DefaultProvider = "claude"
	}
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("SUBJECT_URL")); v != "" {
		cfg.Subject.URL = v
	}

	if v := strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY")); v != "" {
		p := cfg.LLM.Providers["claude"]
		p.APIKey = v
		cfg.LLM.Providers["claude"] = p
	}
	if v := strings.TrimSpace(os.Getenv("OPENAI_API_KEY")); v != "" {
		p := cfg.LLM.Providers["openai"]
		p.APIKey = v
		cfg.LLM.Providers["openai"] = p
	}
}
