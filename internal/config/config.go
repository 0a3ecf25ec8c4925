package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the docdex API configuration.
type Config struct {
	HTTP        HTTPConfig        `yaml:"http"`
	Auth        AuthConfig        `yaml:"auth"`
	Logging     LoggingConfig     `yaml:"logging"`
	Chunking    ChunkingConfig    `yaml:"chunking"`
	Indexing    IndexingConfig    `yaml:"indexing"`
	Retrieval   RetrievalConfig   `yaml:"retrieval"`
	Attachments AttachmentsConfig `yaml:"attachments"`
	Assist      AssistConfig      `yaml:"assist"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// ChunkingConfig holds the default chunking strategy and its geometry.
type ChunkingConfig struct {
	Strategy        string `yaml:"strategy"` // whole, fixed, semantic (default: fixed)
	WindowSize      int    `yaml:"window_size"`
	WindowOverlap   int    `yaml:"window_overlap"`
	SemanticMinSize int    `yaml:"semantic_min_size"`
}

// IndexingConfig holds the default indexing strategy.
type IndexingConfig struct {
	Strategy string `yaml:"strategy"` // linear, vector, hierarchical, keyword (default: linear)
}

// RetrievalConfig holds search cutoff settings.
type RetrievalConfig struct {
	DefaultTopK int `yaml:"default_top_k"`
	MaxTopK     int `yaml:"max_top_k"`
}

// AttachmentsConfig holds upload limits.
type AttachmentsConfig struct {
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`
}

// AssistConfig holds the completion provider settings.
type AssistConfig struct {
	Provider    string  `yaml:"provider"` // stub, openai, ollama (default: stub)
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	Temperature float32 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values. A zero
// window_overlap stays zero: overlap is opt-in per file.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Chunking.Strategy == "" {
		c.Chunking.Strategy = "fixed"
	}
	if c.Chunking.WindowSize <= 0 {
		c.Chunking.WindowSize = 1200
	}
	if c.Chunking.WindowOverlap < 0 {
		c.Chunking.WindowOverlap = 0
	}
	if c.Chunking.SemanticMinSize <= 0 {
		c.Chunking.SemanticMinSize = 400
	}
	if c.Indexing.Strategy == "" {
		c.Indexing.Strategy = "linear"
	}
	if c.Retrieval.DefaultTopK <= 0 {
		c.Retrieval.DefaultTopK = 5
	}
	if c.Retrieval.MaxTopK <= 0 {
		c.Retrieval.MaxTopK = 50
	}
	if c.Attachments.MaxUploadBytes <= 0 {
		c.Attachments.MaxUploadBytes = 16 << 20
	}
	if c.Assist.Provider == "" {
		c.Assist.Provider = "stub"
	}
	if c.Assist.Temperature <= 0 {
		c.Assist.Temperature = 0.2
	}
	if c.Assist.MaxTokens <= 0 {
		c.Assist.MaxTokens = 800
	}
	switch c.Assist.Provider {
	case "openai":
		if c.Assist.Model == "" {
			c.Assist.Model = "gpt-4o-mini"
		}
	case "ollama":
		if c.Assist.Model == "" {
			c.Assist.Model = "llama3.1"
		}
		if c.Assist.BaseURL == "" {
			c.Assist.BaseURL = "http://localhost:11434/v1"
		}
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Chunking.WindowOverlap >= c.Chunking.WindowSize {
		return fmt.Errorf("chunking.window_overlap (%d) must be smaller than chunking.window_size (%d)",
			c.Chunking.WindowOverlap, c.Chunking.WindowSize)
	}
	if c.Retrieval.DefaultTopK > c.Retrieval.MaxTopK {
		return fmt.Errorf("retrieval.default_top_k (%d) must not exceed retrieval.max_top_k (%d)",
			c.Retrieval.DefaultTopK, c.Retrieval.MaxTopK)
	}
	switch c.Assist.Provider {
	case "stub", "ollama":
		// ok
	case "openai":
		if c.Assist.APIKey == "" {
			return fmt.Errorf("assist.api_key is required when assist.provider is %q", c.Assist.Provider)
		}
	default:
		return fmt.Errorf("assist.provider must be \"stub\", \"openai\" or \"ollama\", got %q", c.Assist.Provider)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
