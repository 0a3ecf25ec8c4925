package config

import (
	"os"
	"path/filepath"
	"testing"
)

func validConfig() Config {
	cfg := Config{HTTP: HTTPConfig{Port: 8000}}
	cfg.ApplyDefaults()
	return cfg
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 10 {
		t.Errorf("expected WriteTimeoutSec=10, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("expected ShutdownSec=10, got %d", cfg.HTTP.ShutdownSec)
	}
	if cfg.Chunking.Strategy != "fixed" {
		t.Errorf("expected chunking strategy 'fixed', got %q", cfg.Chunking.Strategy)
	}
	if cfg.Chunking.WindowSize != 1200 {
		t.Errorf("expected WindowSize=1200, got %d", cfg.Chunking.WindowSize)
	}
	if cfg.Chunking.SemanticMinSize != 400 {
		t.Errorf("expected SemanticMinSize=400, got %d", cfg.Chunking.SemanticMinSize)
	}
	if cfg.Indexing.Strategy != "linear" {
		t.Errorf("expected indexing strategy 'linear', got %q", cfg.Indexing.Strategy)
	}
	if cfg.Retrieval.DefaultTopK != 5 || cfg.Retrieval.MaxTopK != 50 {
		t.Errorf("expected top_k defaults 5/50, got %d/%d", cfg.Retrieval.DefaultTopK, cfg.Retrieval.MaxTopK)
	}
	if cfg.Attachments.MaxUploadBytes != 16<<20 {
		t.Errorf("expected MaxUploadBytes=%d, got %d", 16<<20, cfg.Attachments.MaxUploadBytes)
	}
	if cfg.Assist.Provider != "stub" {
		t.Errorf("expected assist provider 'stub', got %q", cfg.Assist.Provider)
	}
	if cfg.Assist.MaxTokens != 800 {
		t.Errorf("expected MaxTokens=800, got %d", cfg.Assist.MaxTokens)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:      HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Chunking:  ChunkingConfig{Strategy: "semantic", WindowSize: 800, WindowOverlap: 100, SemanticMinSize: 200},
		Indexing:  IndexingConfig{Strategy: "keyword"},
		Retrieval: RetrievalConfig{DefaultTopK: 10, MaxTopK: 100},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 30 {
		t.Errorf("expected ReadTimeoutSec=30, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.Chunking.Strategy != "semantic" || cfg.Chunking.WindowSize != 800 {
		t.Errorf("chunking overridden: %+v", cfg.Chunking)
	}
	if cfg.Indexing.Strategy != "keyword" {
		t.Errorf("indexing overridden: %q", cfg.Indexing.Strategy)
	}
	if cfg.Retrieval.DefaultTopK != 10 || cfg.Retrieval.MaxTopK != 100 {
		t.Errorf("retrieval overridden: %+v", cfg.Retrieval)
	}
}

func TestApplyDefaults_OllamaProvider(t *testing.T) {
	cfg := Config{Assist: AssistConfig{Provider: "ollama"}}
	cfg.ApplyDefaults()

	if cfg.Assist.Model != "llama3.1" {
		t.Errorf("expected model llama3.1, got %q", cfg.Assist.Model)
	}
	if cfg.Assist.BaseURL != "http://localhost:11434/v1" {
		t.Errorf("expected local ollama base URL, got %q", cfg.Assist.BaseURL)
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := Config{HTTP: HTTPConfig{Port: 0}}
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_OverlapNotSmallerThanWindow(t *testing.T) {
	cfg := validConfig()
	cfg.Chunking.WindowSize = 100
	cfg.Chunking.WindowOverlap = 100

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for overlap >= window size")
	}
}

func TestValidate_DefaultTopKAboveMax(t *testing.T) {
	cfg := validConfig()
	cfg.Retrieval.DefaultTopK = 60
	cfg.Retrieval.MaxTopK = 50

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for default_top_k above max_top_k")
	}
}

func TestValidate_AssistProviders(t *testing.T) {
	tests := []struct {
		name    string
		assist  AssistConfig
		wantErr bool
	}{
		{"stub", AssistConfig{Provider: "stub"}, false},
		{"ollama", AssistConfig{Provider: "ollama"}, false},
		{"openai with key", AssistConfig{Provider: "openai", APIKey: "sk-test"}, false},
		{"openai without key", AssistConfig{Provider: "openai"}, true},
		{"unknown", AssistConfig{Provider: "gemini"}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Assist = tc.assist
			err := cfg.Validate()
			if tc.wantErr && err == nil {
				t.Fatal("expected validation error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestLoad_ExpandsEnvVars(t *testing.T) {
	dir := t.TempDir()
	configDir := filepath.Join(dir, "config")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	yamlBody := `
http:
  port: ${DOCDEX_TEST_PORT:-8000}
assist:
  provider: ${DOCDEX_TEST_PROVIDER:-stub}
`
	if err := os.WriteFile(filepath.Join(configDir, "test.yaml"), []byte(yamlBody), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	oldWD, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	defer func() { _ = os.Chdir(oldWD) }()

	t.Setenv("DOCDEX_TEST_PORT", "9100")

	cfg, err := Load("test")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.HTTP.Port != 9100 {
		t.Errorf("port = %d, want 9100 from env", cfg.HTTP.Port)
	}
	if cfg.Assist.Provider != "stub" {
		t.Errorf("provider = %q, want stub from default", cfg.Assist.Provider)
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("ENV", "")
	if env := GetEnv(); env != "local" {
		t.Errorf("GetEnv() = %q, want local", env)
	}
	t.Setenv("ENV", "prod")
	if env := GetEnv(); env != "prod" {
		t.Errorf("GetEnv() = %q, want prod", env)
	}
}
