package config

import (
	"os"
	"testing"
)

func validConfig() Config {
	return Config{
		HTTP: HTTPConfig{Port: 8080},
		Embedding: EmbeddingConfig{
			APIKey:  "test-key",
			BaseURL: "https://api.example.com/v1",
			Model:   "text-embedding-3-small",
		},
	}
}

func TestValidate_Valid(t *testing.T) {
	cfg := validConfig()
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingEmbeddingProvider(t *testing.T) {
	cfg := validConfig()
	cfg.Embedding.BaseURL = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing embedding base_url")
	}
}

func TestValidate_NegativeWeights(t *testing.T) {
	cfg := validConfig()
	cfg.Engine.BM25Weight = -0.1
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for negative fusion weight")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := validConfig()
	cfg.ApplyDefaults()

	if cfg.Engine.DefaultTopK != 10 || cfg.Engine.BM25TopK != 50 || cfg.Engine.EmbeddingTopK != 50 {
		t.Errorf("top-k defaults not applied: %+v", cfg.Engine)
	}
	if cfg.Engine.BM25Weight != 0.5 || cfg.Engine.EmbeddingWeight != 0.5 {
		t.Errorf("weight defaults not applied: %+v", cfg.Engine)
	}
	if cfg.Engine.Dimensions != 1536 {
		t.Errorf("dimensions default not applied: %d", cfg.Engine.Dimensions)
	}
	if cfg.Embedding.MaxChars != 8000 {
		t.Errorf("max_chars default not applied: %d", cfg.Embedding.MaxChars)
	}
	if cfg.Storage.SnapshotPath == "" {
		t.Error("snapshot path default not applied")
	}
}

func TestApplyDefaults_DimensionsFromEmbedding(t *testing.T) {
	cfg := validConfig()
	cfg.Embedding.Dimensions = 1024
	cfg.ApplyDefaults()

	if cfg.Engine.Dimensions != 1024 {
		t.Errorf("engine dimensions = %d, want 1024 from embedding config", cfg.Engine.Dimensions)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("RANKDEX_TEST_KEY", "secret")

	got := string(expandEnvVars([]byte("api_key: ${RANKDEX_TEST_KEY}")))
	if got != "api_key: secret" {
		t.Errorf("got %q", got)
	}

	os.Unsetenv("RANKDEX_TEST_UNSET")
	got = string(expandEnvVars([]byte("port: ${RANKDEX_TEST_UNSET:-8080}")))
	if got != "port: 8080" {
		t.Errorf("default not applied: %q", got)
	}
}
