package config

import (
	"os"
	"path/filepath"
	"testing"
)

func validConfig() Config {
	cfg := Config{
		HTTP: HTTPConfig{Port: 8080},
		Database: DatabaseConfig{
			Addrs: []string{"localhost:6379"},
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingDatabaseAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Addrs = nil

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing database addrs")
	}
}

func TestValidate_InvalidEmbeddingProvider(t *testing.T) {
	cfg := validConfig()
	cfg.Embedding.Provider = "huggingface"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for unknown embedding provider")
	}
	expected := `embedding.provider must be "openai" or "ollama", got "huggingface"`
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestValidate_ThresholdOrdering(t *testing.T) {
	cfg := validConfig()
	cfg.Assess.TolerancePct = 5.0
	cfg.Assess.SignificantPct = 3.0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when significant_pct < tolerance_pct")
	}

	cfg = validConfig()
	cfg.Pipeline.QuickTimeoutSec = 200
	cfg.Pipeline.DeepTimeoutSec = 100

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when deep timeout < quick timeout")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 200 {
		t.Errorf("expected WriteTimeoutSec=200, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Database.KeyPrefix != "researchd" {
		t.Errorf("expected KeyPrefix='researchd', got %q", cfg.Database.KeyPrefix)
	}
	if cfg.Embedding.Provider != "openai" {
		t.Errorf("expected Provider='openai', got %q", cfg.Embedding.Provider)
	}
	if cfg.Embedding.Dimensions != 1536 {
		t.Errorf("expected Dimensions=1536, got %d", cfg.Embedding.Dimensions)
	}
	if cfg.Retrieval.K != 5 || cfg.Retrieval.RRFK != 60 || cfg.Retrieval.PoolFactor != 3 {
		t.Errorf("retrieval defaults = %+v", cfg.Retrieval)
	}
	if cfg.Retrieval.Collection != "documents" {
		t.Errorf("expected Collection='documents', got %q", cfg.Retrieval.Collection)
	}
	if cfg.Memory.MinSimilarity != 0.70 || cfg.Memory.FreshTTLHours != 24 {
		t.Errorf("memory defaults = %+v", cfg.Memory)
	}
	if cfg.Assess.TolerancePct != 1.0 || cfg.Assess.SignificantPct != 3.0 {
		t.Errorf("assess defaults = %+v", cfg.Assess)
	}
	if cfg.Pipeline.QuickTimeoutSec != 30 || cfg.Pipeline.DeepTimeoutSec != 180 {
		t.Errorf("pipeline defaults = %+v", cfg.Pipeline)
	}
	if cfg.Gather.MemoryK != 3 || cfg.Gather.WebK != 5 || cfg.Gather.MinEvidence != 2 {
		t.Errorf("gather defaults = %+v", cfg.Gather)
	}
	if cfg.Rerank.Model != cfg.Generation.Model {
		t.Errorf("rerank model should fall back to generation model, got %q", cfg.Rerank.Model)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:      HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Database:  DatabaseConfig{ReadinessTimeout: 15, KeyPrefix: "custom"},
		Retrieval: RetrievalConfig{K: 10, RRFK: 20, Collection: "filings"},
		Pipeline:  PipelineConfig{QuickTimeoutSec: 15, DeepTimeoutSec: 300},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 30 {
		t.Errorf("expected ReadTimeoutSec=30, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 60 {
		t.Errorf("expected WriteTimeoutSec=60, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Database.KeyPrefix != "custom" {
		t.Errorf("expected KeyPrefix='custom', got %q", cfg.Database.KeyPrefix)
	}
	if cfg.Retrieval.K != 10 || cfg.Retrieval.RRFK != 20 {
		t.Errorf("retrieval = %+v", cfg.Retrieval)
	}
	if cfg.Retrieval.Collection != "filings" {
		t.Errorf("expected Collection='filings', got %q", cfg.Retrieval.Collection)
	}
	if cfg.Pipeline.QuickTimeoutSec != 15 || cfg.Pipeline.DeepTimeoutSec != 300 {
		t.Errorf("pipeline = %+v", cfg.Pipeline)
	}
}

func TestExpandEnvVars(t *testing.T) {
	os.Setenv("RESEARCHD_TEST_KEY", "sk-test")
	defer os.Unsetenv("RESEARCHD_TEST_KEY")

	in := []byte("api_key: ${RESEARCHD_TEST_KEY}\nbase_url: ${RESEARCHD_TEST_URL:-http://localhost:11434/v1}\n")
	out := string(expandEnvVars(in))

	if out != "api_key: sk-test\nbase_url: http://localhost:11434/v1\n" {
		t.Errorf("expanded = %q", out)
	}
}

func TestLoad_ReadsYAMLWithDefaults(t *testing.T) {
	dir := t.TempDir()
	cfgDir := filepath.Join(dir, "config")
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		t.Fatal(err)
	}
	yaml := `
http:
  port: 9090
database:
  addrs:
    - localhost:6379
embedding:
  api_key: ${RESEARCHD_LOAD_TEST_KEY:-fallback-key}
`
	if err := os.WriteFile(filepath.Join(cfgDir, "test.yaml"), []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	wd, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(wd)

	cfg, err := Load("test")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTP.Port != 9090 {
		t.Errorf("port = %d", cfg.HTTP.Port)
	}
	if cfg.Embedding.APIKey != "fallback-key" {
		t.Errorf("api key = %q", cfg.Embedding.APIKey)
	}
	if cfg.Pipeline.QuickTimeoutSec != 30 {
		t.Errorf("defaults not applied: %+v", cfg.Pipeline)
	}
}
