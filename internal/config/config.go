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

// Config holds the researchd API configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Database   DatabaseConfig   `yaml:"database"`
	Auth       AuthConfig       `yaml:"auth"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Generation GenerationConfig `yaml:"generation"`
	Rerank     RerankConfig     `yaml:"rerank"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	Memory     MemoryConfig     `yaml:"memory"`
	Assess     AssessConfig     `yaml:"assess"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
	Gather     GatherConfig     `yaml:"gather"`
	MarketData MarketDataConfig `yaml:"market_data"`
	WebSearch  WebSearchConfig  `yaml:"web_search"`
	Logging    LoggingConfig    `yaml:"logging"`
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

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	KeyPrefix        string   `yaml:"key_prefix"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider"` // openai, ollama (default: openai)
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
}

// GenerationConfig holds text generation provider settings.
type GenerationConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// RerankConfig holds cross-encoder reranking settings.
type RerankConfig struct {
	Enabled bool   `yaml:"enabled"`
	Model   string `yaml:"model"`
}

// RetrievalConfig holds hybrid retrieval settings.
type RetrievalConfig struct {
	K          int    `yaml:"k"`
	RRFK       int    `yaml:"rrf_k"`
	PoolFactor int    `yaml:"pool_factor"`
	Collection string `yaml:"collection"`
}

// MemoryConfig holds conversation memory settings.
type MemoryConfig struct {
	MinSimilarity float64 `yaml:"min_similarity"`
	FreshTTLHours int     `yaml:"fresh_ttl_hours"`
}

// AssessConfig holds contradiction detection thresholds.
type AssessConfig struct {
	TolerancePct   float64 `yaml:"tolerance_pct"`
	SignificantPct float64 `yaml:"significant_pct"`
}

// PipelineConfig holds per-mode analysis deadlines.
type PipelineConfig struct {
	QuickTimeoutSec int `yaml:"quick_timeout_sec"`
	DeepTimeoutSec  int `yaml:"deep_timeout_sec"`
}

// GatherConfig holds evidence gathering limits. Retrieval depth comes
// from retrieval.k; this section covers the other sources.
type GatherConfig struct {
	MemoryK     int `yaml:"memory_k"`
	WebK        int `yaml:"web_k"`
	MinEvidence int `yaml:"min_evidence"`
}

// MarketDataConfig holds the market data service settings.
type MarketDataConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
}

// WebSearchConfig holds the metasearch service settings.
type WebSearchConfig struct {
	BaseURL string `yaml:"base_url"`
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

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		// Deep analyses stream through this server, so the write side
		// must outlive the deep pipeline deadline.
		c.HTTP.WriteTimeoutSec = 200
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.KeyPrefix == "" {
		c.Database.KeyPrefix = "researchd"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-3-small"
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = 1536
	}
	if c.Generation.Model == "" {
		c.Generation.Model = "gpt-4o-mini"
	}
	if c.Rerank.Model == "" {
		c.Rerank.Model = c.Generation.Model
	}
	if c.Retrieval.K <= 0 {
		c.Retrieval.K = 5
	}
	if c.Retrieval.RRFK <= 0 {
		c.Retrieval.RRFK = 60
	}
	if c.Retrieval.PoolFactor <= 0 {
		c.Retrieval.PoolFactor = 3
	}
	if c.Retrieval.Collection == "" {
		c.Retrieval.Collection = "documents"
	}
	if c.Memory.MinSimilarity <= 0 {
		c.Memory.MinSimilarity = 0.70
	}
	if c.Memory.FreshTTLHours <= 0 {
		c.Memory.FreshTTLHours = 24
	}
	if c.Assess.TolerancePct <= 0 {
		c.Assess.TolerancePct = 1.0
	}
	if c.Assess.SignificantPct <= 0 {
		c.Assess.SignificantPct = 3.0
	}
	if c.Pipeline.QuickTimeoutSec <= 0 {
		c.Pipeline.QuickTimeoutSec = 30
	}
	if c.Pipeline.DeepTimeoutSec <= 0 {
		c.Pipeline.DeepTimeoutSec = 180
	}
	if c.Gather.MemoryK <= 0 {
		c.Gather.MemoryK = 3
	}
	if c.Gather.WebK <= 0 {
		c.Gather.WebK = 5
	}
	if c.Gather.MinEvidence <= 0 {
		c.Gather.MinEvidence = 2
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	switch c.Embedding.Provider {
	case "openai", "ollama":
	default:
		return fmt.Errorf("embedding.provider must be \"openai\" or \"ollama\", got %q", c.Embedding.Provider)
	}
	if c.Memory.MinSimilarity > 1 {
		return fmt.Errorf("memory.min_similarity must be in (0, 1], got %v", c.Memory.MinSimilarity)
	}
	if c.Assess.SignificantPct < c.Assess.TolerancePct {
		return fmt.Errorf("assess.significant_pct must be >= assess.tolerance_pct")
	}
	if c.Pipeline.DeepTimeoutSec < c.Pipeline.QuickTimeoutSec {
		return fmt.Errorf("pipeline.deep_timeout_sec must be >= pipeline.quick_timeout_sec")
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
