package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/digital-hub-ai/hubsearch/internal/domain/search/rank"
)

// Config holds the hubsearch API configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Store      StoreConfig      `yaml:"store"`
	Collection CollectionConfig `yaml:"collection"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Search     SearchConfig     `yaml:"search"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// StoreConfig selects the cache store backend.
type StoreConfig struct {
	Driver           string   `yaml:"driver"` // memory (default), redis
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// CollectionConfig holds document collection settings.
type CollectionConfig struct {
	ContentDir    string `yaml:"content_dir"`
	RefreshTTLSec int    `yaml:"refresh_ttl_sec"`
}

// EmbeddingConfig holds embedding settings.
type EmbeddingConfig struct {
	Providers   map[string]ProviderConfig   `yaml:"providers"`
	Vectorizers map[string]VectorizerConfig `yaml:"vectorizers"`
}

// ProviderConfig holds embedding provider settings.
type ProviderConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

// VectorizerConfig holds vectorizer settings.
type VectorizerConfig struct {
	Provider   string `yaml:"provider"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
}

// SearchConfig holds ranking pipeline settings.
type SearchConfig struct {
	MinSimilarity     float64      `yaml:"min_similarity"`
	MinEmbedQueryLen  int          `yaml:"min_embed_query_len"`
	FuzzyBlend        float64      `yaml:"fuzzy_blend"`
	CacheTTLSec       int          `yaml:"cache_ttl_sec"`
	EmbedChunkSize    int          `yaml:"embed_chunk_size"`
	EmbedWorkers      int          `yaml:"embed_workers"`
	Weights           rank.Weights `yaml:"weights"`
	DiversityCeiling  float64      `yaml:"diversity_ceiling"`
	MaxClusters       int          `yaml:"max_clusters"`
	FeatureSubcluster int          `yaml:"feature_subclusters"`
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
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Store.Driver == "" {
		c.Store.Driver = "memory"
	}
	if c.Store.ReadinessTimeout <= 0 {
		c.Store.ReadinessTimeout = 10
	}
	if c.Collection.ContentDir == "" {
		c.Collection.ContentDir = "content"
	}
	if c.Collection.RefreshTTLSec <= 0 {
		c.Collection.RefreshTTLSec = 300
	}
	if c.Search.MinSimilarity <= 0 {
		c.Search.MinSimilarity = 0.1
	}
	if c.Search.MinEmbedQueryLen <= 0 {
		c.Search.MinEmbedQueryLen = 3
	}
	if c.Search.FuzzyBlend <= 0 {
		c.Search.FuzzyBlend = 0.3
	}
	if c.Search.CacheTTLSec <= 0 {
		c.Search.CacheTTLSec = 300
	}
	if c.Search.EmbedChunkSize <= 0 {
		c.Search.EmbedChunkSize = 32
	}
	if c.Search.EmbedWorkers <= 0 {
		c.Search.EmbedWorkers = 4
	}
	if c.Search.Weights.IsZero() {
		c.Search.Weights = rank.Default()
	}
	if c.Search.DiversityCeiling <= 0 {
		c.Search.DiversityCeiling = 0.8
	}
	if c.Search.MaxClusters <= 0 {
		c.Search.MaxClusters = 10
	}
	if c.Search.FeatureSubcluster <= 0 {
		c.Search.FeatureSubcluster = 3
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Store.Driver {
	case "memory":
	case "redis":
		if len(c.Store.Addrs) == 0 {
			return fmt.Errorf("store.addrs is required for the redis driver")
		}
	default:
		return fmt.Errorf("store.driver must be \"memory\" or \"redis\", got %q", c.Store.Driver)
	}
	if c.Search.MinSimilarity > 1 {
		return fmt.Errorf("search.min_similarity must not exceed 1, got %v", c.Search.MinSimilarity)
	}
	if c.Search.FuzzyBlend > 1 {
		return fmt.Errorf("search.fuzzy_blend must not exceed 1, got %v", c.Search.FuzzyBlend)
	}
	if err := c.Search.Weights.Validate(); err != nil {
		return fmt.Errorf("search.weights: %w", err)
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
