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

// Config holds the promptdex API configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Database   DatabaseConfig   `yaml:"database"`
	Cache      CacheConfig      `yaml:"cache"`
	Vector     VectorConfig     `yaml:"vector"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Completion CompletionConfig `yaml:"completion"`
	Search     SearchConfig     `yaml:"search"`
	Recommend  RecommendConfig  `yaml:"recommend"`
	Auth       AuthConfig       `yaml:"auth"`
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

// DatabaseConfig holds Postgres connection settings.
type DatabaseConfig struct {
	DSN                string `yaml:"dsn"`
	MaxOpenConns       int    `yaml:"max_open_conns"`
	MaxIdleConns       int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeSec int    `yaml:"conn_max_lifetime_sec"`
	Migrate            bool   `yaml:"migrate"`
	ReadinessTimeout   int    `yaml:"readiness_timeout_sec"`
}

// CacheConfig holds result cache settings. The redis and valkey drivers share Addrs.
type CacheConfig struct {
	Driver    string   `yaml:"driver"` // redis, valkey, memory (default: memory)
	Addrs     []string `yaml:"addrs"`
	Username  string   `yaml:"username"`
	Password  string   `yaml:"password"`
	Capacity  int      `yaml:"capacity"` // memory driver only
	MaxTTLSec int      `yaml:"max_ttl_sec"`
}

// VectorConfig selects where nearest-neighbour queries run.
type VectorConfig struct {
	Driver          string `yaml:"driver"` // postgres, redis (default: postgres)
	HNSWM           int    `yaml:"hnsw_m"`
	HNSWEFConstruct int    `yaml:"hnsw_ef_construction"`
	IndexPrefix     string `yaml:"index_prefix"`
}

// EmbeddingConfig holds embedding settings.
type EmbeddingConfig struct {
	Providers   map[string]ProviderConfig `yaml:"providers"`
	Vectorizer  VectorizerConfig          `yaml:"vectorizer"`
	CacheTTLSec int                       `yaml:"cache_ttl_sec"`
}

// ProviderConfig holds model provider settings.
type ProviderConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

// VectorizerConfig holds vectorizer settings.
type VectorizerConfig struct {
	Provider            string `yaml:"provider"`
	Model               string `yaml:"model"`
	Dimensions          int    `yaml:"dimensions"`
	DocumentInstruction string `yaml:"document_instruction"`
	QueryInstruction    string `yaml:"query_instruction"`
	MaxInputChars       int    `yaml:"max_input_chars"`
}

// CompletionConfig holds authoring model settings. An empty provider disables authoring.
type CompletionConfig struct {
	Provider    string  `yaml:"provider"`
	Model       string  `yaml:"model"`
	Temperature float32 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// SearchConfig tunes the retrieval engine.
type SearchConfig struct {
	MaxLimit              int     `yaml:"max_limit"`
	DefaultLimit          int     `yaml:"default_limit"`
	MinSimilarity         float64 `yaml:"min_similarity"`
	RRFK                  int     `yaml:"rrf_k"`
	SemanticOverfetch     int     `yaml:"semantic_overfetch"`
	HybridKeywordFallback bool    `yaml:"hybrid_keyword_fallback"`
	CacheTTLSec           int     `yaml:"cache_ttl_sec"`
}

// RecommendConfig tunes the recommendation engine.
type RecommendConfig struct {
	ProfileInteractions   int     `yaml:"profile_interactions"`
	MinSimilarity         float64 `yaml:"min_similarity"`
	ProfileTTLSec         int     `yaml:"profile_ttl_sec"`
	RecommendationsTTLSec int     `yaml:"recommendations_ttl_sec"`
	SimilarTTLSec         int     `yaml:"similar_ttl_sec"`
	TrendingTTLSec        int     `yaml:"trending_ttl_sec"`
	DefaultLimit          int     `yaml:"default_limit"`
	MaxLimit              int     `yaml:"max_limit"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse expands env variables, decodes YAML, applies defaults and validates.
func Parse(data []byte) (Config, error) {
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
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}

	if c.Database.MaxOpenConns <= 0 {
		c.Database.MaxOpenConns = 20
	}
	if c.Database.MaxIdleConns <= 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Database.ConnMaxLifetimeSec <= 0 {
		c.Database.ConnMaxLifetimeSec = 1800
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}

	if c.Cache.Driver == "" {
		c.Cache.Driver = "memory"
	}
	if c.Cache.Capacity <= 0 {
		c.Cache.Capacity = 10_000
	}
	if c.Cache.MaxTTLSec <= 0 {
		c.Cache.MaxTTLSec = 86400
	}

	if c.Vector.Driver == "" {
		c.Vector.Driver = "postgres"
	}
	if c.Vector.HNSWM <= 0 {
		c.Vector.HNSWM = 16
	}
	if c.Vector.HNSWEFConstruct <= 0 {
		c.Vector.HNSWEFConstruct = 64
	}
	if c.Vector.IndexPrefix == "" {
		c.Vector.IndexPrefix = "promptdex:vec"
	}

	v := &c.Embedding.Vectorizer
	if v.Provider == "" {
		v.Provider = "openai"
	}
	if v.Model == "" {
		v.Model = "text-embedding-3-small"
	}
	if v.Dimensions <= 0 {
		v.Dimensions = 1536
	}
	if v.MaxInputChars <= 0 {
		v.MaxInputChars = 32 * 1024
	}
	if c.Embedding.CacheTTLSec <= 0 {
		c.Embedding.CacheTTLSec = 86400
	}

	if c.Completion.Model == "" {
		c.Completion.Model = "gpt-4o-mini"
	}
	if c.Completion.Temperature <= 0 {
		c.Completion.Temperature = 0.7
	}
	if c.Completion.MaxTokens <= 0 {
		c.Completion.MaxTokens = 1024
	}

	s := &c.Search
	if s.MaxLimit <= 0 {
		s.MaxLimit = 50
	}
	if s.DefaultLimit <= 0 {
		s.DefaultLimit = 20
	}
	if s.MinSimilarity <= 0 {
		s.MinSimilarity = 0.1
	}
	if s.RRFK <= 0 {
		s.RRFK = 60
	}
	if s.SemanticOverfetch <= 0 {
		s.SemanticOverfetch = 2
	}
	if s.CacheTTLSec <= 0 {
		s.CacheTTLSec = 60
	}

	r := &c.Recommend
	if r.ProfileInteractions <= 0 {
		r.ProfileInteractions = 50
	}
	if r.ProfileTTLSec <= 0 {
		r.ProfileTTLSec = 600
	}
	if r.RecommendationsTTLSec <= 0 {
		r.RecommendationsTTLSec = 300
	}
	if r.SimilarTTLSec <= 0 {
		r.SimilarTTLSec = 300
	}
	if r.TrendingTTLSec <= 0 {
		r.TrendingTTLSec = 300
	}
	if r.DefaultLimit <= 0 {
		r.DefaultLimit = 10
	}
	if r.MaxLimit <= 0 {
		r.MaxLimit = 50
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}

	switch c.Cache.Driver {
	case "memory":
	case "redis", "valkey":
		if len(c.Cache.Addrs) == 0 {
			return fmt.Errorf("cache.addrs is required for driver %q", c.Cache.Driver)
		}
	default:
		return fmt.Errorf("cache.driver must be \"redis\", \"valkey\" or \"memory\", got %q", c.Cache.Driver)
	}

	switch c.Vector.Driver {
	case "postgres":
	case "redis":
		if c.Cache.Driver == "memory" {
			return fmt.Errorf("vector.driver \"redis\" requires cache.driver redis or valkey")
		}
	default:
		return fmt.Errorf("vector.driver must be \"postgres\" or \"redis\", got %q", c.Vector.Driver)
	}

	if _, ok := c.Embedding.Providers[c.Embedding.Vectorizer.Provider]; !ok {
		return fmt.Errorf("embedding.vectorizer.provider %q is not configured in embedding.providers",
			c.Embedding.Vectorizer.Provider)
	}
	if p := c.Completion.Provider; p != "" {
		if _, ok := c.Embedding.Providers[p]; !ok {
			return fmt.Errorf("completion.provider %q is not configured in embedding.providers", p)
		}
	}

	if c.Search.DefaultLimit > c.Search.MaxLimit {
		return fmt.Errorf("search.default_limit (%d) exceeds search.max_limit (%d)",
			c.Search.DefaultLimit, c.Search.MaxLimit)
	}
	if c.Search.MinSimilarity > 1 {
		return fmt.Errorf("search.min_similarity must be <= 1, got %g", c.Search.MinSimilarity)
	}
	if c.Recommend.DefaultLimit > c.Recommend.MaxLimit {
		return fmt.Errorf("recommend.default_limit (%d) exceeds recommend.max_limit (%d)",
			c.Recommend.DefaultLimit, c.Recommend.MaxLimit)
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
		expr := string(match[2 : len(match)-1])
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
