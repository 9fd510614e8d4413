package config

import (
	"strings"
	"testing"
)

func validConfig() Config {
	cfg := Config{
		HTTP:     HTTPConfig{Port: 8080},
		Database: DatabaseConfig{DSN: "postgres://localhost/promptdex"},
		Embedding: EmbeddingConfig{
			Providers: map[string]ProviderConfig{"openai": {APIKey: "test-key"}},
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_Valid(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"invalid port", func(c *Config) { c.HTTP.Port = 0 }, "http.port"},
		{"missing dsn", func(c *Config) { c.Database.DSN = "" }, "database.dsn"},
		{"unknown cache driver", func(c *Config) { c.Cache.Driver = "memcached" }, "cache.driver"},
		{"redis cache without addrs", func(c *Config) { c.Cache.Driver = "redis" }, "cache.addrs"},
		{"unknown vector driver", func(c *Config) { c.Vector.Driver = "faiss" }, "vector.driver"},
		{"redis vectors on memory cache", func(c *Config) { c.Vector.Driver = "redis" }, "requires cache.driver"},
		{"unknown vectorizer provider", func(c *Config) { c.Embedding.Vectorizer.Provider = "nebius" }, "embedding.vectorizer.provider"},
		{"unknown completion provider", func(c *Config) { c.Completion.Provider = "nebius" }, "completion.provider"},
		{"search default above max", func(c *Config) { c.Search.DefaultLimit = 60 }, "search.default_limit"},
		{"min similarity above one", func(c *Config) { c.Search.MinSimilarity = 1.5 }, "search.min_similarity"},
		{"recommend default above max", func(c *Config) { c.Recommend.DefaultLimit = 51 }, "recommend.default_limit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestValidate_ValkeyWithRedisVectors(t *testing.T) {
	cfg := validConfig()
	cfg.Cache.Driver = "valkey"
	cfg.Cache.Addrs = []string{"localhost:6379"}
	cfg.Vector.Driver = "redis"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.Cache.Driver != "memory" {
		t.Errorf("expected cache driver memory, got %q", cfg.Cache.Driver)
	}
	if cfg.Vector.Driver != "postgres" {
		t.Errorf("expected vector driver postgres, got %q", cfg.Vector.Driver)
	}
	if cfg.Embedding.Vectorizer.Dimensions != 1536 {
		t.Errorf("expected Dimensions=1536, got %d", cfg.Embedding.Vectorizer.Dimensions)
	}
	s := cfg.Search
	if s.MaxLimit != 50 || s.DefaultLimit != 20 || s.MinSimilarity != 0.1 || s.RRFK != 60 ||
		s.SemanticOverfetch != 2 || s.HybridKeywordFallback || s.CacheTTLSec != 60 {
		t.Errorf("unexpected search defaults: %+v", s)
	}
	r := cfg.Recommend
	if r.ProfileInteractions != 50 || r.ProfileTTLSec != 600 || r.RecommendationsTTLSec != 300 ||
		r.SimilarTTLSec != 300 || r.TrendingTTLSec != 300 || r.DefaultLimit != 10 || r.MaxLimit != 50 {
		t.Errorf("unexpected recommend defaults: %+v", r)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:   HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Cache:  CacheConfig{Driver: "redis"},
		Search: SearchConfig{RRFK: 10, MaxLimit: 100},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 30 {
		t.Errorf("expected ReadTimeoutSec=30, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.Cache.Driver != "redis" {
		t.Errorf("expected cache driver redis, got %q", cfg.Cache.Driver)
	}
	if cfg.Search.RRFK != 10 || cfg.Search.MaxLimit != 100 {
		t.Errorf("search overrides lost: %+v", cfg.Search)
	}
}

func TestParse_ExpandsEnv(t *testing.T) {
	t.Setenv("PROMPTDEX_TEST_DSN_VALUE", "postgres://db/promptdex")
	t.Setenv("PROMPTDEX_TEST_UNSET", "")

	data := []byte(`
http:
  port: ${PROMPTDEX_TEST_PORT:-9090}
database:
  dsn: ${PROMPTDEX_TEST_DSN_VALUE}
embedding:
  providers:
    openai:
      api_key: ${PROMPTDEX_TEST_UNSET:-fallback}
search:
  hybrid_keyword_fallback: true
`)
	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTP.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.HTTP.Port)
	}
	if cfg.Database.DSN != "postgres://db/promptdex" {
		t.Errorf("unexpected dsn %q", cfg.Database.DSN)
	}
	if cfg.Embedding.Providers["openai"].APIKey != "fallback" {
		t.Errorf("expected default for empty var, got %q", cfg.Embedding.Providers["openai"].APIKey)
	}
	if !cfg.Search.HybridKeywordFallback {
		t.Error("expected hybrid_keyword_fallback=true")
	}
}

func TestParse_Invalid(t *testing.T) {
	if _, err := Parse([]byte("http: [")); err == nil {
		t.Error("expected YAML error")
	}
	if _, err := Parse([]byte("http:\n  port: 8080\n")); err == nil {
		t.Error("expected validation error")
	}
}

func TestLoad_Local(t *testing.T) {
	cfg, err := Load("local")
	if err != nil {
		t.Fatalf("local config must load: %v", err)
	}
	if cfg.HTTP.Port == 0 {
		t.Error("expected a port")
	}
}
