// Package memoize is a best-effort cache-aside helper for engine results.
// Cache failures never fail the primary operation: a read error is a miss,
// a write error is logged and dropped.
package memoize

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/kailas-cloud/promptdex/internal/metrics"
)

// KeyPrefix namespaces every result cache key.
const KeyPrefix = "promptdex:"

// Namespaces of the recommendation caches. Search pages use their mode as namespace.
const (
	NamespaceProfile  = "profile"
	NamespaceRecs     = "recs"
	NamespaceSimilar  = "similar"
	NamespaceTrending = "trending"
)

// Cache is the TTL key-value collaborator.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Invalidate(ctx context.Context, pattern string) error
}

// Memo wraps a Cache with logging and lookup metrics. A nil Cache disables memoization.
type Memo struct {
	cache  Cache
	logger *zap.Logger
}

// New creates a Memo.
func New(cache Cache, logger *zap.Logger) *Memo {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Memo{cache: cache, logger: logger}
}

// Fetch returns the cached value under key or calls load and caches its result for ttl.
// Load errors are returned as-is and never cached.
func Fetch[T any](
	ctx context.Context, m *Memo, namespace, key string, ttl time.Duration,
	load func(context.Context) (T, error),
) (T, error) {
	return FetchIf(ctx, m, namespace, key, ttl, load, nil)
}

// FetchIf is Fetch with a keep predicate: values for which keep returns false are not stored.
func FetchIf[T any](
	ctx context.Context, m *Memo, namespace, key string, ttl time.Duration,
	load func(context.Context) (T, error), keep func(T) bool,
) (T, error) {
	if m == nil || m.cache == nil || ttl <= 0 {
		return load(ctx)
	}

	if v, ok := get[T](ctx, m, namespace, key); ok {
		return v, nil
	}

	v, err := load(ctx)
	if err != nil {
		return v, err
	}
	if keep == nil || keep(v) {
		m.set(ctx, key, v, ttl)
	}
	return v, nil
}

func get[T any](ctx context.Context, m *Memo, namespace, key string) (T, bool) {
	var zero T

	data, ok, err := m.cache.Get(ctx, key)
	if err != nil {
		lookup(namespace, "error")
		m.logger.Warn("Cache read failed", zap.String("key", key), zap.Error(err))
		return zero, false
	}
	if !ok {
		lookup(namespace, "miss")
		return zero, false
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		lookup(namespace, "error")
		m.logger.Warn("Cache entry undecodable", zap.String("key", key), zap.Error(err))
		return zero, false
	}
	lookup(namespace, "hit")
	return v, true
}

func (m *Memo) set(ctx context.Context, key string, v any, ttl time.Duration) {
	data, err := json.Marshal(v)
	if err != nil {
		m.logger.Warn("Cache entry unencodable", zap.String("key", key), zap.Error(err))
		return
	}
	if err := m.cache.Set(ctx, key, data, ttl); err != nil {
		m.logger.Warn("Cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// Invalidate drops every key or glob pattern given. Failures are logged only.
func (m *Memo) Invalidate(ctx context.Context, patterns ...string) {
	if m == nil || m.cache == nil {
		return
	}
	for _, p := range patterns {
		if err := m.cache.Invalidate(ctx, p); err != nil {
			m.logger.Warn("Cache invalidation failed", zap.String("pattern", p), zap.Error(err))
		}
	}
}

// Ping checks the cache backend; a disabled cache is healthy.
func (m *Memo) Ping(ctx context.Context) error {
	if m == nil || m.cache == nil {
		return nil
	}
	const probe = KeyPrefix + "health"
	if _, _, err := m.cache.Get(ctx, probe); err != nil {
		return fmt.Errorf("cache get: %w", err)
	}
	return nil
}

func lookup(namespace, result string) {
	metrics.CacheLookupsTotal.WithLabelValues(namespace, result).Inc()
}

// Key builds "promptdex:<namespace>:<hash>" where hash covers every part.
func Key(namespace string, parts ...any) string {
	return KeyPrefix + namespace + ":" + hashParts(parts...)
}

// ScopedKey builds "promptdex:<namespace>:<scope>:<hash>" so a whole scope can be
// dropped with ScopePattern.
func ScopedKey(namespace, scope string, parts ...any) string {
	return KeyPrefix + namespace + ":" + scope + ":" + hashParts(parts...)
}

// NamespacePattern matches every key of namespace.
func NamespacePattern(namespace string) string {
	return KeyPrefix + namespace + ":*"
}

// ScopePattern matches every ScopedKey of namespace and scope.
func ScopePattern(namespace, scope string) string {
	return KeyPrefix + namespace + ":" + scope + ":*"
}

// UserScope is a short stable digest of a user id, safe for key segments.
func UserScope(userID string) string {
	if userID == "" {
		return "anon"
	}
	h := sha256.Sum256([]byte(userID))
	return hex.EncodeToString(h[:8])
}

func hashParts(parts ...any) string {
	s := make([]string, len(parts))
	for i, p := range parts {
		s[i] = fmt.Sprint(p)
	}
	h := sha256.Sum256([]byte(strings.Join(s, "\x00")))
	return hex.EncodeToString(h[:16])
}
