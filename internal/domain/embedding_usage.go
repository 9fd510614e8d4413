package domain

import "context"

type embeddingUsageKey struct{}

// EmbeddingUsage collects token usage for a single HTTP request.
// The handler seeds the context, the embedder chain writes, the handler reads
// it back for the X-Embedding-Tokens response header.
type EmbeddingUsage struct {
	TotalTokens int
	Calls       int
	CacheHits   int
}

// NewContextWithUsage returns a context with an embedded usage collector.
func NewContextWithUsage(ctx context.Context) (context.Context, *EmbeddingUsage) {
	u := &EmbeddingUsage{}
	return context.WithValue(ctx, embeddingUsageKey{}, u), u
}

// UsageFromContext extracts the usage collector from context. Returns nil if not set.
func UsageFromContext(ctx context.Context) *EmbeddingUsage {
	u, _ := ctx.Value(embeddingUsageKey{}).(*EmbeddingUsage)
	return u
}

// AddTokens records one embedding call and the tokens it consumed.
func (u *EmbeddingUsage) AddTokens(n int) {
	if u != nil {
		u.TotalTokens += n
		u.Calls++
	}
}

// AddCacheHit records an embedding served from cache.
func (u *EmbeddingUsage) AddCacheHit() {
	if u != nil {
		u.Calls++
		u.CacheHits++
	}
}

// Used reports whether any embedding was requested during the call.
func (u *EmbeddingUsage) Used() bool {
	return u != nil && u.Calls > 0
}
