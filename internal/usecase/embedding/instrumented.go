package embedding

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/kailas-cloud/promptdex/internal/domain"
)

// InstrumentedEmbedder wraps Embedder with input limits, dimension checks, usage accounting and logging.
// Transport metrics (requests, duration, tokens) are recorded in transport/openai.
type InstrumentedEmbedder struct {
	inner         domain.Embedder
	provider      string
	model         string
	dimensions    int
	maxInputChars int
	logger        *zap.Logger
}

// NewInstrumentedEmbedder wraps an embedder with observability.
// dimensions <= 0 disables the dimension check, maxInputChars <= 0 disables truncation.
func NewInstrumentedEmbedder(
	inner domain.Embedder, provider string, cfg domain.VectorConfig, logger *zap.Logger,
) *InstrumentedEmbedder {
	return &InstrumentedEmbedder{
		inner:         inner,
		provider:      provider,
		model:         cfg.Model,
		dimensions:    cfg.Dimensions,
		maxInputChars: cfg.MaxInputChars,
		logger:        logger,
	}
}

// Embed truncates oversized input, delegates to the inner embedder, and records usage.
func (p *InstrumentedEmbedder) Embed(
	ctx context.Context, text string,
) (domain.EmbeddingResult, error) {
	text = p.truncate(text)

	start := time.Now()
	result, err := p.inner.Embed(ctx, text)
	duration := time.Since(start)

	if err != nil {
		p.logger.Error("Embedding request failed",
			zap.String("provider", p.provider),
			zap.String("model", p.model),
			zap.Duration("duration", duration),
			zap.Bool("retryable", domain.IsRetryable(err)),
			zap.Error(err),
		)
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}

	if p.dimensions > 0 && len(result.Embedding) != p.dimensions {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: got %d dimensions, want %d: %w",
			len(result.Embedding), p.dimensions, domain.ErrVectorDimMismatch)
	}
	if result.Model == "" {
		result.Model = p.model
	}

	domain.UsageFromContext(ctx).AddTokens(result.TotalTokens)

	p.logger.Debug("Embedding request completed",
		zap.String("provider", p.provider),
		zap.String("model", p.model),
		zap.Duration("duration", duration),
		zap.Int("dimensions", len(result.Embedding)),
		zap.Int("prompt_tokens", result.PromptTokens),
		zap.Int("total_tokens", result.TotalTokens),
	)

	return result, nil
}

// HealthCheck delegates to the inner embedder when it supports health checks.
func (p *InstrumentedEmbedder) HealthCheck(ctx context.Context) error {
	if hc, ok := p.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx) //nolint:wrapcheck // transparent decorator
	}
	return nil
}

func (p *InstrumentedEmbedder) truncate(text string) string {
	if p.maxInputChars <= 0 || utf8.RuneCountInString(text) <= p.maxInputChars {
		return text
	}
	p.logger.Debug("Embedding input truncated",
		zap.Int("runes", utf8.RuneCountInString(text)),
		zap.Int("max", p.maxInputChars),
	)
	return string([]rune(text)[:p.maxInputChars])
}
