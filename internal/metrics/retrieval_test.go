package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterRetrievalMetrics_Idempotent(t *testing.T) {
	RegisterRetrievalMetrics()
	RegisterRetrievalMetrics()

	before := testutil.ToFloat64(CacheLookupsTotal.WithLabelValues("search", "hit"))
	CacheLookupsTotal.WithLabelValues("search", "hit").Inc()
	after := testutil.ToFloat64(CacheLookupsTotal.WithLabelValues("search", "hit"))
	if after-before != 1 {
		t.Errorf("expected counter delta 1, got %f", after-before)
	}
}

func TestRecommendationFallbacks(t *testing.T) {
	before := testutil.ToFloat64(RecommendationFallbacksTotal)
	RecommendationFallbacksTotal.Inc()
	if got := testutil.ToFloat64(RecommendationFallbacksTotal); got-before != 1 {
		t.Errorf("expected delta 1, got %f", got-before)
	}
}
