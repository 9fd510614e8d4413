package vector

import (
	"context"
	"testing"
	"time"

	"github.com/kailas-cloud/promptdex/internal/db"
	domprompt "github.com/kailas-cloud/promptdex/internal/domain/prompt"
	domvec "github.com/kailas-cloud/promptdex/internal/domain/vector"
)

func testIndex(f *fakeRedis) *RedisIndex {
	return NewRedisIndex(f, RedisIndexConfig{Prefix: "pd:vec", Dimensions: 2, Algorithm: db.VectorHNSW})
}

func TestRedisIndex_EnsureIndex(t *testing.T) {
	f := newFakeRedis()
	idx := testIndex(f)

	if err := idx.EnsureIndex(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.created == nil || f.created.Name != "pd:vec" || f.created.Prefixes[0] != "pd:vec:" {
		t.Fatalf("index not created as expected: %+v", f.created)
	}

	f.created = nil
	f.indexExists = true
	if err := idx.EnsureIndex(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.created != nil {
		t.Error("existing index must not be recreated")
	}
}

func TestRedisIndex_EnsureIndex_RaceIsTolerated(t *testing.T) {
	f := newFakeRedis()
	f.createErr = db.ErrIndexExists
	if err := testIndex(f).EnsureIndex(context.Background()); err != nil {
		t.Fatalf("ErrIndexExists must be tolerated, got %v", err)
	}
}

func TestRedisIndex_UpsertAndRemove(t *testing.T) {
	f := newFakeRedis()
	idx := testIndex(f)
	ctx := context.Background()

	p, _ := domprompt.New("p1", "alice", "T", "C", nil, true, time.Now())
	p.SetEmbedding([]float32{0.5, 0.5}, "m", time.Now())

	if err := idx.Upsert(ctx, &p); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	h := f.hashes["pd:vec:p1"]
	if h["id"] != "p1" || h["owner"] != "alice" || h["public"] != "true" || len(h["vector"]) != 8 {
		t.Errorf("unexpected hash: %v", h)
	}

	wrong, _ := domprompt.New("p2", "alice", "T", "C", nil, true, time.Now())
	wrong.SetEmbedding([]float32{1, 2, 3}, "m", time.Now())
	if err := idx.Upsert(ctx, &wrong); err == nil {
		t.Error("expected dimension error")
	}

	bare, _ := p.Revise("New title", "C", nil, true, time.Now())
	if err := idx.Upsert(ctx, &bare); err != nil {
		t.Fatalf("upsert bare: %v", err)
	}
	if _, ok := f.hashes["pd:vec:p1"]; ok {
		t.Error("prompt without embedding must be removed from the index")
	}
}

func TestRedisIndex_Nearest(t *testing.T) {
	f := newFakeRedis()
	f.result = &db.SearchResult{Total: 3, Entries: []db.SearchEntry{
		{Key: "pd:vec:a", Score: 0.9, Fields: map[string]string{"id": "a"}},
		{Key: "pd:vec:b", Score: 0.5, Fields: map[string]string{}},
		{Key: "pd:vec:c", Score: 0.05, Fields: map[string]string{"id": "c"}},
	}}
	idx := testIndex(f)

	got, err := idx.Nearest(context.Background(), domvec.NearestQuery{
		Vector:       []float32{1, 0},
		K:            6,
		MinScore:     0.1,
		PublicOnly:   true,
		ExcludeOwner: "alice",
		ExcludeIDs:   []string{"x", "y"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "b" {
		t.Fatalf("got %+v, want a, b (c under threshold)", got)
	}

	q := f.lastQuery
	if q.K != 6 || q.IndexName != "pd:vec" || len(q.Filters) != 3 {
		t.Fatalf("unexpected query: %+v", q)
	}
	if !q.Filters[1].Negate || q.Filters[1].Values[0] != "alice" {
		t.Errorf("owner filter = %+v", q.Filters[1])
	}
	if !q.Filters[2].Negate || len(q.Filters[2].Values) != 2 {
		t.Errorf("exclusion filter = %+v", q.Filters[2])
	}
}

func TestRedisIndex_NearestValidation(t *testing.T) {
	idx := testIndex(newFakeRedis())
	if _, err := idx.Nearest(context.Background(), domvec.NearestQuery{K: 1}); err == nil {
		t.Error("expected error for empty vector")
	}
}

func TestToNeighbors(t *testing.T) {
	rows := []neighborRow{{ID: "a", Distance: 0.2}, {ID: "b", Distance: 0.95}, {ID: "c", Distance: 1.3}}
	got := toNeighbors(rows, 0.1)
	if len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("got %+v", got)
	}
	if got[0].Score < 0.79 || got[0].Score > 0.81 {
		t.Errorf("score = %v, want 0.8", got[0].Score)
	}
}
