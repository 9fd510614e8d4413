package vector

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/kailas-cloud/promptdex/internal/db"
	"github.com/kailas-cloud/promptdex/internal/db/redis"
	domprompt "github.com/kailas-cloud/promptdex/internal/domain/prompt"
	domvec "github.com/kailas-cloud/promptdex/internal/domain/vector"
)

// Hash field names of an indexed prompt.
const (
	fieldID     = "id"
	fieldOwner  = "owner"
	fieldPublic = "public"
	fieldVector = "vector"
)

// redisStore is the consumer interface for the Redis search store (ISP).
type redisStore interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	Del(ctx context.Context, keys ...string) error
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

// RedisIndexConfig sizes the FT index.
type RedisIndexConfig struct {
	// Prefix namespaces the index name and the document keys.
	Prefix         string
	Dimensions     int
	Algorithm      db.VectorAlgorithm
	M              int
	EFConstruction int
}

// RedisIndex mirrors prompt embeddings into a Redis/Valkey FT index.
// Postgres stays the source of truth.
type RedisIndex struct {
	store redisStore
	cfg   RedisIndexConfig
}

// NewRedisIndex creates a Redis-backed vector index.
func NewRedisIndex(s redisStore, cfg RedisIndexConfig) *RedisIndex {
	if cfg.Prefix == "" {
		cfg.Prefix = "promptdex:vec"
	}
	return &RedisIndex{store: s, cfg: cfg}
}

func (r *RedisIndex) indexName() string { return r.cfg.Prefix }

func (r *RedisIndex) key(id string) string { return r.cfg.Prefix + ":" + id }

// EnsureIndex creates the FT index when absent.
func (r *RedisIndex) EnsureIndex(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, r.indexName())
	if err != nil {
		return fmt.Errorf("check index: %w", err)
	}
	if exists {
		return nil
	}

	def, err := db.NewIndex(r.indexName()).
		Prefix(r.cfg.Prefix+":").
		Tag(fieldID).
		Tag(fieldOwner).
		Tag(fieldPublic).
		Vector(fieldVector, r.cfg.Dimensions, r.cfg.Algorithm, db.DistanceCosine, r.cfg.M, r.cfg.EFConstruction).
		Build()
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}
	if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}

// Upsert indexes the prompt's current embedding, or removes it when the
// prompt has none.
func (r *RedisIndex) Upsert(ctx context.Context, p *domprompt.Prompt) error {
	if !p.HasEmbedding() {
		return r.Remove(ctx, p.ID())
	}
	if len(p.Embedding()) != r.cfg.Dimensions {
		return fmt.Errorf("index %s: got %d dims, want %d", p.ID(), len(p.Embedding()), r.cfg.Dimensions)
	}
	fields := map[string]string{
		fieldID:     p.ID(),
		fieldOwner:  p.OwnerID(),
		fieldPublic: strconv.FormatBool(p.IsPublic()),
		fieldVector: redis.VectorToBytes(p.Embedding()),
	}
	if err := r.store.HSet(ctx, r.key(p.ID()), fields); err != nil {
		return fmt.Errorf("index %s: %w", p.ID(), err)
	}
	return nil
}

// Remove drops a prompt from the index.
func (r *RedisIndex) Remove(ctx context.Context, id string) error {
	if err := r.store.Del(ctx, r.key(id)); err != nil {
		return fmt.Errorf("unindex %s: %w", id, err)
	}
	return nil
}

// Nearest returns up to K neighbours, nearest first, with similarity >= MinScore.
func (r *RedisIndex) Nearest(ctx context.Context, q domvec.NearestQuery) ([]domvec.Neighbor, error) {
	if len(q.Vector) == 0 || q.K <= 0 {
		return nil, fmt.Errorf("nearest: vector and positive k are required")
	}

	var filters []db.TagFilter
	if q.PublicOnly {
		filters = append(filters, db.TagFilter{Field: fieldPublic, Values: []string{"true"}})
	}
	if q.ExcludeOwner != "" {
		filters = append(filters, db.TagFilter{Field: fieldOwner, Values: []string{q.ExcludeOwner}, Negate: true})
	}
	if len(q.ExcludeIDs) > 0 {
		filters = append(filters, db.TagFilter{Field: fieldID, Values: q.ExcludeIDs, Negate: true})
	}

	res, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    r.indexName(),
		VectorField:  fieldVector,
		Vector:       q.Vector,
		K:            q.K,
		Filters:      filters,
		ReturnFields: []string{fieldID},
	})
	if err != nil {
		return nil, fmt.Errorf("nearest: %w", err)
	}

	out := make([]domvec.Neighbor, 0, len(res.Entries))
	for _, e := range res.Entries {
		if e.Score < q.MinScore {
			continue
		}
		id := e.Fields[fieldID]
		if id == "" {
			id = strings.TrimPrefix(e.Key, r.cfg.Prefix+":")
		}
		out = append(out, domvec.Neighbor{ID: id, Score: e.Score})
	}
	return out, nil
}
