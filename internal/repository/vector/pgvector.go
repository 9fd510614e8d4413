package vector

import (
	"context"
	"fmt"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kailas-cloud/promptdex/internal/db/postgres"
	domvec "github.com/kailas-cloud/promptdex/internal/domain/vector"
)

// sqlStore is the consumer interface for the relational store (ISP).
type sqlStore interface {
	DB(ctx context.Context) *gorm.DB
}

// PGVector answers nearest-neighbour queries from the prompts.embedding
// column through the HNSW cosine index.
type PGVector struct {
	store sqlStore
}

// NewPGVector creates a pgvector-backed index.
func NewPGVector(s sqlStore) *PGVector {
	return &PGVector{store: s}
}

type neighborRow struct {
	ID       string
	Distance float64
}

// Nearest returns up to K neighbours, nearest first, with similarity >= MinScore.
func (p *PGVector) Nearest(ctx context.Context, q domvec.NearestQuery) ([]domvec.Neighbor, error) {
	if len(q.Vector) == 0 || q.K <= 0 {
		return nil, fmt.Errorf("nearest: vector and positive k are required")
	}
	vec := pgvector.NewVector(q.Vector)

	tx := p.store.DB(ctx).
		Table("prompts").
		Select("id, embedding <=> ? AS distance", vec).
		Where("embedding IS NOT NULL")
	if q.PublicOnly {
		tx = tx.Where("is_public")
	}
	if q.ExcludeOwner != "" {
		tx = tx.Where("owner_id <> ?", q.ExcludeOwner)
	}
	if len(q.ExcludeIDs) > 0 {
		tx = tx.Where("id::text NOT IN ?", q.ExcludeIDs)
	}

	var rows []neighborRow
	err := tx.Order(clause.OrderBy{Expression: clause.Expr{
		SQL:                "embedding <=> ?",
		Vars:               []any{vec},
		WithoutParentheses: true,
	}}).
		Limit(q.K).
		Scan(&rows).Error
	if err != nil {
		return nil, postgres.MapError("nearest", err)
	}

	return toNeighbors(rows, q.MinScore), nil
}

func toNeighbors(rows []neighborRow, minScore float64) []domvec.Neighbor {
	out := make([]domvec.Neighbor, 0, len(rows))
	for _, row := range rows {
		score := domvec.SimilarityFromDistance(row.Distance)
		if score < minScore {
			continue
		}
		out = append(out, domvec.Neighbor{ID: row.ID, Score: score})
	}
	return out
}
