package prompt

import (
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/kailas-cloud/promptdex/internal/db/postgres"
	domprompt "github.com/kailas-cloud/promptdex/internal/domain/prompt"
)

func toModel(p *domprompt.Prompt) postgres.Prompt {
	m := postgres.Prompt{
		ID:             p.ID(),
		OwnerID:        p.OwnerID(),
		Title:          p.Title(),
		Content:        p.Content(),
		Tags:           pq.StringArray(p.Tags()),
		IsPublic:       p.IsPublic(),
		EmbeddingModel: p.EmbeddingModel(),
		EmbeddedAt:     p.EmbeddedAt(),
		ViewCount:      p.Counters().Views,
		ForkCount:      p.Counters().Forks,
		UseCount:       p.Counters().Uses,
		LastViewedAt:   p.LastViewedAt(),
		CreatedAt:      p.CreatedAt(),
		UpdatedAt:      p.UpdatedAt(),
	}
	if m.Tags == nil {
		m.Tags = pq.StringArray{}
	}
	if p.HasEmbedding() {
		v := pgvector.NewVector(p.Embedding())
		m.Embedding = &v
	}
	return m
}

func toDomain(m *postgres.Prompt) domprompt.Prompt {
	var emb []float32
	if m.Embedding != nil {
		emb = m.Embedding.Slice()
	}
	tags := []string(m.Tags)
	if tags == nil {
		tags = []string{}
	}
	return domprompt.Reconstruct(
		m.ID, m.OwnerID, m.Title, m.Content, tags, m.IsPublic,
		emb, m.EmbeddingModel, m.EmbeddedAt,
		domprompt.Counters{Views: m.ViewCount, Forks: m.ForkCount, Uses: m.UseCount},
		m.LastViewedAt, m.CreatedAt, m.UpdatedAt,
	)
}
