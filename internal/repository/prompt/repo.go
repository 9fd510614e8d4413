package prompt

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	"github.com/kailas-cloud/promptdex/internal/db/postgres"
	"github.com/kailas-cloud/promptdex/internal/domain"
	domprompt "github.com/kailas-cloud/promptdex/internal/domain/prompt"
)

// store is the consumer interface for the relational store (ISP).
type store interface {
	DB(ctx context.Context) *gorm.DB
}

// Repo is the gorm-backed prompt repository.
type Repo struct {
	store store
}

// New creates a prompt repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Create inserts a new prompt.
func (r *Repo) Create(ctx context.Context, p *domprompt.Prompt) error {
	m := toModel(p)
	if err := r.store.DB(ctx).Create(&m).Error; err != nil {
		return postgres.MapError("create prompt", err)
	}
	return nil
}

// Get returns a prompt by ID.
func (r *Repo) Get(ctx context.Context, id string) (domprompt.Prompt, error) {
	var m postgres.Prompt
	err := r.store.DB(ctx).Where("id = ?", id).Take(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) || isInvalidUUID(err) {
			return domprompt.Prompt{}, domain.ErrPromptNotFound
		}
		return domprompt.Prompt{}, postgres.MapError("get prompt", err)
	}
	return toDomain(&m), nil
}

// GetMany returns the prompts for ids in the order of ids. Missing ids are skipped.
func (r *Repo) GetMany(ctx context.Context, ids []string) ([]domprompt.Prompt, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []postgres.Prompt
	if err := r.store.DB(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		if isInvalidUUID(err) {
			return nil, nil
		}
		return nil, postgres.MapError("get prompts", err)
	}

	byID := make(map[string]*postgres.Prompt, len(rows))
	for i := range rows {
		byID[rows[i].ID] = &rows[i]
	}
	out := make([]domprompt.Prompt, 0, len(rows))
	for _, id := range ids {
		if m, ok := byID[id]; ok {
			out = append(out, toDomain(m))
			delete(byID, id)
		}
	}
	return out, nil
}

// Update persists editable fields and the embedding state of p.
func (r *Repo) Update(ctx context.Context, p *domprompt.Prompt) error {
	m := toModel(p)
	res := r.store.DB(ctx).Model(&postgres.Prompt{}).Where("id = ?", p.ID()).Updates(map[string]any{
		"title":           m.Title,
		"content":         m.Content,
		"tags":            m.Tags,
		"is_public":       m.IsPublic,
		"embedding":       m.Embedding,
		"embedding_model": m.EmbeddingModel,
		"embedded_at":     m.EmbeddedAt,
		"updated_at":      m.UpdatedAt,
	})
	if res.Error != nil {
		return postgres.MapError("update prompt", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrPromptNotFound
	}
	return nil
}

// SetEmbedding stores a freshly computed embedding.
func (r *Repo) SetEmbedding(ctx context.Context, id string, vec []float32, model string, at time.Time) error {
	res := r.store.DB(ctx).Model(&postgres.Prompt{}).Where("id = ?", id).Updates(map[string]any{
		"embedding":       pgvector.NewVector(vec),
		"embedding_model": model,
		"embedded_at":     at,
	})
	if res.Error != nil {
		return postgres.MapError("set embedding", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrPromptNotFound
	}
	return nil
}

// Delete removes a prompt and, via cascade, its interactions.
func (r *Repo) Delete(ctx context.Context, id string) error {
	res := r.store.DB(ctx).Where("id = ?", id).Delete(&postgres.Prompt{})
	if res.Error != nil {
		return postgres.MapError("delete prompt", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrPromptNotFound
	}
	return nil
}

// KeywordSearch matches query case-insensitively as a substring of title or
// content, or exactly against a tag. Only prompts visible to userID are
// returned (public, or owned when userID is set), newest first.
func (r *Repo) KeywordSearch(ctx context.Context, query, userID string, limit int) ([]domprompt.Prompt, error) {
	pattern := "%" + likeEscaper.Replace(query) + "%"
	tag := strings.ToLower(strings.TrimSpace(query))

	q := r.store.DB(ctx).
		Where(`(title ILIKE ? ESCAPE '\' OR content ILIKE ? ESCAPE '\' OR ? = ANY(tags))`, pattern, pattern, tag)
	q = visibleTo(q, userID)

	var rows []postgres.Prompt
	if err := q.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, postgres.MapError("keyword search", err)
	}
	return toDomainSlice(rows), nil
}

// TopViewed returns public prompts by lifetime views, ties by id.
func (r *Repo) TopViewed(ctx context.Context, limit int) ([]domprompt.Prompt, error) {
	var rows []postgres.Prompt
	err := r.store.DB(ctx).
		Where("is_public").
		Order("view_count DESC").Order("id ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, postgres.MapError("top viewed", err)
	}
	return toDomainSlice(rows), nil
}

// ListWithoutEmbedding returns up to limit prompts still missing an embedding, oldest first.
func (r *Repo) ListWithoutEmbedding(ctx context.Context, limit int) ([]domprompt.Prompt, error) {
	var rows []postgres.Prompt
	err := r.store.DB(ctx).
		Where("embedding IS NULL").
		Order("created_at ASC").Order("id ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, postgres.MapError("list without embedding", err)
	}
	return toDomainSlice(rows), nil
}

// ListEmbedded pages through embedded prompts by id, for re-indexing.
func (r *Repo) ListEmbedded(ctx context.Context, afterID string, limit int) ([]domprompt.Prompt, error) {
	q := r.store.DB(ctx).Where("embedding IS NOT NULL")
	if afterID != "" {
		q = q.Where("id > ?", afterID)
	}
	var rows []postgres.Prompt
	if err := q.Order("id ASC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, postgres.MapError("list embedded", err)
	}
	return toDomainSlice(rows), nil
}

func visibleTo(q *gorm.DB, userID string) *gorm.DB {
	if userID == "" {
		return q.Where("is_public")
	}
	return q.Where("(is_public OR owner_id = ?)", userID)
}

func toDomainSlice(rows []postgres.Prompt) []domprompt.Prompt {
	out := make([]domprompt.Prompt, len(rows))
	for i := range rows {
		out[i] = toDomain(&rows[i])
	}
	return out
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// isInvalidUUID reports a malformed id in a uuid comparison (SQLSTATE 22P02).
func isInvalidUUID(err error) bool {
	return postgres.SQLState(err) == "22P02"
}
