package interaction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kailas-cloud/promptdex/internal/db/postgres"
	"github.com/kailas-cloud/promptdex/internal/domain"
	dominter "github.com/kailas-cloud/promptdex/internal/domain/interaction"
)

// store is the consumer interface for the relational store (ISP).
type store interface {
	DB(ctx context.Context) *gorm.DB
}

// Repo is the gorm-backed interaction log.
type Repo struct {
	store store
}

// New creates an interaction repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Record upserts the (user, prompt, type) row and bumps the prompt counter
// for that type in one transaction. The counter is incremented in SQL so
// concurrent records never lose updates. A viewed record also sets
// last_viewed_at.
func (r *Repo) Record(ctx context.Context, in dominter.Interaction) error {
	err := r.store.DB(ctx).Transaction(func(tx *gorm.DB) error {
		row := postgres.Interaction{
			UserID:    in.UserID,
			PromptID:  in.PromptID,
			Type:      string(in.Type),
			CreatedAt: in.At,
			UpdatedAt: in.At,
		}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "prompt_id"}, {Name: "type"}},
			DoUpdates: clause.Assignments(map[string]any{"updated_at": in.At}),
		}).Create(&row).Error
		if err != nil {
			return err
		}

		counter := in.Type.Counter()
		if counter == dominter.CounterNone {
			return nil
		}
		updates := map[string]any{
			string(counter): gorm.Expr(string(counter) + " + 1"),
		}
		if in.Type == dominter.Viewed {
			updates["last_viewed_at"] = in.At
		}
		res := tx.Model(&postgres.Prompt{}).Where("id = ?", in.PromptID).UpdateColumns(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrPromptNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrPromptNotFound) {
			return err
		}
		mapped := postgres.MapError("record interaction", err)
		if errors.Is(mapped, postgres.ErrForeignKeyViolation) || postgres.SQLState(err) == "22P02" {
			return fmt.Errorf("record interaction: %w", domain.ErrPromptNotFound)
		}
		return mapped
	}
	return nil
}

type signalRow struct {
	PromptID  string
	Type      string
	UpdatedAt time.Time
	Embedding *pgvector.Vector
}

// RecentSignals returns the user's most recent n interactions, newest first,
// joined to the prompt embedding (nil when not embedded yet).
func (r *Repo) RecentSignals(ctx context.Context, userID string, n int) ([]dominter.Signal, error) {
	var rows []signalRow
	err := r.store.DB(ctx).
		Table("interactions AS i").
		Select("i.prompt_id, i.type, i.updated_at, p.embedding").
		Joins("JOIN prompts AS p ON p.id = i.prompt_id").
		Where("i.user_id = ?", userID).
		Order("i.updated_at DESC").Order("i.id DESC").
		Limit(n).
		Scan(&rows).Error
	if err != nil {
		return nil, postgres.MapError("recent signals", err)
	}

	out := make([]dominter.Signal, 0, len(rows))
	for _, row := range rows {
		s := dominter.Signal{PromptID: row.PromptID, Type: dominter.Type(row.Type), At: row.UpdatedAt}
		if row.Embedding != nil {
			s.Embedding = row.Embedding.Slice()
		}
		out = append(out, s)
	}
	return out, nil
}

type countRow struct {
	PromptID string
	Type     string
	N        int64
}

// WindowCounts counts interactions on public prompts since the given time,
// grouped by prompt and type.
func (r *Repo) WindowCounts(ctx context.Context, since time.Time) ([]dominter.Count, error) {
	var rows []countRow
	err := r.store.DB(ctx).
		Table("interactions AS i").
		Select("i.prompt_id, i.type, COUNT(*) AS n").
		Joins("JOIN prompts AS p ON p.id = i.prompt_id").
		Where("p.is_public AND i.updated_at >= ?", since).
		Group("i.prompt_id, i.type").
		Scan(&rows).Error
	if err != nil {
		return nil, postgres.MapError("window counts", err)
	}

	out := make([]dominter.Count, len(rows))
	for i, row := range rows {
		out[i] = dominter.Count{PromptID: row.PromptID, Type: dominter.Type(row.Type), N: row.N}
	}
	return out, nil
}

// Find returns a single interaction row.
func (r *Repo) Find(ctx context.Context, userID, promptID string, t dominter.Type) (dominter.Interaction, error) {
	var row postgres.Interaction
	err := r.store.DB(ctx).
		Where("user_id = ? AND prompt_id = ? AND type = ?", userID, promptID, string(t)).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dominter.Interaction{}, domain.ErrNotFound
		}
		return dominter.Interaction{}, postgres.MapError("find interaction", err)
	}
	return dominter.Interaction{
		UserID: row.UserID, PromptID: row.PromptID, Type: dominter.Type(row.Type), At: row.UpdatedAt,
	}, nil
}

// CountFor returns how many rows exist for the triple. Upserts keep it at most 1.
func (r *Repo) CountFor(ctx context.Context, userID, promptID string, t dominter.Type) (int64, error) {
	var n int64
	err := r.store.DB(ctx).Model(&postgres.Interaction{}).
		Where("user_id = ? AND prompt_id = ? AND type = ?", userID, promptID, string(t)).
		Count(&n).Error
	if err != nil {
		return 0, postgres.MapError("count interactions", err)
	}
	return n, nil
}
