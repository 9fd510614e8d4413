package postgres

import (
	"time"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
)

// Prompt is the prompts table row.
type Prompt struct {
	ID             string           `gorm:"primaryKey;type:uuid"`
	OwnerID        string           `gorm:"type:text;not null;index"`
	Title          string           `gorm:"type:text;not null"`
	Content        string           `gorm:"type:text;not null"`
	Tags           pq.StringArray   `gorm:"type:text[];not null;default:'{}'"`
	IsPublic       bool             `gorm:"not null;default:false;index"`
	Embedding      *pgvector.Vector `gorm:"-:migration"`
	EmbeddingModel string           `gorm:"type:text;not null;default:''"`
	EmbeddedAt     *time.Time
	ViewCount      int64 `gorm:"not null;default:0"`
	ForkCount      int64 `gorm:"not null;default:0"`
	UseCount       int64 `gorm:"not null;default:0"`
	LastViewedAt   *time.Time
	CreatedAt      time.Time `gorm:"not null;index:idx_prompts_created,sort:desc"`
	UpdatedAt      time.Time `gorm:"not null"`
}

// TableName pins the table name.
func (Prompt) TableName() string { return "prompts" }

// Interaction is one (user, prompt, type) row; repeats refresh UpdatedAt.
type Interaction struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	UserID    string    `gorm:"type:text;not null;uniqueIndex:uq_interactions_user_prompt_type,priority:1;index:idx_interactions_user_recent,priority:1"`
	PromptID  string    `gorm:"type:uuid;not null;uniqueIndex:uq_interactions_user_prompt_type,priority:2"`
	Type      string    `gorm:"type:text;not null;uniqueIndex:uq_interactions_user_prompt_type,priority:3"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null;index:idx_interactions_user_recent,priority:2,sort:desc;index:idx_interactions_updated"`
	Prompt    *Prompt   `gorm:"foreignKey:PromptID;constraint:OnDelete:CASCADE"`
}

// TableName pins the table name.
func (Interaction) TableName() string { return "interactions" }
