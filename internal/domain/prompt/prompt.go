package prompt

import (
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"
)

// Prompt limits.
const (
	MaxTitleRunes  = 200
	MaxContentSize = 32 * 1024
	MaxTags        = 20
	MaxTagRunes    = 50
)

// Prompt is the prompt aggregate.
type Prompt struct {
	id             string
	title          string
	content        string
	tags           []string
	ownerID        string
	public         bool
	embedding      []float32
	embeddingModel string
	embeddedAt     *time.Time
	counters       Counters
	lastViewedAt   *time.Time
	createdAt      time.Time
	updatedAt      time.Time
}

// Counters are interaction-derived usage counters.
type Counters struct {
	Views int64
	Forks int64
	Uses  int64
}

// New validates and creates a Prompt owned by ownerID.
// Tags are normalized: trimmed, lower-cased, de-duplicated in first-seen order.
func New(id, ownerID, title, content string, tags []string, public bool, now time.Time) (Prompt, error) {
	if id == "" {
		return Prompt{}, fmt.Errorf("prompt ID is required")
	}
	if ownerID == "" {
		return Prompt{}, fmt.Errorf("owner is required")
	}
	p := Prompt{
		id:        id,
		ownerID:   ownerID,
		public:    public,
		createdAt: now,
		updatedAt: now,
	}
	if err := p.apply(title, content, tags); err != nil {
		return Prompt{}, err
	}
	return p, nil
}

// Reconstruct creates a Prompt without validation (storage hydration).
func Reconstruct(
	id, ownerID, title, content string, tags []string, public bool,
	embedding []float32, embeddingModel string, embeddedAt *time.Time,
	counters Counters, lastViewedAt *time.Time, createdAt, updatedAt time.Time,
) Prompt {
	return Prompt{
		id: id, ownerID: ownerID, title: title, content: content, tags: tags, public: public,
		embedding: embedding, embeddingModel: embeddingModel, embeddedAt: embeddedAt,
		counters: counters, lastViewedAt: lastViewedAt, createdAt: createdAt, updatedAt: updatedAt,
	}
}

// Revise returns a copy with new editable fields, validated like New.
// The embedding is dropped when the embedded text changed.
func (p *Prompt) Revise(title, content string, tags []string, public bool, now time.Time) (Prompt, error) {
	next := *p
	next.public = public
	next.updatedAt = now
	if err := next.apply(title, content, tags); err != nil {
		return Prompt{}, err
	}
	if next.NeedsReembedding(p) {
		next.embedding = nil
		next.embeddingModel = ""
		next.embeddedAt = nil
	}
	return next, nil
}

func (p *Prompt) apply(title, content string, tags []string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return fmt.Errorf("title is required")
	}
	if utf8.RuneCountInString(title) > MaxTitleRunes {
		return fmt.Errorf("title too long (max %d chars)", MaxTitleRunes)
	}
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("content is required")
	}
	if len(content) > MaxContentSize {
		return fmt.Errorf("content too large (max %d bytes)", MaxContentSize)
	}
	normalized, err := NormalizeTags(tags)
	if err != nil {
		return err
	}
	p.title = title
	p.content = content
	p.tags = normalized
	return nil
}

// NormalizeTags trims, lower-cases and de-duplicates tags, keeping first-seen order.
func NormalizeTags(tags []string) ([]string, error) {
	out := make([]string, 0, len(tags))
	for _, raw := range tags {
		t := strings.ToLower(strings.TrimSpace(raw))
		if t == "" || slices.Contains(out, t) {
			continue
		}
		if utf8.RuneCountInString(t) > MaxTagRunes {
			return nil, fmt.Errorf("tag %q too long (max %d chars)", t, MaxTagRunes)
		}
		out = append(out, t)
	}
	if len(out) > MaxTags {
		return nil, fmt.Errorf("too many tags (max %d)", MaxTags)
	}
	return out, nil
}

// ID returns the prompt identifier.
func (p *Prompt) ID() string { return p.id }

// Title returns the prompt title.
func (p *Prompt) Title() string { return p.title }

// Content returns the prompt body.
func (p *Prompt) Content() string { return p.content }

// Tags returns the normalized tags in display order.
func (p *Prompt) Tags() []string { return p.tags }

// OwnerID returns the owning user.
func (p *Prompt) OwnerID() string { return p.ownerID }

// IsPublic reports whether the prompt is visible to everyone.
func (p *Prompt) IsPublic() bool { return p.public }

// Embedding returns the embedding vector, nil until computed.
func (p *Prompt) Embedding() []float32 { return p.embedding }

// EmbeddingModel returns the model that produced the embedding.
func (p *Prompt) EmbeddingModel() string { return p.embeddingModel }

// EmbeddedAt returns when the embedding was computed.
func (p *Prompt) EmbeddedAt() *time.Time { return p.embeddedAt }

// Counters returns interaction-derived counters.
func (p *Prompt) Counters() Counters { return p.counters }

// LastViewedAt returns the last view time.
func (p *Prompt) LastViewedAt() *time.Time { return p.lastViewedAt }

// CreatedAt returns the creation time.
func (p *Prompt) CreatedAt() time.Time { return p.createdAt }

// UpdatedAt returns the last modification time.
func (p *Prompt) UpdatedAt() time.Time { return p.updatedAt }

// HasEmbedding reports whether a vector has been computed.
func (p *Prompt) HasEmbedding() bool { return len(p.embedding) > 0 }

// SetEmbedding sets the vector in place.
func (p *Prompt) SetEmbedding(v []float32, model string, at time.Time) {
	p.embedding = v
	p.embeddingModel = model
	p.embeddedAt = &at
}

// WithoutEmbedding returns a copy with the vector dropped; model and timestamp are kept.
func (p *Prompt) WithoutEmbedding() Prompt {
	c := *p
	c.embedding = nil
	return c
}

// VisibleTo reports whether userID may read the prompt. Empty userID is anonymous.
func (p *Prompt) VisibleTo(userID string) bool {
	return p.public || (userID != "" && p.ownerID == userID)
}

// EmbeddingText is the text fed to the embedding model.
func (p *Prompt) EmbeddingText() string {
	var b strings.Builder
	b.WriteString(p.title)
	b.WriteString("\n\n")
	b.WriteString(p.content)
	if len(p.tags) > 0 {
		b.WriteString("\n\nTags: ")
		b.WriteString(strings.Join(p.tags, ", "))
	}
	return b.String()
}

// NeedsReembedding reports whether the embedded text differs from prev.
func (p *Prompt) NeedsReembedding(prev *Prompt) bool {
	if prev == nil {
		return true
	}
	return p.title != prev.title || p.content != prev.content || !slices.Equal(p.tags, prev.tags)
}
