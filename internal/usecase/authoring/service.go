package authoring

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/kailas-cloud/promptdex/internal/domain"
	domprompt "github.com/kailas-cloud/promptdex/internal/domain/prompt"
)

// MaxInstructionRunes bounds the free-text instruction of Generate and Refine.
const MaxInstructionRunes = 4000

const (
	generateSystem = "You write prompts for large language models. " +
		"Return only the prompt text, no preamble and no surrounding quotes."
	refineSystem = "You improve prompts for large language models. " +
		"Keep the author's intent, tighten the wording and make the expected output explicit. " +
		"Return only the improved prompt text."
	tagsSystem = "You label prompts with short topical tags. " +
		"Return a comma-separated list of at most %d lowercase tags and nothing else."
)

// Config tunes completion calls.
type Config struct {
	MaxTokens   int
	Temperature float32
	MaxTags     int
}

// DefaultConfig returns the default authoring settings.
func DefaultConfig() Config {
	return Config{MaxTokens: 1024, Temperature: 0.7, MaxTags: 5}
}

// Service provides AI-assisted prompt authoring.
type Service struct {
	completer Completer
	cfg       Config
	logger    *zap.Logger
}

// New creates an authoring service.
func New(completer Completer, cfg Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	def := DefaultConfig()
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = def.MaxTokens
	}
	if cfg.MaxTags <= 0 || cfg.MaxTags > domprompt.MaxTags {
		cfg.MaxTags = def.MaxTags
	}
	return &Service{completer: completer, cfg: cfg, logger: logger}
}

// Generate drafts a new prompt from a description of what it should do.
func (s *Service) Generate(ctx context.Context, description string) (string, error) {
	description, err := instruction("description", description)
	if err != nil {
		return "", err
	}
	return s.complete(ctx, "generate", generateSystem, description)
}

// Refine rewrites content, optionally steered by feedback.
func (s *Service) Refine(ctx context.Context, content, feedback string) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", domain.Invalidf("content is required")
	}
	if len(content) > domprompt.MaxContentSize {
		return "", domain.Invalidf("content too large (max %d bytes)", domprompt.MaxContentSize)
	}
	user := "Prompt:\n" + content
	if strings.TrimSpace(feedback) != "" {
		fb, err := instruction("feedback", feedback)
		if err != nil {
			return "", err
		}
		user += "\n\nRequested changes:\n" + fb
	}
	return s.complete(ctx, "refine", refineSystem, user)
}

// SuggestTags proposes normalized tags for a prompt.
func (s *Service) SuggestTags(ctx context.Context, title, content string) ([]string, error) {
	if strings.TrimSpace(title) == "" && strings.TrimSpace(content) == "" {
		return nil, domain.Invalidf("title or content is required")
	}
	if len(content) > domprompt.MaxContentSize {
		return nil, domain.Invalidf("content too large (max %d bytes)", domprompt.MaxContentSize)
	}
	text, err := s.complete(ctx, "tags",
		fmt.Sprintf(tagsSystem, s.cfg.MaxTags),
		"Title: "+strings.TrimSpace(title)+"\n\n"+content)
	if err != nil {
		return nil, err
	}
	return parseTags(text, s.cfg.MaxTags), nil
}

func (s *Service) complete(ctx context.Context, op, system, user string) (string, error) {
	res, err := s.completer.Complete(ctx, domain.CompletionRequest{
		System:      system,
		User:        user,
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
	})
	if err != nil {
		s.logger.Warn("Completion failed", zap.String("op", op), zap.Error(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}
	text := strings.TrimSpace(res.Text)
	if text == "" {
		return "", fmt.Errorf("%s: empty completion: %w", op, domain.ErrCompletionUnavailable)
	}
	return text, nil
}

func instruction(name, s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", domain.Invalidf("%s is required", name)
	}
	if utf8.RuneCountInString(s) > MaxInstructionRunes {
		return "", domain.Invalidf("%s too long (max %d chars)", name, MaxInstructionRunes)
	}
	return s, nil
}

// parseTags splits model output on commas and newlines, strips list markers and
// quotes, and keeps up to max valid tags.
func parseTags(text string, limit int) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool { return r == ',' || r == '\n' })
	raw := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(stripListMarker(strings.TrimSpace(f)), "\"'`#")
		if f == "" || utf8.RuneCountInString(f) > domprompt.MaxTagRunes {
			continue
		}
		raw = append(raw, f)
	}
	tags, err := domprompt.NormalizeTags(raw)
	if err != nil {
		// Only the tag count can fail here.
		tags, _ = domprompt.NormalizeTags(raw[:domprompt.MaxTags])
	}
	if len(tags) > limit {
		tags = tags[:limit]
	}
	return tags
}

// stripListMarker removes a leading "-", "*" or "1." style marker.
func stripListMarker(s string) string {
	s = strings.TrimLeft(s, "-* ")
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i > 0 && i < len(s) && (s[i] == '.' || s[i] == ')') {
		s = s[i+1:]
	}
	return strings.TrimSpace(s)
}
