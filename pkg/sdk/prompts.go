package promptdex

import (
	"context"
	"net/http"
	"net/url"
)

// PromptService manages prompts owned by the caller.
type PromptService struct {
	c *Client
}

// Prompts returns the prompt management service.
func (c *Client) Prompts() *PromptService {
	return &PromptService{c: c}
}

// Create stores a new prompt owned by the caller.
func (s *PromptService) Create(ctx context.Context, in PromptInput) (Prompt, error) {
	var p Prompt
	if _, err := s.c.call(ctx, "prompt_create", http.MethodPost, "/v1/prompts", nil, in, &p); err != nil {
		return Prompt{}, err
	}
	return p, nil
}

// Get returns a prompt visible to the caller.
func (s *PromptService) Get(ctx context.Context, id string) (Prompt, error) {
	var p Prompt
	if _, err := s.c.call(ctx, "prompt_get", http.MethodGet, promptPath(id), nil, nil, &p); err != nil {
		return Prompt{}, err
	}
	return p, nil
}

// Update replaces a prompt the caller owns.
func (s *PromptService) Update(ctx context.Context, id string, in PromptInput) (Prompt, error) {
	var p Prompt
	if _, err := s.c.call(ctx, "prompt_update", http.MethodPut, promptPath(id), nil, in, &p); err != nil {
		return Prompt{}, err
	}
	return p, nil
}

// Delete removes a prompt the caller owns.
func (s *PromptService) Delete(ctx context.Context, id string) error {
	_, err := s.c.call(ctx, "prompt_delete", http.MethodDelete, promptPath(id), nil, nil, nil)
	return err
}

func promptPath(id string) string {
	return "/v1/prompts/" + url.PathEscape(id)
}
