package promptdex

import (
	"context"
	"net/http"
)

type contentBody struct {
	Content string `json:"content"`
}

// Generate drafts a prompt from a short description.
// Servers without a completion model return ErrNotImplemented.
func (c *Client) Generate(ctx context.Context, description string) (string, error) {
	in := struct {
		Description string `json:"description"`
	}{description}

	var out contentBody
	if _, err := c.call(ctx, "generate", http.MethodPost, "/v1/authoring/generate", nil, in, &out); err != nil {
		return "", err
	}
	return out.Content, nil
}

// Refine rewrites a prompt, optionally guided by feedback.
func (c *Client) Refine(ctx context.Context, content, feedback string) (string, error) {
	in := struct {
		Content  string `json:"content"`
		Feedback string `json:"feedback,omitempty"`
	}{content, feedback}

	var out contentBody
	if _, err := c.call(ctx, "refine", http.MethodPost, "/v1/authoring/refine", nil, in, &out); err != nil {
		return "", err
	}
	return out.Content, nil
}

// SuggestTags proposes normalized tags for a prompt.
func (c *Client) SuggestTags(ctx context.Context, title, content string) ([]string, error) {
	in := struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}{title, content}

	var out struct {
		Tags []string `json:"tags"`
	}
	if _, err := c.call(ctx, "suggest_tags", http.MethodPost, "/v1/authoring/tags", nil, in, &out); err != nil {
		return nil, err
	}
	return out.Tags, nil
}
