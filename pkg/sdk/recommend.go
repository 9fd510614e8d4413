package promptdex

import (
	"context"
	"net/http"
	"net/url"
)

// Recommendations returns prompts similar to what the caller engaged with,
// or trending prompts when there is no history. exclude ids are never returned.
func (c *Client) Recommendations(ctx context.Context, limit int, exclude ...string) (Recommendations, error) {
	q := url.Values{}
	setLimit(q, limit)
	for _, id := range exclude {
		q.Add("exclude", id)
	}

	var recs Recommendations
	if _, err := c.call(ctx, "recommendations", http.MethodGet, "/v1/recommendations", q, nil, &recs); err != nil {
		return Recommendations{}, err
	}
	return recs, nil
}

// Similar returns the nearest neighbours of a prompt.
func (c *Client) Similar(ctx context.Context, promptID string, limit int) ([]Item, error) {
	q := url.Values{}
	setLimit(q, limit)

	var list itemList
	path := "/v1/prompts/" + url.PathEscape(promptID) + "/similar"
	if _, err := c.call(ctx, "similar", http.MethodGet, path, q, nil, &list); err != nil {
		return nil, err
	}
	return list.Items, nil
}

// Trending returns the most engaged-with public prompts in a window.
func (c *Client) Trending(ctx context.Context, window Window, limit int) ([]Item, error) {
	q := url.Values{}
	if window != "" {
		q.Set("window", string(window))
	}
	setLimit(q, limit)

	var list itemList
	if _, err := c.call(ctx, "trending", http.MethodGet, "/v1/trending", q, nil, &list); err != nil {
		return nil, err
	}
	return list.Items, nil
}

// RecordInteraction records that the caller engaged with a prompt.
func (c *Client) RecordInteraction(ctx context.Context, promptID string, typ InteractionType) error {
	body := struct {
		PromptID string          `json:"prompt_id"`
		Type     InteractionType `json:"type"`
	}{promptID, typ}
	_, err := c.call(ctx, "record_interaction", http.MethodPost, "/v1/interactions", nil, body, nil)
	return err
}
