package promptdex

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// Search runs a query over the prompts visible to the caller.
// An empty mode lets the server choose (hybrid); limit <= 0 uses the server default.
func (c *Client) Search(ctx context.Context, query string, mode SearchMode, limit int) (SearchPage, error) {
	q := url.Values{"q": {query}}
	if mode != "" {
		q.Set("mode", string(mode))
	}
	setLimit(q, limit)

	var page SearchPage
	resp, err := c.call(ctx, "search", http.MethodGet, "/v1/search", q, nil, &page)
	if err != nil {
		return SearchPage{}, err
	}
	if n, convErr := strconv.Atoi(resp.Header.Get("X-Embedding-Tokens")); convErr == nil {
		page.EmbeddingTokens = n
	}
	return page, nil
}
