package promptdex

import (
	"context"
	"errors"
	"net/http"

	"github.com/goccy/go-json"
)

// HealthStatus represents the aggregated system health.
type HealthStatus struct {
	Status  string            `json:"status"` // "ok", "degraded", "error"
	Checks  map[string]string `json:"checks"` // component -> "ok"/"error"
	Version string            `json:"version"`
}

// Health checks the health of all server components.
// An unhealthy server answers 503 with the same body; that is reported
// as a status, not an error.
func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	var hs HealthStatus
	_, err := c.call(ctx, "health", http.MethodGet, "/health", nil, nil, &hs)
	if err == nil {
		return hs, nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusServiceUnavailable {
		if jsonErr := json.Unmarshal([]byte(apiErr.Message), &hs); jsonErr != nil || hs.Status == "" {
			hs = HealthStatus{Status: "error"}
		}
		return hs, nil
	}
	return HealthStatus{}, err
}
