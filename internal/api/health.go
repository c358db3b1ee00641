package api

import (
	"context"
	"net/http"
)

// HealthOutput is the body of GET /health
type HealthOutput struct {
	OK      bool   `json:"ok"`
	Service string `json:"service"`
	Status  string `json:"status"`
}

// Health probes the backend
func (c *Client) Health(ctx context.Context) (*HealthOutput, error) {
	var out HealthOutput
	err := c.do(ctx, request{
		method:   http.MethodGet,
		path:     "/health",
		resource: "health",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// BreakerStats reports the state of every circuit breaker in use
func (c *Client) BreakerStats() map[string]interface{} {
	if c.breakers == nil {
		return map[string]interface{}{}
	}
	return c.breakers.AllStats()
}
