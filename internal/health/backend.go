package health

import (
	"context"
	"net/http"
)

// BackendChecker probes the parking API base URL. Any HTTP answer below
// 500 means the backend is up; routing 404s on the bare base are normal.
type BackendChecker struct {
	url    string
	client *http.Client
}

// NewBackendChecker checks url with client, or http.DefaultClient if nil.
func NewBackendChecker(url string, client *http.Client) *BackendChecker {
	if client == nil {
		client = http.DefaultClient
	}
	return &BackendChecker{url: url, client: client}
}

// Name returns the name of this health check.
func (c *BackendChecker) Name() string {
	return "backend-api"
}

// Check sends a GET to the base URL.
func (c *BackendChecker) Check(ctx context.Context) *Result {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return Unhealthy("invalid backend URL").
			WithDetail("url", c.url).
			WithError(err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Unhealthy("backend unreachable").
			WithDetail("url", c.url).
			WithError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return Degraded("backend answered with a server error").
			WithDetail("url", c.url).
			WithDetail("status_code", resp.StatusCode)
	}
	return Healthy("backend reachable").
		WithDetail("url", c.url).
		WithDetail("status_code", resp.StatusCode)
}
