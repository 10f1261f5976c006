// Package registry uploads finished model artifacts to an HTTP model store
// so inference devices can fetch them without touching the training host.
package registry

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"pufftrain/internal/artifact"
)

// Client posts model artifacts to a registry service.
type Client struct {
	base string
	rest *resty.Client
}

// New builds a client for the registry at base, e.g. "http://models:8500".
// A non-positive timeout falls back to 10 seconds.
func New(base string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	rest := resty.New().
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond)
	return &Client{base: base, rest: rest}
}

// Upload sends the artifact JSON to {base}/v1/models/{name}. Any non-2xx
// response is an error; the local artifact file is unaffected either way.
func (c *Client) Upload(ctx context.Context, name string, m *artifact.Model) error {
	resp, err := c.rest.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(m).
		Post(fmt.Sprintf("%s/v1/models/%s", c.base, name))
	if err != nil {
		return fmt.Errorf("registry request failed: %w", err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return fmt.Errorf("registry rejected %s: status %d: %s", name, resp.StatusCode(), resp.String())
	}
	return nil
}
