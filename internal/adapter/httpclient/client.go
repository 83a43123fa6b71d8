// Package httpclient is the JSON-over-HTTP plumbing shared by provider adapters.
package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"
)

// maxErrorBody bounds how much of an error response is kept for the message.
const maxErrorBody = 512

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s API error: status %d: %s", e.Provider, e.StatusCode, e.Body)
}

// IsNotFound reports whether err is an HTTP 404 from a provider.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}

// Client performs GET requests and decodes JSON bodies, remembering whether
// the most recent call succeeded.
type Client struct {
	provider   string
	httpClient *http.Client
	failed     atomic.Bool
}

// New creates a client for the named provider. timeout bounds each request.
func New(provider string, timeout time.Duration) *Client {
	return &Client{
		provider:   provider,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Healthy reports whether the last call succeeded. A client that has never
// been used is healthy.
func (c *Client) Healthy() bool {
	return !c.failed.Load()
}

// GetJSON fetches url and decodes the JSON body into out. A 204 response
// leaves out untouched and returns ErrNoContent.
func (c *Client) GetJSON(ctx context.Context, url string, header http.Header, out any) error {
	err := c.getJSON(ctx, url, header, out)
	// A definitive "no such record" still means the upstream is reachable.
	c.failed.Store(err != nil && !IsNotFound(err) && !errors.Is(err, ErrNoContent))
	return err
}

// ErrNoContent is returned for 204 responses.
var ErrNoContent = errors.New("no content")

func (c *Client) getJSON(ctx context.Context, url string, header http.Header, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", c.provider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return ErrNoContent
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Provider: c.provider, StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", c.provider, err)
	}
	return nil
}
