package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	defaultTimeout  = 10 * time.Second
	maxResponseBody = 4096 // cap on response body retained for error messages
)

// Option configures an adapter's HTTP behavior.
type Option func(*client)

// WithHTTPClient overrides the HTTP client, mostly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) { c.http = hc }
}

// WithTimeout overrides the per-call HTTP timeout. Non-positive values keep
// the current timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithBaseURL overrides the platform's API base URL, mostly for tests.
func WithBaseURL(base string) Option {
	return func(c *client) { c.base = base }
}

// client is the HTTP plumbing shared by all adapters.
type client struct {
	platform string
	base     string
	http     *http.Client
}

func newClient(platform, base string, opts ...Option) client {
	c := client{
		platform: platform,
		base:     base,
		http:     &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// request describes one platform API call.
type request struct {
	method  string
	path    string
	query   url.Values
	headers map[string]string
	body    any
	// out, when non-nil, receives the decoded 2xx response body.
	out any
	// base overrides the client's base URL for per-account hosts.
	base string
}

// do performs the request and maps the response through the error taxonomy.
func (c *client) do(ctx context.Context, r request) error {
	base := c.base
	if r.base != "" && base == "" {
		base = r.base
	}

	u := base + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}

	var payload io.Reader
	if r.body != nil {
		raw, err := json.Marshal(r.body)
		if err != nil {
			return &ValidationError{Platform: c.platform, Message: fmt.Sprintf("marshal request: %v", err)}
		}
		payload = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u, payload)
	if err != nil {
		return &ValidationError{Platform: c.platform, Message: fmt.Sprintf("create request: %v", err)}
	}

	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("User-Agent", "Tandem/1.0")
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransientError{Platform: c.platform, Message: err.Error()}
	}
	defer resp.Body.Close()

	respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if readErr != nil {
		return &TransientError{Platform: c.platform, StatusCode: resp.StatusCode, Message: fmt.Sprintf("read response: %v", readErr)}
	}

	if err := classify(c.platform, resp.StatusCode, string(respBody), resp.Header); err != nil {
		return err
	}

	if r.out != nil {
		if err := json.Unmarshal(respBody, r.out); err != nil {
			return &TransientError{Platform: c.platform, StatusCode: resp.StatusCode, Message: fmt.Sprintf("decode response: %v", err)}
		}
	}
	return nil
}

// stringParam reads a required string parameter.
func stringParam(platform string, params map[string]any, key string) (string, error) {
	v, ok := params[key]
	if !ok {
		return "", &ValidationError{Platform: platform, Message: fmt.Sprintf("missing parameter %q", key)}
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", &ValidationError{Platform: platform, Message: fmt.Sprintf("parameter %q must be a non-empty string", key)}
	}
	return s, nil
}

// optionalParam reads an optional string parameter, falling back to the
// account config under the same key.
func optionalParam(params map[string]any, config map[string]string, key string) string {
	if v, ok := params[key].(string); ok && v != "" {
		return v
	}
	return config[key]
}
