// Package webapi is a thin HTTP client for the OData v4 Web API.
//
// It owns headers, authentication passthrough and response decoding.
// Query-string assembly lives in internal/odata; what counts as an error
// versus an empty result is decided by the caller, except for 404 on a
// keyed fetch, which is mapped to ErrNotFound here because that status is
// part of the by-id protocol rather than a transport failure.
package webapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned by FetchRecord when the endpoint answers 404.
// Callers present it as "no record with that id", not as a failure.
var ErrNotFound = errors.New("record not found")

// StatusError is any non-success HTTP status other than a by-id 404.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("web api: unexpected status %s", e.Status)
}

// ListResult is the decoded body of a collection query.
type ListResult struct {
	Rows  []map[string]any
	Count int64 // @odata.count when requested; -1 when absent
}

// Client issues Web API requests with the OData v4 header set.
type Client struct {
	http   *http.Client
	cookie string // raw Cookie header for session auth; empty = none
	bearer string // Authorization bearer token; empty = none
}

// Option configures a Client.
type Option func(*Client)

// WithCookie sets a raw Cookie header, matching the session-cookie auth the
// hosted CRM uses. The value is passed through untouched.
func WithCookie(cookie string) Option {
	return func(c *Client) { c.cookie = cookie }
}

// WithBearerToken sets an Authorization: Bearer header.
func WithBearerToken(token string) Option {
	return func(c *Client) { c.bearer = token }
}

// WithHTTPClient overrides the underlying http.Client (tests, timeouts).
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// NewClient creates a Client with a 15s default timeout.
func NewClient(opts ...Option) *Client {
	c := &Client{
		http: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// listEnvelope matches the {value: [...], @odata.count: n} body shape.
type listEnvelope struct {
	Value []map[string]any `json:"value"`
	Count *int64           `json:"@odata.count"`
}

// FetchList executes a collection query. eventual adds the
// ConsistencyLevel header required for indexed contains() filters.
func (c *Client) FetchList(ctx context.Context, url string, eventual bool) (*ListResult, error) {
	body, _, err := c.get(ctx, url, eventual)
	if err != nil {
		return nil, err
	}

	var env listEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("web api: decode list response: %w", err)
	}

	res := &ListResult{Rows: env.Value, Count: -1}
	if env.Count != nil {
		res.Count = *env.Count
	}
	return res, nil
}

// FetchRecord executes a single-record fetch. A 404 maps to ErrNotFound.
func (c *Client) FetchRecord(ctx context.Context, url string) (map[string]any, error) {
	body, status, err := c.get(ctx, url, false)
	if err != nil {
		if status == http.StatusNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var rec map[string]any
	if err := json.Unmarshal(body, &rec); err != nil {
		return nil, fmt.Errorf("web api: decode record response: %w", err)
	}
	return rec, nil
}

// get performs the request and returns the body for 2xx responses.
// The status code is returned alongside errors so callers can special-case.
func (c *Client) get(ctx context.Context, url string, eventual bool) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("web api: build request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("OData-MaxVersion", "4.0")
	req.Header.Set("OData-Version", "4.0")
	req.Header.Set("x-ms-client-request-id", uuid.NewString())
	if eventual {
		req.Header.Set("ConsistencyLevel", "eventual")
	}
	if c.cookie != "" {
		req.Header.Set("Cookie", c.cookie)
	}
	if c.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("web api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096)) //nolint:errcheck
		return nil, resp.StatusCode, &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("web api: read response: %w", err)
	}
	return body, resp.StatusCode, nil
}
