// Package github provides a GitHub REST v3 client covering the file,
// branch, pull-request, and search operations the bot's tools need.
package github

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

// DefaultBaseURL is the public GitHub API root.
const DefaultBaseURL = "https://api.github.com"

// NotFoundError reports a 404 from the API.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("github: %s not found", e.Resource)
}

// Client is a GitHub REST API client. If a repo name has no owner prefix,
// DefaultOwner is applied.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	token        string
	defaultOwner string
}

// NewClient creates a client authenticated with the given token.
func NewClient(token, defaultOwner string) *Client {
	return &Client{
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		baseURL:      DefaultBaseURL,
		token:        token,
		defaultOwner: defaultOwner,
	}
}

// NewClientWithBaseURL creates a client against a custom API root. Used by tests.
func NewClientWithBaseURL(token, defaultOwner, baseURL string) *Client {
	c := NewClient(token, defaultOwner)
	c.baseURL = baseURL
	return c
}

// qualifyRepo prepends the default owner to bare repo names.
func (c *Client) qualifyRepo(repo string) string {
	for _, r := range repo {
		if r == '/' {
			return repo
		}
	}
	return c.defaultOwner + "/" + repo
}

// do issues an API request and decodes the JSON response into out (when out
// is non-nil). Non-2xx responses become errors; 404 becomes *NotFoundError.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/vnd.github+json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("github request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return &NotFoundError{Resource: path}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("github API error %d: %s", resp.StatusCode, string(data))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode github response: %w", err)
		}
	}
	return nil
}

// escapePath URL-escapes each segment of a repo file path.
func escapePath(p string) string {
	return (&url.URL{Path: p}).EscapedPath()
}
