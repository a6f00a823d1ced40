package github

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// FileEntry is one item in a contents listing.
type FileEntry struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Type string `json:"type"` // "file" or "dir"
	Size int64  `json:"size"`
}

// CommitResult identifies the commit produced by a write or delete.
type CommitResult struct {
	SHA string `json:"sha"`
	URL string `json:"html_url"`
}

type contentsResponse struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	Type     string `json:"type"`
	SHA      string `json:"sha"`
	Size     int64  `json:"size"`
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

// GetFileContent reads a file from a repository. A directory path returns a
// short notice instead of content, matching the tool's model-facing contract.
func (c *Client) GetFileContent(ctx context.Context, repo, path, branch string) (string, error) {
	repo = c.qualifyRepo(repo)
	endpoint := fmt.Sprintf("/repos/%s/contents/%s", repo, escapePath(path))
	if branch != "" {
		endpoint += "?ref=" + branch
	}

	// The contents API returns an object for files and an array for
	// directories; decode loosely and disambiguate.
	var raw any
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &raw); err != nil {
		return "", err
	}

	if entries, ok := raw.([]any); ok {
		return fmt.Sprintf("Path is a directory with %d files", len(entries)), nil
	}

	obj, ok := raw.(map[string]any)
	if !ok {
		return "", fmt.Errorf("unexpected contents response for %s", path)
	}
	content, _ := obj["content"].(string)
	decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(content, "\n", ""))
	if err != nil {
		return "", fmt.Errorf("failed to decode file content: %w", err)
	}
	return string(decoded), nil
}

// getFileSHA returns the blob SHA of an existing file, or "" if it does not exist.
func (c *Client) getFileSHA(ctx context.Context, repo, path, branch string) (string, error) {
	endpoint := fmt.Sprintf("/repos/%s/contents/%s", repo, escapePath(path))
	if branch != "" {
		endpoint += "?ref=" + branch
	}

	var resp contentsResponse
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	var notFound *NotFoundError
	if errors.As(err, &notFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return resp.SHA, nil
}

// WriteFile creates or updates a file, committing with the given message.
func (c *Client) WriteFile(ctx context.Context, repo, path, content, message, branch string) (*CommitResult, error) {
	repo = c.qualifyRepo(repo)

	sha, err := c.getFileSHA(ctx, repo, path, branch)
	if err != nil {
		return nil, err
	}

	body := map[string]any{
		"message": message,
		"content": base64.StdEncoding.EncodeToString([]byte(content)),
	}
	if branch != "" {
		body["branch"] = branch
	}
	if sha != "" {
		body["sha"] = sha
	}

	var resp struct {
		Commit CommitResult `json:"commit"`
	}
	endpoint := fmt.Sprintf("/repos/%s/contents/%s", repo, escapePath(path))
	if err := c.do(ctx, http.MethodPut, endpoint, body, &resp); err != nil {
		return nil, err
	}
	return &resp.Commit, nil
}

// DeleteFile removes a file, committing with the given message.
func (c *Client) DeleteFile(ctx context.Context, repo, path, message, branch string) (*CommitResult, error) {
	repo = c.qualifyRepo(repo)

	sha, err := c.getFileSHA(ctx, repo, path, branch)
	if err != nil {
		return nil, err
	}
	if sha == "" {
		return nil, &NotFoundError{Resource: path}
	}

	body := map[string]any{
		"message": message,
		"sha":     sha,
	}
	if branch != "" {
		body["branch"] = branch
	}

	var resp struct {
		Commit CommitResult `json:"commit"`
	}
	endpoint := fmt.Sprintf("/repos/%s/contents/%s", repo, escapePath(path))
	if err := c.do(ctx, http.MethodDelete, endpoint, body, &resp); err != nil {
		return nil, err
	}
	return &resp.Commit, nil
}

// ListFiles lists the entries of a directory (or the repo root for "").
func (c *Client) ListFiles(ctx context.Context, repo, path, branch string) ([]FileEntry, error) {
	repo = c.qualifyRepo(repo)
	endpoint := fmt.Sprintf("/repos/%s/contents/%s", repo, escapePath(path))
	if branch != "" {
		endpoint += "?ref=" + branch
	}

	var raw any
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &raw); err != nil {
		return nil, err
	}

	toEntry := func(m map[string]any) FileEntry {
		e := FileEntry{}
		e.Name, _ = m["name"].(string)
		e.Path, _ = m["path"].(string)
		e.Type, _ = m["type"].(string)
		if size, ok := m["size"].(float64); ok {
			e.Size = int64(size)
		}
		return e
	}

	switch v := raw.(type) {
	case []any:
		entries := make([]FileEntry, 0, len(v))
		for _, item := range v {
			if m, ok := item.(map[string]any); ok {
				entries = append(entries, toEntry(m))
			}
		}
		return entries, nil
	case map[string]any:
		// A single file path lists as itself.
		return []FileEntry{toEntry(v)}, nil
	default:
		return nil, fmt.Errorf("unexpected contents response for %s", path)
	}
}
