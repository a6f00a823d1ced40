package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQualifyRepo(t *testing.T) {
	c := NewClient("tok", "phoenix-dev")
	assert.Equal(t, "phoenix-dev/bot", c.qualifyRepo("bot"))
	assert.Equal(t, "other/bot", c.qualifyRepo("other/bot"))
}

func TestGetFileContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/phoenix-dev/bot/contents/main.go", r.URL.Path)
		assert.Equal(t, "main", r.URL.Query().Get("ref"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		content := base64.StdEncoding.EncodeToString([]byte("package main\n"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"type":     "file",
			"content":  content,
			"encoding": "base64",
			"sha":      "abc123",
		})
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("tok", "phoenix-dev", srv.URL)
	content, err := c.GetFileContent(context.Background(), "bot", "main.go", "main")
	require.NoError(t, err)
	assert.Equal(t, "package main\n", content)
}

func TestGetFileContentDirectory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"name": "a.go", "type": "file"},
			{"name": "b.go", "type": "file"},
		})
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("tok", "phoenix-dev", srv.URL)
	content, err := c.GetFileContent(context.Background(), "bot", "pkg", "")
	require.NoError(t, err)
	assert.Equal(t, "Path is a directory with 2 files", content)
}

func TestGetFileContentNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("tok", "phoenix-dev", srv.URL)
	_, err := c.GetFileContent(context.Background(), "bot", "missing.go", "")
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestWriteFileCreatesAndUpdates(t *testing.T) {
	var gotBody map[string]any
	existingSHA := ""
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			if existingSHA == "" {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"sha": existingSHA, "type": "file"})
		case http.MethodPut:
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
			_ = json.NewEncoder(w).Encode(map[string]any{
				"commit": map[string]any{"sha": "deadbeef", "html_url": "https://example.com/c"},
			})
		}
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("tok", "phoenix-dev", srv.URL)

	// Create: no sha in the payload.
	result, err := c.WriteFile(context.Background(), "bot", "new.go", "package x\n", "add new.go", "main")
	require.NoError(t, err)
	assert.Equal(t, "deadbeef", result.SHA)
	assert.NotContains(t, gotBody, "sha")
	assert.Equal(t, "add new.go", gotBody["message"])
	assert.Equal(t, "main", gotBody["branch"])

	// Update: the existing blob sha is sent.
	existingSHA = "oldsha"
	_, err = c.WriteFile(context.Background(), "bot", "new.go", "package y\n", "edit new.go", "main")
	require.NoError(t, err)
	assert.Equal(t, "oldsha", gotBody["sha"])
}

func TestDeleteFileMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("tok", "phoenix-dev", srv.URL)
	_, err := c.DeleteFile(context.Background(), "bot", "gone.go", "remove", "")
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestListFiles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"name": "main.go", "path": "main.go", "type": "file", "size": 120},
			{"name": "pkg", "path": "pkg", "type": "dir"},
		})
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("tok", "phoenix-dev", srv.URL)
	entries, err := c.ListFiles(context.Background(), "bot", "", "")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "main.go", entries[0].Name)
	assert.Equal(t, int64(120), entries[0].Size)
	assert.Equal(t, "dir", entries[1].Type)
}

func TestSearchCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/code", r.URL.Path)
		assert.Contains(t, r.URL.Query().Get("q"), "repo:phoenix-dev/bot")

		_ = json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]any{{
				"name":       "brain.go",
				"path":       "pkg/brain/brain.go",
				"html_url":   "https://example.com/f",
				"repository": map[string]any{"full_name": "phoenix-dev/bot"},
			}},
		})
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("tok", "phoenix-dev", srv.URL)
	results, err := c.SearchCode(context.Background(), "bot", "Process", 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "pkg/brain/brain.go", results[0].Path)
}

func TestCreateBranchAndPR(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/repos/phoenix-dev/bot" && r.Method == http.MethodGet:
			_ = json.NewEncoder(w).Encode(map[string]any{"default_branch": "main"})
		case r.URL.Path == "/repos/phoenix-dev/bot/branches/main":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"commit": map[string]any{"sha": "basesha"},
			})
		case r.URL.Path == "/repos/phoenix-dev/bot/git/refs":
			w.WriteHeader(http.StatusCreated)
			fmt.Fprint(w, "{}")
		case r.URL.Path == "/repos/phoenix-dev/bot/pulls":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"number": 7, "html_url": "https://example.com/pr/7", "state": "open",
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("tok", "phoenix-dev", srv.URL)

	branch, err := c.CreateBranch(context.Background(), "bot", "feature-x", "")
	require.NoError(t, err)
	assert.Equal(t, "basesha", branch.SHA)

	pr, err := c.CreatePullRequest(context.Background(), "bot", "Add X", "body", "feature-x", "")
	require.NoError(t, err)
	assert.Equal(t, 7, pr.Number)
	assert.Equal(t, "open", pr.State)
}
