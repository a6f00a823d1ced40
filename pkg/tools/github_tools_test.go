package tools

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phoenix/pkg/github"
)

func TestReadGitHubFileTool(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/phoenix-dev/bot/contents/main.go", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"type":    "file",
			"content": base64.StdEncoding.EncodeToString([]byte("package main\n")),
			"sha":     "abc",
		})
	}))
	defer srv.Close()

	tool := NewReadGitHubFileTool(github.NewClientWithBaseURL("tok", "phoenix-dev", srv.URL))
	assert.False(t, tool.RequiresApproval())

	result, err := tool.Exec(context.Background(), map[string]any{"repo": "bot", "path": "main.go"})
	require.NoError(t, err)
	assert.Contains(t, result, "package main")
}

func TestReadGitHubFileToolNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	tool := NewReadGitHubFileTool(github.NewClientWithBaseURL("tok", "phoenix-dev", srv.URL))
	result, err := tool.Exec(context.Background(), map[string]any{"repo": "bot", "path": "gone.go"})
	require.NoError(t, err)
	assert.Contains(t, result, "File not found")
}

func TestEditGitHubFileTool(t *testing.T) {
	var committed map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_ = json.NewEncoder(w).Encode(map[string]any{
				"type":    "file",
				"content": base64.StdEncoding.EncodeToString([]byte("interval = 6\n")),
				"sha":     "filesha",
			})
		case http.MethodPut:
			require.NoError(t, json.NewDecoder(r.Body).Decode(&committed))
			_ = json.NewEncoder(w).Encode(map[string]any{
				"commit": map[string]any{"sha": "newsha"},
			})
		}
	}))
	defer srv.Close()

	tool := NewEditGitHubFileTool(github.NewClientWithBaseURL("tok", "phoenix-dev", srv.URL))
	assert.True(t, tool.RequiresApproval())

	result, err := tool.Exec(context.Background(), map[string]any{
		"repo": "bot", "path": "config.py",
		"find_text": "interval = 6", "replace_text": "interval = 8",
		"commit_message": "bump interval",
	})
	require.NoError(t, err)
	assert.Contains(t, result, "FILE UPDATED")
	assert.Equal(t, "filesha", committed["sha"])

	decoded, err := base64.StdEncoding.DecodeString(committed["content"].(string))
	require.NoError(t, err)
	assert.Equal(t, "interval = 8\n", string(decoded))
}

func TestEditGitHubFileToolTextMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method, "no commit should happen")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"type":    "file",
			"content": base64.StdEncoding.EncodeToString([]byte("something else\n")),
			"sha":     "filesha",
		})
	}))
	defer srv.Close()

	tool := NewEditGitHubFileTool(github.NewClientWithBaseURL("tok", "phoenix-dev", srv.URL))
	result, err := tool.Exec(context.Background(), map[string]any{
		"repo": "bot", "path": "config.py",
		"find_text": "interval = 6", "replace_text": "interval = 8",
		"commit_message": "bump interval",
	})
	require.NoError(t, err)
	assert.Contains(t, result, "Could not find text to replace")
}

func TestWriteGitHubFileTool(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.WriteHeader(http.StatusNotFound)
		case http.MethodPut:
			_ = json.NewEncoder(w).Encode(map[string]any{
				"commit": map[string]any{"sha": "created"},
			})
		}
	}))
	defer srv.Close()

	tool := NewWriteGitHubFileTool(github.NewClientWithBaseURL("tok", "phoenix-dev", srv.URL))
	assert.True(t, tool.RequiresApproval())

	result, err := tool.Exec(context.Background(), map[string]any{
		"repo": "bot", "path": "new.go", "content": "package x\n", "commit_message": "add",
	})
	require.NoError(t, err)
	assert.Contains(t, result, "FILE WRITTEN")
}

func TestListGitHubFilesTool(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"name": "main.go", "path": "main.go", "type": "file"},
			{"name": "pkg", "path": "pkg", "type": "dir"},
		})
	}))
	defer srv.Close()

	tool := NewListGitHubFilesTool(github.NewClientWithBaseURL("tok", "phoenix-dev", srv.URL))
	result, err := tool.Exec(context.Background(), map[string]any{"repo": "bot"})
	require.NoError(t, err)
	assert.Contains(t, result, "Files in bot/root:")
	assert.Contains(t, result, "[f] main.go")
	assert.Contains(t, result, "[d] pkg")
}

func TestSearchGitHubCodeTool(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]any{
				{"name": "brain.go", "path": "pkg/brain/brain.go"},
			},
		})
	}))
	defer srv.Close()

	tool := NewSearchGitHubCodeTool(github.NewClientWithBaseURL("tok", "phoenix-dev", srv.URL))
	result, err := tool.Exec(context.Background(), map[string]any{"repo": "bot", "query": "Process"})
	require.NoError(t, err)
	assert.Contains(t, result, "pkg/brain/brain.go")
}
