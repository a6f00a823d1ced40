package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phoenix/pkg/omni"
	"phoenix/pkg/railway"
)

func TestGetRailwayLogsToolUnsupportedProject(t *testing.T) {
	tool := NewGetRailwayLogsTool(omni.NewClient("http://unreachable.invalid"))
	result, err := tool.Exec(context.Background(), map[string]any{"project": "phoenix-ai"})
	require.NoError(t, err)
	assert.Equal(t, "Only omni-agent logs available currently", result)
}

func TestGetRailwayLogsTool(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			_ = json.NewEncoder(w).Encode(map[string]any{"status": "healthy"})
		case "/api/tasks":
			_ = json.NewEncoder(w).Encode(map[string]any{"tasks": []map[string]any{
				{"id": "t1", "status": "completed"},
			}})
		case "/api/scheduler/logs":
			_ = json.NewEncoder(w).Encode(map[string]any{"logs": []map[string]any{
				{"animal": "Otter", "status": "success"},
			}})
		}
	}))
	defer srv.Close()

	tool := NewGetRailwayLogsTool(omni.NewClient(srv.URL))
	result, err := tool.Exec(context.Background(), map[string]any{"project": "omni-agent"})
	require.NoError(t, err)
	assert.Contains(t, result, "OMNI-AGENT STATUS")
	assert.Contains(t, result, "Health: healthy")
	assert.Contains(t, result, "Otter: success")
}

func TestRailwayStatusTool(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Variables map[string]any `json:"variables"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "proj-omni", req.Variables["projectId"])

		_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{
			"deployments": map[string]any{
				"edges": []map[string]any{
					{"node": map[string]any{"id": "d1", "status": "SUCCESS", "createdAt": "2026-08-01T00:00:00Z"}},
				},
			},
		}})
	}))
	defer srv.Close()

	tool := NewRailwayStatusTool(railway.NewClientWithURL("tok", srv.URL), map[string]string{"omni-agent": "proj-omni"})
	result, err := tool.Exec(context.Background(), map[string]any{"project": "omni-agent"})
	require.NoError(t, err)
	assert.Contains(t, result, "Project omni-agent: SUCCESS")

	result, err = tool.Exec(context.Background(), map[string]any{"project": "mystery"})
	require.NoError(t, err)
	assert.Contains(t, result, "Unknown project")
}

func TestSetRailwayEnvAndRedeployTools(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{}})
	}))
	defer srv.Close()

	client := railway.NewClientWithURL("tok", srv.URL)

	envTool := NewSetRailwayEnvTool(client)
	assert.True(t, envTool.RequiresApproval())
	result, err := envTool.Exec(context.Background(), map[string]any{
		"project_id": "p", "environment_id": "e", "name": "LOG_LEVEL", "value": "debug",
	})
	require.NoError(t, err)
	assert.Contains(t, result, "LOG_LEVEL set")

	redeployTool := NewRedeployRailwayTool(client)
	assert.True(t, redeployTool.RequiresApproval())
	result, err = redeployTool.Exec(context.Background(), map[string]any{
		"service_id": "s", "environment_id": "e",
	})
	require.NoError(t, err)
	assert.Contains(t, result, "Redeploy triggered")
}
