package metrics

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func promServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/query", r.URL.Path)
		expr := r.FormValue("query")

		value := 0
		switch {
		case strings.Contains(expr, `phoenix_llm_requests_total{outcome="error"}`):
			value = 2
		case strings.Contains(expr, "phoenix_llm_requests_total"):
			value = 12
		case strings.Contains(expr, `phoenix_tool_executions_total{outcome="error"}`):
			value = 3
		case strings.Contains(expr, "phoenix_tool_executions_total"):
			value = 30
		}

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"success","data":{"resultType":"vector","result":[{"metric":{},"value":[%d,"%d"]}]}}`,
			time.Now().Unix(), value)
	}))
}

func TestUsageAggregatesCounters(t *testing.T) {
	srv := promServer(t)
	defer srv.Close()

	q, err := NewQueryService(srv.URL)
	require.NoError(t, err)

	summary, err := q.Usage(context.Background(), 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(12), summary.LLMRequests)
	assert.Equal(t, int64(2), summary.LLMErrors)
	assert.Equal(t, int64(30), summary.ToolExecutions)
	assert.Equal(t, int64(3), summary.ToolErrors)
}

func TestUsageEmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"status":"success","data":{"resultType":"vector","result":[]}}`)
	}))
	defer srv.Close()

	q, err := NewQueryService(srv.URL)
	require.NoError(t, err)

	summary, err := q.Usage(context.Background(), time.Hour)
	require.NoError(t, err)
	assert.Zero(t, summary.LLMRequests)
}
