package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/api"
	v1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"
)

// UsageSummary aggregates LLM and tool activity over a window.
type UsageSummary struct {
	LLMRequests    int64 `json:"llm_requests"`
	LLMErrors      int64 `json:"llm_errors"`
	ToolExecutions int64 `json:"tool_executions"`
	ToolErrors     int64 `json:"tool_errors"`
}

// QueryService reads usage counters back from a Prometheus server that
// scrapes the bot's /metrics endpoint.
type QueryService struct {
	queryAPI v1.API
}

// NewQueryService creates a query service against the given Prometheus URL.
func NewQueryService(prometheusURL string) (*QueryService, error) {
	client, err := api.NewClient(api.Config{
		Address: prometheusURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Prometheus client: %w", err)
	}

	return &QueryService{queryAPI: v1.NewAPI(client)}, nil
}

// Usage returns request and tool counts over the trailing window.
func (q *QueryService) Usage(ctx context.Context, window time.Duration) (*UsageSummary, error) {
	rangeStr := model.Duration(window).String()
	summary := &UsageSummary{}

	queries := []struct {
		expr string
		dest *int64
	}{
		{fmt.Sprintf(`sum(increase(phoenix_llm_requests_total[%s]))`, rangeStr), &summary.LLMRequests},
		{fmt.Sprintf(`sum(increase(phoenix_llm_requests_total{outcome="error"}[%s]))`, rangeStr), &summary.LLMErrors},
		{fmt.Sprintf(`sum(increase(phoenix_tool_executions_total[%s]))`, rangeStr), &summary.ToolExecutions},
		{fmt.Sprintf(`sum(increase(phoenix_tool_executions_total{outcome="error"}[%s]))`, rangeStr), &summary.ToolErrors},
	}

	for _, query := range queries {
		result, _, err := q.queryAPI.Query(ctx, query.expr, time.Now())
		if err != nil {
			return nil, fmt.Errorf("failed to query %s: %w", query.expr, err)
		}
		if vector, ok := result.(model.Vector); ok && len(vector) > 0 {
			*query.dest = int64(vector[0].Value)
		}
	}

	return summary, nil
}
