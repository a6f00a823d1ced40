// Package metrics exposes Prometheus collectors for the bot's hot paths:
// model calls, tool executions, approval resolutions, and monitor status.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	llmRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "phoenix_llm_requests_total",
		Help: "Model completion requests by provider and outcome.",
	}, []string{"provider", "outcome"})

	llmDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "phoenix_llm_request_duration_seconds",
		Help:    "Model completion latency by provider.",
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 60},
	}, []string{"provider"})

	toolExecutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "phoenix_tool_executions_total",
		Help: "Tool handler executions by tool name and outcome.",
	}, []string{"tool", "outcome"})

	approvalResolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "phoenix_approval_resolutions_total",
		Help: "Approval gate resolutions by terminal status.",
	}, []string{"status"})

	monitorStatus = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "phoenix_monitor_status",
		Help: "Current monitor classification: 0 healthy, 1 warning, 2 critical.",
	})
)

// RecordLLMRequest records one model call and its latency.
func RecordLLMRequest(provider string, duration time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	llmRequests.WithLabelValues(provider, outcome).Inc()
	llmDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// RecordToolExecution records one tool handler run.
func RecordToolExecution(tool string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	toolExecutions.WithLabelValues(tool, outcome).Inc()
}

// RecordApprovalResolution records one terminal approval transition.
func RecordApprovalResolution(status string) {
	approvalResolutions.WithLabelValues(status).Inc()
}

// SetMonitorStatus publishes the monitor's latest classification.
func SetMonitorStatus(status string) {
	switch status {
	case "critical":
		monitorStatus.Set(2)
	case "warning":
		monitorStatus.Set(1)
	default:
		monitorStatus.Set(0)
	}
}
