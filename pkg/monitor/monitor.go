// Package monitor watches the content service in the background: periodic
// health classification, cooldown-managed alerts, and keyword-driven
// auto-remediation after repeated critical checks.
package monitor

import (
	"context"
	"fmt"
	"time"

	"phoenix/pkg/config"
	"phoenix/pkg/logx"
	"phoenix/pkg/metrics"
	"phoenix/pkg/omni"
)

// Status is the overall classification of one check pass.
type Status string

// Overall statuses.
const (
	StatusHealthy  Status = "healthy"
	StatusWarning  Status = "warning"
	StatusCritical Status = "critical"
)

// Report is the outcome of one full check pass.
type Report struct {
	Timestamp   time.Time
	Overall     Status
	Issues      []string
	Health      string
	Tasks       omni.TaskCounts
	TaskList    []omni.Task
	LastSuccess *omni.SchedulerLog
}

// Monitor polls the content service and reacts to degradations.
type Monitor struct {
	omni   *omni.Client
	alerts *AlertManager
	logger *logx.Logger

	interval       time.Duration
	staleness      time.Duration
	criticalStreak int
	maxStreak      int
	now            func() time.Time
}

// New creates a monitor. alerts may be nil to disable notifications.
func New(cfg *config.Config, omniClient *omni.Client, alerts *AlertManager) *Monitor {
	return &Monitor{
		omni:      omniClient,
		alerts:    alerts,
		logger:    logx.NewLogger("monitor"),
		interval:  cfg.MonitorInterval(),
		staleness: cfg.StalenessWindow(),
		maxStreak: cfg.Monitor.CriticalStreak,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CheckStatus performs one full check pass. Each probe degrades into an
// issue instead of failing the pass.
func (m *Monitor) CheckStatus(ctx context.Context) *Report {
	report := &Report{
		Timestamp: m.now(),
		Health:    "unknown",
	}

	if health, err := m.omni.GetHealth(ctx); err != nil {
		report.Health = "error"
		report.Issues = append(report.Issues, fmt.Sprintf("Health check failed: %v", err))
	} else {
		report.Health = health.Status
		if health.Status != "healthy" {
			report.Issues = append(report.Issues, "Health check failed: "+health.Status)
		}
	}

	if tasks, err := m.omni.ListTasks(ctx); err != nil {
		report.Issues = append(report.Issues, fmt.Sprintf("Task check failed: %v", err))
	} else {
		report.TaskList = tasks
		report.Tasks = omni.CountTasks(tasks)
		if report.Tasks.DeadLetter > 0 {
			report.Issues = append(report.Issues, fmt.Sprintf("%d tasks in dead letter queue", report.Tasks.DeadLetter))
		}
		if report.Tasks.Failed > 2 {
			report.Issues = append(report.Issues, fmt.Sprintf("%d failed tasks", report.Tasks.Failed))
		}
	}

	if logs, err := m.omni.GetSchedulerLogs(ctx, 20); err == nil {
		for i := range logs {
			if logs[i].Status == "success" {
				report.LastSuccess = &logs[i]
				break
			}
		}
		if report.LastSuccess != nil {
			if last, err := time.Parse(time.RFC3339, report.LastSuccess.Timestamp); err == nil {
				if age := m.now().Sub(last); age > m.staleness {
					report.Issues = append(report.Issues, fmt.Sprintf("No successful post in %.1f hours", age.Hours()))
				}
			}
		}
	}

	report.Overall = classify(report.Issues)
	return report
}

// classify maps an issue list to an overall status: critical above two
// issues, warning for one or two, healthy otherwise.
func classify(issues []string) Status {
	switch {
	case len(issues) > 2:
		return StatusCritical
	case len(issues) > 0:
		return StatusWarning
	default:
		return StatusHealthy
	}
}

// Run executes the monitoring loop until the context is canceled. A failed
// or panicking tick is logged and the loop keeps going.
func (m *Monitor) Run(ctx context.Context) {
	m.logger.Info("monitoring loop started (interval %s)", m.interval)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("monitoring loop stopped")
			return
		case <-ticker.C:
			m.safeTick(ctx)
		}
	}
}

// safeTick runs one tick with panic isolation.
func (m *Monitor) safeTick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("monitor tick panicked: %v", r)
		}
	}()
	m.tick(ctx)
}

// tick performs one check pass and reacts to its classification.
func (m *Monitor) tick(ctx context.Context) {
	report := m.CheckStatus(ctx)
	metrics.SetMonitorStatus(string(report.Overall))

	if report.Overall != StatusHealthy {
		m.logger.Warn("status %s: %v", report.Overall, report.Issues)
		if m.alerts != nil {
			m.alerts.StatusAlert(report)
		}
	}

	if report.Overall == StatusCritical {
		m.criticalStreak++
	} else {
		m.criticalStreak = 0
	}

	if m.criticalStreak >= m.maxStreak {
		m.logger.Warn("%d consecutive critical checks, attempting auto-fix", m.criticalStreak)
		m.autoRemediate(ctx, report)
	}
}

// autoRemediate diagnoses each issue and runs the fixable ones, reporting
// every attempt through the alert channel.
func (m *Monitor) autoRemediate(ctx context.Context, report *Report) {
	for _, issue := range report.Issues {
		diagnosis := Diagnose(issue)
		if !diagnosis.AutoFixable {
			continue
		}
		result := m.autoFix(ctx, diagnosis.Action, report)
		m.logger.Info("auto-fix %s: success=%t %s", result.Action, result.Success, result.Message)
		if m.alerts != nil {
			m.alerts.AutoFixAlert(issue, result)
		}
	}
}
