package monitor

import (
	"context"
	"fmt"
	"strings"

	"phoenix/pkg/omni"
)

// Auto-fix actions.
const (
	ActionRetryDeadLetter    = "retry_dead_letter_tasks"
	ActionTriggerTestRun     = "trigger_test_run"
	ActionCheckRailwayStatus = "check_railway_status"
)

// Diagnosis maps an observed issue to likely causes and a remediation.
type Diagnosis struct {
	Issue          string
	PossibleCauses []string
	SuggestedFixes []string
	AutoFixable    bool
	Action         string
}

// Diagnose classifies an issue string by keyword. Unrecognized issues come
// back with no suggested action.
func Diagnose(issue string) Diagnosis {
	diagnosis := Diagnosis{Issue: issue}
	lowered := strings.ToLower(issue)

	switch {
	case strings.Contains(lowered, "dead letter"):
		diagnosis.PossibleCauses = []string{
			"Video generation API timeout",
			"API key expired or rate limited",
			"Network connectivity issues",
			"Video composition failing (FFmpeg/fonts)",
		}
		diagnosis.SuggestedFixes = []string{
			"Retry the failed tasks",
			"Check the video API dashboard for status",
			"Check Railway logs for specific errors",
			"Verify environment variables are set",
		}
		diagnosis.AutoFixable = true
		diagnosis.Action = ActionRetryDeadLetter

	case strings.Contains(lowered, "no successful post"):
		diagnosis.PossibleCauses = []string{
			"Scheduler stopped or crashed",
			"All video generations are timing out",
			"Posting API issues",
		}
		diagnosis.SuggestedFixes = []string{
			"Check if scheduler is running",
			"Trigger a manual test run",
			"Check the posting API status",
		}
		diagnosis.AutoFixable = true
		diagnosis.Action = ActionTriggerTestRun

	case strings.Contains(lowered, "health") || strings.Contains(lowered, "unreachable"):
		diagnosis.PossibleCauses = []string{
			"Railway service crashed or restarting",
			"Deployment failed",
			"Out of Railway credits/resources",
		}
		diagnosis.SuggestedFixes = []string{
			"Check Railway dashboard for service status",
			"Review recent deployment logs",
			"Trigger a redeployment",
		}
		diagnosis.AutoFixable = true
		diagnosis.Action = ActionCheckRailwayStatus
	}

	return diagnosis
}

// FixResult is the outcome of one auto-fix attempt.
type FixResult struct {
	Action  string
	Success bool
	Message string
}

// autoFix executes a remediation action. report carries the task list from
// the check pass that triggered remediation, saving a refetch.
func (m *Monitor) autoFix(ctx context.Context, action string, report *Report) FixResult {
	switch action {
	case ActionRetryDeadLetter:
		retried := 0
		for _, task := range report.TaskList {
			if task.Status != omni.TaskDeadLetter {
				continue
			}
			if retried == 3 {
				break
			}
			if err := m.omni.RetryTask(ctx, task.ID); err != nil {
				m.logger.Warn("retry of task %s failed: %v", task.ID, err)
				continue
			}
			retried++
		}
		return FixResult{
			Action:  action,
			Success: retried > 0,
			Message: fmt.Sprintf("Retried %d tasks", retried),
		}

	case ActionTriggerTestRun:
		result, err := m.omni.RunPipeline(ctx, true)
		if err != nil {
			return FixResult{Action: action, Message: fmt.Sprintf("Test run failed: %v", err)}
		}
		return FixResult{
			Action:  action,
			Success: true,
			Message: fmt.Sprintf("Test run triggered: %s (task %s)", result.Status, result.TaskID),
		}

	case ActionCheckRailwayStatus:
		// Deployment problems need a human decision.
		return FixResult{Action: action, Message: "Need to check Railway dashboard manually"}

	default:
		return FixResult{Action: action, Message: "Unknown action"}
	}
}
