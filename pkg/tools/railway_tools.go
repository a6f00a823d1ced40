package tools

import (
	"context"
	"fmt"
	"strings"

	"phoenix/pkg/omni"
	"phoenix/pkg/railway"
)

// GetRailwayLogsTool reports recent activity for a deployed project. The
// Railway log API requires a deployment id the model does not have, so this
// composes the service's own health, task, and scheduler endpoints instead.
// Only the omni-agent project exposes those endpoints.
type GetRailwayLogsTool struct {
	omni *omni.Client
}

// NewGetRailwayLogsTool creates the get_railway_logs tool.
func NewGetRailwayLogsTool(omniClient *omni.Client) *GetRailwayLogsTool {
	return &GetRailwayLogsTool{omni: omniClient}
}

// Definition implements Tool.
func (t *GetRailwayLogsTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        "get_railway_logs",
		Description: "Get recent deployment logs from Railway",
		InputSchema: objectSchema([]string{"project"}, map[string]Property{
			"project": {Type: "string", Enum: []string{"omni-agent", "phoenix-ai"}, Description: "Which project's logs to get"},
			"lines":   {Type: "integer", Description: "Number of lines (default 50)"},
		}),
	}
}

// RequiresApproval implements Tool.
func (t *GetRailwayLogsTool) RequiresApproval() bool { return false }

// Exec implements Tool.
func (t *GetRailwayLogsTool) Exec(ctx context.Context, args map[string]any) (string, error) {
	project, err := StringArg(args, "project")
	if err != nil {
		return "", err
	}
	if project != "omni-agent" {
		return "Only omni-agent logs available currently", nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "=== %s STATUS ===\n\n", strings.ToUpper(project))

	if health, err := t.omni.GetHealth(ctx); err != nil {
		fmt.Fprintf(&b, "Health: ERROR - %v\n", err)
	} else {
		fmt.Fprintf(&b, "Health: %s\n", health.Status)
	}

	if tasks, err := t.omni.ListTasks(ctx); err == nil {
		counts := omni.CountTasks(tasks)
		fmt.Fprintf(&b, "Tasks: %d total (%d completed, %d failed, %d dead letter)\n",
			len(tasks), counts.Completed, counts.Failed, counts.DeadLetter)
	}

	if logs, err := t.omni.GetSchedulerLogs(ctx, 10); err == nil && len(logs) > 0 {
		b.WriteString("\nRecent activity:\n")
		for i, log := range logs {
			if i == 5 {
				break
			}
			fmt.Fprintf(&b, "- %s: %s\n", log.Animal, log.Status)
		}
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

// RailwayStatusTool reports a project's latest deployment status.
type RailwayStatusTool struct {
	railway  *railway.Client
	projects map[string]string // project name -> Railway project id
}

// NewRailwayStatusTool creates the railway_status tool. projects maps the
// names the model uses to Railway project ids.
func NewRailwayStatusTool(client *railway.Client, projects map[string]string) *RailwayStatusTool {
	return &RailwayStatusTool{railway: client, projects: projects}
}

// Definition implements Tool.
func (t *RailwayStatusTool) Definition() ToolDefinition {
	names := make([]string, 0, len(t.projects))
	for name := range t.projects {
		names = append(names, name)
	}
	return ToolDefinition{
		Name:        "railway_status",
		Description: "Check deployment status of a Railway project",
		InputSchema: objectSchema([]string{"project"}, map[string]Property{
			"project": {Type: "string", Enum: names, Description: "Which project to check"},
		}),
	}
}

// RequiresApproval implements Tool.
func (t *RailwayStatusTool) RequiresApproval() bool { return false }

// Exec implements Tool.
func (t *RailwayStatusTool) Exec(ctx context.Context, args map[string]any) (string, error) {
	project, err := StringArg(args, "project")
	if err != nil {
		return "", err
	}
	projectID, ok := t.projects[project]
	if !ok {
		return fmt.Sprintf("Unknown project %q", project), nil
	}

	status, err := t.railway.GetProjectStatus(ctx, projectID)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Project %s: %s\n", project, status.Status)
	for _, deployment := range status.RecentDeployments {
		fmt.Fprintf(&b, "- %s %s (%s)\n", deployment.ID, deployment.Status, deployment.CreatedAt)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

// SetRailwayEnvTool upserts an environment variable. Gated: changing service
// configuration is a side effect the user must confirm.
type SetRailwayEnvTool struct {
	railway *railway.Client
}

// NewSetRailwayEnvTool creates the set_railway_env tool.
func NewSetRailwayEnvTool(client *railway.Client) *SetRailwayEnvTool {
	return &SetRailwayEnvTool{railway: client}
}

// Definition implements Tool.
func (t *SetRailwayEnvTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        "set_railway_env",
		Description: "Set an environment variable on a Railway project. REQUIRES USER APPROVAL.",
		InputSchema: objectSchema(
			[]string{"project_id", "environment_id", "name", "value"},
			map[string]Property{
				"project_id":     {Type: "string", Description: "Railway project id"},
				"environment_id": {Type: "string", Description: "Railway environment id"},
				"name":           {Type: "string", Description: "Variable name"},
				"value":          {Type: "string", Description: "Variable value"},
			}),
	}
}

// RequiresApproval implements Tool.
func (t *SetRailwayEnvTool) RequiresApproval() bool { return true }

// Exec implements Tool. Runs only after the approval gate resolves approve.
func (t *SetRailwayEnvTool) Exec(ctx context.Context, args map[string]any) (string, error) {
	projectID, err := StringArg(args, "project_id")
	if err != nil {
		return "", err
	}
	environmentID, err := StringArg(args, "environment_id")
	if err != nil {
		return "", err
	}
	name, err := StringArg(args, "name")
	if err != nil {
		return "", err
	}
	value, err := StringArg(args, "value")
	if err != nil {
		return "", err
	}

	if err := t.railway.SetVariable(ctx, projectID, environmentID, name, value); err != nil {
		return "", err
	}
	return fmt.Sprintf("Variable %s set. Redeploy for it to take effect.", name), nil
}

// RedeployRailwayTool triggers a service redeploy. Gated.
type RedeployRailwayTool struct {
	railway *railway.Client
}

// NewRedeployRailwayTool creates the redeploy_railway tool.
func NewRedeployRailwayTool(client *railway.Client) *RedeployRailwayTool {
	return &RedeployRailwayTool{railway: client}
}

// Definition implements Tool.
func (t *RedeployRailwayTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        "redeploy_railway",
		Description: "Redeploy a Railway service. REQUIRES USER APPROVAL.",
		InputSchema: objectSchema([]string{"service_id", "environment_id"}, map[string]Property{
			"service_id":     {Type: "string", Description: "Railway service id"},
			"environment_id": {Type: "string", Description: "Railway environment id"},
		}),
	}
}

// RequiresApproval implements Tool.
func (t *RedeployRailwayTool) RequiresApproval() bool { return true }

// Exec implements Tool. Runs only after the approval gate resolves approve.
func (t *RedeployRailwayTool) Exec(ctx context.Context, args map[string]any) (string, error) {
	serviceID, err := StringArg(args, "service_id")
	if err != nil {
		return "", err
	}
	environmentID, err := StringArg(args, "environment_id")
	if err != nil {
		return "", err
	}

	if err := t.railway.Redeploy(ctx, serviceID, environmentID); err != nil {
		return "", err
	}
	return "Redeploy triggered. The service should be live again in a few minutes.", nil
}
