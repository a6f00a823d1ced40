package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"phoenix/pkg/persistence"
)

// ListProjectsTool lists the requesting user's tracked projects. The user id
// comes from the call context, not from model-supplied arguments.
type ListProjectsTool struct {
	store *persistence.DatabaseOperations
}

// NewListProjectsTool creates the list_projects tool.
func NewListProjectsTool(store *persistence.DatabaseOperations) *ListProjectsTool {
	return &ListProjectsTool{store: store}
}

// Definition implements Tool.
func (t *ListProjectsTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        "list_projects",
		Description: "List the user's tracked development projects with status and current task",
		InputSchema: objectSchema(nil, map[string]Property{}),
	}
}

// RequiresApproval implements Tool.
func (t *ListProjectsTool) RequiresApproval() bool { return false }

// Exec implements Tool.
func (t *ListProjectsTool) Exec(ctx context.Context, _ map[string]any) (string, error) {
	userID := UserIDFromContext(ctx)
	if userID == "" {
		return "", fmt.Errorf("no user id in context")
	}

	projects, err := t.store.ListProjects(userID)
	if err != nil {
		return "", err
	}
	if len(projects) == 0 {
		return "No projects tracked yet.", nil
	}

	var b strings.Builder
	b.WriteString("PROJECTS\n\n")
	for _, project := range projects {
		fmt.Fprintf(&b, "%s [%s]\n", project.Name, project.Status)
		if project.Description != "" {
			fmt.Fprintf(&b, "   %s\n", project.Description)
		}
		if project.GitHubRepo != "" {
			fmt.Fprintf(&b, "   Repo: %s\n", project.GitHubRepo)
		}
		if project.CurrentTask != "" {
			fmt.Fprintf(&b, "   Current task: %s\n", project.CurrentTask)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

// UpdateProjectTool creates or updates a project record so the model can
// maintain long-lived context between conversations.
type UpdateProjectTool struct {
	store *persistence.DatabaseOperations
}

// NewUpdateProjectTool creates the update_project tool.
func NewUpdateProjectTool(store *persistence.DatabaseOperations) *UpdateProjectTool {
	return &UpdateProjectTool{store: store}
}

// Definition implements Tool.
func (t *UpdateProjectTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        "update_project",
		Description: "Create or update a tracked project's status, current task, or context summary",
		InputSchema: objectSchema([]string{"name"}, map[string]Property{
			"name":            {Type: "string", Description: "Project name"},
			"description":     {Type: "string", Description: "What the project is"},
			"github_repo":     {Type: "string", Description: "Linked GitHub repository"},
			"status":          {Type: "string", Enum: []string{"active", "paused", "completed", "archived"}, Description: "Project status"},
			"current_task":    {Type: "string", Description: "What is being worked on right now"},
			"context_summary": {Type: "string", Description: "Summary of recent progress and decisions"},
		}),
	}
}

// RequiresApproval implements Tool.
func (t *UpdateProjectTool) RequiresApproval() bool { return false }

// Exec implements Tool. Matches on name within the user's projects; creates
// a new active project when no match exists.
func (t *UpdateProjectTool) Exec(ctx context.Context, args map[string]any) (string, error) {
	userID := UserIDFromContext(ctx)
	if userID == "" {
		return "", fmt.Errorf("no user id in context")
	}
	name, err := StringArg(args, "name")
	if err != nil {
		return "", err
	}

	projects, err := t.store.ListProjects(userID)
	if err != nil {
		return "", err
	}

	var project *persistence.Project
	for _, existing := range projects {
		if strings.EqualFold(existing.Name, name) {
			project = existing
			break
		}
	}

	now := time.Now().UTC()
	created := false
	if project == nil {
		created = true
		project = &persistence.Project{
			ID:        persistence.NewID(),
			UserID:    userID,
			Name:      name,
			Status:    persistence.ProjectActive,
			CreatedAt: now,
		}
	}

	if v := OptionalStringArg(args, "description", ""); v != "" {
		project.Description = v
	}
	if v := OptionalStringArg(args, "github_repo", ""); v != "" {
		project.GitHubRepo = v
	}
	if v := OptionalStringArg(args, "status", ""); v != "" {
		project.Status = v
	}
	if v := OptionalStringArg(args, "current_task", ""); v != "" {
		project.CurrentTask = v
	}
	if v := OptionalStringArg(args, "context_summary", ""); v != "" {
		project.ContextSummary = v
	}
	project.UpdatedAt = now
	project.LastActiveAt = now

	if err := t.store.UpsertProject(project); err != nil {
		return "", err
	}
	if created {
		return fmt.Sprintf("Project '%s' created and set active.", name), nil
	}
	return fmt.Sprintf("Project '%s' updated.", name), nil
}
