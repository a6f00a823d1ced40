package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"phoenix/pkg/omni"
)

// CheckOmniAgentTool reports the content service's health, task queue, and
// recent scheduler runs.
type CheckOmniAgentTool struct {
	omni *omni.Client
}

// NewCheckOmniAgentTool creates the check_omni_agent tool.
func NewCheckOmniAgentTool(client *omni.Client) *CheckOmniAgentTool {
	return &CheckOmniAgentTool{omni: client}
}

// Definition implements Tool.
func (t *CheckOmniAgentTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        "check_omni_agent",
		Description: "Check status of the Omni-Agent animal facts automation",
		InputSchema: objectSchema(nil, map[string]Property{
			"check_type": {Type: "string", Enum: []string{"health", "tasks", "scheduler", "all"}, Description: "What to check"},
		}),
	}
}

// RequiresApproval implements Tool.
func (t *CheckOmniAgentTool) RequiresApproval() bool { return false }

// Exec implements Tool.
func (t *CheckOmniAgentTool) Exec(ctx context.Context, args map[string]any) (string, error) {
	checkType := OptionalStringArg(args, "check_type", "all")
	var results []string

	if checkType == "health" || checkType == "all" {
		if health, err := t.omni.GetHealth(ctx); err != nil {
			results = append(results, fmt.Sprintf("Health: ERROR - %v", err))
		} else {
			results = append(results, "Health: "+health.Status)
		}
	}

	if checkType == "tasks" || checkType == "all" {
		if tasks, err := t.omni.ListTasks(ctx); err != nil {
			results = append(results, fmt.Sprintf("Tasks: ERROR - %v", err))
		} else {
			counts := omni.CountTasks(tasks)
			results = append(results, fmt.Sprintf("Tasks: %d pending, %d processing, %d completed, %d failed",
				counts.Pending, counts.Processing, counts.Completed, counts.Failed+counts.DeadLetter))
		}
	}

	if checkType == "scheduler" || checkType == "all" {
		if logs, err := t.omni.GetSchedulerLogs(ctx, 5); err != nil {
			results = append(results, fmt.Sprintf("Scheduler: ERROR - %v", err))
		} else if len(logs) > 0 {
			results = append(results, "Recent runs:")
			for i, log := range logs {
				if i == 3 {
					break
				}
				results = append(results, fmt.Sprintf("  - %s: %s", log.Animal, log.Status))
			}
		}
	}

	if len(results) == 0 {
		return "Could not check status", nil
	}
	return strings.Join(results, "\n"), nil
}

// RunAnimalFactsTool triggers a video generation run.
type RunAnimalFactsTool struct {
	omni *omni.Client
}

// NewRunAnimalFactsTool creates the run_animal_facts tool.
func NewRunAnimalFactsTool(client *omni.Client) *RunAnimalFactsTool {
	return &RunAnimalFactsTool{omni: client}
}

// Definition implements Tool.
func (t *RunAnimalFactsTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        "run_animal_facts",
		Description: "Trigger a new animal facts video generation",
		InputSchema: objectSchema(nil, map[string]Property{
			"dry_run": {Type: "boolean", Description: "If true, generates video but doesn't post. Default true."},
		}),
	}
}

// RequiresApproval implements Tool.
func (t *RunAnimalFactsTool) RequiresApproval() bool { return false }

// Exec implements Tool.
func (t *RunAnimalFactsTool) Exec(ctx context.Context, args map[string]any) (string, error) {
	dryRun := OptionalBoolArg(args, "dry_run", true)

	result, err := t.omni.RunPipeline(ctx, dryRun)
	if err != nil {
		return "", err
	}
	if result.Status != "started" {
		return "Unexpected response, status: " + result.Status, nil
	}

	mode := "LIVE"
	if dryRun {
		mode = "DRY RUN"
	}
	fact := result.Fact
	if len(fact) > 100 {
		fact = fact[:100] + "..."
	}
	return fmt.Sprintf("Video generation STARTED\n\nAnimal: %s\nFact: %s\nTask ID: %s\nMode: %s\n\nTakes 2-5 min. Say 'check task %s' to monitor.",
		result.Animal, fact, result.TaskID, mode, result.TaskID), nil
}

// CheckTaskTool reports a task's status and queues the finished video.
type CheckTaskTool struct {
	omni  *omni.Client
	queue *MediaQueue
}

// NewCheckTaskTool creates the check_task tool.
func NewCheckTaskTool(client *omni.Client, queue *MediaQueue) *CheckTaskTool {
	return &CheckTaskTool{omni: client, queue: queue}
}

// Definition implements Tool.
func (t *CheckTaskTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        "check_task",
		Description: "Check status of a specific video task by ID",
		InputSchema: objectSchema([]string{"task_id"}, map[string]Property{
			"task_id": {Type: "string", Description: "The task ID"},
		}),
	}
}

// RequiresApproval implements Tool.
func (t *CheckTaskTool) RequiresApproval() bool { return false }

// Exec implements Tool.
func (t *CheckTaskTool) Exec(ctx context.Context, args map[string]any) (string, error) {
	taskID, err := StringArg(args, "task_id")
	if err != nil {
		return "", err
	}

	task, err := t.omni.GetTask(ctx, taskID)
	if err != nil {
		return "", err
	}

	shortID := taskID
	if len(shortID) > 12 {
		shortID = shortID[:12] + "..."
	}
	msg := fmt.Sprintf("Task: %s\nAnimal: %s\nStatus: %s\n", shortID, task.Animal, strings.ToUpper(task.Status))

	switch {
	case task.Status == omni.TaskCompleted && task.Video != "":
		msg += "\nVIDEO READY\nURL: " + task.Video
		t.queue.Queue(task.Video, task.Animal+" Facts")
	case task.Status == omni.TaskProcessing:
		msg += "\nStill processing... check again in 1-2 min"
	case task.Status == omni.TaskFailed || task.Status == omni.TaskDeadLetter:
		reason := task.Error
		if reason == "" {
			reason = "Unknown"
		}
		msg += "\nFailed: " + reason
	}
	return msg, nil
}

// TestOverlayTool renders a caption overlay test and queues the preview.
type TestOverlayTool struct {
	omni  *omni.Client
	queue *MediaQueue
}

// NewTestOverlayTool creates the test_overlay tool.
func NewTestOverlayTool(client *omni.Client, queue *MediaQueue) *TestOverlayTool {
	return &TestOverlayTool{omni: client, queue: queue}
}

// Definition implements Tool.
func (t *TestOverlayTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        "test_overlay",
		Description: "Test video text overlay without using Sora API credits",
		InputSchema: objectSchema(nil, map[string]Property{
			"fact":   {Type: "string", Description: "Fact text to overlay"},
			"animal": {Type: "string", Description: "Animal name"},
		}),
	}
}

// RequiresApproval implements Tool.
func (t *TestOverlayTool) RequiresApproval() bool { return false }

// Exec implements Tool.
func (t *TestOverlayTool) Exec(ctx context.Context, args map[string]any) (string, error) {
	result, err := t.omni.TestOverlay(ctx, OptionalStringArg(args, "fact", ""), OptionalStringArg(args, "animal", ""))
	if err != nil {
		return "", err
	}
	if result.Status != "success" {
		reason := result.Message
		if reason == "" {
			reason = "Unknown"
		}
		return "Failed: " + reason, nil
	}

	caption := result.Animal
	if caption == "" {
		caption = "Test"
	}
	t.queue.Queue(result.VideoURL, "Overlay Test: "+caption)

	fact := result.Fact
	if len(fact) > 80 {
		fact = fact[:80] + "..."
	}
	return fmt.Sprintf("OVERLAY TEST COMPLETE\n\nAnimal: %s\nFact: %s\n\nSending video preview...", result.Animal, fact), nil
}

// GetOmniLogsTool lists recent scheduler runs.
type GetOmniLogsTool struct {
	omni *omni.Client
}

// NewGetOmniLogsTool creates the get_omni_logs tool.
func NewGetOmniLogsTool(client *omni.Client) *GetOmniLogsTool {
	return &GetOmniLogsTool{omni: client}
}

// Definition implements Tool.
func (t *GetOmniLogsTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        "get_omni_logs",
		Description: "Get recent scheduler/run logs from Omni-Agent",
		InputSchema: objectSchema(nil, map[string]Property{
			"limit": {Type: "integer", Description: "Number of entries (default 10)"},
		}),
	}
}

// RequiresApproval implements Tool.
func (t *GetOmniLogsTool) RequiresApproval() bool { return false }

// Exec implements Tool.
func (t *GetOmniLogsTool) Exec(ctx context.Context, args map[string]any) (string, error) {
	limit := OptionalIntArg(args, "limit", 10)

	logs, err := t.omni.GetSchedulerLogs(ctx, limit)
	if err != nil {
		return "", err
	}
	if len(logs) == 0 {
		return "No logs found", nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Last %d runs:\n", len(logs))
	for _, log := range logs {
		timestamp := log.Timestamp
		if len(timestamp) > 16 {
			timestamp = timestamp[:16]
		}
		fmt.Fprintf(&b, "- %s | %s | %s\n", timestamp, log.Animal, log.Status)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

// GetPostHistoryTool lists recent posts newest first.
type GetPostHistoryTool struct {
	omni *omni.Client
}

// NewGetPostHistoryTool creates the get_post_history tool.
func NewGetPostHistoryTool(client *omni.Client) *GetPostHistoryTool {
	return &GetPostHistoryTool{omni: client}
}

// Definition implements Tool.
func (t *GetPostHistoryTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        "get_post_history",
		Description: "Get detailed history of recent posts - what was posted, when, which platforms, success/failure",
		InputSchema: objectSchema(nil, map[string]Property{
			"limit": {Type: "integer", Description: "Number of posts to show (default 5)"},
		}),
	}
}

// RequiresApproval implements Tool.
func (t *GetPostHistoryTool) RequiresApproval() bool { return false }

// Exec implements Tool.
func (t *GetPostHistoryTool) Exec(ctx context.Context, args map[string]any) (string, error) {
	limit := OptionalIntArg(args, "limit", 5)

	tasks, err := t.omni.ListTasks(ctx)
	if err != nil {
		return "", err
	}
	if len(tasks) == 0 {
		return "No posts yet.", nil
	}

	sort.Slice(tasks, func(i, j int) bool { return tasks[i].CreatedAt > tasks[j].CreatedAt })
	if len(tasks) > limit {
		tasks = tasks[:limit]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Last %d posts:\n\n", len(tasks))
	for i, task := range tasks {
		created := task.CreatedAt
		if len(created) > 16 {
			created = created[:16]
		}
		fmt.Fprintf(&b, "%d. %s\n   %s | %s\n", i+1, task.Animal, created, task.Status)
		if task.Video != "" {
			b.WriteString("   Video: Ready\n")
		}
		if task.Posted {
			b.WriteString("   Posted to: IG, TikTok, YT\n")
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

// GetProjectStatsTool aggregates service health, schedules, and task totals.
type GetProjectStatsTool struct {
	omni *omni.Client
}

// NewGetProjectStatsTool creates the get_project_stats tool.
func NewGetProjectStatsTool(client *omni.Client) *GetProjectStatsTool {
	return &GetProjectStatsTool{omni: client}
}

// Definition implements Tool.
func (t *GetProjectStatsTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        "get_project_stats",
		Description: "Get comprehensive stats: total posts, success rate, uptime, next scheduled run",
		InputSchema: objectSchema(nil, map[string]Property{}),
	}
}

// RequiresApproval implements Tool.
func (t *GetProjectStatsTool) RequiresApproval() bool { return false }

// Exec implements Tool. Each upstream call degrades independently so a
// partial outage still yields a useful report.
func (t *GetProjectStatsTool) Exec(ctx context.Context, _ map[string]any) (string, error) {
	healthStatus := "unknown"
	if health, err := t.omni.GetHealth(ctx); err == nil {
		healthStatus = health.Status
	}

	var tasks []omni.Task
	if listed, err := t.omni.ListTasks(ctx); err == nil {
		tasks = listed
	}
	counts := omni.CountTasks(tasks)
	total := len(tasks)
	failed := counts.Failed + counts.DeadLetter
	successRate := 0.0
	if total > 0 {
		successRate = float64(counts.Completed) / float64(total) * 100
	}

	scheduleInfo := "Not configured"
	if schedules, err := t.omni.GetSchedules(ctx); err == nil && len(schedules) > 0 {
		state := "Paused"
		if schedules[0].Enabled {
			state = "Active"
		}
		scheduleInfo = fmt.Sprintf("Every %dh (%s)", schedules[0].IntervalHours, state)
	}

	animalCount := "?"
	lastRun := "Never"
	if admin, err := t.omni.GetAdminStatus(ctx); err == nil {
		animalCount = fmt.Sprintf("%d", admin.AnimalCount)
		if admin.LastRun != "" {
			lastRun = admin.LastRun
			if len(lastRun) > 16 {
				lastRun = lastRun[:16]
			}
		}
	}

	return fmt.Sprintf(`PROJECT STATS

Status: %s
Schedule: %s

Posts:
   Total: %d
   Successful: %d
   Failed: %d
   Success Rate: %.0f%%

Animals: %s in rotation
Last Run: %s`,
		strings.ToUpper(healthStatus), scheduleInfo, total, counts.Completed, failed, successRate, animalCount, lastRun), nil
}

// UpdateScheduleTool changes the posting interval. Gated.
type UpdateScheduleTool struct {
	omni *omni.Client
}

// NewUpdateScheduleTool creates the update_schedule tool.
func NewUpdateScheduleTool(client *omni.Client) *UpdateScheduleTool {
	return &UpdateScheduleTool{omni: client}
}

// Definition implements Tool.
func (t *UpdateScheduleTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        "update_schedule",
		Description: "Change the posting schedule (how often videos are posted). REQUIRES USER APPROVAL.",
		InputSchema: objectSchema([]string{"interval_hours"}, map[string]Property{
			"interval_hours": {Type: "integer", Description: "Hours between posts (e.g., 6 = every 6 hours = 4 posts/day)"},
		}),
	}
}

// RequiresApproval implements Tool.
func (t *UpdateScheduleTool) RequiresApproval() bool { return true }

// Exec implements Tool. Runs only after the approval gate resolves approve.
func (t *UpdateScheduleTool) Exec(ctx context.Context, args map[string]any) (string, error) {
	intervalHours := OptionalIntArg(args, "interval_hours", 0)
	if intervalHours < 1 || intervalHours > 24 {
		return "", fmt.Errorf("interval_hours must be between 1 and 24, got %d", intervalHours)
	}

	schedules, err := t.omni.GetSchedules(ctx)
	if err != nil {
		return "", err
	}
	if len(schedules) == 0 {
		return "No schedule found to update", nil
	}

	postsPerDay := 24 / intervalHours
	if err := t.omni.UpdateSchedule(ctx, schedules[0].ID, intervalHours, postsPerDay); err != nil {
		return "", err
	}
	return fmt.Sprintf("Schedule updated\n\nNew: Every %d hours (%d posts/day)", intervalHours, postsPerDay), nil
}

// ToggleSchedulerTool pauses or resumes automatic posting. Gated.
type ToggleSchedulerTool struct {
	omni *omni.Client
}

// NewToggleSchedulerTool creates the toggle_scheduler tool.
func NewToggleSchedulerTool(client *omni.Client) *ToggleSchedulerTool {
	return &ToggleSchedulerTool{omni: client}
}

// Definition implements Tool.
func (t *ToggleSchedulerTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        "toggle_scheduler",
		Description: "Pause or resume the automatic posting schedule. REQUIRES USER APPROVAL.",
		InputSchema: objectSchema([]string{"enabled"}, map[string]Property{
			"enabled": {Type: "boolean", Description: "True to enable/resume, False to pause"},
		}),
	}
}

// RequiresApproval implements Tool.
func (t *ToggleSchedulerTool) RequiresApproval() bool { return true }

// Exec implements Tool. Runs only after the approval gate resolves approve.
func (t *ToggleSchedulerTool) Exec(ctx context.Context, args map[string]any) (string, error) {
	enabled := OptionalBoolArg(args, "enabled", true)

	schedules, err := t.omni.GetSchedules(ctx)
	if err != nil {
		return "", err
	}
	if len(schedules) == 0 {
		return "No schedule found", nil
	}

	if err := t.omni.ToggleSchedule(ctx, schedules[0].ID); err != nil {
		return "", err
	}
	state := "paused"
	if enabled {
		state = "active"
	}
	return "Scheduler toggled. Automatic posting is now " + state + ".", nil
}

// AddAnimalTool registers a new animal in the content rotation.
type AddAnimalTool struct {
	omni *omni.Client
}

// NewAddAnimalTool creates the add_animal tool.
func NewAddAnimalTool(client *omni.Client) *AddAnimalTool {
	return &AddAnimalTool{omni: client}
}

// Definition implements Tool.
func (t *AddAnimalTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        "add_animal",
		Description: "Add a new animal to the content rotation",
		InputSchema: objectSchema([]string{"name"}, map[string]Property{
			"name":         {Type: "string", Description: "Animal name (e.g., 'Snow Leopard')"},
			"habitat":      {Type: "string", Description: "Where it lives (e.g., 'Himalayan Mountains')"},
			"prompt_style": {Type: "string", Description: "Visual description for video (e.g., 'prowling through snow')"},
		}),
	}
}

// RequiresApproval implements Tool.
func (t *AddAnimalTool) RequiresApproval() bool { return false }

// Exec implements Tool.
func (t *AddAnimalTool) Exec(ctx context.Context, args map[string]any) (string, error) {
	name, err := StringArg(args, "name")
	if err != nil {
		return "", err
	}

	err = t.omni.AddAnimal(ctx, name, OptionalStringArg(args, "habitat", ""), OptionalStringArg(args, "prompt_style", ""))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Added: %s\n\nIt's now in the rotation and may appear in future videos.", name), nil
}

// ListThemesTool lists all content themes.
type ListThemesTool struct {
	omni *omni.Client
}

// NewListThemesTool creates the list_themes tool.
func NewListThemesTool(client *omni.Client) *ListThemesTool {
	return &ListThemesTool{omni: client}
}

// Definition implements Tool.
func (t *ListThemesTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        "list_themes",
		Description: "List all content themes (e.g., Animal Facts, Baby Animals, etc.)",
		InputSchema: objectSchema(nil, map[string]Property{}),
	}
}

// RequiresApproval implements Tool.
func (t *ListThemesTool) RequiresApproval() bool { return false }

// Exec implements Tool.
func (t *ListThemesTool) Exec(ctx context.Context, _ map[string]any) (string, error) {
	themes, err := t.omni.ListThemes(ctx)
	if err != nil {
		return "", err
	}
	if len(themes) == 0 {
		return "No themes found. Create one with 'create a new theme called [name]'", nil
	}

	var b strings.Builder
	b.WriteString("CONTENT THEMES\n\n")
	for _, theme := range themes {
		state := "active"
		if !theme.Enabled {
			state = "paused"
		}
		fmt.Fprintf(&b, "%s (%s) [%s]\n", theme.Name, theme.ID, state)
		fmt.Fprintf(&b, "   Source: %s | Schedule: Every %dh\n", strings.ToUpper(theme.VideoSource), theme.ScheduleHours)
		if theme.VisualStyle != "" {
			style := theme.VisualStyle
			if len(style) > 40 {
				style = style[:40] + "..."
			}
			fmt.Fprintf(&b, "   Style: %s\n", style)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

// visualStyles maps the shortcuts advertised in the schema to the full
// prompt fragments the service expects.
var visualStyles = map[string]string{
	"hyper_realistic": "hyper-realistic, nature documentary quality, cinematic 4K, detailed textures",
	"cute_soft":       "soft lighting, gentle colors, cute aesthetic, warm tones, dreamy atmosphere",
	"dramatic":        "dramatic lighting, cinematic, intense mood, high contrast, epic scale",
	"underwater":      "underwater photography, blue tones, serene, crystal clear water",
	"cinematic":       "cinematic quality, professional lighting, film-like color grading",
}

// CreateThemeTool registers a new content theme.
type CreateThemeTool struct {
	omni *omni.Client
}

// NewCreateThemeTool creates the create_theme tool.
func NewCreateThemeTool(client *omni.Client) *CreateThemeTool {
	return &CreateThemeTool{omni: client}
}

// Definition implements Tool.
func (t *CreateThemeTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        "create_theme",
		Description: "Create a new content theme for video automation",
		InputSchema: objectSchema([]string{"name"}, map[string]Property{
			"name":           {Type: "string", Description: "Theme name (e.g., 'Baby Animals', 'Ocean Life')"},
			"description":    {Type: "string", Description: "What this theme is about"},
			"content_focus":  {Type: "string", Description: "What kind of content/facts to generate (e.g., 'facts about baby and newborn animals')"},
			"visual_style":   {Type: "string", Description: "Visual style: 'hyper_realistic', 'cute_soft', 'dramatic', 'underwater', 'cinematic'"},
			"schedule_hours": {Type: "integer", Description: "Hours between posts (6 = 4 posts/day, 8 = 3 posts/day)"},
		}),
	}
}

// RequiresApproval implements Tool.
func (t *CreateThemeTool) RequiresApproval() bool { return false }

// Exec implements Tool.
func (t *CreateThemeTool) Exec(ctx context.Context, args map[string]any) (string, error) {
	name, err := StringArg(args, "name")
	if err != nil {
		return "", err
	}
	description := OptionalStringArg(args, "description", "")
	if description == "" {
		description = "Auto-generated " + name + " content"
	}

	style := OptionalStringArg(args, "visual_style", "cinematic")
	if full, ok := visualStyles[style]; ok {
		style = full
	}

	contentPrompt := ""
	if focus := OptionalStringArg(args, "content_focus", ""); focus != "" {
		contentPrompt = fmt.Sprintf("Generate ONE fascinating fact about {animal} focusing on %s. Keep it under 100 words. Make it surprising and shareable.", focus)
	}

	created, err := t.omni.CreateTheme(ctx, omni.Theme{
		Name:          name,
		Description:   description,
		ContentPrompt: contentPrompt,
		VisualStyle:   style,
		ScheduleHours: OptionalIntArg(args, "schedule_hours", 6),
	})
	if err != nil {
		return "", err
	}

	themeID := created.ID
	if themeID == "" {
		themeID = strings.ReplaceAll(strings.ToLower(name), " ", "_")
	}
	return fmt.Sprintf("THEME CREATED: %s\n\nID: %s\nSchedule: Every %d hours\nSource: Sora AI\n\nTo run: 'run %s theme'\nTo use stock footage: 'switch %s to pexels'",
		name, themeID, OptionalIntArg(args, "schedule_hours", 6), themeID, themeID), nil
}

// RunThemeTool generates a video for a theme and queues the result.
type RunThemeTool struct {
	omni  *omni.Client
	queue *MediaQueue
}

// NewRunThemeTool creates the run_theme tool.
func NewRunThemeTool(client *omni.Client, queue *MediaQueue) *RunThemeTool {
	return &RunThemeTool{omni: client, queue: queue}
}

// Definition implements Tool.
func (t *RunThemeTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        "run_theme",
		Description: "Run video generation for a specific theme",
		InputSchema: objectSchema([]string{"theme_id"}, map[string]Property{
			"theme_id": {Type: "string", Description: "Theme ID (e.g., 'animal_facts', 'baby_animals')"},
			"dry_run":  {Type: "boolean", Description: "If true, generate but don't post to socials"},
			"subject":  {Type: "string", Description: "Optional specific subject (e.g., 'baby elephant')"},
		}),
	}
}

// RequiresApproval implements Tool.
func (t *RunThemeTool) RequiresApproval() bool { return false }

// Exec implements Tool.
func (t *RunThemeTool) Exec(ctx context.Context, args map[string]any) (string, error) {
	themeID, err := StringArg(args, "theme_id")
	if err != nil {
		return "", err
	}
	dryRun := OptionalBoolArg(args, "dry_run", true)

	result, err := t.omni.RunTheme(ctx, themeID, dryRun, OptionalStringArg(args, "subject", ""))
	if err != nil {
		return "", err
	}
	if !result.Succeeded() {
		reason := result.Error
		if reason == "" {
			reason = "Unknown error"
		}
		return "Failed: " + reason, nil
	}

	if result.Video != "" && !dryRun {
		t.queue.Queue(result.Video, result.Subject+" - "+result.Theme)
	}

	mode := "LIVE"
	if dryRun {
		mode = "DRY RUN"
	}
	posted := "No"
	if result.Posted {
		posted = "Yes - sent to socials"
	}
	video := "N/A"
	if result.Video != "" {
		video = "Ready"
	}
	content := result.Content
	if len(content) > 80 {
		content = content[:80] + "..."
	}
	return fmt.Sprintf("THEME RUN COMPLETE (%s)\n\nTheme: %s\nSubject: %s\nContent: %s\nPosted: %s\nVideo: %s",
		mode, result.Theme, result.Subject, content, posted, video), nil
}

// SetThemeSourceTool switches a theme's video source.
type SetThemeSourceTool struct {
	omni *omni.Client
}

// NewSetThemeSourceTool creates the set_theme_source tool.
func NewSetThemeSourceTool(client *omni.Client) *SetThemeSourceTool {
	return &SetThemeSourceTool{omni: client}
}

// Definition implements Tool.
func (t *SetThemeSourceTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        "set_theme_source",
		Description: "Change video source for a theme (AI-generated or stock footage)",
		InputSchema: objectSchema([]string{"theme_id", "source"}, map[string]Property{
			"theme_id": {Type: "string", Description: "Theme ID"},
			"source":   {Type: "string", Enum: []string{"sora", "pexels", "manual"}, Description: "Video source: 'sora' (AI), 'pexels' (stock), 'manual' (your URL)"},
		}),
	}
}

// RequiresApproval implements Tool.
func (t *SetThemeSourceTool) RequiresApproval() bool { return false }

// Exec implements Tool.
func (t *SetThemeSourceTool) Exec(ctx context.Context, args map[string]any) (string, error) {
	themeID, err := StringArg(args, "theme_id")
	if err != nil {
		return "", err
	}
	source, err := StringArg(args, "source")
	if err != nil {
		return "", err
	}

	if err := t.omni.SetThemeSource(ctx, themeID, source); err != nil {
		return "", err
	}

	sourceNames := map[string]string{
		"sora":   "Sora AI (generated)",
		"pexels": "Pexels (free stock)",
		"manual": "Manual (your URL)",
	}
	display := sourceNames[source]
	if display == "" {
		display = source
	}
	return fmt.Sprintf("%s now uses: %s", themeID, display), nil
}

// DeleteThemeTool removes a theme. The default theme is protected.
type DeleteThemeTool struct {
	omni *omni.Client
}

// NewDeleteThemeTool creates the delete_theme tool.
func NewDeleteThemeTool(client *omni.Client) *DeleteThemeTool {
	return &DeleteThemeTool{omni: client}
}

// Definition implements Tool.
func (t *DeleteThemeTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        "delete_theme",
		Description: "Delete a content theme",
		InputSchema: objectSchema([]string{"theme_id"}, map[string]Property{
			"theme_id": {Type: "string", Description: "Theme ID to delete"},
		}),
	}
}

// RequiresApproval implements Tool.
func (t *DeleteThemeTool) RequiresApproval() bool { return false }

// Exec implements Tool.
func (t *DeleteThemeTool) Exec(ctx context.Context, args map[string]any) (string, error) {
	themeID, err := StringArg(args, "theme_id")
	if err != nil {
		return "", err
	}
	if themeID == "animal_facts" {
		return "Cannot delete the default 'animal_facts' theme", nil
	}

	if err := t.omni.DeleteTheme(ctx, themeID); err != nil {
		return "", err
	}
	return fmt.Sprintf("Theme '%s' deleted", themeID), nil
}
