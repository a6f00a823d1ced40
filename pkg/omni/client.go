// Package omni provides an HTTP client for the omni-agent content service:
// health, task queue, scheduler, themes, and pipeline triggers.
package omni

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultBaseURL is the production omni-agent deployment.
const DefaultBaseURL = "https://web-production-770b9.up.railway.app"

// Client talks to an omni-agent instance.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a client for the given base URL. An empty baseURL
// falls back to DefaultBaseURL.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// BaseURL returns the service base URL, used to join relative media paths.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// do executes a JSON request against the service and decodes the response
// into out when non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("omni request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("omni API error (%d %s): %s", resp.StatusCode, path, strings.TrimSpace(string(detail)))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode omni response: %w", err)
		}
	}
	return nil
}

// Health is the service health report.
type Health struct {
	Status string `json:"status"`
}

// GetHealth returns the service health status.
func (c *Client) GetHealth(ctx context.Context) (*Health, error) {
	var health Health
	if err := c.do(ctx, http.MethodGet, "/health", nil, &health); err != nil {
		return nil, err
	}
	return &health, nil
}

// Task statuses reported by the service.
const (
	TaskPending    = "pending"
	TaskProcessing = "processing"
	TaskCompleted  = "completed"
	TaskFailed     = "failed"
	TaskDeadLetter = "dead_letter"
)

// Task is one video generation task.
type Task struct {
	ID          string `json:"id"`
	Animal      string `json:"animal"`
	Status      string `json:"status"`
	Video       string `json:"video"`
	Error       string `json:"error"`
	CreatedAt   string `json:"created_at"`
	CompletedAt string `json:"completed_at"`
	Posted      bool   `json:"posted"`
}

// UnmarshalJSON accepts both the "id" and the older "task_id" key for the
// task identifier; the service emits either depending on endpoint.
func (t *Task) UnmarshalJSON(data []byte) error {
	type plain Task
	aux := struct {
		*plain
		TaskID string `json:"task_id"`
	}{plain: (*plain)(t)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if t.ID == "" {
		t.ID = aux.TaskID
	}
	return nil
}

// ListTasks returns all tasks. The service returns either a bare array or
// an object with a "tasks" key depending on version, so both are accepted.
func (c *Client) ListTasks(ctx context.Context) ([]Task, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/api/tasks", nil, &raw); err != nil {
		return nil, err
	}

	var tasks []Task
	if err := json.Unmarshal(raw, &tasks); err == nil {
		return tasks, nil
	}
	var wrapped struct {
		Tasks []Task `json:"tasks"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("failed to decode task list: %w", err)
	}
	return wrapped.Tasks, nil
}

// GetTask returns one task by ID.
func (c *Client) GetTask(ctx context.Context, taskID string) (*Task, error) {
	var task Task
	if err := c.do(ctx, http.MethodGet, "/api/tasks/"+taskID, nil, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// RetryTask requeues a failed or dead-letter task.
func (c *Client) RetryTask(ctx context.Context, taskID string) error {
	return c.do(ctx, http.MethodPost, "/api/tasks/"+taskID+"/retry", nil, nil)
}

// TaskCounts summarizes the task queue by status.
type TaskCounts struct {
	Pending    int
	Processing int
	Completed  int
	Failed     int
	DeadLetter int
}

// CountTasks buckets a task list by status.
func CountTasks(tasks []Task) TaskCounts {
	var counts TaskCounts
	for _, task := range tasks {
		switch task.Status {
		case TaskPending:
			counts.Pending++
		case TaskProcessing:
			counts.Processing++
		case TaskCompleted:
			counts.Completed++
		case TaskFailed:
			counts.Failed++
		case TaskDeadLetter:
			counts.DeadLetter++
		}
	}
	return counts
}

// SchedulerLog is one scheduler run record.
type SchedulerLog struct {
	Animal    string `json:"animal"`
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// GetSchedulerLogs returns up to limit recent scheduler runs.
func (c *Client) GetSchedulerLogs(ctx context.Context, limit int) ([]SchedulerLog, error) {
	if limit <= 0 {
		limit = 10
	}
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/scheduler/logs?limit=%d", limit), nil, &raw); err != nil {
		return nil, err
	}

	var logs []SchedulerLog
	if err := json.Unmarshal(raw, &logs); err == nil {
		return logs, nil
	}
	var wrapped struct {
		Logs []SchedulerLog `json:"logs"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("failed to decode scheduler logs: %w", err)
	}
	return wrapped.Logs, nil
}

// Schedule is one recurring posting schedule.
type Schedule struct {
	ID            string `json:"id"`
	IntervalHours int    `json:"interval_hours"`
	PostsPerDay   int    `json:"posts_per_day"`
	Enabled       bool   `json:"enabled"`
}

// GetSchedules returns all posting schedules.
func (c *Client) GetSchedules(ctx context.Context) ([]Schedule, error) {
	var data struct {
		Schedules []Schedule `json:"schedules"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/scheduler/schedules", nil, &data); err != nil {
		return nil, err
	}
	return data.Schedules, nil
}

// UpdateSchedule sets the posting interval for a schedule.
func (c *Client) UpdateSchedule(ctx context.Context, scheduleID string, intervalHours, postsPerDay int) error {
	return c.do(ctx, http.MethodPost, "/api/scheduler/schedules", map[string]any{
		"id":             scheduleID,
		"interval_hours": intervalHours,
		"posts_per_day":  postsPerDay,
	}, nil)
}

// ToggleSchedule flips a schedule between active and paused.
func (c *Client) ToggleSchedule(ctx context.Context, scheduleID string) error {
	return c.do(ctx, http.MethodPost, "/api/scheduler/schedules/"+scheduleID+"/toggle", nil, nil)
}

// AdminStatus is the service's admin summary.
type AdminStatus struct {
	AnimalCount int    `json:"animal_count"`
	LastVideo   string `json:"last_video"`
	LastRun     string `json:"last_run"`
}

// GetAdminStatus returns the admin summary.
func (c *Client) GetAdminStatus(ctx context.Context) (*AdminStatus, error) {
	var status AdminStatus
	if err := c.do(ctx, http.MethodGet, "/api/admin/status", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// AddAnimal registers a new animal in the content rotation.
func (c *Client) AddAnimal(ctx context.Context, name, habitat, promptStyle string) error {
	if habitat == "" {
		habitat = "Natural habitat"
	}
	if promptStyle == "" {
		promptStyle = "in its natural environment"
	}
	return c.do(ctx, http.MethodPost, "/api/admin/animals", map[string]any{
		"id":           strings.ReplaceAll(strings.ToLower(name), " ", "_"),
		"name":         name,
		"habitat":      habitat,
		"prompt_style": promptStyle,
	}, nil)
}

// RunResult is the response to a pipeline trigger.
type RunResult struct {
	Status string `json:"status"`
	Animal string `json:"animal"`
	Fact   string `json:"fact"`
	TaskID string `json:"task_id"`
}

// RunPipeline starts a video generation run. With dryRun the service
// produces the video without posting it.
func (c *Client) RunPipeline(ctx context.Context, dryRun bool) (*RunResult, error) {
	var result RunResult
	err := c.do(ctx, http.MethodPost, "/api/animal-facts/run", map[string]any{
		"dry_run":  dryRun,
		"duration": 10,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// OverlayResult is the response to an overlay test.
type OverlayResult struct {
	Status   string `json:"status"`
	Animal   string `json:"animal"`
	Fact     string `json:"fact"`
	Message  string `json:"message"`
	VideoURL string `json:"video_url"`
}

// TestOverlay renders a caption overlay test video. Both arguments are
// optional; the service picks defaults for anything omitted. The returned
// VideoURL is absolute.
func (c *Client) TestOverlay(ctx context.Context, fact, animal string) (*OverlayResult, error) {
	payload := map[string]any{}
	if fact != "" {
		payload["fact"] = fact
	}
	if animal != "" {
		payload["animal"] = animal
	}

	var result OverlayResult
	if err := c.do(ctx, http.MethodPost, "/api/animal-facts/test-overlay", payload, &result); err != nil {
		return nil, err
	}
	if result.VideoURL != "" && strings.HasPrefix(result.VideoURL, "/") {
		result.VideoURL = c.baseURL + result.VideoURL
	}
	return &result, nil
}

// Theme is one content theme configuration.
type Theme struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	ContentPrompt string `json:"content_prompt"`
	VisualStyle   string `json:"visual_style"`
	VideoSource   string `json:"video_source"`
	ScheduleHours int    `json:"schedule_hours"`
	Enabled       bool   `json:"enabled"`
}

// ListThemes returns all content themes.
func (c *Client) ListThemes(ctx context.Context) ([]Theme, error) {
	var data struct {
		Themes []Theme `json:"themes"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/themes", nil, &data); err != nil {
		return nil, err
	}
	return data.Themes, nil
}

// CreateTheme registers a new content theme and returns it as stored.
func (c *Client) CreateTheme(ctx context.Context, theme Theme) (*Theme, error) {
	if theme.VideoSource == "" {
		theme.VideoSource = "sora"
	}
	var data struct {
		Theme Theme `json:"theme"`
	}
	err := c.do(ctx, http.MethodPost, "/api/themes", map[string]any{
		"name":           theme.Name,
		"description":    theme.Description,
		"content_prompt": theme.ContentPrompt,
		"visual_style":   theme.VisualStyle,
		"schedule_hours": theme.ScheduleHours,
		"video_source":   theme.VideoSource,
	}, &data)
	if err != nil {
		return nil, err
	}
	return &data.Theme, nil
}

// ThemeRunResult is the response to a theme run.
type ThemeRunResult struct {
	Status  string `json:"status"`
	Theme   string `json:"theme"`
	Subject string `json:"subject"`
	Content string `json:"content"`
	Video   string `json:"video"`
	Error   string `json:"error"`
	Posted  bool   `json:"posted"`
}

// Succeeded reports whether the run completed, in either live or dry-run mode.
func (r *ThemeRunResult) Succeeded() bool {
	return r.Status == "success" || r.Status == "dry_run_success"
}

// RunTheme generates a video for a theme. subject is optional and
// overrides the theme's rotation pick.
func (c *Client) RunTheme(ctx context.Context, themeID string, dryRun bool, subject string) (*ThemeRunResult, error) {
	payload := map[string]any{"dry_run": dryRun, "duration": 10}
	if subject != "" {
		payload["subject"] = subject
	}

	var result ThemeRunResult
	if err := c.do(ctx, http.MethodPost, "/api/themes/"+themeID+"/run", payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SetThemeSource switches a theme's video source (sora, pexels, manual).
func (c *Client) SetThemeSource(ctx context.Context, themeID, source string) error {
	return c.do(ctx, http.MethodPost, "/api/themes/"+themeID+"/source", map[string]any{"source": source}, nil)
}

// DeleteTheme removes a theme.
func (c *Client) DeleteTheme(ctx context.Context, themeID string) error {
	return c.do(ctx, http.MethodDelete, "/api/themes/"+themeID, nil, nil)
}
