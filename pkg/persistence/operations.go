package persistence

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a lookup by ID matches no row.
var ErrNotFound = errors.New("not found")

// DatabaseOperations provides methods for database operations.
type DatabaseOperations struct {
	db *sql.DB
}

// NewDatabaseOperations creates a new DatabaseOperations instance.
func NewDatabaseOperations(db *sql.DB) *DatabaseOperations {
	return &DatabaseOperations{db: db}
}

// --- Conversations ---

// AppendTurn appends a conversation turn. The log is append-only; turns are
// never updated or deleted.
func (ops *DatabaseOperations) AppendTurn(turn *ConversationTurn) error {
	if turn.ID == "" {
		turn.ID = NewID()
	}
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO conversations (id, user_id, role, content, project_id, tool_calls, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := ops.db.Exec(query, turn.ID, turn.UserID, turn.Role, turn.Content,
		nullString(turn.ProjectID), nullString(turn.ToolCalls), turn.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append conversation turn: %w", err)
	}
	return nil
}

// RecentTurns returns up to limit most recent turns for a user, newest first.
func (ops *DatabaseOperations) RecentTurns(userID string, limit int) ([]*ConversationTurn, error) {
	query := `
		SELECT id, user_id, role, content, COALESCE(project_id, ''), COALESCE(tool_calls, ''), created_at
		FROM conversations
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`
	rows, err := ops.db.Query(query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversation turns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var turns []*ConversationTurn
	for rows.Next() {
		turn := &ConversationTurn{}
		if err := rows.Scan(&turn.ID, &turn.UserID, &turn.Role, &turn.Content,
			&turn.ProjectID, &turn.ToolCalls, &turn.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan conversation turn: %w", err)
		}
		turns = append(turns, turn)
	}
	return turns, rows.Err()
}

// --- Projects ---

// UpsertProject inserts or updates a project record.
func (ops *DatabaseOperations) UpsertProject(project *Project) error {
	now := time.Now().UTC()
	if project.ID == "" {
		project.ID = NewID()
	}
	if project.CreatedAt.IsZero() {
		project.CreatedAt = now
	}
	if project.Status == "" {
		project.Status = ProjectActive
	}
	project.UpdatedAt = now
	if project.LastActiveAt.IsZero() {
		project.LastActiveAt = now
	}

	query := `
		INSERT INTO projects (id, user_id, name, description, tech_stack, github_repo,
			railway_project_id, deployment_url, status, current_task, context_summary,
			decisions, created_at, updated_at, last_active_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			tech_stack = excluded.tech_stack,
			github_repo = excluded.github_repo,
			railway_project_id = excluded.railway_project_id,
			deployment_url = excluded.deployment_url,
			status = excluded.status,
			current_task = excluded.current_task,
			context_summary = excluded.context_summary,
			decisions = excluded.decisions,
			updated_at = excluded.updated_at,
			last_active_at = excluded.last_active_at`
	_, err := ops.db.Exec(query, project.ID, project.UserID, project.Name,
		project.Description, project.TechStack, project.GitHubRepo,
		project.RailwayProjectID, project.DeploymentURL, project.Status,
		project.CurrentTask, project.ContextSummary, project.Decisions,
		project.CreatedAt, project.UpdatedAt, project.LastActiveAt)
	if err != nil {
		return fmt.Errorf("failed to upsert project: %w", err)
	}
	return nil
}

const projectColumns = `id, user_id, name, COALESCE(description, ''), COALESCE(tech_stack, ''),
	COALESCE(github_repo, ''), COALESCE(railway_project_id, ''), COALESCE(deployment_url, ''),
	status, COALESCE(current_task, ''), COALESCE(context_summary, ''), COALESCE(decisions, ''),
	created_at, updated_at, last_active_at`

func scanProject(row interface{ Scan(...any) error }) (*Project, error) {
	project := &Project{}
	err := row.Scan(&project.ID, &project.UserID, &project.Name, &project.Description,
		&project.TechStack, &project.GitHubRepo, &project.RailwayProjectID,
		&project.DeploymentURL, &project.Status, &project.CurrentTask,
		&project.ContextSummary, &project.Decisions, &project.CreatedAt,
		&project.UpdatedAt, &project.LastActiveAt)
	if err != nil {
		return nil, err
	}
	return project, nil
}

// GetProjectByID returns a project by ID, or ErrNotFound.
func (ops *DatabaseOperations) GetProjectByID(projectID string) (*Project, error) {
	query := "SELECT " + projectColumns + " FROM projects WHERE id = ?"
	project, err := scanProject(ops.db.QueryRow(query, projectID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return project, nil
}

// ListProjects returns a user's projects, most recently active first.
// Archived projects are included; callers filter by status as needed.
func (ops *DatabaseOperations) ListProjects(userID string) ([]*Project, error) {
	query := "SELECT " + projectColumns + " FROM projects WHERE user_id = ? ORDER BY last_active_at DESC"
	rows, err := ops.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var projects []*Project
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, project)
	}
	return projects, rows.Err()
}

// ActiveProject returns the user's most recently active project with
// status=active, or ErrNotFound if none.
func (ops *DatabaseOperations) ActiveProject(userID string) (*Project, error) {
	query := "SELECT " + projectColumns + ` FROM projects
		WHERE user_id = ? AND status = 'active'
		ORDER BY last_active_at DESC LIMIT 1`
	project, err := scanProject(ops.db.QueryRow(query, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active project: %w", err)
	}
	return project, nil
}

// --- Preferences ---

// GetPreferences returns the user's preferences, creating the default row on
// first access.
func (ops *DatabaseOperations) GetPreferences(userID string) (*UserPreferences, error) {
	query := `
		SELECT user_id, COALESCE(preferred_languages, ''), COALESCE(preferred_frameworks, ''),
			COALESCE(code_style, ''), COALESCE(default_platform, ''), verbosity, timezone,
			COALESCE(custom, ''), updated_at
		FROM user_preferences WHERE user_id = ?`
	prefs := &UserPreferences{}
	err := ops.db.QueryRow(query, userID).Scan(&prefs.UserID, &prefs.PreferredLanguages,
		&prefs.PreferredFrameworks, &prefs.CodeStyle, &prefs.DefaultPlatform,
		&prefs.Verbosity, &prefs.Timezone, &prefs.Custom, &prefs.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		prefs = DefaultPreferences(userID)
		if err := ops.UpsertPreferences(prefs); err != nil {
			return nil, err
		}
		return prefs, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get preferences: %w", err)
	}
	return prefs, nil
}

// UpsertPreferences inserts or updates a preference row.
func (ops *DatabaseOperations) UpsertPreferences(prefs *UserPreferences) error {
	prefs.UpdatedAt = time.Now().UTC()
	query := `
		INSERT INTO user_preferences (user_id, preferred_languages, preferred_frameworks,
			code_style, default_platform, verbosity, timezone, custom, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			preferred_languages = excluded.preferred_languages,
			preferred_frameworks = excluded.preferred_frameworks,
			code_style = excluded.code_style,
			default_platform = excluded.default_platform,
			verbosity = excluded.verbosity,
			timezone = excluded.timezone,
			custom = excluded.custom,
			updated_at = excluded.updated_at`
	_, err := ops.db.Exec(query, prefs.UserID, prefs.PreferredLanguages,
		prefs.PreferredFrameworks, prefs.CodeStyle, prefs.DefaultPlatform,
		prefs.Verbosity, prefs.Timezone, prefs.Custom, prefs.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert preferences: %w", err)
	}
	return nil
}

// --- Approvals ---

// CreateApproval persists a new pending approval.
func (ops *DatabaseOperations) CreateApproval(approval *PendingApproval) error {
	query := `
		INSERT INTO pending_approvals (id, user_id, action_type, description, payload,
			status, created_at, expires_at, resolved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := ops.db.Exec(query, approval.ID, approval.UserID, approval.ActionType,
		approval.Description, approval.Payload, approval.Status,
		approval.CreatedAt, approval.ExpiresAt, approval.ResolvedAt)
	if err != nil {
		return fmt.Errorf("failed to create approval: %w", err)
	}
	return nil
}

// GetApprovalByID returns an approval by ID, or ErrNotFound.
func (ops *DatabaseOperations) GetApprovalByID(approvalID string) (*PendingApproval, error) {
	query := `
		SELECT id, user_id, action_type, description, payload, status, created_at, expires_at, resolved_at
		FROM pending_approvals WHERE id = ?`
	approval := &PendingApproval{}
	err := ops.db.QueryRow(query, approvalID).Scan(&approval.ID, &approval.UserID,
		&approval.ActionType, &approval.Description, &approval.Payload,
		&approval.Status, &approval.CreatedAt, &approval.ExpiresAt, &approval.ResolvedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get approval: %w", err)
	}
	return approval, nil
}

// ResolveApproval moves an approval to a terminal status. It only updates rows
// still in pending, so a lost race leaves the first resolution in place.
func (ops *DatabaseOperations) ResolveApproval(approvalID, status string, resolvedAt time.Time) error {
	query := `
		UPDATE pending_approvals SET status = ?, resolved_at = ?
		WHERE id = ? AND status = 'pending'`
	result, err := ops.db.Exec(query, status, resolvedAt, approvalID)
	if err != nil {
		return fmt.Errorf("failed to resolve approval: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check resolve result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// PendingApprovals returns all approvals still in the pending status.
func (ops *DatabaseOperations) PendingApprovals() ([]*PendingApproval, error) {
	query := `
		SELECT id, user_id, action_type, description, payload, status, created_at, expires_at, resolved_at
		FROM pending_approvals WHERE status = 'pending' ORDER BY created_at`
	rows, err := ops.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending approvals: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var approvals []*PendingApproval
	for rows.Next() {
		approval := &PendingApproval{}
		if err := rows.Scan(&approval.ID, &approval.UserID, &approval.ActionType,
			&approval.Description, &approval.Payload, &approval.Status,
			&approval.CreatedAt, &approval.ExpiresAt, &approval.ResolvedAt); err != nil {
			return nil, fmt.Errorf("failed to scan approval: %w", err)
		}
		approvals = append(approvals, approval)
	}
	return approvals, rows.Err()
}

// --- Audit log ---

// AppendAuditLog writes an audit entry. The audit log is append-only.
func (ops *DatabaseOperations) AppendAuditLog(entry *AuditLogEntry) error {
	if entry.ID == "" {
		entry.ID = NewID()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO audit_logs (id, user_id, action, details, status, error_message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := ops.db.Exec(query, entry.ID, entry.UserID, entry.Action,
		nullString(entry.Details), entry.Status, nullString(entry.ErrorMessage), entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append audit log: %w", err)
	}
	return nil
}

// RecentAuditLogs returns up to limit most recent audit entries for a user.
func (ops *DatabaseOperations) RecentAuditLogs(userID string, limit int) ([]*AuditLogEntry, error) {
	query := `
		SELECT id, user_id, action, COALESCE(details, ''), status, COALESCE(error_message, ''), created_at
		FROM audit_logs WHERE user_id = ? ORDER BY created_at DESC LIMIT ?`
	rows, err := ops.db.Query(query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit logs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []*AuditLogEntry
	for rows.Next() {
		entry := &AuditLogEntry{}
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.Action, &entry.Details,
			&entry.Status, &entry.ErrorMessage, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit log: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// nullString converts "" to NULL for optional columns.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
