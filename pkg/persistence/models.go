package persistence

import (
	"time"

	"github.com/google/uuid"
)

// Conversation turn roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Project status constants.
const (
	ProjectActive    = "active"
	ProjectPaused    = "paused"
	ProjectCompleted = "completed"
	ProjectArchived  = "archived"
)

// Approval status constants.
const (
	ApprovalPending  = "pending"
	ApprovalApproved = "approved"
	ApprovalRejected = "rejected"
	ApprovalExpired  = "expired"
)

// Audit status constants.
const (
	AuditSuccess  = "success"
	AuditFailed   = "failed"
	AuditPending  = "pending"
	AuditRejected = "rejected"
)

// ApprovalTTL is how long a pending approval stays actionable.
const ApprovalTTL = 10 * time.Minute

// ConversationTurn is one row of the append-only conversation log.
// ToolCalls holds the model's tool-call batch as a JSON blob; it is set only
// on assistant turns that requested tools.
type ConversationTurn struct {
	CreatedAt time.Time `json:"created_at"`
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	ProjectID string    `json:"project_id,omitempty"`
	ToolCalls string    `json:"tool_calls,omitempty"`
}

// Project is a tracked development project. Projects are never hard-deleted;
// they move to the archived status instead.
type Project struct {
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
	LastActiveAt     time.Time `json:"last_active_at"`
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	Name             string    `json:"name"`
	Description      string    `json:"description,omitempty"`
	TechStack        string    `json:"tech_stack,omitempty"` // JSON array
	GitHubRepo       string    `json:"github_repo,omitempty"`
	RailwayProjectID string    `json:"railway_project_id,omitempty"`
	DeploymentURL    string    `json:"deployment_url,omitempty"`
	Status           string    `json:"status"`
	CurrentTask      string    `json:"current_task,omitempty"`
	ContextSummary   string    `json:"context_summary,omitempty"`
	Decisions        string    `json:"decisions,omitempty"` // JSON array
}

// UserPreferences holds per-user defaults, created lazily on first access.
type UserPreferences struct {
	UpdatedAt           time.Time `json:"updated_at"`
	UserID              string    `json:"user_id"`
	PreferredLanguages  string    `json:"preferred_languages,omitempty"`  // JSON array
	PreferredFrameworks string    `json:"preferred_frameworks,omitempty"` // JSON array
	CodeStyle           string    `json:"code_style,omitempty"`           // JSON object
	DefaultPlatform     string    `json:"default_platform,omitempty"`
	Verbosity           string    `json:"verbosity"`
	Timezone            string    `json:"timezone"`
	Custom              string    `json:"custom,omitempty"` // JSON object
}

// PendingApproval is a gated action awaiting a user decision.
type PendingApproval struct {
	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   time.Time  `json:"expires_at"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	ActionType  string     `json:"action_type"`
	Description string     `json:"description"`
	Payload     string     `json:"payload"` // JSON object, tool arguments
	Status      string     `json:"status"`
}

// Expired reports whether the approval's TTL has passed at the given time.
func (a *PendingApproval) Expired(now time.Time) bool {
	return now.After(a.ExpiresAt)
}

// AuditLogEntry records a gated resolution or tool execution outcome.
type AuditLogEntry struct {
	CreatedAt    time.Time `json:"created_at"`
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Action       string    `json:"action"`
	Details      string    `json:"details,omitempty"` // JSON object
	Status       string    `json:"status"`
	ErrorMessage string    `json:"error_message,omitempty"`
}

// NewID generates a UUID string for primary keys.
func NewID() string {
	return uuid.New().String()
}

// NewPendingApproval builds a pending approval with the standard TTL.
func NewPendingApproval(userID, actionType, description, payload string) *PendingApproval {
	now := time.Now().UTC()
	return &PendingApproval{
		ID:          NewID(),
		UserID:      userID,
		ActionType:  actionType,
		Description: description,
		Payload:     payload,
		Status:      ApprovalPending,
		CreatedAt:   now,
		ExpiresAt:   now.Add(ApprovalTTL),
	}
}

// DefaultPreferences returns the preference row created on first access.
func DefaultPreferences(userID string) *UserPreferences {
	return &UserPreferences{
		UserID:    userID,
		Verbosity: "normal",
		Timezone:  "UTC",
		UpdatedAt: time.Now().UTC(),
	}
}
