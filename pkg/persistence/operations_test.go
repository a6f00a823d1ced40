package persistence

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDB(t *testing.T) *DatabaseOperations {
	t.Helper()
	db, err := InitializeDatabase(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewDatabaseOperations(db)
}

func TestInitializeIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	db, err := InitializeDatabase(path)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = InitializeDatabase(path)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	version, err := getSchemaVersion(db)
	require.NoError(t, err)
	assert.Equal(t, CurrentSchemaVersion, version)
}

func TestConversationAppendAndRecent(t *testing.T) {
	ops := testDB(t)

	base := time.Now().UTC().Add(-time.Hour)
	for i, content := range []string{"first", "second", "third"} {
		require.NoError(t, ops.AppendTurn(&ConversationTurn{
			UserID:    "u1",
			Role:      RoleUser,
			Content:   content,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}
	// Another user's turn must not leak in.
	require.NoError(t, ops.AppendTurn(&ConversationTurn{
		UserID: "u2", Role: RoleUser, Content: "other",
	}))

	turns, err := ops.RecentTurns("u1", 2)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "third", turns[0].Content)
	assert.Equal(t, "second", turns[1].Content)
}

func TestConversationToolCallsRoundTrip(t *testing.T) {
	ops := testDB(t)

	calls := `[{"id":"call_1","name":"check_omni_agent","arguments":"{}"}]`
	require.NoError(t, ops.AppendTurn(&ConversationTurn{
		UserID:    "u1",
		Role:      RoleAssistant,
		Content:   "checking",
		ToolCalls: calls,
	}))

	turns, err := ops.RecentTurns("u1", 1)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, calls, turns[0].ToolCalls)
}

func TestProjectUpsertAndActive(t *testing.T) {
	ops := testDB(t)

	project := &Project{
		UserID:     "u1",
		Name:       "omni-agent",
		GitHubRepo: "owner/omni-agent",
	}
	require.NoError(t, ops.UpsertProject(project))
	require.NotEmpty(t, project.ID)
	assert.Equal(t, ProjectActive, project.Status)

	got, err := ops.GetProjectByID(project.ID)
	require.NoError(t, err)
	assert.Equal(t, "omni-agent", got.Name)

	active, err := ops.ActiveProject("u1")
	require.NoError(t, err)
	assert.Equal(t, project.ID, active.ID)

	// Archiving removes it from the active lookup but not from the list.
	project.Status = ProjectArchived
	require.NoError(t, ops.UpsertProject(project))

	_, err = ops.ActiveProject("u1")
	assert.ErrorIs(t, err, ErrNotFound)

	projects, err := ops.ListProjects("u1")
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, ProjectArchived, projects[0].Status)
}

func TestPreferencesLazyCreation(t *testing.T) {
	ops := testDB(t)

	prefs, err := ops.GetPreferences("u1")
	require.NoError(t, err)
	assert.Equal(t, "normal", prefs.Verbosity)
	assert.Equal(t, "UTC", prefs.Timezone)

	prefs.Verbosity = "detailed"
	prefs.PreferredLanguages = `["go","python"]`
	require.NoError(t, ops.UpsertPreferences(prefs))

	got, err := ops.GetPreferences("u1")
	require.NoError(t, err)
	assert.Equal(t, "detailed", got.Verbosity)
	assert.Equal(t, `["go","python"]`, got.PreferredLanguages)
}

func TestApprovalLifecycle(t *testing.T) {
	ops := testDB(t)

	approval := NewPendingApproval("u1", "edit_github_file", "Edit main.go", `{"path":"main.go"}`)
	require.NoError(t, ops.CreateApproval(approval))
	assert.Equal(t, ApprovalPending, approval.Status)
	assert.Equal(t, ApprovalTTL, approval.ExpiresAt.Sub(approval.CreatedAt))

	pending, err := ops.PendingApprovals()
	require.NoError(t, err)
	require.Len(t, pending, 1)

	require.NoError(t, ops.ResolveApproval(approval.ID, ApprovalApproved, time.Now().UTC()))

	got, err := ops.GetApprovalByID(approval.ID)
	require.NoError(t, err)
	assert.Equal(t, ApprovalApproved, got.Status)
	require.NotNil(t, got.ResolvedAt)

	// A second resolution loses the race: the row is no longer pending.
	err = ops.ResolveApproval(approval.ID, ApprovalRejected, time.Now().UTC())
	assert.ErrorIs(t, err, ErrNotFound)

	got, err = ops.GetApprovalByID(approval.ID)
	require.NoError(t, err)
	assert.Equal(t, ApprovalApproved, got.Status)
}

func TestGetApprovalByIDNotFound(t *testing.T) {
	ops := testDB(t)
	_, err := ops.GetApprovalByID("no-such-id")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAuditLogAppendAndQuery(t *testing.T) {
	ops := testDB(t)

	base := time.Now().UTC().Add(-time.Hour)
	require.NoError(t, ops.AppendAuditLog(&AuditLogEntry{
		UserID:    "u1",
		Action:    "edit_github_file",
		Status:    AuditSuccess,
		CreatedAt: base,
	}))
	require.NoError(t, ops.AppendAuditLog(&AuditLogEntry{
		UserID:       "u1",
		Action:       "redeploy_railway",
		Status:       AuditFailed,
		ErrorMessage: "deploy timeout",
		CreatedAt:    base.Add(time.Minute),
	}))

	entries, err := ops.RecentAuditLogs("u1", 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "redeploy_railway", entries[0].Action)
	assert.Equal(t, "deploy timeout", entries[0].ErrorMessage)
}
