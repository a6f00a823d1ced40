package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phoenix/pkg/approval"
	"phoenix/pkg/brain"
	"phoenix/pkg/config"
	"phoenix/pkg/persistence"
	"phoenix/pkg/tools"
)

// apiCall is one captured Bot API invocation.
type apiCall struct {
	method  string
	payload map[string]any
}

// fakeAPI captures Bot API calls and answers with ok envelopes.
type fakeAPI struct {
	calls []apiCall
}

func (f *fakeAPI) server(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(r.URL.Path, "/")
		method := parts[len(parts)-1]

		var payload map[string]any
		_ = json.NewDecoder(r.Body).Decode(&payload)
		f.calls = append(f.calls, apiCall{method: method, payload: payload})

		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "result": []any{}})
	}))
}

func (f *fakeAPI) sent() []string {
	var texts []string
	for _, call := range f.calls {
		if call.method == "sendMessage" {
			texts = append(texts, call.payload["text"].(string))
		}
	}
	return texts
}

type fakeProcessor struct {
	result *brain.Result
	err    error

	userID string
	text   string
}

func (p *fakeProcessor) Process(_ context.Context, userID, text string) (*brain.Result, error) {
	p.userID = userID
	p.text = text
	return p.result, p.err
}

type fakeGate struct {
	approveResult string
	approveErr    error
	rejectErr     error
	pending       *persistence.PendingApproval
	getErr        error

	approved []string
	rejected []string
}

func (g *fakeGate) Approve(_ context.Context, _, approvalID string) (string, error) {
	g.approved = append(g.approved, approvalID)
	return g.approveResult, g.approveErr
}

func (g *fakeGate) Reject(_, approvalID string) error {
	g.rejected = append(g.rejected, approvalID)
	return g.rejectErr
}

func (g *fakeGate) Get(_, _ string) (*persistence.PendingApproval, error) {
	return g.pending, g.getErr
}

func (g *fakeGate) PendingCount() int { return 0 }

func newStore(t *testing.T) *persistence.DatabaseOperations {
	t.Helper()
	db, err := persistence.InitializeDatabase(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return persistence.NewDatabaseOperations(db)
}

func newBot(t *testing.T, api *fakeAPI, proc Processor, gate Approver) *Bot {
	t.Helper()
	srv := api.server(t)
	t.Cleanup(srv.Close)

	cfg := config.DefaultConfig()
	cfg.Telegram.AllowedUsers = []string{"100"}

	return New(cfg, NewClientWithBaseURL("token", srv.URL), proc, gate, newStore(t), nil)
}

func textMessage(userID, chatID int64, text string) *Message {
	return &Message{From: &User{ID: userID}, Chat: Chat{ID: chatID}, Text: text}
}

func TestUnauthorizedUserRefused(t *testing.T) {
	api := &fakeAPI{}
	proc := &fakeProcessor{result: &brain.Result{Reply: "should not happen"}}
	b := newBot(t, api, proc, &fakeGate{})

	b.handleMessage(context.Background(), textMessage(999, 999, "hello"))

	require.Len(t, api.sent(), 1)
	assert.Equal(t, "Sorry, this is a private bot.", api.sent()[0])
	assert.Empty(t, proc.text, "processor must not run for strangers")
}

func TestMessageDispatchedToProcessor(t *testing.T) {
	api := &fakeAPI{}
	proc := &fakeProcessor{result: &brain.Result{Reply: "done"}}
	b := newBot(t, api, proc, &fakeGate{})

	b.handleMessage(context.Background(), textMessage(100, 42, "deploy the thing"))

	assert.Equal(t, "100", proc.userID)
	assert.Equal(t, "deploy the thing", proc.text)
	require.Len(t, api.sent(), 1)
	assert.Equal(t, "done", api.sent()[0])
}

func TestProcessorErrorTruncated(t *testing.T) {
	api := &fakeAPI{}
	proc := &fakeProcessor{err: assert.AnError}
	b := newBot(t, api, proc, &fakeGate{})

	b.handleMessage(context.Background(), textMessage(100, 42, "hi"))

	require.Len(t, api.sent(), 1)
	assert.True(t, strings.HasPrefix(api.sent()[0], "Something went wrong: "))
	assert.LessOrEqual(t, len(api.sent()[0]), len("Something went wrong: ")+maxErrorLen+3)
}

func TestLongReplyChunked(t *testing.T) {
	api := &fakeAPI{}
	long := strings.Repeat("line of output\n", 700) // well over one chunk
	proc := &fakeProcessor{result: &brain.Result{Reply: long}}
	b := newBot(t, api, proc, &fakeGate{})

	b.handleMessage(context.Background(), textMessage(100, 42, "logs please"))

	sent := api.sent()
	require.Greater(t, len(sent), 1)
	for _, chunk := range sent {
		assert.LessOrEqual(t, len(chunk), maxMessageLen)
	}
}

func TestApprovalRenderedWithButtons(t *testing.T) {
	api := &fakeAPI{}
	pending := persistence.NewPendingApproval("100", "edit_github_file", "Edit main.py in owner/repo", "{}")
	proc := &fakeProcessor{result: &brain.Result{
		Reply:    "This action needs your approval.",
		Approval: pending,
	}}
	b := newBot(t, api, proc, &fakeGate{})

	b.handleMessage(context.Background(), textMessage(100, 42, "fix the bug"))

	require.Len(t, api.calls, 1)
	call := api.calls[0]
	assert.Equal(t, "sendMessage", call.method)
	assert.Contains(t, call.payload["text"], "Edit main.py in owner/repo")

	markup, err := json.Marshal(call.payload["reply_markup"])
	require.NoError(t, err)
	assert.Contains(t, string(markup), "approve:"+pending.ID)
	assert.Contains(t, string(markup), "reject:"+pending.ID)
	assert.Contains(t, string(markup), "details:"+pending.ID)
}

func TestMediaDelivered(t *testing.T) {
	api := &fakeAPI{}
	proc := &fakeProcessor{result: &brain.Result{
		Reply: "VIDEO READY",
		Media: &tools.MediaAttachment{URL: "https://cdn.example.com/v.mp4", Caption: "Otter Facts"},
	}}
	b := newBot(t, api, proc, &fakeGate{})

	b.handleMessage(context.Background(), textMessage(100, 42, "check task t1"))

	var video *apiCall
	for i := range api.calls {
		if api.calls[i].method == "sendVideo" {
			video = &api.calls[i]
		}
	}
	require.NotNil(t, video)
	assert.Equal(t, "https://cdn.example.com/v.mp4", video.payload["video"])
	assert.Equal(t, "Otter Facts", video.payload["caption"])
}

func TestCallbackApprove(t *testing.T) {
	api := &fakeAPI{}
	gate := &fakeGate{approveResult: "FILE UPDATED"}
	b := newBot(t, api, &fakeProcessor{}, gate)

	b.handleCallback(context.Background(), &CallbackQuery{
		ID:      "cb1",
		From:    User{ID: 100},
		Message: &Message{Chat: Chat{ID: 42}},
		Data:    "approve:ap-123",
	})

	assert.Equal(t, []string{"ap-123"}, gate.approved)
	require.Len(t, api.sent(), 1)
	assert.Contains(t, api.sent()[0], "Approved.")
	assert.Contains(t, api.sent()[0], "FILE UPDATED")

	assert.Equal(t, "answerCallbackQuery", api.calls[0].method)
}

func TestCallbackApproveExpired(t *testing.T) {
	api := &fakeAPI{}
	gate := &fakeGate{approveErr: approval.ErrNotFound}
	b := newBot(t, api, &fakeProcessor{}, gate)

	b.handleCallback(context.Background(), &CallbackQuery{
		ID:      "cb1",
		From:    User{ID: 100},
		Message: &Message{Chat: Chat{ID: 42}},
		Data:    "approve:ap-gone",
	})

	require.Len(t, api.sent(), 1)
	assert.Equal(t, "This approval expired or was already handled.", api.sent()[0])
}

func TestCallbackApproveWrongOwner(t *testing.T) {
	api := &fakeAPI{}
	gate := &fakeGate{approveErr: approval.ErrNotOwner}
	b := newBot(t, api, &fakeProcessor{}, gate)

	b.handleCallback(context.Background(), &CallbackQuery{
		ID:      "cb1",
		From:    User{ID: 100},
		Message: &Message{Chat: Chat{ID: 42}},
		Data:    "approve:ap-1",
	})

	require.Len(t, api.sent(), 1)
	assert.Equal(t, "This approval belongs to someone else.", api.sent()[0])
}

func TestCallbackReject(t *testing.T) {
	api := &fakeAPI{}
	gate := &fakeGate{}
	b := newBot(t, api, &fakeProcessor{}, gate)

	b.handleCallback(context.Background(), &CallbackQuery{
		ID:      "cb1",
		From:    User{ID: 100},
		Message: &Message{Chat: Chat{ID: 42}},
		Data:    "reject:ap-9",
	})

	assert.Equal(t, []string{"ap-9"}, gate.rejected)
	require.Len(t, api.sent(), 1)
	assert.Equal(t, "Rejected. No action taken.", api.sent()[0])
}

func TestCallbackDetails(t *testing.T) {
	api := &fakeAPI{}
	pending := persistence.NewPendingApproval("100", "set_railway_env",
		"Set DATABASE_URL on project p1", `{"name":"DATABASE_URL","value":"postgres://x"}`)
	gate := &fakeGate{pending: pending}
	b := newBot(t, api, &fakeProcessor{}, gate)

	b.handleCallback(context.Background(), &CallbackQuery{
		ID:      "cb1",
		From:    User{ID: 100},
		Message: &Message{Chat: Chat{ID: 42}},
		Data:    "details:" + pending.ID,
	})

	require.Len(t, api.sent(), 1)
	details := api.sent()[0]
	assert.Contains(t, details, "set_railway_env")
	assert.Contains(t, details, "DATABASE_URL")
	assert.Contains(t, details, pending.ExpiresAt.Format("15:04"))
}

func TestCommands(t *testing.T) {
	api := &fakeAPI{}
	b := newBot(t, api, &fakeProcessor{}, &fakeGate{})

	b.handleMessage(context.Background(), textMessage(100, 42, "/help"))
	b.handleMessage(context.Background(), textMessage(100, 42, "/projects"))
	b.handleMessage(context.Background(), textMessage(100, 42, "/clear"))
	b.handleMessage(context.Background(), textMessage(100, 42, "/bogus"))

	sent := api.sent()
	require.Len(t, sent, 4)
	assert.Contains(t, sent[0], "/projects - list your projects")
	assert.Contains(t, sent[1], "No projects yet")
	assert.Contains(t, sent[2], "Starting fresh")
	assert.Contains(t, sent[3], "Unknown command")
}

func TestStartListsProjects(t *testing.T) {
	api := &fakeAPI{}
	b := newBot(t, api, &fakeProcessor{}, &fakeGate{})

	now := time.Now().UTC()
	require.NoError(t, b.store.UpsertProject(&persistence.Project{
		ID: persistence.NewID(), UserID: "100", Name: "omni-agent",
		Status: persistence.ProjectActive, CreatedAt: now, UpdatedAt: now, LastActiveAt: now,
	}))

	b.handleMessage(context.Background(), textMessage(100, 42, "/start"))

	require.Len(t, api.sent(), 1)
	assert.Contains(t, api.sent()[0], "omni-agent (active)")

	prefs, err := b.store.GetPreferences("100")
	require.NoError(t, err)
	assert.Equal(t, "normal", prefs.Verbosity)
}

func TestStatusCommand(t *testing.T) {
	api := &fakeAPI{}
	b := newBot(t, api, &fakeProcessor{}, &fakeGate{})

	b.handleMessage(context.Background(), textMessage(100, 42, "/status"))

	require.Len(t, api.sent(), 1)
	assert.Contains(t, api.sent()[0], "Pending approvals: 0")
}

func TestChunkMessage(t *testing.T) {
	assert.Equal(t, []string{"short"}, chunkMessage("short", 10))

	chunks := chunkMessage("aaaa\nbbbb\ncccc", 10)
	require.Len(t, chunks, 2)
	assert.Equal(t, "aaaa\nbbbb", chunks[0])
	assert.Equal(t, "cccc", chunks[1])

	// No newline inside the window: hard cut.
	chunks = chunkMessage(strings.Repeat("x", 25), 10)
	require.Len(t, chunks, 3)
	assert.Equal(t, 10, len(chunks[0]))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "ok", truncate("ok", 5))
	assert.Equal(t, "abcde...", truncate("abcdefgh", 5))
}
