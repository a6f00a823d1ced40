package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"phoenix/pkg/approval"
	"phoenix/pkg/brain"
	"phoenix/pkg/config"
	"phoenix/pkg/logx"
	"phoenix/pkg/metrics"
	"phoenix/pkg/omni"
	"phoenix/pkg/persistence"
)

// maxMessageLen is the per-message size limit we chunk replies at. Telegram's
// hard limit is 4096; staying under it leaves room for continuation markers.
const maxMessageLen = 4000

// maxErrorLen caps error text shown in chat.
const maxErrorLen = 200

// Processor turns one user message into a reply. Implemented by brain.Brain.
type Processor interface {
	Process(ctx context.Context, userID, text string) (*brain.Result, error)
}

// Approver resolves gated actions. Implemented by approval.Gate.
type Approver interface {
	Approve(ctx context.Context, userID, approvalID string) (string, error)
	Reject(userID, approvalID string) error
	Get(userID, approvalID string) (*persistence.PendingApproval, error)
	PendingCount() int
}

// Bot runs the getUpdates loop and dispatches messages and button presses.
type Bot struct {
	client    *Client
	processor Processor
	gate      Approver
	store     *persistence.DatabaseOperations
	omni      *omni.Client
	usage     *metrics.QueryService
	logger    *logx.Logger

	allowed     map[string]bool
	pollTimeout int
	startedAt   time.Time
	offset      int64
}

// New creates the bot dispatcher.
func New(cfg *config.Config, client *Client, processor Processor, gate Approver, store *persistence.DatabaseOperations, omniClient *omni.Client) *Bot {
	allowed := make(map[string]bool, len(cfg.Telegram.AllowedUsers))
	for _, id := range cfg.Telegram.AllowedUsers {
		allowed[id] = true
	}

	pollTimeout := cfg.Telegram.PollTimeout
	if pollTimeout <= 0 {
		pollTimeout = 30
	}

	return &Bot{
		client:      client,
		processor:   processor,
		gate:        gate,
		store:       store,
		omni:        omniClient,
		logger:      logx.NewLogger("telegram"),
		allowed:     allowed,
		pollTimeout: pollTimeout,
		startedAt:   time.Now().UTC(),
	}
}

// SetUsageQuery enables usage figures in /status, read back from a
// Prometheus server that scrapes this process.
func (b *Bot) SetUsageQuery(usage *metrics.QueryService) {
	b.usage = usage
}

// Run polls for updates until ctx is cancelled. Poll failures are logged and
// retried after a short pause; one bad update never stops the loop.
func (b *Bot) Run(ctx context.Context) {
	b.logger.Info("polling for updates")
	for {
		updates, err := b.client.GetUpdates(ctx, b.offset, b.pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				b.logger.Info("update loop stopped")
				return
			}
			b.logger.Error("getUpdates failed: %v", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(5 * time.Second):
			}
			continue
		}

		for _, update := range updates {
			b.offset = update.UpdateID + 1
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.From != nil:
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *Message) {
	userID := strconv.FormatInt(msg.From.ID, 10)
	chatID := msg.Chat.ID

	if !b.allowed[userID] {
		b.logger.Info("rejected message from unauthorized user %s", userID)
		b.send(ctx, chatID, "Sorry, this is a private bot.")
		return
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}

	if strings.HasPrefix(text, "/") {
		b.handleCommand(ctx, chatID, userID, text)
		return
	}

	result, err := b.processor.Process(ctx, userID, text)
	if err != nil {
		b.logger.Error("processing failed for user %s: %v", userID, err)
		b.send(ctx, chatID, "Something went wrong: "+truncate(err.Error(), maxErrorLen))
		return
	}
	b.deliver(ctx, chatID, result)
}

// deliver sends a brain result: the reply text, approval buttons when the
// turn is gated, and any queued video.
func (b *Bot) deliver(ctx context.Context, chatID int64, result *brain.Result) {
	if result.Approval != nil {
		text := fmt.Sprintf("%s\n\nAction: %s\nExpires at %s UTC",
			result.Reply, result.Approval.Description,
			result.Approval.ExpiresAt.Format("15:04"))
		rows := [][]InlineButton{
			{
				{Text: "Approve", CallbackData: "approve:" + result.Approval.ID},
				{Text: "Reject", CallbackData: "reject:" + result.Approval.ID},
			},
			{
				{Text: "Details", CallbackData: "details:" + result.Approval.ID},
			},
		}
		if err := b.client.SendMessageWithButtons(ctx, chatID, text, rows); err != nil {
			b.logger.Error("failed to send approval prompt: %v", err)
		}
		return
	}

	for _, chunk := range chunkMessage(result.Reply, maxMessageLen) {
		b.send(ctx, chatID, chunk)
	}

	if result.Media != nil {
		if err := b.client.SendVideo(ctx, chatID, result.Media.URL, result.Media.Caption); err != nil {
			b.logger.Error("failed to send video: %v", err)
			b.send(ctx, chatID, "Could not send the video. Direct link: "+result.Media.URL)
		}
	}
}

func (b *Bot) handleCommand(ctx context.Context, chatID int64, userID, text string) {
	command := strings.Fields(text)[0]
	switch command {
	case "/start":
		b.send(ctx, chatID, b.startText(userID))
	case "/help":
		b.send(ctx, chatID, helpText)
	case "/projects":
		b.send(ctx, chatID, b.projectsText(userID))
	case "/status":
		b.send(ctx, chatID, b.statusText(ctx))
	case "/clear":
		b.send(ctx, chatID, "Starting fresh. Project data and history stay saved.")
	default:
		b.send(ctx, chatID, "Unknown command. Try /help.")
	}
}

func (b *Bot) handleCallback(ctx context.Context, cq *CallbackQuery) {
	if cq.Message == nil {
		return
	}
	userID := strconv.FormatInt(cq.From.ID, 10)
	chatID := cq.Message.Chat.ID

	if err := b.client.AnswerCallback(ctx, cq.ID, ""); err != nil {
		b.logger.Error("failed to answer callback: %v", err)
	}

	verb, approvalID, ok := strings.Cut(cq.Data, ":")
	if !ok {
		return
	}

	switch verb {
	case "approve":
		result, err := b.gate.Approve(ctx, userID, approvalID)
		if err != nil {
			b.send(ctx, chatID, approvalErrorText(err))
			return
		}
		for _, chunk := range chunkMessage("Approved.\n\n"+result, maxMessageLen) {
			b.send(ctx, chatID, chunk)
		}
	case "reject":
		if err := b.gate.Reject(userID, approvalID); err != nil {
			b.send(ctx, chatID, approvalErrorText(err))
			return
		}
		b.send(ctx, chatID, "Rejected. No action taken.")
	case "details":
		pending, err := b.gate.Get(userID, approvalID)
		if err != nil {
			b.send(ctx, chatID, approvalErrorText(err))
			return
		}
		b.send(ctx, chatID, detailsText(pending))
	}
}

// approvalErrorText maps gate errors to user-facing text.
func approvalErrorText(err error) string {
	switch {
	case errors.Is(err, approval.ErrNotOwner):
		return "This approval belongs to someone else."
	case errors.Is(err, approval.ErrNotFound):
		return "This approval expired or was already handled."
	default:
		return "Error: " + truncate(err.Error(), maxErrorLen)
	}
}

// detailsText renders the full payload of a pending approval.
func detailsText(pending *persistence.PendingApproval) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Action: %s\n%s\n\n", pending.ActionType, pending.Description)

	var args map[string]any
	if err := json.Unmarshal([]byte(pending.Payload), &args); err == nil && len(args) > 0 {
		sb.WriteString("Arguments:\n")
		for key, value := range args {
			fmt.Fprintf(&sb, "  %s: %s\n", key, truncate(fmt.Sprintf("%v", value), 300))
		}
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "Expires at %s UTC", pending.ExpiresAt.Format("15:04"))
	return sb.String()
}

func (b *Bot) startText(userID string) string {
	var sb strings.Builder
	sb.WriteString("Hi, I'm Phoenix. I can read and edit your GitHub repos, manage Railway deployments, and run the Omni-Agent pipeline.\n")

	if _, err := b.store.GetPreferences(userID); err != nil {
		b.logger.Error("failed to init preferences for user %s: %v", userID, err)
	}

	projects, err := b.store.ListProjects(userID)
	if err != nil {
		b.logger.Error("failed to list projects for user %s: %v", userID, err)
		return sb.String()
	}
	if len(projects) > 0 {
		sb.WriteString("\nYour projects:\n")
		for _, p := range projects {
			fmt.Fprintf(&sb, "  - %s (%s)\n", p.Name, p.Status)
		}
	} else {
		sb.WriteString("\nTell me about a project to get started, or just ask me something.")
	}
	return sb.String()
}

const helpText = `What I can do:

Code
  - Read, edit, and search files on GitHub (edits need your approval)
Deployments
  - Check Railway status and logs, set variables, trigger redeploys
Omni-Agent
  - Check health, run the pipeline, retry tasks, manage themes and schedules

Commands:
  /projects - list your projects
  /status - bot and service status
  /clear - start a fresh conversation
  /help - this message

Everything else: just ask in plain language.`

func (b *Bot) projectsText(userID string) string {
	projects, err := b.store.ListProjects(userID)
	if err != nil {
		return "Could not load projects: " + truncate(err.Error(), maxErrorLen)
	}
	if len(projects) == 0 {
		return "No projects yet. Tell me about one and I'll track it."
	}

	var sb strings.Builder
	sb.WriteString("Your projects:\n\n")
	for _, p := range projects {
		fmt.Fprintf(&sb, "%s (%s)\n", p.Name, p.Status)
		if p.GitHubRepo != "" {
			fmt.Fprintf(&sb, "  repo: %s\n", p.GitHubRepo)
		}
		if p.CurrentTask != "" {
			fmt.Fprintf(&sb, "  current: %s\n", p.CurrentTask)
		}
	}
	return sb.String()
}

func (b *Bot) statusText(ctx context.Context) string {
	var sb strings.Builder
	sb.WriteString("Phoenix status\n\n")
	fmt.Fprintf(&sb, "Uptime: %s\n", time.Since(b.startedAt).Round(time.Second))
	fmt.Fprintf(&sb, "Pending approvals: %d\n", b.gate.PendingCount())

	if b.omni != nil {
		checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if health, err := b.omni.GetHealth(checkCtx); err != nil {
			fmt.Fprintf(&sb, "Omni-Agent: unreachable (%s)\n", truncate(err.Error(), maxErrorLen))
		} else {
			fmt.Fprintf(&sb, "Omni-Agent: %s\n", health.Status)
		}
	}

	if b.usage != nil {
		queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if summary, err := b.usage.Usage(queryCtx, 24*time.Hour); err == nil {
			fmt.Fprintf(&sb, "Last 24h: %d model calls (%d errors), %d tool runs (%d errors)\n",
				summary.LLMRequests, summary.LLMErrors, summary.ToolExecutions, summary.ToolErrors)
		}
	}
	return sb.String()
}

func (b *Bot) send(ctx context.Context, chatID int64, text string) {
	if err := b.client.SendMessage(ctx, chatID, text); err != nil {
		b.logger.Error("failed to send message to chat %d: %v", chatID, err)
	}
}

// chunkMessage splits text into pieces no longer than limit bytes, breaking
// at the last newline inside the window when one exists.
func chunkMessage(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}

	var chunks []string
	for len(text) > limit {
		cut := limit
		if idx := strings.LastIndexByte(text[:limit], '\n'); idx > 0 {
			cut = idx
		}
		chunks = append(chunks, strings.TrimRight(text[:cut], "\n"))
		text = strings.TrimLeft(text[cut:], "\n")
	}
	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}

// truncate shortens s to at most n bytes.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
