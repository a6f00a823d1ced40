// Package brain implements the agentic loop: one user message in, a bounded
// sequence of model calls and tool executions, one reply out. Gated tools
// never run inline; selecting one ends the turn with a pending approval.
package brain

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"phoenix/pkg/approval"
	"phoenix/pkg/config"
	"phoenix/pkg/llm"
	"phoenix/pkg/logx"
	"phoenix/pkg/metrics"
	"phoenix/pkg/persistence"
	"phoenix/pkg/tools"
	"phoenix/pkg/utils"
)

// tooManySteps is the fallback reply when the iteration cap is hit. It is
// returned to the user but not persisted as an assistant turn.
const tooManySteps = "Request took too many steps. Please try again."

// Result is the outcome of processing one user message.
type Result struct {
	// Reply is the text to send back.
	Reply string
	// Media is an optional video queued by a tool during the loop.
	Media *tools.MediaAttachment
	// Approval is set when the turn ended in a gated tool selection.
	Approval *persistence.PendingApproval
}

// Brain drives the model/tool loop for inbound messages.
type Brain struct {
	store    *persistence.DatabaseOperations
	registry *tools.Registry
	gate     *approval.Gate
	client   llm.Client
	counter  *utils.TokenCounter
	queue    *tools.MediaQueue
	logger   *logx.Logger

	provider      string
	maxIterations int
	contextBudget int
	maxTokens     int
	llmTimeout    time.Duration
	toolTimeout   time.Duration
	now           func() time.Time
}

// New creates a brain wired to the given collaborators. queue must be the
// same instance the media-producing tools were registered with.
func New(cfg *config.Config, store *persistence.DatabaseOperations, registry *tools.Registry, gate *approval.Gate, client llm.Client, queue *tools.MediaQueue) *Brain {
	return &Brain{
		store:         store,
		registry:      registry,
		gate:          gate,
		client:        client,
		counter:       utils.NewTokenCounter(),
		queue:         queue,
		logger:        logx.NewLogger("brain"),
		provider:      cfg.LLM.Provider,
		maxIterations: cfg.Brain.MaxIterations,
		contextBudget: cfg.Brain.ContextBudget,
		maxTokens:     cfg.LLM.MaxReplyTokens,
		llmTimeout:    cfg.LLMTimeout(),
		toolTimeout:   cfg.ToolTimeout(),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Process runs the agentic loop for one user message.
func (b *Brain) Process(ctx context.Context, userID, text string) (*Result, error) {
	// Drain any attachment left over from a previous turn.
	b.queue.Take()

	messages := b.contextMessages(userID)
	messages = append(messages, llm.UserMessage(text))

	// The user turn is durable before the first model call, so a model
	// failure cannot lose what the user said.
	if err := b.store.AppendTurn(&persistence.ConversationTurn{
		UserID:  userID,
		Role:    persistence.RoleUser,
		Content: text,
	}); err != nil {
		return nil, fmt.Errorf("failed to persist user turn: %w", err)
	}

	system := b.systemPrompt(userID)

	for i := 0; i < b.maxIterations; i++ {
		resp, err := b.complete(ctx, system, messages)
		if err != nil {
			b.logger.Error("model call failed for user %s: %v", userID, err)
			return &Result{Reply: "I hit a problem talking to the model. Please try again."}, nil
		}

		if len(resp.ToolCalls) == 0 {
			reply := resp.Content
			if reply == "" {
				reply = "Done."
			}
			if err := b.store.AppendTurn(&persistence.ConversationTurn{
				UserID:  userID,
				Role:    persistence.RoleAssistant,
				Content: reply,
			}); err != nil {
				return nil, fmt.Errorf("failed to persist assistant turn: %w", err)
			}
			return &Result{Reply: reply, Media: b.queue.Take()}, nil
		}

		// The model must see its own calls on the next iteration.
		messages = append(messages, llm.Message{
			Role:      llm.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})

		for _, call := range resp.ToolCalls {
			args := call.ParseArguments()

			tool, err := b.registry.Get(call.Name)
			if err != nil {
				messages = append(messages, llm.ToolResultMessage(call, fmt.Sprintf("Error: %v", err)))
				continue
			}

			if tool.RequiresApproval() {
				pending, err := b.gate.Request(userID, call.Name, describeAction(call.Name, args), args)
				if err != nil {
					return nil, fmt.Errorf("failed to create approval: %w", err)
				}
				reply := strings.TrimSpace(resp.Content)
				if reply == "" {
					reply = "This action needs your approval."
				}
				return &Result{Reply: reply, Approval: pending}, nil
			}

			result, execErr := b.executeTool(ctx, userID, call.Name, args)
			if execErr != nil {
				result = fmt.Sprintf("Error: %v", execErr)
			}
			b.auditExecution(userID, call.Name, args, execErr)
			messages = append(messages, llm.ToolResultMessage(call, result))

			// Tool results are durable for the audit trail; they are
			// not replayed into future context windows.
			if err := b.store.AppendTurn(&persistence.ConversationTurn{
				UserID:  userID,
				Role:    persistence.RoleTool,
				Content: fmt.Sprintf("%s: %s", call.Name, result),
			}); err != nil {
				b.logger.Error("failed to persist tool turn: %v", err)
			}
		}
	}

	b.logger.Warn("iteration cap hit for user %s", userID)
	return &Result{Reply: tooManySteps}, nil
}

// complete performs one model call under the configured timeout.
func (b *Brain) complete(ctx context.Context, system string, messages []llm.Message) (llm.CompletionResponse, error) {
	callCtx, cancel := context.WithTimeout(ctx, b.llmTimeout)
	defer cancel()

	start := time.Now()
	resp, err := b.client.Complete(callCtx, llm.CompletionRequest{
		System:    system,
		Messages:  messages,
		Tools:     b.registry.Definitions(),
		MaxTokens: b.maxTokens,
	})
	metrics.RecordLLMRequest(b.provider, time.Since(start), err)
	return resp, err
}

// executeTool runs an ungated tool under the tool timeout.
func (b *Brain) executeTool(ctx context.Context, userID, name string, args map[string]any) (string, error) {
	toolCtx, cancel := context.WithTimeout(tools.WithUserID(ctx, userID), b.toolTimeout)
	defer cancel()

	tool, err := b.registry.Get(name)
	if err != nil {
		return "", err
	}

	result, execErr := tool.Exec(toolCtx, args)
	metrics.RecordToolExecution(name, execErr)
	if execErr != nil {
		b.logger.Warn("tool %s failed for user %s: %v", name, userID, execErr)
		return "", execErr
	}
	return result, nil
}

// auditExecution records an ungated tool execution in the audit log. Gated
// executions are audited by the approval gate on resolution.
func (b *Brain) auditExecution(userID, name string, args map[string]any, execErr error) {
	details, err := json.Marshal(args)
	if err != nil {
		details = []byte("{}")
	}

	audit := &persistence.AuditLogEntry{
		UserID:  userID,
		Action:  name,
		Details: string(details),
		Status:  persistence.AuditSuccess,
	}
	if execErr != nil {
		audit.Status = persistence.AuditFailed
		audit.ErrorMessage = execErr.Error()
	}
	if err := b.store.AppendAuditLog(audit); err != nil {
		b.logger.Error("failed to write audit log for tool %s: %v", name, err)
	}
}

// contextMessages rebuilds recent conversation history under the token
// budget, newest turns first until the budget is spent, then reordered
// chronologically. Tool turns are excluded from reconstruction; they exist
// for the audit trail and would otherwise dangle without their originating
// assistant call.
func (b *Brain) contextMessages(userID string) []llm.Message {
	turns, err := b.store.RecentTurns(userID, 100)
	if err != nil {
		b.logger.Error("failed to load history for user %s: %v", userID, err)
		return nil
	}

	used := 0
	var kept []*persistence.ConversationTurn
	for _, turn := range turns { // newest first
		if turn.Role == persistence.RoleTool {
			continue
		}
		cost := b.counter.CountTokens(turn.Content)
		if used+cost > b.contextBudget {
			break
		}
		used += cost
		kept = append(kept, turn)
	}

	messages := make([]llm.Message, 0, len(kept))
	for i := len(kept) - 1; i >= 0; i-- {
		turn := kept[i]
		switch turn.Role {
		case persistence.RoleUser:
			messages = append(messages, llm.UserMessage(turn.Content))
		case persistence.RoleAssistant:
			messages = append(messages, llm.AssistantMessage(turn.Content))
		}
	}
	return messages
}

// systemPrompt composes the per-turn system prompt with current time and
// whatever durable context exists for the user.
func (b *Brain) systemPrompt(userID string) string {
	var sb strings.Builder
	sb.WriteString(`You are Phoenix, a personal development assistant on Telegram.

You can execute real actions using tools. When the user asks you to do something, USE THE TOOLS.

Behaviors:
1. When asked to READ a file: use read_github_file
2. When asked to EDIT/CHANGE code: use edit_github_file (requires approval)
3. When asked about LOGS: use get_railway_logs
4. When asked to SEND/SHOW a video: use send_video
5. When asked about animal facts or automation status: use check_omni_agent
6. ALWAYS execute tools when the user asks you to DO something
7. Be concise - the user is on mobile
8. After code changes, remind the user it will auto-deploy`)

	if project, err := b.store.ActiveProject(userID); err == nil {
		sb.WriteString("\n\nActive project: " + project.Name)
		if project.GitHubRepo != "" {
			sb.WriteString(" (" + project.GitHubRepo + ")")
		}
		if project.CurrentTask != "" {
			sb.WriteString("\nCurrent task: " + project.CurrentTask)
		}
		if project.ContextSummary != "" {
			sb.WriteString("\nContext: " + project.ContextSummary)
		}
	}

	if prefs, err := b.store.GetPreferences(userID); err == nil {
		sb.WriteString(fmt.Sprintf("\n\nUser preferences: verbosity=%s timezone=%s", prefs.Verbosity, prefs.Timezone))
	}

	sb.WriteString("\n\nCurrent time: " + b.now().Format("2006-01-02 15:04 UTC"))
	return sb.String()
}

// describeAction renders a short human summary of a gated tool call for the
// approval prompt.
func describeAction(name string, args map[string]any) string {
	switch name {
	case "edit_github_file":
		return fmt.Sprintf("Edit %s in %s: %s",
			stringArg(args, "path"), stringArg(args, "repo"), stringArg(args, "commit_message"))
	case "write_github_file":
		return fmt.Sprintf("Write %s in %s: %s",
			stringArg(args, "path"), stringArg(args, "repo"), stringArg(args, "commit_message"))
	case "set_railway_env":
		return fmt.Sprintf("Set variable %s on Railway project %s",
			stringArg(args, "name"), stringArg(args, "project_id"))
	case "redeploy_railway":
		return fmt.Sprintf("Redeploy Railway service %s", stringArg(args, "service_id"))
	case "update_schedule":
		return fmt.Sprintf("Change posting schedule to every %v hours", args["interval_hours"])
	case "toggle_scheduler":
		if enabled, _ := args["enabled"].(bool); enabled {
			return "Resume the posting scheduler"
		}
		return "Pause the posting scheduler"
	default:
		return "Run " + name
	}
}

func stringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	if s == "" {
		return "?"
	}
	return s
}
