// Package approval implements the gate for side-effecting tool calls: a
// small state machine from pending to approved, rejected, or expired, with a
// write-through cache over the durable store.
package approval

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"phoenix/pkg/logx"
	"phoenix/pkg/metrics"
	"phoenix/pkg/persistence"
	"phoenix/pkg/tools"
)

// Gate errors surfaced to the transport layer.
var (
	// ErrNotFound covers unknown ids and already-resolved or expired
	// approvals; callers render all of these the same way.
	ErrNotFound = errors.New("approval not found or expired")
	// ErrNotOwner is returned when the resolving user does not own the
	// approval. The approval's state is left untouched.
	ErrNotOwner = errors.New("approval belongs to another user")
)

// Gate tracks pending approvals and resolves them against the tool registry.
// The cache is write-through; the store is the source of truth on a miss,
// which also covers approvals created before a process restart.
type Gate struct {
	store       *persistence.DatabaseOperations
	registry    *tools.Registry
	logger      *logx.Logger
	now         func() time.Time
	toolTimeout time.Duration

	mu    sync.Mutex
	cache map[string]*persistence.PendingApproval
}

// NewGate creates a gate and reloads still-pending approvals into the cache.
// toolTimeout bounds approved handler execution; zero means 30 seconds.
func NewGate(store *persistence.DatabaseOperations, registry *tools.Registry, toolTimeout time.Duration) (*Gate, error) {
	if toolTimeout <= 0 {
		toolTimeout = 30 * time.Second
	}
	g := &Gate{
		store:       store,
		registry:    registry,
		logger:      logx.NewLogger("approval"),
		now:         func() time.Time { return time.Now().UTC() },
		toolTimeout: toolTimeout,
		cache:       make(map[string]*persistence.PendingApproval),
	}

	pending, err := store.PendingApprovals()
	if err != nil {
		return nil, fmt.Errorf("failed to reload pending approvals: %w", err)
	}
	for _, approval := range pending {
		g.cache[approval.ID] = approval
	}
	if len(pending) > 0 {
		g.logger.Info("reloaded %d pending approvals", len(pending))
	}
	return g, nil
}

// Request creates a pending approval for a gated tool call and persists it
// before caching.
func (g *Gate) Request(userID, actionType, description string, args map[string]any) (*persistence.PendingApproval, error) {
	payload, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("failed to encode approval payload: %w", err)
	}

	approval := persistence.NewPendingApproval(userID, actionType, description, string(payload))
	if err := g.store.CreateApproval(approval); err != nil {
		return nil, err
	}

	g.mu.Lock()
	g.cache[approval.ID] = approval
	g.mu.Unlock()

	g.logger.Info("approval %s created for user %s action %s", approval.ID, userID, actionType)
	return approval, nil
}

// Get returns an approval for display. Ownership is checked before the
// record is revealed; expired approvals transition lazily and report
// ErrNotFound.
func (g *Gate) Get(userID, approvalID string) (*persistence.PendingApproval, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lookup(userID, approvalID)
}

// lookup fetches an approval, enforcing ownership and lazy expiry. Callers
// must hold g.mu.
func (g *Gate) lookup(userID, approvalID string) (*persistence.PendingApproval, error) {
	approval, ok := g.cache[approvalID]
	if !ok {
		stored, err := g.store.GetApprovalByID(approvalID)
		if errors.Is(err, persistence.ErrNotFound) {
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, err
		}
		approval = stored
	}

	if approval.UserID != userID {
		// Refused without touching state, so a hijack attempt cannot
		// even force the expiry transition.
		return nil, ErrNotOwner
	}

	if approval.Status != persistence.ApprovalPending {
		delete(g.cache, approvalID)
		return nil, ErrNotFound
	}

	if approval.Expired(g.now()) {
		if err := g.expire(approval); err != nil {
			return nil, err
		}
		return nil, ErrNotFound
	}
	return approval, nil
}

// expire transitions a pending approval to expired. Losing the resolution
// race to another writer is fine; the row is terminal either way.
func (g *Gate) expire(approval *persistence.PendingApproval) error {
	err := g.store.ResolveApproval(approval.ID, persistence.ApprovalExpired, g.now())
	if err != nil && !errors.Is(err, persistence.ErrNotFound) {
		return err
	}
	delete(g.cache, approval.ID)
	metrics.RecordApprovalResolution(persistence.ApprovalExpired)
	g.logger.Info("approval %s expired", approval.ID)
	return nil
}

// Approve resolves an approval and executes the stored tool call. The
// returned text is the tool's result, or an error rendering when the handler
// failed; handler failures are recorded in the audit log, not raised.
func (g *Gate) Approve(ctx context.Context, userID, approvalID string) (string, error) {
	g.mu.Lock()
	approval, err := g.lookup(userID, approvalID)
	if err != nil {
		g.mu.Unlock()
		return "", err
	}

	if err := g.store.ResolveApproval(approval.ID, persistence.ApprovalApproved, g.now()); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			// Lost the race to a concurrent resolution.
			delete(g.cache, approval.ID)
			g.mu.Unlock()
			return "", ErrNotFound
		}
		g.mu.Unlock()
		return "", err
	}
	delete(g.cache, approval.ID)
	g.mu.Unlock()
	metrics.RecordApprovalResolution(persistence.ApprovalApproved)

	// The row is terminal at this point, so the handler runs outside the
	// lock; other users' gate calls are not held up by a slow tool.
	result, execErr := g.execute(ctx, approval)

	audit := &persistence.AuditLogEntry{
		UserID:  userID,
		Action:  approval.ActionType,
		Details: approval.Payload,
		Status:  persistence.AuditSuccess,
	}
	if execErr != nil {
		audit.Status = persistence.AuditFailed
		audit.ErrorMessage = execErr.Error()
		result = fmt.Sprintf("Error: %v", execErr)
	}
	if err := g.store.AppendAuditLog(audit); err != nil {
		g.logger.Error("failed to write audit log for %s: %v", approval.ID, err)
	}

	g.logger.Info("approval %s resolved approved (audit %s)", approval.ID, audit.Status)
	return result, nil
}

// execute runs the stored tool call under the owning user's identity.
func (g *Gate) execute(ctx context.Context, approval *persistence.PendingApproval) (string, error) {
	tool, err := g.registry.Get(approval.ActionType)
	if err != nil {
		return "", err
	}

	var args map[string]any
	if err := json.Unmarshal([]byte(approval.Payload), &args); err != nil {
		args = map[string]any{}
	}

	execCtx, cancel := context.WithTimeout(tools.WithUserID(ctx, approval.UserID), g.toolTimeout)
	defer cancel()

	result, execErr := tool.Exec(execCtx, args)
	metrics.RecordToolExecution(approval.ActionType, execErr)
	return result, execErr
}

// Reject resolves an approval without executing anything.
func (g *Gate) Reject(userID, approvalID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	approval, err := g.lookup(userID, approvalID)
	if err != nil {
		return err
	}

	if err := g.store.ResolveApproval(approval.ID, persistence.ApprovalRejected, g.now()); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			delete(g.cache, approval.ID)
			return ErrNotFound
		}
		return err
	}
	delete(g.cache, approval.ID)
	metrics.RecordApprovalResolution(persistence.ApprovalRejected)

	audit := &persistence.AuditLogEntry{
		UserID:  userID,
		Action:  approval.ActionType,
		Details: approval.Payload,
		Status:  persistence.AuditRejected,
	}
	if err := g.store.AppendAuditLog(audit); err != nil {
		g.logger.Error("failed to write audit log for %s: %v", approval.ID, err)
	}

	g.logger.Info("approval %s resolved rejected", approval.ID)
	return nil
}

// PendingCount reports the number of cached pending approvals.
func (g *Gate) PendingCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.cache)
}
