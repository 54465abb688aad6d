package dispatch

import (
	"context"
	"errors"
	"time"
)

// TaskType names an async job kind. Handlers must be idempotent: delivery
// is at-least-once and unordered relative to subsequent saves.
type TaskType string

const (
	// TaskTypeAIProcess triggers the automated responder for a conversation.
	TaskTypeAIProcess TaskType = "ai_process"
	// TaskTypeNotifyAgent delivers a best-effort agent notification.
	TaskTypeNotifyAgent TaskType = "notify_agent"
)

// Task is the queue payload. Keep it small and self-contained; handlers
// re-read current state from storage rather than trusting stale fields.
type Task struct {
	Type        TaskType `json:"type"`
	WorkspaceID string   `json:"workspace_id"`

	ConversationID string `json:"conversation_id,omitempty"`
	AgentID        string `json:"agent_id,omitempty"`

	Subject string `json:"subject,omitempty"`
	Body    string `json:"body,omitempty"`

	Attempts   int       `json:"attempts"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

var ErrQueueClosed = errors.New("dispatch: queue closed")

// Dispatcher enqueues tasks. Callers must not assume completion by return.
type Dispatcher interface {
	Enqueue(ctx context.Context, t Task) error
}

// Handler processes one task. Returning an error requeues the task (up to
// the retry budget), so handlers must tolerate duplicate delivery.
type Handler func(ctx context.Context, t Task) error

// Noop discards every task. Useful in tests and partial wiring.
type Noop struct{}

func (Noop) Enqueue(ctx context.Context, t Task) error { return nil }
