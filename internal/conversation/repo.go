package conversation

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound       = errors.New("conversation: not found")
	ErrInvalidRequest = errors.New("conversation: invalid request")
)

// Filter narrows conversation listings. Zero values mean "any".
type Filter struct {
	From time.Time
	To   time.Time

	Channel  string
	Priority string
	AgentID  string
	Pool     string

	Statuses []Status

	// Limit caps the scan; 0 means the implementation default.
	Limit int
}

// Repository abstracts conversation persistence.
//
// Implementations must enforce workspace filtering on every method.
// Updates are whole-row, last-write-wins; the persistence layer's
// single-document-write semantics are the only concurrency control.
type Repository interface {
	// Insert creates the conversation and, when first is non-nil, its
	// first inbound message in the same atomic write.
	Insert(ctx context.Context, c Conversation, first *Message) error
	Get(ctx context.Context, workspaceID, id string) (Conversation, error)
	Update(ctx context.Context, c Conversation) error
	List(ctx context.Context, workspaceID string, f Filter) ([]Conversation, error)

	// CountActiveByAgent counts an agent's non-terminal conversations
	// within one routing pool. Always recomputed from rows, never cached,
	// so workload ranking cannot drift from the source of truth.
	CountActiveByAgent(ctx context.Context, workspaceID, pool, agentID string) (int, error)

	AppendMessage(ctx context.Context, m Message) error
	// ListMessages returns a conversation's messages in ascending
	// timestamp order.
	ListMessages(ctx context.Context, workspaceID, conversationID string) ([]Message, error)
}
