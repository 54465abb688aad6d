package escalation

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("escalation: not found")

// Repository persists escalation records.
//
// Append-only by contract: UpdateStatus is the only mutation, limited to
// the status/resolution fields.
type Repository interface {
	Append(ctx context.Context, r Record) error

	// ListByConversation returns records ascending by escalated_at.
	ListByConversation(ctx context.Context, workspaceID, conversationID string) ([]Record, error)

	UpdateStatus(ctx context.Context, workspaceID, id string, status RecordStatus, notes string) error
}
