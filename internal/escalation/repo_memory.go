package escalation

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// MemoryRepo is a simple in-memory record store for tests and early development.
type MemoryRepo struct {
	mu sync.Mutex

	Records []Record
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (r *MemoryRepo) Append(ctx context.Context, rec Record) error {
	if rec.WorkspaceID == "" || rec.ConversationID == "" {
		return errors.New("workspace_id and conversation_id required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Records = append(r.Records, rec)
	return nil
}

func (r *MemoryRepo) ListByConversation(ctx context.Context, workspaceID, conversationID string) ([]Record, error) {
	if workspaceID == "" {
		return nil, errors.New("workspace_id required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Record, 0)
	for _, rec := range r.Records {
		if rec.WorkspaceID == workspaceID && rec.ConversationID == conversationID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EscalatedAt.Before(out[j].EscalatedAt) })
	return out, nil
}

func (r *MemoryRepo) UpdateStatus(ctx context.Context, workspaceID, id string, status RecordStatus, notes string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.Records {
		if r.Records[i].WorkspaceID == workspaceID && r.Records[i].ID == id {
			r.Records[i].Status = status
			r.Records[i].ResolutionNotes = notes
			return nil
		}
	}
	return ErrNotFound
}
