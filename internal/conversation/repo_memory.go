package conversation

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// MemoryRepo is a simple in-memory store for tests and early development.
// It enforces workspace isolation on reads.
type MemoryRepo struct {
	mu sync.Mutex

	Conversations map[string]Conversation
	Messages      []Message
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{Conversations: map[string]Conversation{}}
}

func (r *MemoryRepo) Insert(ctx context.Context, c Conversation, first *Message) error {
	if c.WorkspaceID == "" || c.ID == "" {
		return errors.New("workspace_id and id required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.Conversations[c.ID]; ok {
		return errors.New("conversation exists")
	}
	r.Conversations[c.ID] = c
	if first != nil {
		r.Messages = append(r.Messages, *first)
	}
	return nil
}

func (r *MemoryRepo) Get(ctx context.Context, workspaceID, id string) (Conversation, error) {
	if workspaceID == "" {
		return Conversation{}, errors.New("workspace_id required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.Conversations[id]
	if !ok || c.WorkspaceID != workspaceID {
		return Conversation{}, ErrNotFound
	}
	return c, nil
}

func (r *MemoryRepo) Update(ctx context.Context, c Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	old, ok := r.Conversations[c.ID]
	if !ok || old.WorkspaceID != c.WorkspaceID {
		return ErrNotFound
	}
	r.Conversations[c.ID] = c
	return nil
}

func (r *MemoryRepo) List(ctx context.Context, workspaceID string, f Filter) ([]Conversation, error) {
	if workspaceID == "" {
		return nil, errors.New("workspace_id required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	statusSet := make(map[Status]struct{}, len(f.Statuses))
	for _, s := range f.Statuses {
		statusSet[s] = struct{}{}
	}

	out := make([]Conversation, 0)
	for _, c := range r.Conversations {
		if c.WorkspaceID != workspaceID {
			continue
		}
		if !f.From.IsZero() && c.CreatedAt.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && !c.CreatedAt.Before(f.To) {
			continue
		}
		if f.Channel != "" && string(c.Channel) != f.Channel {
			continue
		}
		if f.Priority != "" && string(c.Priority) != f.Priority {
			continue
		}
		if f.AgentID != "" && c.AssignedAgentID != f.AgentID {
			continue
		}
		if f.Pool != "" && c.Pool != f.Pool {
			continue
		}
		if len(statusSet) > 0 {
			if _, ok := statusSet[c.Status]; !ok {
				continue
			}
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *MemoryRepo) CountActiveByAgent(ctx context.Context, workspaceID, pool, agentID string) (int, error) {
	if workspaceID == "" || agentID == "" {
		return 0, errors.New("workspace_id and agent_id required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.Conversations {
		if c.WorkspaceID != workspaceID || c.AssignedAgentID != agentID {
			continue
		}
		if pool != "" && c.Pool != pool {
			continue
		}
		if c.Status.Terminal() {
			continue
		}
		n++
	}
	return n, nil
}

func (r *MemoryRepo) AppendMessage(ctx context.Context, m Message) error {
	if m.WorkspaceID == "" || m.ConversationID == "" {
		return errors.New("workspace_id and conversation_id required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Messages = append(r.Messages, m)
	return nil
}

func (r *MemoryRepo) ListMessages(ctx context.Context, workspaceID, conversationID string) ([]Message, error) {
	if workspaceID == "" {
		return nil, errors.New("workspace_id required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, 0)
	for _, m := range r.Messages {
		if m.WorkspaceID == workspaceID && m.ConversationID == conversationID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
