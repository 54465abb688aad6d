package sla

import (
	"context"
	"errors"
	"sync"
)

// MemoryRepo is a simple in-memory rule store for tests and early development.
type MemoryRepo struct {
	mu sync.Mutex

	Rules []Rule
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (r *MemoryRepo) ListActive(ctx context.Context, workspaceID string) ([]Rule, error) {
	if workspaceID == "" {
		return nil, errors.New("workspace_id required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Rule, 0)
	for _, rule := range r.Rules {
		if rule.WorkspaceID != workspaceID || !rule.Active {
			continue
		}
		out = append(out, rule)
	}
	return out, nil
}
