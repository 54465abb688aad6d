package sla

import "context"

// Repository lists SLA rules for a workspace.
// Rules are immutable configuration; there is no update path here.
type Repository interface {
	ListActive(ctx context.Context, workspaceID string) ([]Rule, error)
}
