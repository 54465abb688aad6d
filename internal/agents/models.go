package agents

import "time"

// Agent is a workspace-scoped roster entry.
//
// Multi-tenant invariant: WorkspaceID is required on every row.
//
// Branch doubles as the routing pool: pools partition one roster into
// non-overlapping queues, so an agent belongs to exactly one.
type Agent struct {
	ID          string `json:"id" db:"id"`
	WorkspaceID string `json:"workspace_id" db:"workspace_id"`

	Name  string `json:"name" db:"name"`
	Email string `json:"email" db:"email"`

	// Role is an rbac role name. Only routable roles receive conversations.
	Role string `json:"role" db:"role"`

	Branch string `json:"branch" db:"branch"`

	Active bool `json:"active" db:"active"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Sentinels used when agent/branch/role resolution fails. Reports must
// degrade to these rather than dropping rows.
const (
	BranchUnassigned = "Unassigned"
	RoleBucketOther  = "Other"
)

// RoleBucket maps an rbac role to the coarse bucket used in compliance
// report rollups.
func RoleBucket(role string) string {
	switch role {
	case "agent":
		return "Support"
	case "supervisor":
		return "Supervision"
	case "owner":
		return "Management"
	default:
		return RoleBucketOther
	}
}
