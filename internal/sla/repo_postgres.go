package sla

import (
	"context"
	"database/sql"
)

// PostgresRepo reads the sla_rules table.
//
// Expected schema:
//   sla_rules(id, workspace_id, channel, priority, first_response_minutes,
//             resolution_minutes, escalation_minutes, business_hours_only,
//             active, created_at)
type PostgresRepo struct {
	DB *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{DB: db} }

func (r *PostgresRepo) ListActive(ctx context.Context, workspaceID string) ([]Rule, error) {
	const q = `
SELECT id, workspace_id, channel, priority, first_response_minutes,
       resolution_minutes, escalation_minutes, business_hours_only, active, created_at
FROM sla_rules
WHERE workspace_id = $1 AND active = TRUE
ORDER BY created_at ASC
`
	rows, err := r.DB.QueryContext(ctx, q, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Rule, 0)
	for rows.Next() {
		var rule Rule
		if err := rows.Scan(
			&rule.ID,
			&rule.WorkspaceID,
			&rule.Channel,
			&rule.Priority,
			&rule.FirstResponseMinutes,
			&rule.ResolutionMinutes,
			&rule.EscalationMinutes,
			&rule.BusinessHoursOnly,
			&rule.Active,
			&rule.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, rule)
	}
	return out, rows.Err()
}
