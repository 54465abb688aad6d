package escalation

import (
	"context"
	"database/sql"
)

// PostgresRepo persists escalation records.
//
// Expected schema:
//   escalations(id, workspace_id, conversation_id, agent_id, escalated_at,
//               reason, priority, department, status, resolution_notes)
type PostgresRepo struct {
	DB *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{DB: db} }

func (r *PostgresRepo) Append(ctx context.Context, rec Record) error {
	const q = `
INSERT INTO escalations (
  id, workspace_id, conversation_id, agent_id, escalated_at,
  reason, priority, department, status, resolution_notes
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10
)
`
	_, err := r.DB.ExecContext(ctx, q,
		rec.ID,
		rec.WorkspaceID,
		rec.ConversationID,
		rec.AgentID,
		rec.EscalatedAt,
		rec.Reason,
		rec.Priority,
		rec.Department,
		rec.Status,
		rec.ResolutionNotes,
	)
	return err
}

func (r *PostgresRepo) ListByConversation(ctx context.Context, workspaceID, conversationID string) ([]Record, error) {
	const q = `
SELECT id, workspace_id, conversation_id, agent_id, escalated_at,
       reason, priority, department, status, resolution_notes
FROM escalations
WHERE workspace_id = $1 AND conversation_id = $2
ORDER BY escalated_at ASC
`
	rows, err := r.DB.QueryContext(ctx, q, workspaceID, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Record, 0)
	for rows.Next() {
		var rec Record
		if err := rows.Scan(
			&rec.ID,
			&rec.WorkspaceID,
			&rec.ConversationID,
			&rec.AgentID,
			&rec.EscalatedAt,
			&rec.Reason,
			&rec.Priority,
			&rec.Department,
			&rec.Status,
			&rec.ResolutionNotes,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) UpdateStatus(ctx context.Context, workspaceID, id string, status RecordStatus, notes string) error {
	const q = `
UPDATE escalations
SET status = $3, resolution_notes = $4
WHERE workspace_id = $1 AND id = $2
`
	res, err := r.DB.ExecContext(ctx, q, workspaceID, id, status, notes)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
