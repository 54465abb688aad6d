package conversation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"support-platform/pkg/utils"
)

// PostgresRepo persists conversations and their messages.
//
// Expected schema:
//
//	conversations(id, workspace_id, channel, pool, subject, priority, status,
//	              ai_mode, assigned_agent_id, agent_assigned_at, escalated_at,
//	              escalation_reason, requires_human_intervention,
//	              ai_confidence_score, created_at, last_message_at,
//	              first_response_at, resolution_sla_expiry, sla_status,
//	              resolved_at, closed_at, resolution_notes, archived, updated_at)
//	messages(id, workspace_id, conversation_id, direction, from_ai, body,
//	         created_at)
//
// Updates are whole-row so the row always reflects one full save.
type PostgresRepo struct {
	DB *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{DB: db} }

const conversationColumns = `
id, workspace_id, channel, pool, subject, priority, status, ai_mode,
assigned_agent_id, agent_assigned_at, escalated_at, escalation_reason,
requires_human_intervention, ai_confidence_score, created_at, last_message_at,
first_response_at, resolution_sla_expiry, sla_status, resolved_at, closed_at,
resolution_notes, archived, updated_at`

func (r *PostgresRepo) Insert(ctx context.Context, c Conversation, first *Message) error {
	q := `
INSERT INTO conversations (` + conversationColumns + `
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24
)
`
	if first == nil {
		_, err := r.DB.ExecContext(ctx, q, conversationArgs(c)...)
		return err
	}
	// Conversation and first message land atomically; a conversation row
	// without its creating message would skew the compliance aggregator.
	return utils.WithTx(ctx, r.DB, nil, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, q, conversationArgs(c)...); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, insertMessageSQL,
			first.ID, first.WorkspaceID, first.ConversationID, first.Direction, first.FromAI, first.Body, first.CreatedAt)
		return err
	})
}

func (r *PostgresRepo) Get(ctx context.Context, workspaceID, id string) (Conversation, error) {
	q := `SELECT ` + conversationColumns + ` FROM conversations WHERE workspace_id = $1 AND id = $2`
	row := r.DB.QueryRowContext(ctx, q, workspaceID, id)
	c, err := scanConversation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Conversation{}, ErrNotFound
	}
	return c, err
}

func (r *PostgresRepo) Update(ctx context.Context, c Conversation) error {
	const q = `
UPDATE conversations SET
  channel = $3, pool = $4, subject = $5, priority = $6, status = $7,
  ai_mode = $8, assigned_agent_id = $9, agent_assigned_at = $10,
  escalated_at = $11, escalation_reason = $12,
  requires_human_intervention = $13, ai_confidence_score = $14,
  created_at = $15, last_message_at = $16, first_response_at = $17,
  resolution_sla_expiry = $18, sla_status = $19, resolved_at = $20,
  closed_at = $21, resolution_notes = $22, archived = $23, updated_at = $24
WHERE id = $1 AND workspace_id = $2
`
	res, err := r.DB.ExecContext(ctx, q, conversationArgs(c)...)
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

func (r *PostgresRepo) List(ctx context.Context, workspaceID string, f Filter) ([]Conversation, error) {
	var b strings.Builder
	b.WriteString(`SELECT ` + conversationColumns + ` FROM conversations WHERE workspace_id = $1`)
	args := []any{workspaceID}

	add := func(clause string, v any) {
		args = append(args, v)
		fmt.Fprintf(&b, " AND "+clause, len(args))
	}
	if !f.From.IsZero() {
		add("created_at >= $%d", f.From)
	}
	if !f.To.IsZero() {
		add("created_at < $%d", f.To)
	}
	if f.Channel != "" {
		add("channel = $%d", f.Channel)
	}
	if f.Priority != "" {
		add("priority = $%d", f.Priority)
	}
	if f.AgentID != "" {
		add("assigned_agent_id = $%d", f.AgentID)
	}
	if f.Pool != "" {
		add("pool = $%d", f.Pool)
	}
	if len(f.Statuses) > 0 {
		add("status = ANY($%d)", statusArray(f.Statuses))
	}
	b.WriteString(" ORDER BY created_at ASC")
	if f.Limit > 0 {
		args = append(args, f.Limit)
		fmt.Fprintf(&b, " LIMIT $%d", len(args))
	}

	rows, err := r.DB.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Conversation, 0)
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) CountActiveByAgent(ctx context.Context, workspaceID, pool, agentID string) (int, error) {
	q := `
SELECT COUNT(*) FROM conversations
WHERE workspace_id = $1 AND assigned_agent_id = $2
  AND status NOT IN ('resolved','closed')
`
	args := []any{workspaceID, agentID}
	if pool != "" {
		q += " AND pool = $3"
		args = append(args, pool)
	}
	var n int
	err := r.DB.QueryRowContext(ctx, q, args...).Scan(&n)
	return n, err
}

const insertMessageSQL = `
INSERT INTO messages (id, workspace_id, conversation_id, direction, from_ai, body, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
`

func (r *PostgresRepo) AppendMessage(ctx context.Context, m Message) error {
	_, err := r.DB.ExecContext(ctx, insertMessageSQL,
		m.ID, m.WorkspaceID, m.ConversationID, m.Direction, m.FromAI, m.Body, m.CreatedAt)
	return err
}

func (r *PostgresRepo) ListMessages(ctx context.Context, workspaceID, conversationID string) ([]Message, error) {
	const q = `
SELECT id, workspace_id, conversation_id, direction, from_ai, body, created_at
FROM messages
WHERE workspace_id = $1 AND conversation_id = $2
ORDER BY created_at ASC
`
	rows, err := r.DB.QueryContext(ctx, q, workspaceID, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Message, 0)
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.WorkspaceID, &m.ConversationID, &m.Direction, &m.FromAI, &m.Body, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func conversationArgs(c Conversation) []any {
	return []any{
		c.ID,
		c.WorkspaceID,
		c.Channel,
		c.Pool,
		c.Subject,
		c.Priority,
		c.Status,
		c.AIMode,
		c.AssignedAgentID,
		c.AgentAssignedAt,
		c.EscalatedAt,
		c.EscalationReason,
		c.RequiresHumanIntervention,
		c.AIConfidenceScore,
		c.CreatedAt,
		c.LastMessageAt,
		c.FirstResponseAt,
		c.ResolutionSLAExpiry,
		c.SLAStatus,
		c.ResolvedAt,
		c.ClosedAt,
		c.ResolutionNotes,
		c.Archived,
		c.UpdatedAt,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConversation(row rowScanner) (Conversation, error) {
	var c Conversation
	err := row.Scan(
		&c.ID,
		&c.WorkspaceID,
		&c.Channel,
		&c.Pool,
		&c.Subject,
		&c.Priority,
		&c.Status,
		&c.AIMode,
		&c.AssignedAgentID,
		&c.AgentAssignedAt,
		&c.EscalatedAt,
		&c.EscalationReason,
		&c.RequiresHumanIntervention,
		&c.AIConfidenceScore,
		&c.CreatedAt,
		&c.LastMessageAt,
		&c.FirstResponseAt,
		&c.ResolutionSLAExpiry,
		&c.SLAStatus,
		&c.ResolvedAt,
		&c.ClosedAt,
		&c.ResolutionNotes,
		&c.Archived,
		&c.UpdatedAt,
	)
	return c, err
}

// statusArray renders a Postgres text array literal for status filters.
func statusArray(statuses []Status) string {
	parts := make([]string, len(statuses))
	for i, s := range statuses {
		parts[i] = string(s)
	}
	return "{" + strings.Join(parts, ",") + "}"
}
