package agents

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// PostgresRepo reads the agents table.
//
// Expected schema:
//   agents(id, workspace_id, name, email, role, branch, active, created_at, updated_at)
type PostgresRepo struct {
	DB *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{DB: db} }

func (r *PostgresRepo) Get(ctx context.Context, workspaceID, agentID string) (Agent, error) {
	const q = `
SELECT id, workspace_id, name, email, role, branch, active, created_at, updated_at
FROM agents
WHERE workspace_id = $1 AND id = $2
`
	var a Agent
	if err := r.DB.QueryRowContext(ctx, q, workspaceID, agentID).Scan(
		&a.ID,
		&a.WorkspaceID,
		&a.Name,
		&a.Email,
		&a.Role,
		&a.Branch,
		&a.Active,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Agent{}, ErrNotFound
		}
		return Agent{}, err
	}
	return a, nil
}

func (r *PostgresRepo) ListPool(ctx context.Context, workspaceID, pool string, roles []string) ([]Agent, error) {
	var b strings.Builder
	b.WriteString(`
SELECT id, workspace_id, name, email, role, branch, active, created_at, updated_at
FROM agents
WHERE workspace_id = $1 AND active = TRUE
`)
	args := []any{workspaceID}
	if pool != "" {
		args = append(args, pool)
		b.WriteString(" AND branch = $2")
	}
	if len(roles) > 0 {
		b.WriteString(fmt.Sprintf(" AND role = ANY($%d)", len(args)+1))
		args = append(args, rolesArray(roles))
	}
	b.WriteString(" ORDER BY name ASC")

	rows, err := r.DB.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Agent, 0)
	for rows.Next() {
		var a Agent
		if err := rows.Scan(
			&a.ID,
			&a.WorkspaceID,
			&a.Name,
			&a.Email,
			&a.Role,
			&a.Branch,
			&a.Active,
			&a.CreatedAt,
			&a.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// rolesArray renders a Postgres text[] literal; pgx binds it for ANY($n).
func rolesArray(roles []string) string {
	return "{" + strings.Join(roles, ",") + "}"
}
