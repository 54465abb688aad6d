package notify

import (
	"context"
	"log/slog"

	"support-platform/internal/agents"
)

// Sender delivers a notification to an agent.
//
// Delivery is best-effort everywhere in this system: callers log failures
// and move on, never aborting the enclosing state transition.
type Sender interface {
	Notify(ctx context.Context, agent agents.Agent, subject, body string) error
}

// LogSender writes notifications to the structured log. The real delivery
// transport (email, push) is an external collaborator; this keeps local
// and test environments observable.
type LogSender struct {
	Log *slog.Logger
}

func (s LogSender) Notify(ctx context.Context, agent agents.Agent, subject, body string) error {
	log := s.Log
	if log == nil {
		log = slog.Default()
	}
	log.Info("agent notification",
		"agent_id", agent.ID,
		"agent_email", agent.Email,
		"subject", subject,
		"body", body,
	)
	return nil
}
