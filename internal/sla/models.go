package sla

import (
	"time"

	"support-platform/internal/channel"
)

// Wildcard matches any channel or priority in a rule.
const Wildcard = "all"

// Rule is an immutable SLA configuration row.
//
// Thresholds are minutes. BusinessHoursOnly switches the compliance
// aggregator into business-hours duration arithmetic for this rule.
type Rule struct {
	ID          string `json:"id" db:"id"`
	WorkspaceID string `json:"workspace_id" db:"workspace_id"`

	// Channel is a channel tag or the wildcard "all".
	Channel string `json:"channel" db:"channel"`
	// Priority is a priority name or the wildcard "all".
	Priority string `json:"priority" db:"priority"`

	FirstResponseMinutes int `json:"first_response_minutes" db:"first_response_minutes"`
	ResolutionMinutes    int `json:"resolution_minutes" db:"resolution_minutes"`
	EscalationMinutes    int `json:"escalation_minutes" db:"escalation_minutes"`

	BusinessHoursOnly bool `json:"business_hours_only" db:"business_hours_only"`
	Active            bool `json:"active" db:"active"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// DefaultRule is the permissive fallback applied when no configured rule
// matches: 48h resolution, wall-clock, no first-response or escalation
// threshold. Missing configuration must degrade, not fail.
func DefaultRule() Rule {
	return Rule{
		ID:                "default",
		Channel:           Wildcard,
		Priority:          Wildcard,
		ResolutionMinutes: int((48 * time.Hour).Minutes()),
	}
}

// specificity ranks how precisely a rule targets (channel, priority).
// Exact channel+priority beats channel-only beats priority-only beats the
// full wildcard.
func (r Rule) specificity(ch channel.Channel, priority string) (int, bool) {
	chMatch := r.Channel == Wildcard || r.Channel == string(ch)
	prMatch := r.Priority == Wildcard || r.Priority == priority
	if !chMatch || !prMatch {
		return 0, false
	}
	score := 0
	if r.Channel != Wildcard {
		score += 2
	}
	if r.Priority != Wildcard {
		score++
	}
	return score, true
}
