package reporting

import "time"

// MetricStatus is the per-metric compliance verdict. NA means the metric
// did not apply (no threshold configured or no data yet).
type MetricStatus string

const (
	StatusWithin   MetricStatus = "Within"
	StatusBreached MetricStatus = "Breached"
	StatusNA       MetricStatus = "N/A"
)

// ComplianceRequest bounds and filters one report run.
// Branch and Role filter on the assigned agent's resolved dimensions.
type ComplianceRequest struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`

	Channel  string `json:"channel,omitempty"`
	Priority string `json:"priority,omitempty"`
	Branch   string `json:"branch,omitempty"`
	Role     string `json:"role,omitempty"`
}

// Row is one conversation's compliance verdict.
type Row struct {
	ConversationID string `json:"conversation_id"`
	Channel        string `json:"channel"`
	Priority       string `json:"priority"`

	Branch     string `json:"branch"`
	RoleBucket string `json:"role_bucket"`
	Category   string `json:"category"`

	RuleID string `json:"rule_id"`

	FRTMinutes *int         `json:"frt_minutes,omitempty"`
	FRTStatus  MetricStatus `json:"frt_status"`

	RTMinutes *int         `json:"rt_minutes,omitempty"`
	RTStatus  MetricStatus `json:"rt_status"`

	EscalationMinutes *int         `json:"escalation_minutes,omitempty"`
	EscalationStatus  MetricStatus `json:"escalation_status"`

	Overall MetricStatus `json:"overall"`

	AIFirstResponse bool `json:"ai_first_response"`
}

// Tally accumulates Within/Breached counts along one report dimension.
type Tally struct {
	Within   int `json:"within"`
	Breached int `json:"breached"`
}

// Summary is the report rollup.
type Summary struct {
	Total    int `json:"total"`
	Within   int `json:"within"`
	Breached int `json:"breached"`

	// CompliancePct is within / (within + breached) * 100.
	CompliancePct float64 `json:"compliance_pct"`

	AvgFRTMinutes float64 `json:"avg_frt_minutes"`
	P90FRTMinutes float64 `json:"p90_frt_minutes"`

	AvgRTHours float64 `json:"avg_rt_hours"`
	P90RTHours float64 `json:"p90_rt_hours"`

	AIFirstResponses int `json:"ai_first_responses"`

	EscalationsWithin   int `json:"escalations_within"`
	EscalationsBreached int `json:"escalations_breached"`

	ByCategory map[string]Tally `json:"by_category"`
	ByBranch   map[string]Tally `json:"by_branch"`
	ByRole     map[string]Tally `json:"by_role"`
}
