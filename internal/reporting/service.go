package reporting

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"support-platform/internal/agents"
	"support-platform/internal/calendar"
	"support-platform/internal/conversation"
	"support-platform/internal/escalation"
	"support-platform/internal/sla"
)

// DefaultScanCap bounds one report run so a wide date range cannot scan
// the whole archive.
const DefaultScanCap = 5000

// Service computes retrospective SLA compliance reports.
//
// Read-only batch computation, fully concurrent with live mutation: rows
// are a best-effort snapshot without transactional isolation. Row-level
// failures (missing agent, unreadable messages) degrade to sentinels and
// never fail the report.
type Service struct {
	Conversations conversation.Repository
	Escalations   escalation.Repository
	Rules         sla.Repository
	Resolver      agents.Resolver
	Calendar      calendar.Calendar

	// ScanCap caps conversations per run; 0 means DefaultScanCap.
	ScanCap int

	Log *slog.Logger
}

func NewService(convs conversation.Repository, escs escalation.Repository, rules sla.Repository, resolver agents.Resolver, cal calendar.Calendar, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		Conversations: convs,
		Escalations:   escs,
		Rules:         rules,
		Resolver:      resolver,
		Calendar:      cal,
		Log:           log,
	}
}

// Compliance evaluates every conversation in the window against its most
// specific SLA rule and rolls the verdicts up into a summary.
func (s *Service) Compliance(ctx context.Context, workspaceID string, req ComplianceRequest) ([]Row, Summary, error) {
	scanCap := s.ScanCap
	if scanCap <= 0 {
		scanCap = DefaultScanCap
	}

	var rules []sla.Rule
	if s.Rules != nil {
		var err error
		rules, err = s.Rules.ListActive(ctx, workspaceID)
		if err != nil {
			// Missing configuration degrades to the default rule.
			s.Log.Error("sla rule listing failed, using default rule", "err", err)
			rules = nil
		}
	}

	convs, err := s.Conversations.List(ctx, workspaceID, conversation.Filter{
		From:     req.From,
		To:       req.To,
		Channel:  req.Channel,
		Priority: req.Priority,
		Limit:    scanCap,
	})
	if err != nil {
		return nil, Summary{}, err
	}

	rows := make([]Row, 0, len(convs))
	for _, c := range convs {
		row := s.rowFor(ctx, workspaceID, c, rules)
		if req.Branch != "" && row.Branch != req.Branch {
			continue
		}
		if req.Role != "" && row.RoleBucket != req.Role {
			continue
		}
		rows = append(rows, row)
	}

	return rows, summarize(rows), nil
}

func (s *Service) rowFor(ctx context.Context, workspaceID string, c conversation.Conversation, rules []sla.Rule) Row {
	rule := sla.MatchOrDefault(rules, c.Channel, string(c.Priority))

	row := Row{
		ConversationID:   c.ID,
		Channel:          string(c.Channel),
		Priority:         string(c.Priority),
		Branch:           s.Resolver.ResolveBranch(ctx, workspaceID, c.AssignedAgentID),
		RoleBucket:       s.Resolver.ResolveRoleBucket(ctx, workspaceID, c.AssignedAgentID),
		RuleID:           rule.ID,
		FRTStatus:        StatusNA,
		RTStatus:         StatusNA,
		EscalationStatus: StatusNA,
	}

	msgs, err := s.Conversations.ListMessages(ctx, workspaceID, c.ID)
	if err != nil {
		s.Log.Error("message listing failed, row degrades", "conversation_id", c.ID, "err", err)
		msgs = nil
	}
	firstInbound, firstOutbound := firstByDirection(msgs)

	// The conversation is created on its first inbound message, so the
	// creation time anchors the clocks when the message itself is gone.
	anchor := c.CreatedAt
	var inboundBody string
	if firstInbound != nil {
		anchor = firstInbound.CreatedAt
		inboundBody = firstInbound.Body
	}

	if firstOutbound != nil {
		frt := s.Calendar.Minutes(anchor, firstOutbound.CreatedAt, rule.BusinessHoursOnly)
		row.FRTMinutes = &frt
		row.FRTStatus = verdict(frt, rule.FirstResponseMinutes)
		row.AIFirstResponse = firstOutbound.FromAI
	}

	if c.Status.Terminal() {
		ts := resolutionTimestamp(c)
		rt := s.Calendar.Minutes(anchor, ts, rule.BusinessHoursOnly)
		row.RTMinutes = &rt
		row.RTStatus = verdict(rt, rule.ResolutionMinutes)
	}

	var department string
	if s.Escalations != nil {
		recs, err := s.Escalations.ListByConversation(ctx, workspaceID, c.ID)
		if err != nil {
			s.Log.Error("escalation listing failed, row degrades", "conversation_id", c.ID, "err", err)
		} else if len(recs) > 0 {
			esc := s.Calendar.Minutes(anchor, recs[0].EscalatedAt, rule.BusinessHoursOnly)
			row.EscalationMinutes = &esc
			row.EscalationStatus = verdict(esc, rule.EscalationMinutes)
			department = recs[0].Department
		}
	}

	row.Category = classifyCategory(inboundBody+" "+c.Subject, department)
	row.Overall = overall(row.FRTStatus, row.RTStatus, row.EscalationStatus)
	return row
}

// verdict compares a measured duration to a threshold. A zero threshold
// means none is configured and the metric does not apply.
func verdict(minutes, threshold int) MetricStatus {
	if threshold <= 0 {
		return StatusNA
	}
	if minutes <= threshold {
		return StatusWithin
	}
	return StatusBreached
}

// overall is Within iff every applicable metric is within, Breached if any
// failed, NA when nothing applied.
func overall(statuses ...MetricStatus) MetricStatus {
	applied := false
	for _, st := range statuses {
		switch st {
		case StatusBreached:
			return StatusBreached
		case StatusWithin:
			applied = true
		}
	}
	if !applied {
		return StatusNA
	}
	return StatusWithin
}

// resolutionTimestamp is the first available of resolved_at, closed_at,
// last_message_at, updated_at.
func resolutionTimestamp(c conversation.Conversation) time.Time {
	switch {
	case c.ResolvedAt != nil:
		return *c.ResolvedAt
	case c.ClosedAt != nil:
		return *c.ClosedAt
	case !c.LastMessageAt.IsZero():
		return c.LastMessageAt
	default:
		return c.UpdatedAt
	}
}

func firstByDirection(msgs []conversation.Message) (inbound, outbound *conversation.Message) {
	for i := range msgs {
		m := &msgs[i]
		if m.Direction == conversation.DirectionInbound && inbound == nil {
			inbound = m
		}
		if m.Direction == conversation.DirectionOutbound && outbound == nil {
			outbound = m
		}
	}
	return inbound, outbound
}

// classifyCategory buckets a conversation for the report rollup. The
// escalation department, when present, is authoritative; otherwise the
// first inbound text is keyword-matched.
func classifyCategory(text, department string) string {
	switch department {
	case escalation.DepartmentClaims, escalation.DepartmentCompliance:
		return department
	}
	lower := strings.ToLower(text)
	switch {
	case containsAny(lower, "claim", "refund", "damage", "reimburs"):
		return escalation.DepartmentClaims
	case containsAny(lower, "complian", "legal", "regulat", "gdpr", "privacy"):
		return escalation.DepartmentCompliance
	default:
		return escalation.DepartmentGeneral
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func summarize(rows []Row) Summary {
	sum := Summary{
		Total:      len(rows),
		ByCategory: map[string]Tally{},
		ByBranch:   map[string]Tally{},
		ByRole:     map[string]Tally{},
	}

	var frts, rts []float64
	for _, row := range rows {
		switch row.Overall {
		case StatusWithin:
			sum.Within++
		case StatusBreached:
			sum.Breached++
		}
		tallyInto(sum.ByCategory, row.Category, row.Overall)
		tallyInto(sum.ByBranch, row.Branch, row.Overall)
		tallyInto(sum.ByRole, row.RoleBucket, row.Overall)

		if row.FRTMinutes != nil {
			frts = append(frts, float64(*row.FRTMinutes))
		}
		if row.RTMinutes != nil {
			rts = append(rts, float64(*row.RTMinutes))
		}
		if row.AIFirstResponse {
			sum.AIFirstResponses++
		}
		switch row.EscalationStatus {
		case StatusWithin:
			sum.EscalationsWithin++
		case StatusBreached:
			sum.EscalationsBreached++
		}
	}

	if judged := sum.Within + sum.Breached; judged > 0 {
		sum.CompliancePct = float64(sum.Within) / float64(judged) * 100
	}
	sum.AvgFRTMinutes = mean(frts)
	sum.P90FRTMinutes = percentile(frts, 90)
	sum.AvgRTHours = mean(rts) / 60
	sum.P90RTHours = percentile(rts, 90) / 60
	return sum
}

func tallyInto(m map[string]Tally, key string, st MetricStatus) {
	if key == "" || st == StatusNA {
		return
	}
	t := m[key]
	if st == StatusWithin {
		t.Within++
	} else {
		t.Breached++
	}
	m[key] = t
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	var total float64
	for _, v := range vals {
		total += v
	}
	return total / float64(len(vals))
}

// percentile is nearest-rank: sort ascending, index round(p/100*(n-1))
// clamped to [0, n-1].
func percentile(vals []float64, p float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	idx := int(math.Round(p / 100 * float64(len(sorted)-1)))
	if idx < 0 {
		idx = 0
	}
	if idx > len(sorted)-1 {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
