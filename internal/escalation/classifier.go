package escalation

import (
	"strings"

	"support-platform/internal/conversation"
)

// DepartmentClassifier routes an escalation record to a department.
// Pluggable so deployments can swap in an ML-backed classifier; the
// default is keyword matching over the subject and reason.
type DepartmentClassifier func(c conversation.Conversation, reason string) string

const (
	DepartmentClaims     = "Claims"
	DepartmentCompliance = "Compliance"
	DepartmentGeneral    = "General"
)

// ClassifyByKeywords is the default classifier.
func ClassifyByKeywords(c conversation.Conversation, reason string) string {
	text := strings.ToLower(c.Subject + " " + reason)
	switch {
	case containsAny(text, "claim", "refund", "damage", "reimburs"):
		return DepartmentClaims
	case containsAny(text, "complian", "legal", "regulat", "gdpr", "privacy"):
		return DepartmentCompliance
	default:
		return DepartmentGeneral
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
