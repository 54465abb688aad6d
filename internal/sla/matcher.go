package sla

import "support-platform/internal/channel"

// Match selects the single most specific active rule for the pair.
// Ties keep the earliest rule in the slice (stable for deterministic
// reports). The boolean is false when nothing matched; callers should then
// use DefaultRule.
func Match(rules []Rule, ch channel.Channel, priority string) (Rule, bool) {
	best := -1
	var out Rule
	for _, r := range rules {
		if !r.Active {
			continue
		}
		score, ok := r.specificity(ch, priority)
		if !ok {
			continue
		}
		if score > best {
			best = score
			out = r
		}
	}
	if best < 0 {
		return Rule{}, false
	}
	return out, true
}

// MatchOrDefault is Match with the permissive fallback applied.
func MatchOrDefault(rules []Rule, ch channel.Channel, priority string) Rule {
	if r, ok := Match(rules, ch, priority); ok {
		return r
	}
	return DefaultRule()
}
