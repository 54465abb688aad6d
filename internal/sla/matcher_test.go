package sla

import (
	"testing"

	"support-platform/internal/channel"
)

func TestMatch_ExactBeatsWildcard(t *testing.T) {
	rules := []Rule{
		{ID: "exact", Channel: "web", Priority: "high", FirstResponseMinutes: 15, Active: true},
		{ID: "wild", Channel: Wildcard, Priority: Wildcard, FirstResponseMinutes: 60, Active: true},
	}

	got, ok := Match(rules, channel.ChannelWeb, "high")
	if !ok || got.ID != "exact" {
		t.Fatalf("expected exact rule, got %+v ok=%v", got, ok)
	}

	got, ok = Match(rules, channel.ChannelSMS, "low")
	if !ok || got.ID != "wild" {
		t.Fatalf("expected wildcard rule, got %+v ok=%v", got, ok)
	}
}

func TestMatch_PartialBeatsFullWildcard(t *testing.T) {
	rules := []Rule{
		{ID: "wild", Channel: Wildcard, Priority: Wildcard, Active: true},
		{ID: "chan-only", Channel: "whatsapp", Priority: Wildcard, Active: true},
		{ID: "prio-only", Channel: Wildcard, Priority: "urgent", Active: true},
	}

	if got, _ := Match(rules, channel.ChannelWhatsApp, "low"); got.ID != "chan-only" {
		t.Fatalf("expected chan-only, got %q", got.ID)
	}
	if got, _ := Match(rules, channel.ChannelWeb, "urgent"); got.ID != "prio-only" {
		t.Fatalf("expected prio-only, got %q", got.ID)
	}
	// Channel-specific outranks priority-specific when both apply.
	if got, _ := Match(rules, channel.ChannelWhatsApp, "urgent"); got.ID != "chan-only" {
		t.Fatalf("expected chan-only to win, got %q", got.ID)
	}
}

func TestMatch_IgnoresInactiveRules(t *testing.T) {
	rules := []Rule{
		{ID: "off", Channel: "web", Priority: "high", Active: false},
		{ID: "wild", Channel: Wildcard, Priority: Wildcard, Active: true},
	}
	if got, _ := Match(rules, channel.ChannelWeb, "high"); got.ID != "wild" {
		t.Fatalf("expected wildcard, got %q", got.ID)
	}
}

func TestMatchOrDefault_FallsBackPermissive(t *testing.T) {
	got := MatchOrDefault(nil, channel.ChannelWeb, "high")
	if got.ID != "default" {
		t.Fatalf("expected default rule, got %q", got.ID)
	}
	if got.ResolutionMinutes != 48*60 {
		t.Fatalf("expected 48h resolution, got %d", got.ResolutionMinutes)
	}
	if got.BusinessHoursOnly {
		t.Fatalf("default rule must be wall-clock")
	}
}

func TestMatch_StableOnTies(t *testing.T) {
	rules := []Rule{
		{ID: "first", Channel: "web", Priority: "high", Active: true},
		{ID: "second", Channel: "web", Priority: "high", Active: true},
	}
	if got, _ := Match(rules, channel.ChannelWeb, "high"); got.ID != "first" {
		t.Fatalf("expected first rule on tie, got %q", got.ID)
	}
}
