package channel

import (
	"testing"
	"time"
)

func TestParse_NormalizesAndFallsBack(t *testing.T) {
	if got := Parse(" WhatsApp "); got != ChannelWhatsApp {
		t.Fatalf("expected whatsapp, got %q", got)
	}
	if got := Parse("carrier-pigeon"); got != ChannelWeb {
		t.Fatalf("expected web fallback, got %q", got)
	}
}

func TestResolutionSLA_InstantMessagingGetsTighterWindow(t *testing.T) {
	if d := ChannelWhatsApp.ResolutionSLA(); d != 24*time.Hour {
		t.Fatalf("expected 24h for whatsapp, got %v", d)
	}
	if d := ChannelWeb.ResolutionSLA(); d != 48*time.Hour {
		t.Fatalf("expected 48h for web, got %v", d)
	}
	if d := ChannelVoice.ResolutionSLA(); d != 48*time.Hour {
		t.Fatalf("expected 48h for voice, got %v", d)
	}
}
