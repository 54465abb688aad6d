package channel

import (
	"strings"
	"time"
)

// Channel identifies the inbound source of a conversation.
//
// Channel-specific behavior is expressed as functions keyed on this tag.
// Do not add per-channel types; new capabilities get a new function here.

type Channel string

const (
	ChannelWeb       Channel = "web"
	ChannelWhatsApp  Channel = "whatsapp"
	ChannelFacebook  Channel = "facebook"
	ChannelInstagram Channel = "instagram"
	ChannelSMS       Channel = "sms"
	ChannelVoice     Channel = "voice"
	ChannelTawkTo    Channel = "tawkto"
)

// All lists every known channel. Keep in sync with the constants above.
func All() []Channel {
	return []Channel{
		ChannelWeb,
		ChannelWhatsApp,
		ChannelFacebook,
		ChannelInstagram,
		ChannelSMS,
		ChannelVoice,
		ChannelTawkTo,
	}
}

// Parse normalizes a raw channel string. Unknown values fall back to web
// rather than failing; channel adapters are outside our trust boundary.
func Parse(raw string) Channel {
	c := Channel(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range All() {
		if c == known {
			return c
		}
	}
	return ChannelWeb
}

// IsInstantMessaging reports whether customers on this channel expect
// near-real-time replies. Instant-messaging channels get the tighter
// resolution SLA window.
func (c Channel) IsInstantMessaging() bool {
	switch c {
	case ChannelWhatsApp, ChannelFacebook, ChannelInstagram, ChannelSMS, ChannelTawkTo:
		return true
	default:
		return false
	}
}

// ResolutionSLA returns the default resolution window applied at
// conversation creation: 24h for instant-messaging channels, 48h otherwise.
func (c Channel) ResolutionSLA() time.Duration {
	if c.IsInstantMessaging() {
		return 24 * time.Hour
	}
	return 48 * time.Hour
}
