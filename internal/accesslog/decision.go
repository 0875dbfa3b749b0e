package accesslog

import "strings"

// Decision is the reply of the filter chain for one exchange.
type Decision int

const (
	// Neutral means no opinion; the event is emitted unless a later filter denies it.
	Neutral Decision = iota
	// Accept forces emission and stops the filter chain.
	Accept
	// Deny suppresses emission entirely.
	Deny
)

// ParseDecision maps a name to a Decision, ignoring case.
// Unknown or empty names are Neutral.
func ParseDecision(s string) Decision {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ACCEPT":
		return Accept
	case "DENY":
		return Deny
	default:
		return Neutral
	}
}

func (d Decision) String() string {
	switch d {
	case Accept:
		return "ACCEPT"
	case Deny:
		return "DENY"
	default:
		return "NEUTRAL"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (d Decision) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Decision) UnmarshalText(b []byte) error {
	*d = ParseDecision(string(b))
	return nil
}

