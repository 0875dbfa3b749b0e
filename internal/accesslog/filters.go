package accesslog

import "strings"

// DefaultDecisionHeader is the request header read by HeaderFilter when no
// other name is configured.
const DefaultDecisionHeader = "X-Filter-Reply"

// HeaderFilter takes its reply from a request header. Missing or unknown
// values are Neutral.
type HeaderFilter struct {
	Header string
}

// Decide implements EventFilter.
func (f HeaderFilter) Decide(e *Event) Decision {
	name := f.Header
	if name == "" {
		name = DefaultDecisionHeader
	}
	return ParseDecision(e.RequestHeaders.Get(name))
}

// PathFilter denies events whose request path starts with one of Prefixes.
type PathFilter struct {
	Prefixes []string
}

// Decide implements EventFilter.
func (f PathFilter) Decide(e *Event) Decision {
	for _, p := range f.Prefixes {
		if p != "" && strings.HasPrefix(e.RequestURI, p) {
			return Deny
		}
	}
	return Neutral
}

// StatusFilter replies OnMatch for status codes in [Min, Max].
// A zero Max means no upper bound.
type StatusFilter struct {
	Min, Max int
	OnMatch  Decision
}

// Decide implements EventFilter.
func (f StatusFilter) Decide(e *Event) Decision {
	if e.StatusCode < f.Min {
		return Neutral
	}
	if f.Max > 0 && e.StatusCode > f.Max {
		return Neutral
	}
	return f.OnMatch
}
