package accesslog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDecision(t *testing.T) {
	tests := map[string]Decision{
		"ACCEPT":  Accept,
		"accept":  Accept,
		" Deny ":  Deny,
		"NEUTRAL": Neutral,
		"":        Neutral,
		"maybe":   Neutral,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseDecision(in), "input %q", in)
	}
}

func TestDecision_TextRoundTrip(t *testing.T) {
	for _, d := range []Decision{Accept, Neutral, Deny} {
		b, err := d.MarshalText()
		assert.NoError(t, err)

		var got Decision
		assert.NoError(t, got.UnmarshalText(b))
		assert.Equal(t, d, got)
	}
}
