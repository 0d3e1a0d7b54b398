package mqtt

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMatchTopic(t *testing.T) {
	t.Parallel()
	for _, tc := range []struct {
		topic   string
		pattern string
		match   bool
	}{
		{"clock/abc/state", "clock/abc/state", true},
		{"clock/abc/state", "clock/+/state", true},
		{"clock/abc/state", "clock/#", true},
		{"clock/abc/state", "#", true},
		{"clock/abc/state", "clock/+/gps", false},
		{"clock/abc/state", "clock/abc", false},
		{"clock/abc", "clock/abc/state", false},
		{"clock/abc/gps", "clock/+/+", true},
	} {
		require.Equal(t, tc.match, MatchTopic(tc.topic, tc.pattern),
			"topic=%q pattern=%q", tc.topic, tc.pattern)
	}
}
