package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSessionFromChannel(t *testing.T) {
	tests := []struct {
		pattern, channel, want string
	}{
		{"transcript:*", "transcript:call-1", "call-1"},
		{"transcript:*", "transcript:team:standup", "team:standup"},
		{"transcript:*", "other:call-1", ""},
		{"transcripts", "transcripts", ""},
		{"transcript:?:*", "transcript:a:call-1", ""},
	}

	for _, tt := range tests {
		t.Run(tt.channel, func(t *testing.T) {
			assert.Equal(t, tt.want, sessionFromChannel(tt.pattern, tt.channel))
		})
	}
}
