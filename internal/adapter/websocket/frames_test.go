package websocket

import (
	"testing"
	"time"

	"github.com/bharatgolchha/liveconvo/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeEvent_Segment(t *testing.T) {
	ts := time.Date(2026, 3, 1, 9, 30, 0, 0, time.FixedZone("CET", 3600))
	ev := domain.Event{Segment: &domain.Segment{Sequence: 12, Speaker: domain.SpeakerThem, Text: "sounds good", Timestamp: ts}}

	frameType, data, seq, err := encodeEvent(ev)
	require.NoError(t, err)

	assert.Equal(t, frameSegment, frameType)
	assert.Equal(t, uint64(12), seq)
	assert.JSONEq(t, `{"type":"segment","sequenceNumber":12,"speakerTag":"THEM","text":"sounds good","timestamp":"2026-03-01T08:30:00Z"}`, string(data))
}

func TestEncodeEvent_Gap(t *testing.T) {
	frameType, data, seq, err := encodeEvent(domain.Event{Gap: &domain.GapNotice{FromSequence: 3, ToSequence: 7}})
	require.NoError(t, err)

	assert.Equal(t, frameGap, frameType)
	assert.Zero(t, seq)
	assert.JSONEq(t, `{"type":"gap","fromSequence":3,"toSequence":7}`, string(data))
}
