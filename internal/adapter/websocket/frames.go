package websocket

import (
	"encoding/json"
	"time"

	"github.com/bharatgolchha/liveconvo/internal/domain"
)

const (
	frameSegment = "segment"
	frameGap     = "gap"
)

type segmentFrame struct {
	Type           string    `json:"type"`
	SequenceNumber uint64    `json:"sequenceNumber"`
	SpeakerTag     string    `json:"speakerTag"`
	Text           string    `json:"text"`
	Timestamp      time.Time `json:"timestamp"`
}

type gapFrame struct {
	Type         string `json:"type"`
	FromSequence uint64 `json:"fromSequence"`
	ToSequence   uint64 `json:"toSequence"`
}

// encodeEvent returns the frame type, its JSON body, and the sequence to ack (0 for gaps).
func encodeEvent(ev domain.Event) (string, []byte, uint64, error) {
	if ev.Gap != nil {
		data, err := json.Marshal(gapFrame{
			Type:         frameGap,
			FromSequence: ev.Gap.FromSequence,
			ToSequence:   ev.Gap.ToSequence,
		})
		return frameGap, data, 0, err
	}

	seg := ev.Segment
	data, err := json.Marshal(segmentFrame{
		Type:           frameSegment,
		SequenceNumber: seg.Sequence,
		SpeakerTag:     string(seg.Speaker),
		Text:           seg.Text,
		Timestamp:      seg.Timestamp.UTC(),
	})
	return frameSegment, data, seg.Sequence, err
}
