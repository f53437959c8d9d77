package domain

import (
	"fmt"
	"time"
)

// SpeakerTag identifies which side of the call produced a segment.
type SpeakerTag string

const (
	SpeakerMe   SpeakerTag = "ME"
	SpeakerThem SpeakerTag = "THEM"
)

// ParseSpeakerTag accepts exactly "ME" or "THEM".
func ParseSpeakerTag(s string) (SpeakerTag, error) {
	switch SpeakerTag(s) {
	case SpeakerMe, SpeakerThem:
		return SpeakerTag(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidSpeakerTag, s)
	}
}

// Segment is one unit of transcribed speech. Immutable once appended.
type Segment struct {
	Sequence  uint64
	Speaker   SpeakerTag
	Text      string
	Timestamp time.Time
}

// GapNotice tells a subscriber that the inclusive range [FromSequence, ToSequence]
// was requested but is no longer buffered.
type GapNotice struct {
	FromSequence uint64
	ToSequence   uint64
}

// Event is one item of a connection's ordered stream: either a segment or a gap notice.
type Event struct {
	Segment *Segment
	Gap     *GapNotice
}

// TalkStats holds per-speaker word counts for a session.
type TalkStats struct {
	MeWords   int `json:"meWords"`
	ThemWords int `json:"themWords"`
}
