// Package talkstats counts words per speaker for a running transcript.
//
// Update is a pure reducer: callers serialize writes to the same TalkStats value.
package talkstats

import (
	"fmt"
	"strings"

	"github.com/bharatgolchha/liveconvo/internal/domain"
)

// Update returns stats with the words of text credited to speaker.
// An unknown speaker fails with domain.ErrInvalidSpeakerTag and returns stats unchanged.
func Update(stats domain.TalkStats, speaker domain.SpeakerTag, text string) (domain.TalkStats, error) {
	words := CountWords(text)

	switch speaker {
	case domain.SpeakerMe:
		stats.MeWords += words
	case domain.SpeakerThem:
		stats.ThemWords += words
	default:
		return stats, fmt.Errorf("%w: %q", domain.ErrInvalidSpeakerTag, speaker)
	}
	return stats, nil
}

// CountWords returns the number of whitespace-delimited non-empty tokens.
func CountWords(text string) int {
	return len(strings.Fields(text))
}

// Share returns the fraction of words spoken by ME, or 0 when nothing was said.
func Share(stats domain.TalkStats) float64 {
	total := stats.MeWords + stats.ThemWords
	if total == 0 {
		return 0
	}
	return float64(stats.MeWords) / float64(total)
}
