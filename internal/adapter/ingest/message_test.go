package ingest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/bharatgolchha/liveconvo/internal/adapter/metrics"
	"github.com/bharatgolchha/liveconvo/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedSegment struct {
	sessionID, speakerTag, text string
}

type fakeIngester struct {
	mu       sync.Mutex
	segments []recordedSegment
	err      error
}

func (f *fakeIngester) IngestSegment(_ context.Context, sessionID, speakerTag, text string) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	f.segments = append(f.segments, recordedSegment{sessionID, speakerTag, text})
	return uint64(len(f.segments)), nil
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name      string
		routed    string
		payload   string
		want      Message
		wantError bool
	}{
		{
			name:    "session from route",
			routed:  "call-1",
			payload: `{"speakerTag":"ME","text":"hello"}`,
			want:    Message{SessionID: "call-1", SpeakerTag: "ME", Text: "hello"},
		},
		{
			name:    "explicit session wins",
			routed:  "call-1",
			payload: `{"sessionId":"call-2","speakerTag":"THEM","text":"hi"}`,
			want:    Message{SessionID: "call-2", SpeakerTag: "THEM", Text: "hi"},
		},
		{name: "no session anywhere", payload: `{"speakerTag":"ME","text":"x"}`, wantError: true},
		{name: "not json", routed: "call-1", payload: `ME: hello`, wantError: true},
		{
			name:    "text at limit",
			routed:  "call-1",
			payload: `{"speakerTag":"ME","text":"` + strings.Repeat("a", MaxTextBytes) + `"}`,
			want:    Message{SessionID: "call-1", SpeakerTag: "ME", Text: strings.Repeat("a", MaxTextBytes)},
		},
		{
			name:      "text over limit",
			routed:    "call-1",
			payload:   `{"speakerTag":"ME","text":"` + strings.Repeat("a", MaxTextBytes+1) + `"}`,
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.routed, []byte(tt.payload))
			if tt.wantError {
				require.ErrorIs(t, err, ErrMalformedMessage)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHandler_Ingests(t *testing.T) {
	ing := &fakeIngester{}
	m := metrics.NewIngestMetrics(prometheus.NewRegistry())
	h := NewHandler("redis", ing, m)

	h.Handle(context.Background(), "call-1", []byte(`{"speakerTag":"ME","text":"good morning"}`))

	require.Len(t, ing.segments, 1)
	assert.Equal(t, recordedSegment{"call-1", "ME", "good morning"}, ing.segments[0])
	assert.InDelta(t, 1, testutil.ToFloat64(m.MessagesReceived.WithLabelValues("redis")), 0)
}

func TestHandler_CountsFailures(t *testing.T) {
	m := metrics.NewIngestMetrics(prometheus.NewRegistry())

	NewHandler("nats", &fakeIngester{}, m).Handle(context.Background(), "call-1", []byte(`{`))
	NewHandler("nats", &fakeIngester{err: fmt.Errorf("ingest: %w", domain.ErrInvalidSpeakerTag)}, m).
		Handle(context.Background(), "call-1", []byte(`{"speakerTag":"HOST","text":"x"}`))

	assert.InDelta(t, 1, testutil.ToFloat64(m.MessagesFailed.WithLabelValues("nats", "malformed")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.MessagesFailed.WithLabelValues("nats", "invalid_speaker")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.MessagesReceived.WithLabelValues("nats")), 0)
}

func TestHandler_OversizedTextIsMalformed(t *testing.T) {
	ing := &fakeIngester{}
	m := metrics.NewIngestMetrics(prometheus.NewRegistry())
	payload := `{"speakerTag":"ME","text":"` + strings.Repeat("a", MaxTextBytes+1) + `"}`

	NewHandler("redis", ing, m).Handle(context.Background(), "call-1", []byte(payload))

	assert.Empty(t, ing.segments)
	assert.InDelta(t, 1, testutil.ToFloat64(m.MessagesFailed.WithLabelValues("redis", "malformed")), 0)
}

func TestHandler_NilMetrics(t *testing.T) {
	ing := &fakeIngester{}
	h := NewHandler("redis", ing, nil)

	assert.NotPanics(t, func() {
		h.Handle(context.Background(), "", []byte(`{"speakerTag":"ME","text":"x"}`))
	})
	assert.Empty(t, ing.segments)
}
