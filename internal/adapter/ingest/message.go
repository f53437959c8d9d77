// Package ingest holds the wire format shared by the pub/sub transcript sources.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bharatgolchha/liveconvo/internal/adapter/metrics"
	"github.com/bharatgolchha/liveconvo/internal/domain"
)

var ErrMalformedMessage = errors.New("malformed transcript message")

// MaxTextBytes caps the text of a single segment on every ingest path.
const MaxTextBytes = 16 << 10

// Message is one transcript segment as published by a speech-to-text worker.
// SessionID is optional; the channel or subject suffix is used when it is empty.
type Message struct {
	SessionID  string `json:"sessionId,omitempty"`
	SpeakerTag string `json:"speakerTag"`
	Text       string `json:"text"`
}

// Decode parses payload and resolves the session id against the routing suffix.
func Decode(routedSessionID string, payload []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}
	if msg.SessionID == "" {
		msg.SessionID = routedSessionID
	}
	if msg.SessionID == "" {
		return Message{}, fmt.Errorf("%w: no session id", ErrMalformedMessage)
	}
	if len(msg.Text) > MaxTextBytes {
		return Message{}, fmt.Errorf("%w: text exceeds %d bytes", ErrMalformedMessage, MaxTextBytes)
	}
	return msg, nil
}

// Handler decodes messages from one source and feeds them to the ingest boundary.
type Handler struct {
	source   string
	ingester domain.SegmentIngester
	metrics  *metrics.IngestMetrics
}

// NewHandler returns a Handler labelled with source ("redis", "nats"). m may be nil.
func NewHandler(source string, ingester domain.SegmentIngester, m *metrics.IngestMetrics) *Handler {
	return &Handler{source: source, ingester: ingester, metrics: m}
}

// Handle never returns an error: a bad message is logged and counted, and the stream continues.
func (h *Handler) Handle(ctx context.Context, routedSessionID string, payload []byte) {
	if h.metrics != nil {
		h.metrics.MessagesReceived.WithLabelValues(h.source).Inc()
	}

	msg, err := Decode(routedSessionID, payload)
	if err != nil {
		h.failed("malformed")
		slog.WarnContext(ctx, "Dropping transcript message", "source", h.source, "routed_session_id", routedSessionID, "error", err)
		return
	}

	seq, err := h.ingester.IngestSegment(ctx, msg.SessionID, msg.SpeakerTag, msg.Text)
	if err != nil {
		h.failed(reason(err))
		slog.WarnContext(ctx, "Transcript message rejected", "source", h.source, "session_id", msg.SessionID, "error", err)
		return
	}

	slog.DebugContext(ctx, "Transcript message ingested", "source", h.source, "session_id", msg.SessionID, "sequence", seq)
}

func (h *Handler) failed(reason string) {
	if h.metrics != nil {
		h.metrics.MessagesFailed.WithLabelValues(h.source, reason).Inc()
	}
}

func reason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidSpeakerTag):
		return "invalid_speaker"
	case errors.Is(err, domain.ErrEmptySessionID):
		return "empty_session_id"
	case errors.Is(err, domain.ErrSessionNotFound):
		return "session_not_found"
	default:
		return "internal"
	}
}
