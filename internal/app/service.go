package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bharatgolchha/liveconvo/internal/broadcast"
	"github.com/bharatgolchha/liveconvo/internal/classifier"
	"github.com/bharatgolchha/liveconvo/internal/domain"
)

// Service orchestrates ingest, subscription and session lifecycle on a Hub.
type Service struct {
	hub *broadcast.Hub
}

func NewService(hub *broadcast.Hub) *Service {
	return &Service{hub: hub}
}

// IngestSegment appends a transcript segment, creating the session on first use.
func (s *Service) IngestSegment(ctx context.Context, sessionID, speakerTag, text string) (uint64, error) {
	if strings.TrimSpace(sessionID) == "" {
		return 0, domain.ErrEmptySessionID
	}
	speaker, err := domain.ParseSpeakerTag(speakerTag)
	if err != nil {
		return 0, err
	}

	seq, err := s.ingest(sessionID, speaker, text)
	if errors.Is(err, domain.ErrSessionNotFound) {
		// Closed between open and ingest. The next segment starts a fresh session.
		slog.DebugContext(ctx, "Session closed during ingest, retrying", "session_id", sessionID)
		seq, err = s.ingest(sessionID, speaker, text)
	}
	if err != nil {
		return 0, err
	}

	slog.DebugContext(ctx, "Segment ingested", "session_id", sessionID, "sequence", seq, "speaker", speaker)
	return seq, nil
}

func (s *Service) ingest(sessionID string, speaker domain.SpeakerTag, text string) (uint64, error) {
	s.hub.Open(sessionID)
	return s.hub.Ingest(sessionID, speaker, text)
}

// OpenSession creates or relabels a session. Unknown labels fall back to the default type;
// an empty label leaves an existing session's type untouched.
func (s *Service) OpenSession(ctx context.Context, sessionID, label string) (domain.SessionSummary, error) {
	if strings.TrimSpace(sessionID) == "" {
		return domain.SessionSummary{}, domain.ErrEmptySessionID
	}

	convType, known := classifier.ClassifyOrDefault(label)
	if !known && label != "" {
		slog.InfoContext(ctx, "Unknown conversation label, using default",
			"session_id", sessionID,
			"label", label,
			"conversation_type", convType,
		)
	}

	// An empty label on an existing session keeps its current type.
	session, created := s.hub.Open(sessionID)
	if created || label != "" {
		session.SetConversationType(convType)
	}
	return session.Summary(), nil
}

// Classify maps a raw label to a conversation type without touching any session.
func (s *Service) Classify(label string) (domain.ConversationType, error) {
	return classifier.Classify(label)
}

// Subscribe attaches a subscriber, creating the session if it does not exist yet.
// lastSeen nil means live only.
func (s *Service) Subscribe(ctx context.Context, sessionID string, lastSeen *uint64) (*broadcast.Connection, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, domain.ErrEmptySessionID
	}

	conn, err := s.subscribe(sessionID, lastSeen)
	if errors.Is(err, domain.ErrSessionNotFound) {
		conn, err = s.subscribe(sessionID, lastSeen)
	}
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", sessionID, err)
	}

	slog.InfoContext(ctx, "Subscriber connected", "session_id", sessionID, "connection_id", conn.ID())
	return conn, nil
}

func (s *Service) subscribe(sessionID string, lastSeen *uint64) (*broadcast.Connection, error) {
	s.hub.Open(sessionID)
	return s.hub.Subscribe(sessionID, lastSeen)
}

// Unsubscribe detaches a subscriber. cause is recorded as its close reason and may be nil.
func (s *Service) Unsubscribe(conn *broadcast.Connection, cause error) {
	s.hub.Disconnect(conn, cause)
}

// CloseSession ends a session. Reports whether it was live.
func (s *Service) CloseSession(ctx context.Context, sessionID string) bool {
	closed := s.hub.CloseSession(sessionID)
	if closed {
		slog.InfoContext(ctx, "Session closed by request", "session_id", sessionID)
	}
	return closed
}

// Session returns the summary of one live session.
func (s *Service) Session(_ context.Context, sessionID string) (domain.SessionSummary, error) {
	session, err := s.hub.Session(sessionID)
	if err != nil {
		return domain.SessionSummary{}, err
	}
	return session.Summary(), nil
}

// ActiveSessions returns summaries of all live sessions.
func (s *Service) ActiveSessions(_ context.Context) []domain.SessionSummary {
	return s.hub.Snapshot()
}

// Connections returns per-connection metadata for one session.
func (s *Service) Connections(_ context.Context, sessionID string) ([]domain.ConnectionInfo, error) {
	return s.hub.Connections(sessionID)
}
