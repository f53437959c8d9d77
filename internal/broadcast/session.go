package broadcast

import (
	"sync"
	"time"

	"github.com/bharatgolchha/liveconvo/internal/domain"
)

// Session is one meeting's live transcript state.
// All fields below mu are guarded by it.
type Session struct {
	id        string
	epoch     uint64
	createdAt time.Time

	mu           sync.Mutex
	convType     domain.ConversationType
	head         uint64
	ring         *ring
	stats        domain.TalkStats
	conns        map[string]*Connection
	lastActivity time.Time
	closed       bool
}

func newSession(id string, epoch uint64, capacity int, now time.Time) *Session {
	return &Session{
		id:           id,
		epoch:        epoch,
		createdAt:    now,
		convType:     domain.DefaultConversationType,
		ring:         newRing(capacity),
		conns:        make(map[string]*Connection),
		lastActivity: now,
	}
}

func (s *Session) ID() string { return s.id }

func (s *Session) CreatedAt() time.Time { return s.createdAt }

// SetConversationType relabels the session. It does not touch the transcript.
func (s *Session) SetConversationType(t domain.ConversationType) {
	s.mu.Lock()
	s.convType = t
	s.mu.Unlock()
}

func (s *Session) ConversationType() domain.ConversationType {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.convType
}

// Stats returns the current talk statistics.
func (s *Session) Stats() domain.TalkStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Summary returns a metadata-only view of the session.
func (s *Session) Summary() domain.SessionSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summaryLocked()
}

func (s *Session) summaryLocked() domain.SessionSummary {
	return domain.SessionSummary{
		SessionID:         s.id,
		ConversationType:  s.convType,
		CreatedAt:         s.createdAt,
		LastActivity:      s.lastActivity,
		LastSequence:      s.head,
		ActiveConnections: len(s.conns),
		BufferedSegments:  s.ring.len(),
		Stats:             s.stats,
	}
}

// shutdown marks the session closed and cancels all its connections.
func (s *Session) shutdown() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	conns := s.conns
	s.conns = make(map[string]*Connection)
	s.mu.Unlock()

	for _, c := range conns {
		c.close(domain.ErrSessionClosed)
	}
}

// idleSince reports whether the session has no connections and no activity after cutoff.
// Caller holds mu.
func (s *Session) idleLocked(cutoff time.Time) bool {
	return len(s.conns) == 0 && !s.lastActivity.After(cutoff)
}
