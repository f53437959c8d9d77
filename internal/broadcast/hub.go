package broadcast

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/bharatgolchha/liveconvo/internal/adapter/metrics"
	"github.com/bharatgolchha/liveconvo/internal/domain"
	"github.com/bharatgolchha/liveconvo/internal/talkstats"
	"github.com/jonboulle/clockwork"
)

const (
	defaultBufferCapacity  = 500
	defaultSendQueueSize   = 64
	defaultSlowConsumerLag = 256
	defaultIdleTimeout     = 30 * time.Minute
	defaultReapInterval    = time.Minute
)

// Config tunes a Hub. Zero values fall back to defaults, except
// MaxConnectionsPerSession where zero means unlimited.
type Config struct {
	MaxConnectionsPerSession int
	SendQueueSize            int
	SlowConsumerLag          int
	IdleTimeout              time.Duration
	ReapInterval             time.Duration
}

func (c Config) withDefaults() Config {
	if c.SendQueueSize <= 0 {
		c.SendQueueSize = defaultSendQueueSize
	}
	if c.SlowConsumerLag <= 0 {
		c.SlowConsumerLag = defaultSlowConsumerLag
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = defaultIdleTimeout
	}
	if c.ReapInterval <= 0 {
		c.ReapInterval = defaultReapInterval
	}
	return c
}

// Hub fans ingested segments out to the connections of each session.
type Hub struct {
	registry Registry
	clock    clockwork.Clock
	cfg      Config
	metrics  *metrics.HubMetrics
}

// NewHub creates a hub over registry. m may be nil.
func NewHub(registry Registry, clock clockwork.Clock, cfg Config, m *metrics.HubMetrics) *Hub {
	return &Hub{
		registry: registry,
		clock:    clock,
		cfg:      cfg.withDefaults(),
		metrics:  m,
	}
}

// Open returns the live session for sessionID, creating it if needed.
func (h *Hub) Open(sessionID string) (*Session, bool) {
	s, created := h.registry.GetOrCreate(sessionID)
	if created {
		h.setActiveSessions()
		slog.Info("Session opened", "session_id", sessionID)
	}
	return s, created
}

// Session returns the live session or an error wrapping domain.ErrSessionNotFound.
func (h *Hub) Session(sessionID string) (*Session, error) {
	return h.registry.Get(sessionID)
}

// Ingest appends a segment to the session transcript and wakes every subscriber.
// It never creates a session.
func (h *Hub) Ingest(sessionID string, speaker domain.SpeakerTag, text string) (uint64, error) {
	s, err := h.registry.Get(sessionID)
	if err != nil {
		h.rejected("session_not_found")
		return 0, err
	}

	start := h.clock.Now()
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		h.rejected("session_not_found")
		return 0, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, sessionID)
	}

	stats, err := talkstats.Update(s.stats, speaker, text)
	if err != nil {
		s.mu.Unlock()
		h.rejected("invalid_speaker")
		return 0, err
	}

	s.stats = stats
	s.head++
	seq := s.head
	evicted := s.ring.push(domain.Segment{Sequence: seq, Speaker: speaker, Text: text, Timestamp: start})
	s.lastActivity = start

	var slow []*Connection
	for id, c := range s.conns {
		if c.lag(seq) > uint64(h.cfg.SlowConsumerLag) {
			delete(s.conns, id)
			slow = append(slow, c)
			continue
		}
		c.wake()
	}
	s.mu.Unlock()

	for _, c := range slow {
		slog.Warn("Disconnecting slow subscriber",
			"session_id", sessionID,
			"connection_id", c.id,
			"last_delivered", c.delivered.Load(),
			"sequence", seq,
		)
		c.close(fmt.Errorf("%w: lag exceeds %d segments", domain.ErrConnectionDead, h.cfg.SlowConsumerLag))
	}

	if h.metrics != nil {
		h.metrics.SegmentsIngested.Inc()
		if evicted {
			h.metrics.SegmentsEvicted.Inc()
		}
		h.metrics.SlowConsumerEvicted.Add(float64(len(slow)))
		h.metrics.FanOutDuration.Observe(h.clock.Since(start).Seconds())
	}
	return seq, nil
}

// Subscribe registers a connection on an existing session.
//
// With lastSeen nil the connection receives live segments only. Otherwise
// segments after lastSeen that are still buffered are replayed first, preceded
// by a gap notice for any that were already evicted.
func (h *Hub) Subscribe(sessionID string, lastSeen *uint64) (*Connection, error) {
	s, err := h.registry.Get(sessionID)
	if err != nil {
		return nil, err
	}

	now := h.clock.Now()
	id, err := newConnectionID(now)
	if err != nil {
		return nil, fmt.Errorf("generate connection id: %w", err)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, sessionID)
	}
	if limit := h.cfg.MaxConnectionsPerSession; limit > 0 && len(s.conns) >= limit {
		s.mu.Unlock()
		slog.Warn("Rejecting subscriber: max connections reached", "session_id", sessionID, "max_connections", limit)
		return nil, fmt.Errorf("%w: limit %d", domain.ErrTooManyConnections, limit)
	}

	c := newConnection(id, s, h, h.cfg.SendQueueSize, now)
	c.liveFrom = s.head
	c.cursor = s.head + 1

	var gap *domain.GapNotice
	replayed := 0
	if lastSeen != nil && *lastSeen < s.head {
		from := *lastSeen + 1
		oldest, ok := s.ring.oldest()
		if !ok {
			oldest = s.head + 1
		}
		if from < oldest {
			gap = &domain.GapNotice{FromSequence: from, ToSequence: oldest - 1}
			c.backlog = append(c.backlog, domain.Event{Gap: gap})
			from = oldest
		}
		for _, seg := range s.ring.since(from, 0) {
			c.backlog = append(c.backlog, domain.Event{Segment: &seg})
			replayed++
		}
	}
	s.conns[c.id] = c
	s.lastActivity = now
	total := len(s.conns)
	head := s.head
	s.mu.Unlock()

	if h.metrics != nil {
		h.metrics.ActiveConnections.Inc()
		h.metrics.SegmentsReplayed.Add(float64(replayed))
	}
	if gap != nil {
		h.gapEmitted(c, gap.FromSequence, gap.ToSequence)
	}
	slog.Debug("Subscriber registered",
		"session_id", sessionID,
		"connection_id", c.id,
		"head", head,
		"replayed", replayed,
		"total_connections", total,
	)

	go c.pump()
	return c, nil
}

// Unsubscribe removes c from its session. Safe to call more than once.
func (h *Hub) Unsubscribe(c *Connection) {
	h.Disconnect(c, nil)
}

// Disconnect removes c from its session and records cause as its close reason.
func (h *Hub) Disconnect(c *Connection, cause error) {
	if s, err := h.registry.Get(c.sessionID); err == nil && s.epoch == c.epoch {
		s.mu.Lock()
		if cur, ok := s.conns[c.id]; ok && cur == c {
			delete(s.conns, c.id)
			s.lastActivity = h.clock.Now()
		}
		s.mu.Unlock()
	}
	c.close(cause)
}

// Snapshot returns metadata for every live session, oldest first.
func (h *Hub) Snapshot() []domain.SessionSummary {
	return h.registry.ListActive()
}

// Connections returns per-connection metadata for one session.
func (h *Hub) Connections(sessionID string) ([]domain.ConnectionInfo, error) {
	s, err := h.registry.Get(sessionID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	conns := make([]*Connection, 0, len(s.conns))
	for _, c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	out := make([]domain.ConnectionInfo, 0, len(conns))
	for _, c := range conns {
		out = append(out, c.Info())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ConnectionID < out[j].ConnectionID })
	return out, nil
}

// CloseSession ends a session and all of its connections. Reports whether it was live.
func (h *Hub) CloseSession(sessionID string) bool {
	if !h.registry.Close(sessionID) {
		return false
	}
	h.setActiveSessions()
	slog.Info("Session closed", "session_id", sessionID)
	return true
}

func (h *Hub) connectionClosed(c *Connection) {
	if h.metrics != nil {
		h.metrics.ActiveConnections.Dec()
	}
	slog.Debug("Subscriber closed", "session_id", c.sessionID, "connection_id", c.id, "reason", c.Err())
}

func (h *Hub) gapEmitted(c *Connection, from, to uint64) {
	if h.metrics != nil {
		h.metrics.GapNotices.Inc()
	}
	slog.Info("Gap notice", "session_id", c.sessionID, "connection_id", c.id, "from", from, "to", to)
}

func (h *Hub) rejected(reason string) {
	if h.metrics != nil {
		h.metrics.IngestRejected.WithLabelValues(reason).Inc()
	}
}

func (h *Hub) setActiveSessions() {
	if h.metrics != nil {
		h.metrics.ActiveSessions.Set(float64(h.registry.Len()))
	}
}
