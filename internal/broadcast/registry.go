package broadcast

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bharatgolchha/liveconvo/internal/domain"
	"github.com/jonboulle/clockwork"
)

// Registry maps meeting-session ids to their live state.
type Registry interface {
	// GetOrCreate returns the live session for id, creating it if unseen.
	// Concurrent callers for the same unseen id all receive the same Session.
	GetOrCreate(sessionID string) (*Session, bool)
	// Get returns the live session or an error wrapping domain.ErrSessionNotFound.
	Get(sessionID string) (*Session, error)
	// Close removes the session and cancels its connections. Idempotent.
	Close(sessionID string) bool
	// CloseIdle closes every session without connections whose last activity is not after cutoff.
	CloseIdle(cutoff time.Time) []string
	// ListActive returns summaries of all live sessions ordered by creation time.
	ListActive() []domain.SessionSummary
	Len() int
}

// MemoryRegistry is the in-process Registry.
type MemoryRegistry struct {
	clock    clockwork.Clock
	capacity int

	mu       sync.RWMutex
	sessions map[string]*Session
	epoch    uint64
}

// NewMemoryRegistry creates a registry whose sessions buffer up to capacity segments.
func NewMemoryRegistry(clock clockwork.Clock, capacity int) *MemoryRegistry {
	if capacity <= 0 {
		capacity = defaultBufferCapacity
	}
	return &MemoryRegistry{
		clock:    clock,
		capacity: capacity,
		sessions: make(map[string]*Session),
	}
}

func (r *MemoryRegistry) GetOrCreate(sessionID string) (*Session, bool) {
	r.mu.RLock()
	s, ok := r.sessions[sessionID]
	r.mu.RUnlock()
	if ok {
		return s, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[sessionID]; ok {
		return s, false
	}
	r.epoch++
	s = newSession(sessionID, r.epoch, r.capacity, r.clock.Now())
	r.sessions[sessionID] = s
	return s, true
}

func (r *MemoryRegistry) Get(sessionID string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, sessionID)
	}
	return s, nil
}

func (r *MemoryRegistry) Close(sessionID string) bool {
	r.mu.Lock()
	s, ok := r.sessions[sessionID]
	delete(r.sessions, sessionID)
	r.mu.Unlock()

	if !ok {
		return false
	}
	s.shutdown()
	return true
}

func (r *MemoryRegistry) CloseIdle(cutoff time.Time) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var closed []string
	for id, s := range r.sessions {
		s.mu.Lock()
		if s.idleLocked(cutoff) {
			s.closed = true
			delete(r.sessions, id)
			closed = append(closed, id)
		}
		s.mu.Unlock()
	}
	sort.Strings(closed)
	return closed
}

func (r *MemoryRegistry) ListActive() []domain.SessionSummary {
	r.mu.RLock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.RUnlock()

	out := make([]domain.SessionSummary, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, s.Summary())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].SessionID < out[j].SessionID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (r *MemoryRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
