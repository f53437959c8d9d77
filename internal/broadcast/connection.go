package broadcast

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bharatgolchha/liveconvo/internal/domain"
)

// readBatchSize caps how many segments a pump copies out of the ring per lock.
const readBatchSize = 64

// Connection is one subscriber's view of a session.
//
// Events are produced by a single pump goroutine, in sequence order, and the
// channel is closed when the connection ends. Err then reports why.
type Connection struct {
	id          string
	sessionID   string
	epoch       uint64
	connectedAt time.Time
	hub         *Hub

	events chan domain.Event
	notify chan struct{}
	done   chan struct{}

	closeOnce sync.Once
	errMu     sync.Mutex
	err       error

	alive     atomic.Bool
	delivered atomic.Uint64
	acked     atomic.Uint64

	// Set under the session lock before the pump starts, then owned by the pump.
	backlog []domain.Event
	cursor  uint64
	// Head at subscribe time. Replayed segments do not count toward lag.
	liveFrom uint64
}

func newConnection(id string, s *Session, hub *Hub, queueSize int, now time.Time) *Connection {
	c := &Connection{
		id:          id,
		sessionID:   s.id,
		epoch:       s.epoch,
		connectedAt: now,
		hub:         hub,
		events:      make(chan domain.Event, queueSize),
		notify:      make(chan struct{}, 1),
		done:        make(chan struct{}),
	}
	c.alive.Store(true)
	return c
}

func (c *Connection) ID() string { return c.id }

func (c *Connection) SessionID() string { return c.sessionID }

// Events yields segments and gap notices in order. Closed when the connection ends.
func (c *Connection) Events() <-chan domain.Event { return c.events }

// Done is closed as soon as the connection is cancelled.
func (c *Connection) Done() <-chan struct{} { return c.done }

// Err returns the close reason, or nil while open or after a plain unsubscribe.
func (c *Connection) Err() error {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	return c.err
}

func (c *Connection) Alive() bool { return c.alive.Load() }

// Ack records that the transport confirmed delivery of seq.
func (c *Connection) Ack(seq uint64) {
	for {
		cur := c.acked.Load()
		if seq <= cur || c.acked.CompareAndSwap(cur, seq) {
			return
		}
	}
}

// Info returns metadata about the connection. It never includes segment text.
func (c *Connection) Info() domain.ConnectionInfo {
	info := domain.ConnectionInfo{
		ConnectionID:  c.id,
		SessionID:     c.sessionID,
		ConnectedAt:   c.connectedAt,
		LastDelivered: c.delivered.Load(),
		LastAcked:     c.acked.Load(),
		Alive:         c.Alive(),
	}
	if err := c.Err(); err != nil {
		info.CloseReason = err.Error()
	}
	return info
}

// lag is the number of live segments the pump has not yet handed to the transport.
// Caller holds the session lock.
func (c *Connection) lag(head uint64) uint64 {
	base := max(c.delivered.Load(), c.liveFrom)
	if head <= base {
		return 0
	}
	return head - base
}

func (c *Connection) wake() {
	select {
	case c.notify <- struct{}{}:
	default:
	}
}

func (c *Connection) close(reason error) {
	c.closeOnce.Do(func() {
		c.errMu.Lock()
		c.err = reason
		c.errMu.Unlock()
		c.alive.Store(false)
		close(c.done)
		c.hub.connectionClosed(c)
	})
}

// pump is the only writer of c.events.
func (c *Connection) pump() {
	defer close(c.events)

	backlog := c.backlog
	c.backlog = nil
	for _, ev := range backlog {
		if !c.send(ev) {
			return
		}
	}

	for {
		batch, err := c.read()
		if err != nil {
			c.close(err)
			return
		}
		for _, ev := range batch {
			if !c.send(ev) {
				return
			}
		}
		if len(batch) > 0 {
			continue
		}

		select {
		case <-c.notify:
		case <-c.done:
			return
		}
	}
}

// read copies the next events after cursor out of the session ring.
func (c *Connection) read() ([]domain.Event, error) {
	s, err := c.hub.registry.Get(c.sessionID)
	if err != nil || s.epoch != c.epoch {
		return nil, fmt.Errorf("%w: %s", domain.ErrSessionClosed, c.sessionID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, fmt.Errorf("%w: %s", domain.ErrSessionClosed, c.sessionID)
	}
	if c.cursor > s.head {
		return nil, nil
	}

	var out []domain.Event
	if oldest, ok := s.ring.oldest(); ok && c.cursor < oldest {
		out = append(out, domain.Event{Gap: &domain.GapNotice{FromSequence: c.cursor, ToSequence: oldest - 1}})
		c.hub.gapEmitted(c, c.cursor, oldest-1)
		c.cursor = oldest
	}
	for _, seg := range s.ring.since(c.cursor, readBatchSize) {
		out = append(out, domain.Event{Segment: &seg})
		c.cursor = seg.Sequence + 1
	}
	return out, nil
}

func (c *Connection) send(ev domain.Event) bool {
	select {
	case c.events <- ev:
		if ev.Segment != nil {
			c.delivered.Store(ev.Segment.Sequence)
		}
		return true
	case <-c.done:
		return false
	}
}
