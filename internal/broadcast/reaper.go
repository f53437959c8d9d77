package broadcast

import (
	"context"
	"log/slog"
)

// Run closes idle sessions every ReapInterval until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	ticker := h.clock.NewTicker(h.cfg.ReapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			h.ReapIdle()
		}
	}
}

// ReapIdle closes sessions that have had no connections and no activity for IdleTimeout.
func (h *Hub) ReapIdle() []string {
	cutoff := h.clock.Now().Add(-h.cfg.IdleTimeout)
	closed := h.registry.CloseIdle(cutoff)
	if len(closed) == 0 {
		return nil
	}

	h.setActiveSessions()
	if h.metrics != nil {
		h.metrics.SessionsReaped.Add(float64(len(closed)))
	}
	slog.Info("Reaped idle sessions", "count", len(closed), "session_ids", closed)
	return closed
}

// CloseAll ends every live session. Used on shutdown so subscribers get a clean close frame.
func (h *Hub) CloseAll() int {
	n := 0
	for _, sum := range h.registry.ListActive() {
		if h.registry.Close(sum.SessionID) {
			n++
		}
	}
	h.setActiveSessions()
	if n > 0 {
		slog.Info("Closed all sessions", "count", n)
	}
	return n
}
