package websocket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/bharatgolchha/liveconvo/internal/adapter/metrics"
	"github.com/bharatgolchha/liveconvo/internal/broadcast"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
)

// ErrConnectionLimit is returned when an upgrade is refused by Limits.
var ErrConnectionLimit = errors.New("connection limit reached")

// ErrNotWebSocket is returned for requests that do not ask for a WebSocket upgrade.
var ErrNotWebSocket = errors.New("websocket upgrade required")

// Subscriber is the part of the application service the transport needs.
type Subscriber interface {
	Subscribe(ctx context.Context, sessionID string, lastSeen *uint64) (*broadcast.Connection, error)
	Unsubscribe(conn *broadcast.Connection, cause error)
}

// Handler upgrades HTTP requests to transcript subscriptions.
type Handler struct {
	subs     Subscriber
	clock    clockwork.Clock
	upgrader websocket.Upgrader
	limits   *Limits
	metrics  *metrics.WebSocketMetrics
}

// NewHandler creates a handler. limits and m may be nil.
func NewHandler(subs Subscriber, clock clockwork.Clock, checkOrigin func(*http.Request) bool, limits *Limits, m *metrics.WebSocketMetrics) *Handler {
	return &Handler{
		subs:  subs,
		clock: clock,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     checkOrigin,
		},
		limits:  limits,
		metrics: m,
	}
}

// Serve subscribes to sessionID and streams events until either side goes away.
//
// Errors from before the upgrade (non-upgrade requests, limits, subscribe
// failures) are returned for the caller to render. Once upgraded, Serve blocks
// and returns nil.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request, clientIP, sessionID string, lastSeen *uint64) error {
	ctx := r.Context()

	// Plain GETs must not reach Subscribe, which would create the session.
	if !websocket.IsWebSocketUpgrade(r) {
		h.rejected("not_websocket")
		return ErrNotWebSocket
	}

	if h.limits != nil {
		ok, reason := h.limits.Acquire(clientIP)
		if !ok {
			h.rejected(string(reason))
			slog.WarnContext(ctx, "WebSocket upgrade refused", "reason", reason, "remote_ip", clientIP, "session_id", sessionID)
			return fmt.Errorf("%w: %s", ErrConnectionLimit, reason)
		}
		defer h.limits.Release(clientIP)
	}

	conn, err := h.subs.Subscribe(ctx, sessionID, lastSeen)
	if err != nil {
		h.rejected("subscribe")
		return err
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		h.subs.Unsubscribe(conn, err)
		h.rejected("upgrade")
		slog.WarnContext(ctx, "WebSocket upgrade failed", "session_id", sessionID, "error", err)
		return nil
	}

	if h.metrics != nil {
		h.metrics.ActiveConnections.Inc()
		defer h.metrics.ActiveConnections.Dec()
	}

	sw := newSessionWriter(ws, conn, h.clock, h.metrics)
	cause := sw.run()
	h.subs.Unsubscribe(conn, cause)

	slog.InfoContext(ctx, "Subscriber disconnected",
		"session_id", sessionID,
		"connection_id", conn.ID(),
		"last_acked", conn.Info().LastAcked,
		"reason", cause,
	)
	return nil
}

func (h *Handler) rejected(reason string) {
	if h.metrics != nil {
		h.metrics.Rejected.WithLabelValues(reason).Inc()
	}
}
