package websocket

import (
	"errors"
	"time"

	"github.com/bharatgolchha/liveconvo/internal/adapter/metrics"
	"github.com/bharatgolchha/liveconvo/internal/broadcast"
	"github.com/bharatgolchha/liveconvo/internal/domain"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
)

const (
	writeDeadline  = 5 * time.Second
	pingInterval   = 30 * time.Second
	pongDeadline   = 60 * time.Second
	maxClientFrame = 4096
)

// sessionWriter owns all writes to one WebSocket. A separate reader goroutine
// only services control frames and detects the client going away.
type sessionWriter struct {
	ws      *websocket.Conn
	conn    *broadcast.Connection
	clock   clockwork.Clock
	metrics *metrics.WebSocketMetrics

	readerDone chan struct{}
}

func newSessionWriter(ws *websocket.Conn, conn *broadcast.Connection, clock clockwork.Clock, m *metrics.WebSocketMetrics) *sessionWriter {
	return &sessionWriter{
		ws:         ws,
		conn:       conn,
		clock:      clock,
		metrics:    m,
		readerDone: make(chan struct{}),
	}
}

// run writes events until the connection ends. It returns the error to record
// as the subscriber's close reason, nil when the client left on its own.
func (sw *sessionWriter) run() error {
	sw.configurePongHandler()
	go sw.readLoop()
	defer func() {
		_ = sw.ws.Close()
		<-sw.readerDone
	}()

	ticker := sw.clock.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-sw.conn.Events():
			if !ok {
				reason := sw.conn.Err()
				sw.writeClose(reason)
				return reason
			}
			if err := sw.write(ev); err != nil {
				if sw.metrics != nil {
					sw.metrics.WriteFailures.Inc()
				}
				return err
			}
		case <-ticker.Chan():
			sw.updateWriteDeadline()
			if err := sw.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				if sw.metrics != nil {
					sw.metrics.PingFailures.Inc()
				}
				return err
			}
		case <-sw.readerDone:
			return nil
		}
	}
}

func (sw *sessionWriter) write(ev domain.Event) error {
	frameType, data, seq, err := encodeEvent(ev)
	if err != nil {
		return err
	}

	start := sw.clock.Now()
	sw.updateWriteDeadline()
	if err := sw.ws.WriteMessage(websocket.TextMessage, data); err != nil {
		return err
	}
	if seq > 0 {
		sw.conn.Ack(seq)
	}

	if sw.metrics != nil {
		sw.metrics.FramesWritten.WithLabelValues(frameType).Inc()
		sw.metrics.WriteDuration.Observe(sw.clock.Since(start).Seconds())
	}
	return nil
}

// writeClose sends a close frame describing why the hub ended the subscription.
func (sw *sessionWriter) writeClose(reason error) {
	code, text := websocket.CloseNormalClosure, "unsubscribed"
	switch {
	case errors.Is(reason, domain.ErrSessionClosed):
		code, text = websocket.CloseNormalClosure, "session closed"
	case errors.Is(reason, domain.ErrConnectionDead):
		code, text = websocket.CloseTryAgainLater, "slow consumer"
	}

	sw.updateWriteDeadline()
	_ = sw.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(code, text))
}

// readLoop discards client frames. Pong handling happens inside ReadMessage.
func (sw *sessionWriter) readLoop() {
	defer close(sw.readerDone)
	sw.ws.SetReadLimit(maxClientFrame)
	for {
		if _, _, err := sw.ws.ReadMessage(); err != nil {
			return
		}
	}
}

func (sw *sessionWriter) configurePongHandler() {
	sw.updateReadDeadline()
	sw.ws.SetPongHandler(func(string) error {
		sw.updateReadDeadline()
		return nil
	})
}

func (sw *sessionWriter) updateWriteDeadline() {
	_ = sw.ws.SetWriteDeadline(sw.clock.Now().Add(writeDeadline))
}

func (sw *sessionWriter) updateReadDeadline() {
	_ = sw.ws.SetReadDeadline(sw.clock.Now().Add(pongDeadline))
}
