// Package nats consumes transcript segments published on core NATS subjects.
package nats

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bharatgolchha/liveconvo/internal/adapter/ingest"
	"github.com/nats-io/nats.go"
)

// Source labels segments and metrics that arrive over NATS.
const Source = "nats"

// Subscriber listens on a subject such as "transcript.*" and hands each message
// to the ingest handler. Messages on one subject are handled in arrival order.
type Subscriber struct {
	nc      *nats.Conn
	subject string
	handler *ingest.Handler
	ctx     context.Context
}

// Connect dials natsURL with unbounded reconnects.
func Connect(natsURL string) (*nats.Conn, error) {
	nc, err := nats.Connect(natsURL,
		nats.Name("liveconvo-hub"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("NATS disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("NATS reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return nc, nil
}

// HealthCheck fails while the connection is down or reconnecting.
func HealthCheck(nc *nats.Conn) func(ctx context.Context) error {
	return func(context.Context) error {
		if status := nc.Status(); status != nats.CONNECTED {
			return fmt.Errorf("nats status %s", status)
		}
		return nil
	}
}

func NewSubscriber(nc *nats.Conn, subject string, handler *ingest.Handler) *Subscriber {
	return &Subscriber{nc: nc, subject: subject, handler: handler, ctx: context.Background()}
}

// Run subscribes and blocks until ctx is cancelled, then drains the subscription.
func (s *Subscriber) Run(ctx context.Context) error {
	s.ctx = ctx
	sub, err := s.nc.Subscribe(s.subject, s.handleMsg)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", s.subject, err)
	}
	slog.Info("NATS transcript subscriber started", "subject", s.subject)

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		slog.Warn("NATS drain failed", "subject", s.subject, "error", err)
	}
	slog.Info("NATS transcript subscriber stopped", "subject", s.subject)
	return nil
}

func (s *Subscriber) handleMsg(msg *nats.Msg) {
	s.handler.Handle(s.ctx, sessionFromSubject(s.subject, msg.Subject), msg.Data)
}

// sessionFromSubject returns the token matched by a trailing "*" wildcard.
func sessionFromSubject(pattern, subject string) string {
	prefix, ok := strings.CutSuffix(pattern, "*")
	if !ok {
		return ""
	}
	id, ok := strings.CutPrefix(subject, prefix)
	if !ok || strings.Contains(id, ".") {
		return ""
	}
	return id
}
