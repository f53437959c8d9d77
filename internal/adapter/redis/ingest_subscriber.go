package redis

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bharatgolchha/liveconvo/internal/adapter/ingest"
	goredis "github.com/redis/go-redis/v9"
)

// Source labels segments and metrics that arrive over Redis pub/sub.
const Source = "redis"

// IngestSubscriber pattern-subscribes to transcript channels such as "transcript:<sessionId>".
type IngestSubscriber struct {
	rdb     *goredis.Client
	pattern string
	handler *ingest.Handler
}

func NewIngestSubscriber(rdb *goredis.Client, pattern string, handler *ingest.Handler) *IngestSubscriber {
	return &IngestSubscriber{rdb: rdb, pattern: pattern, handler: handler}
}

// Run consumes messages until ctx is cancelled. It returns an error only when
// the initial subscription fails.
func (s *IngestSubscriber) Run(ctx context.Context) error {
	pubsub := s.rdb.PSubscribe(ctx, s.pattern)
	defer func() { _ = pubsub.Close() }()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", s.pattern, err)
	}
	slog.Info("Redis transcript subscriber started", "pattern", s.pattern)

	ch := pubsub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			s.handler.Handle(ctx, sessionFromChannel(s.pattern, msg.Channel), []byte(msg.Payload))
		case <-ctx.Done():
			slog.Info("Redis transcript subscriber stopped", "pattern", s.pattern)
			return nil
		}
	}
}

// sessionFromChannel strips the literal prefix of a trailing-glob pattern.
// Returns "" when the pattern has no such prefix or the channel does not match it.
func sessionFromChannel(pattern, channel string) string {
	prefix, ok := strings.CutSuffix(pattern, "*")
	if !ok || strings.ContainsAny(prefix, "*?[") {
		return ""
	}
	id, ok := strings.CutPrefix(channel, prefix)
	if !ok {
		return ""
	}
	return id
}
