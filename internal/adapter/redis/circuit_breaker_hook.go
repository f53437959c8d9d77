package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/bharatgolchha/liveconvo/internal/adapter/metrics"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
)

const breakerComponent = "redis"

// CircuitBreakerHook fails Redis calls fast once the server keeps erroring,
// so a dead Redis does not stall the transcript subscriber's reconnect loop.
type CircuitBreakerHook struct {
	cb *gobreaker.CircuitBreaker
}

var _ goredis.Hook = (*CircuitBreakerHook)(nil)

// NewCircuitBreakerHook trips at 60% failures over at least 5 requests in a 10s window,
// and probes again after 30s. m may be nil.
func NewCircuitBreakerHook(m *metrics.BreakerMetrics) *CircuitBreakerHook {
	return newCircuitBreakerHook(gobreaker.Settings{
		Name:        breakerComponent,
		MaxRequests: 1,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 5 && float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
	}, m)
}

func newCircuitBreakerHook(st gobreaker.Settings, m *metrics.BreakerMetrics) *CircuitBreakerHook {
	st.IsSuccessful = func(err error) bool {
		return err == nil || errors.Is(err, goredis.Nil)
	}
	st.OnStateChange = func(name string, from, to gobreaker.State) {
		slog.Warn("Circuit breaker state changed", "component", name, "from", from.String(), "to", to.String())
		if m != nil {
			m.StateChanges.WithLabelValues(name, to.String()).Inc()
			m.State.WithLabelValues(name).Set(stateToFloat(to))
		}
	}
	if m != nil {
		m.State.WithLabelValues(st.Name).Set(stateToFloat(gobreaker.StateClosed))
	}
	return &CircuitBreakerHook{cb: gobreaker.NewCircuitBreaker(st)}
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func (h *CircuitBreakerHook) GetState() gobreaker.State { return h.cb.State() }

func (h *CircuitBreakerHook) GetCounts() gobreaker.Counts { return h.cb.Counts() }

func (h *CircuitBreakerHook) DialHook(next goredis.DialHook) goredis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		conn, err := h.cb.Execute(func() (any, error) {
			return next(ctx, network, addr)
		})
		if err != nil {
			return nil, wrapBreakerError("dial", err)
		}
		return conn.(net.Conn), nil
	}
}

func (h *CircuitBreakerHook) ProcessHook(next goredis.ProcessHook) goredis.ProcessHook {
	return func(ctx context.Context, cmd goredis.Cmder) error {
		_, err := h.cb.Execute(func() (any, error) {
			return nil, next(ctx, cmd)
		})
		if err != nil {
			if errors.Is(err, goredis.Nil) {
				return err
			}
			return wrapBreakerError("process", err)
		}
		return nil
	}
}

func (h *CircuitBreakerHook) ProcessPipelineHook(next goredis.ProcessPipelineHook) goredis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []goredis.Cmder) error {
		_, err := h.cb.Execute(func() (any, error) {
			return nil, next(ctx, cmds)
		})
		if err != nil {
			return wrapBreakerError("pipeline", err)
		}
		return nil
	}
}

func wrapBreakerError(op string, err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("redis circuit breaker open: %w", err)
	}
	return fmt.Errorf("redis %s failed: %w", op, err)
}
