package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bharatgolchha/liveconvo/internal/domain"
	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func healthOK(_ context.Context) error { return nil }

func healthErr(msg string) func(context.Context) error {
	return func(_ context.Context) error { return errors.New(msg) }
}

func TestHandleStartup(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/health/startup", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	srv := newTestServer(t, &mockAppService{},
		WithHealthChecks(
			HealthCheck{Name: "redis", Check: healthOK},
			HealthCheck{Name: "nats", Check: healthOK},
		),
	)

	err := srv.handleStartup(c)

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ready"}`, rec.Body.String())
}

func TestHandleStartup_RedisDown(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/health/startup", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	srv := newTestServer(t, &mockAppService{},
		WithHealthChecks(
			HealthCheck{Name: "redis", Check: healthErr("connection refused")},
			HealthCheck{Name: "nats", Check: healthOK},
		),
	)

	err := srv.handleStartup(c)

	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"unhealthy"`)
	assert.Contains(t, rec.Body.String(), `"failed_check":"redis"`)
}

func TestHandleReadiness_NoSources(t *testing.T) {
	srv := newTestServer(t, &mockAppService{})

	rec := doRequest(srv, http.MethodGet, "/health/ready", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ready"}`, rec.Body.String())
}

func TestHandleReadiness_StopsAtFirstFailure(t *testing.T) {
	natsCalled := false
	srv := newTestServer(t, &mockAppService{},
		WithHealthChecks(
			HealthCheck{Name: "redis", Check: healthErr("timeout")},
			HealthCheck{Name: "nats", Check: func(context.Context) error {
				natsCalled = true
				return nil
			}},
		),
	)

	rec := doRequest(srv, http.MethodGet, "/health/ready", "")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.False(t, natsCalled)
}

func TestHandleLiveness(t *testing.T) {
	clock := clockwork.NewFakeClockAt(testEpoch)
	app := &mockAppService{
		activeSessionsFn: func(context.Context) []domain.SessionSummary {
			return []domain.SessionSummary{{SessionID: "a"}, {SessionID: "b"}}
		},
	}
	srv := newTestServer(t, app, WithClock(clock))
	clock.Advance(90 * time.Second)

	rec := doRequest(srv, http.MethodGet, "/health/live", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.InDelta(t, 90.0, body["uptime"], 0.001)
	assert.InDelta(t, 2.0, body["sessions"], 0.001)
}

func TestHandleVersion(t *testing.T) {
	srv := newTestServer(t, &mockAppService{})

	rec := doRequest(srv, http.MethodGet, "/version", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"version"`)
}
