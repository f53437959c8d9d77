package httpserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bharatgolchha/liveconvo/internal/domain"
	"github.com/bharatgolchha/liveconvo/internal/platform/config"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

// --- Mock implementations ---

type mockAppService struct {
	ingestFn         func(ctx context.Context, sessionID, speakerTag, text string) (uint64, error)
	openSessionFn    func(ctx context.Context, sessionID, label string) (domain.SessionSummary, error)
	classifyFn       func(label string) (domain.ConversationType, error)
	closeSessionFn   func(ctx context.Context, sessionID string) bool
	sessionFn        func(ctx context.Context, sessionID string) (domain.SessionSummary, error)
	activeSessionsFn func(ctx context.Context) []domain.SessionSummary
	connectionsFn    func(ctx context.Context, sessionID string) ([]domain.ConnectionInfo, error)
}

func (m *mockAppService) IngestSegment(ctx context.Context, sessionID, speakerTag, text string) (uint64, error) {
	if m.ingestFn != nil {
		return m.ingestFn(ctx, sessionID, speakerTag, text)
	}
	return 1, nil
}

func (m *mockAppService) OpenSession(ctx context.Context, sessionID, label string) (domain.SessionSummary, error) {
	if m.openSessionFn != nil {
		return m.openSessionFn(ctx, sessionID, label)
	}
	return domain.SessionSummary{SessionID: sessionID, ConversationType: domain.ConversationMeeting}, nil
}

func (m *mockAppService) Classify(label string) (domain.ConversationType, error) {
	if m.classifyFn != nil {
		return m.classifyFn(label)
	}
	return "", domain.ErrUnknownConversationType
}

func (m *mockAppService) CloseSession(ctx context.Context, sessionID string) bool {
	if m.closeSessionFn != nil {
		return m.closeSessionFn(ctx, sessionID)
	}
	return false
}

func (m *mockAppService) Session(ctx context.Context, sessionID string) (domain.SessionSummary, error) {
	if m.sessionFn != nil {
		return m.sessionFn(ctx, sessionID)
	}
	return domain.SessionSummary{}, domain.ErrSessionNotFound
}

func (m *mockAppService) ActiveSessions(ctx context.Context) []domain.SessionSummary {
	if m.activeSessionsFn != nil {
		return m.activeSessionsFn(ctx)
	}
	return nil
}

func (m *mockAppService) Connections(ctx context.Context, sessionID string) ([]domain.ConnectionInfo, error) {
	if m.connectionsFn != nil {
		return m.connectionsFn(ctx, sessionID)
	}
	return nil, domain.ErrSessionNotFound
}

type mockSubscribers struct {
	serveFn func(w http.ResponseWriter, r *http.Request, clientIP, sessionID string, lastSeen *uint64) error
}

func (m *mockSubscribers) Serve(w http.ResponseWriter, r *http.Request, clientIP, sessionID string, lastSeen *uint64) error {
	if m.serveFn != nil {
		return m.serveFn(w, r, clientIP, sessionID, lastSeen)
	}
	return nil
}

// --- Test helpers ---

var testEpoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testConfig() *config.Config {
	return &config.Config{
		AppEnv:              "test",
		Port:                "0",
		IngestRatePerSecond: 1000,
		IngestBurst:         1000,
	}
}

func newTestServer(t *testing.T, app appService, opts ...Option) *Server {
	t.Helper()
	return newTestServerWith(t, testConfig(), app, &mockSubscribers{}, opts...)
}

func newTestServerWith(t *testing.T, cfg *config.Config, app appService, subs subscriptionHandler, opts ...Option) *Server {
	t.Helper()

	opts = append([]Option{WithClock(clockwork.NewFakeClockAt(testEpoch))}, opts...)
	srv := NewServer(cfg, app, subs, opts...)
	require.NotNil(t, srv)
	return srv
}

func doRequest(srv *Server, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	req.RemoteAddr = testRemoteAddr
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}
