package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/bharatgolchha/liveconvo/internal/adapter/metrics"
	"github.com/bharatgolchha/liveconvo/internal/app"
	"github.com/bharatgolchha/liveconvo/internal/broadcast"
	"github.com/bharatgolchha/liveconvo/internal/domain"
	ws "github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	svc     *app.Service
	hub     *broadcast.Hub
	server  *httptest.Server
	metrics *metrics.WebSocketMetrics
}

func newTestEnv(t *testing.T, capacity int, limits *Limits) *testEnv {
	t.Helper()
	clock := clockwork.NewRealClock()
	hub := broadcast.NewHub(broadcast.NewMemoryRegistry(clock, capacity), clock, broadcast.Config{}, nil)
	svc := app.NewService(hub)
	m := metrics.NewWebSocketMetrics(prometheus.NewRegistry())
	h := NewHandler(svc, clock, func(*http.Request) bool { return true }, limits, m)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var lastSeen *uint64
		if raw := r.URL.Query().Get("lastSeen"); raw != "" {
			v, err := strconv.ParseUint(raw, 10, 64)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			lastSeen = &v
		}
		if err := h.Serve(w, r, "10.0.0.1", r.URL.Query().Get("session"), lastSeen); err != nil {
			http.Error(w, err.Error(), http.StatusConflict)
		}
	}))
	t.Cleanup(server.Close)

	return &testEnv{svc: svc, hub: hub, server: server, metrics: m}
}

func (e *testEnv) dial(t *testing.T, query string) *ws.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(e.server.URL, "http") + "/?" + query
	conn, resp, err := ws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *ws.Conn) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var frame map[string]any
	require.NoError(t, json.Unmarshal(data, &frame))
	return frame
}

func waitForConnections(t *testing.T, svc *app.Service, sessionID string, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		conns, err := svc.Connections(context.Background(), sessionID)
		return err == nil && len(conns) == n
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHandler_StreamsLiveSegments(t *testing.T) {
	env := newTestEnv(t, 10, nil)
	ctx := context.Background()

	client := env.dial(t, "session=m-1")
	waitForConnections(t, env.svc, "m-1", 1)

	_, err := env.svc.IngestSegment(ctx, "m-1", "ME", "hello there")
	require.NoError(t, err)

	frame := readFrame(t, client)
	assert.Equal(t, "segment", frame["type"])
	assert.Equal(t, float64(1), frame["sequenceNumber"])
	assert.Equal(t, "ME", frame["speakerTag"])
	assert.Equal(t, "hello there", frame["text"])
	assert.NotEmpty(t, frame["timestamp"])

	require.Eventually(t, func() bool {
		conns, _ := env.svc.Connections(ctx, "m-1")
		return len(conns) == 1 && conns[0].LastAcked == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.FramesWritten.WithLabelValues("segment")))
}

func TestHandler_ReplaysWithGapNotice(t *testing.T) {
	env := newTestEnv(t, 2, nil)
	ctx := context.Background()

	for _, text := range []string{"one", "two", "three", "four"} {
		_, err := env.svc.IngestSegment(ctx, "m-1", "THEM", text)
		require.NoError(t, err)
	}

	client := env.dial(t, "session=m-1&lastSeen=0")

	gap := readFrame(t, client)
	assert.Equal(t, "gap", gap["type"])
	assert.Equal(t, float64(1), gap["fromSequence"])
	assert.Equal(t, float64(2), gap["toSequence"])

	assert.Equal(t, "three", readFrame(t, client)["text"])
	assert.Equal(t, "four", readFrame(t, client)["text"])
}

func TestHandler_SessionCloseSendsCloseFrame(t *testing.T) {
	env := newTestEnv(t, 10, nil)
	ctx := context.Background()

	client := env.dial(t, "session=m-1")
	waitForConnections(t, env.svc, "m-1", 1)

	require.True(t, env.svc.CloseSession(ctx, "m-1"))

	require.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := client.ReadMessage()
	var closeErr *ws.CloseError
	require.ErrorAs(t, err, &closeErr)
	assert.Equal(t, ws.CloseNormalClosure, closeErr.Code)
	assert.Equal(t, "session closed", closeErr.Text)
}

func TestHandler_ClientDisconnectUnsubscribes(t *testing.T) {
	env := newTestEnv(t, 10, nil)

	client := env.dial(t, "session=m-1")
	waitForConnections(t, env.svc, "m-1", 1)

	require.NoError(t, client.Close())
	waitForConnections(t, env.svc, "m-1", 0)
}

// upgradeRequest builds a handshake request that passes the upgrade check.
func upgradeRequest(target string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	req.Header.Set("Sec-WebSocket-Version", "13")
	req.Header.Set("Sec-WebSocket-Key", "dGhlIHNhbXBsZSBub25jZQ==")
	return req
}

func TestHandler_SubscribeErrorIsReturnedBeforeUpgrade(t *testing.T) {
	clock := clockwork.NewRealClock()
	hub := broadcast.NewHub(broadcast.NewMemoryRegistry(clock, 10), clock, broadcast.Config{MaxConnectionsPerSession: 1}, nil)
	svc := app.NewService(hub)
	h := NewHandler(svc, clock, nil, nil, nil)

	first, err := svc.Subscribe(context.Background(), "m-1", nil)
	require.NoError(t, err)
	t.Cleanup(func() { svc.Unsubscribe(first, nil) })

	rec := httptest.NewRecorder()
	req := upgradeRequest("/ws/sessions/m-1")
	err = h.Serve(rec, req, "10.0.0.1", "m-1", nil)
	require.ErrorIs(t, err, domain.ErrTooManyConnections)
}

func TestHandler_LimitsRefuseUpgrade(t *testing.T) {
	clock := clockwork.NewRealClock()
	hub := broadcast.NewHub(broadcast.NewMemoryRegistry(clock, 10), clock, broadcast.Config{}, nil)
	m := metrics.NewWebSocketMetrics(prometheus.NewRegistry())
	limits := NewLimits(clock, 0)
	h := NewHandler(app.NewService(hub), clock, nil, limits, m)

	rec := httptest.NewRecorder()
	req := upgradeRequest("/ws/sessions/m-1")
	err := h.Serve(rec, req, "10.0.0.1", "m-1", nil)

	require.ErrorIs(t, err, ErrConnectionLimit)
	assert.Contains(t, err.Error(), string(LimitReasonGlobal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Rejected.WithLabelValues(string(LimitReasonGlobal))))
	assert.Empty(t, hub.Snapshot(), "refused upgrade must not create a session")
}

func TestHandler_PlainRequestCreatesNoSession(t *testing.T) {
	clock := clockwork.NewRealClock()
	hub := broadcast.NewHub(broadcast.NewMemoryRegistry(clock, 10), clock, broadcast.Config{}, nil)
	m := metrics.NewWebSocketMetrics(prometheus.NewRegistry())
	limits := NewLimits(clock, 10)
	h := NewHandler(app.NewService(hub), clock, nil, limits, m)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ws/sessions/m-1", nil)
	err := h.Serve(rec, req, "10.0.0.1", "m-1", nil)

	require.ErrorIs(t, err, ErrNotWebSocket)
	assert.Empty(t, hub.Snapshot())
	assert.Equal(t, int64(0), limits.Current())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Rejected.WithLabelValues("not_websocket")))
}
