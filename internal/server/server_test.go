package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/litescript/ls-orrery/internal/bodies"
	"github.com/litescript/ls-orrery/internal/ephem"
	"github.com/litescript/ls-orrery/internal/position"
	"github.com/litescript/ls-orrery/internal/state"
	"github.com/litescript/ls-orrery/internal/trajectory"
)

func newTestServer(t *testing.T, opts Options) *Server {
	t.Helper()
	res := position.NewResolver(ephem.NewAnalyticSource(), position.DefaultScale)
	cfg := state.DefaultConfig()
	cfg.Steps = 8
	mgr, err := state.NewManager(bodies.Default(), trajectory.NewSampler(res, 2), cfg, nil)
	require.NoError(t, err)
	s := New(mgr, opts, nil)
	t.Cleanup(s.Close)
	return s
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestBodies(t *testing.T) {
	s := newTestServer(t, Options{})
	rec := get(t, s.Handler(), "/api/bodies")
	require.Equal(t, http.StatusOK, rec.Code)

	var got []bodyResponse
	decode(t, rec, &got)
	require.Len(t, got, 10)
	assert.Equal(t, "sun", got[0].ID)
	assert.Equal(t, "star", got[0].Type)
	assert.Empty(t, got[0].Parent)

	byID := map[string]bodyResponse{}
	for _, b := range got {
		byID[b.ID] = b
	}
	assert.Equal(t, "earth", byID["moon"].Parent)
	assert.Equal(t, "moon", byID["moon"].Type)
	assert.InDelta(t, 23.44, byID["earth"].AxialTilt, 0.01)
}

func TestPositionsDefaults(t *testing.T) {
	s := newTestServer(t, Options{})
	rec := get(t, s.Handler(), "/api/positions")
	require.Equal(t, http.StatusOK, rec.Code)

	var got positionsResponse
	decode(t, rec, &got)
	assert.Equal(t, "earth", got.Reference)
	assert.True(t, state.DefaultEpoch.Equal(got.Epoch))
	require.Len(t, got.Positions, 3)
	assert.Equal(t, "earth", got.Positions[0].Body)
	assert.Equal(t, [3]float64{}, got.Positions[0].Position)
	assert.Equal(t, "sun", got.Positions[1].Body)
	assert.Equal(t, "moon", got.Positions[2].Body)
}

func TestPositionsQueryDoesNotChangeState(t *testing.T) {
	s := newTestServer(t, Options{})
	rec := get(t, s.Handler(), "/api/positions?body=Jupiter&epoch=2030-01-01T00:00:00Z")
	require.Equal(t, http.StatusOK, rec.Code)

	var got positionsResponse
	decode(t, rec, &got)
	assert.Equal(t, "jupiter", got.Reference)
	assert.True(t, time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC).Equal(got.Epoch))
	require.Len(t, got.Positions, 2)
	assert.Equal(t, "sun", got.Positions[1].Body)

	snap := s.mgr.Snapshot()
	assert.Equal(t, bodies.Earth, snap.Selected.ID)
	assert.Equal(t, state.DefaultEpoch, snap.Epoch)
}

func TestQueryErrors(t *testing.T) {
	s := newTestServer(t, Options{})
	h := s.Handler()

	tests := []struct {
		name   string
		target string
		status int
	}{
		{"unknown body", "/api/positions?body=pluto", http.StatusNotFound},
		{"bad epoch", "/api/positions?epoch=yesterday", http.StatusBadRequest},
		{"outside coverage", "/api/positions?epoch=9000-01-01T00:00:00Z", http.StatusUnprocessableEntity},
		{"zero steps", "/api/trajectories?steps=0", http.StatusUnprocessableEntity},
		{"bad steps", "/api/trajectories?steps=many", http.StatusBadRequest},
		{"bad span", "/api/trajectories?span=soon", http.StatusBadRequest},
		{"negative span", "/api/trajectories?span=-1h", http.StatusUnprocessableEntity},
		{"unknown trajectory body", "/api/trajectories?body=vulcan", http.StatusNotFound},
		{"steps over limit", "/api/trajectories?steps=10001", http.StatusUnprocessableEntity},
		{"max int steps", "/api/trajectories?body=earth&steps=9223372036854775807", http.StatusUnprocessableEntity},
		{"steps overflow", "/api/trajectories?steps=99999999999999999999", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, h, tt.target)
			assert.Equal(t, tt.status, rec.Code)
			var body errorResponse
			decode(t, rec, &body)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestTrajectoriesStepLimit(t *testing.T) {
	s := newTestServer(t, Options{MaxSteps: 16})
	h := s.Handler()

	rec := get(t, h, "/api/trajectories?steps=16")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = get(t, h, "/api/trajectories?steps=17")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body errorResponse
	decode(t, rec, &body)
	assert.Contains(t, body.Error, "at most 16 steps")
}

func TestTrajectories(t *testing.T) {
	s := newTestServer(t, Options{})
	rec := get(t, s.Handler(), "/api/trajectories?body=earth&steps=4")
	require.Equal(t, http.StatusOK, rec.Code)

	var got trajectoriesResponse
	decode(t, rec, &got)
	assert.Equal(t, "earth", got.Reference)
	assert.Equal(t, 4, got.Steps)
	require.Len(t, got.Trajectories, 3)

	assert.Equal(t, "earth", got.Trajectories[0].Body)
	assert.Len(t, got.Trajectories[0].Points, 4)
	assert.Len(t, got.Trajectories[0].Epochs, 4)

	assert.Equal(t, "sun", got.Trajectories[1].Body)
	assert.Empty(t, got.Trajectories[1].Points)
	assert.NotNil(t, got.Trajectories[1].Epochs)
}

func TestTrajectoriesFixedSpan(t *testing.T) {
	s := newTestServer(t, Options{})
	rec := get(t, s.Handler(), "/api/trajectories?body=moon&steps=4&span=48h&epoch=2024-07-04T12:00:00Z")
	require.Equal(t, http.StatusOK, rec.Code)

	var got trajectoriesResponse
	decode(t, rec, &got)
	require.Len(t, got.Trajectories, 3)
	last := got.Trajectories[0].Epochs[3]
	assert.True(t, state.DefaultEpoch.Add(36*time.Hour).Equal(last), last)
}

func TestEvents(t *testing.T) {
	s := newTestServer(t, Options{})
	h := s.Handler()

	rec := get(t, h, "/api/events")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	require.NoError(t, s.mgr.Select(bodies.Mars))
	rec = get(t, h, "/api/events")
	var got []state.Event
	decode(t, rec, &got)
	require.Len(t, got, 1)
	assert.Equal(t, state.EventSelect, got[0].Type)
	assert.Equal(t, bodies.Mars, got[0].Body)
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, Options{Rate: 0.001, Burst: 1})
	h := s.Handler()

	assert.Equal(t, http.StatusOK, get(t, h, "/api/bodies").Code)
	assert.Equal(t, http.StatusTooManyRequests, get(t, h, "/api/bodies").Code)

	// Another client has its own bucket.
	req := httptest.NewRequest(http.MethodGet, "/api/bodies", nil)
	req.RemoteAddr = "198.51.100.7:4321"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestClientRateLimiter(t *testing.T) {
	l := NewClientRateLimiter(0, 0)
	assert.Same(t, l.GetLimiter("a"), l.GetLimiter("a"))
	assert.NotSame(t, l.GetLimiter("a"), l.GetLimiter("b"))
	for i := 0; i < 100; i++ {
		assert.True(t, l.GetLimiter("a").Allow())
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "not-a-hostport"
	assert.Equal(t, "not-a-hostport", clientAddr(req))
	req.RemoteAddr = "[2001:db8::1]:80"
	assert.Equal(t, "2001:db8::1", clientAddr(req))
}

func TestClientRateLimiterCleanup(t *testing.T) {
	now := time.Date(2024, 7, 4, 12, 0, 0, 0, time.UTC)
	l := NewClientRateLimiter(1, 1)
	l.now = func() time.Time { return now }

	a := l.GetLimiter("a")
	now = now.Add(5 * time.Minute)
	l.GetLimiter("b")
	require.Equal(t, 2, l.Len())

	now = now.Add(6 * time.Minute)
	assert.Equal(t, 1, l.Cleanup(10*time.Minute))
	assert.Equal(t, 1, l.Len())
	assert.NotSame(t, a, l.GetLimiter("a"))

	now = now.Add(time.Hour)
	assert.Equal(t, 2, l.Cleanup(10*time.Minute))
	assert.Zero(t, l.Len())
}

func TestClientRateLimiterRunCleanup(t *testing.T) {
	now := time.Date(2024, 7, 4, 12, 0, 0, 0, time.UTC)
	l := NewClientRateLimiter(1, 1)
	l.GetLimiter("a")
	l.mu.Lock()
	l.now = func() time.Time { return now.Add(time.Hour) }
	l.clients["a"].lastSeen = now
	l.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		l.RunCleanup(ctx, time.Millisecond, time.Minute)
		close(done)
	}()
	assert.Eventually(t, func() bool { return l.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}

func TestMetrics(t *testing.T) {
	s := newTestServer(t, Options{})
	h := s.Handler()
	get(t, h, "/api/positions")
	get(t, h, "/api/positions?body=pluto")

	rec := get(t, h, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	out := rec.Body.String()
	assert.Contains(t, out, `orrery_requests_total{operation="positions",outcome="ok"} 1`)
	assert.Contains(t, out, `orrery_requests_total{operation="positions",outcome="not_found"} 1`)
	assert.Contains(t, out, "orrery_request_duration_seconds_bucket")
	assert.Contains(t, out, "orrery_stream_sessions 0")
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: x", errBadRequest), http.StatusBadRequest},
		{&bodies.UnknownBodyError{Key: "x"}, http.StatusNotFound},
		{fmt.Errorf("position of mars: %w", &ephem.CoverageError{}), http.StatusUnprocessableEntity},
		{&trajectory.InvalidSampleCountError{}, http.StatusUnprocessableEntity},
		{context.Canceled, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

func dialStream(t *testing.T, s *Server, query string) *websocket.Conn {
	t.Helper()
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws" + query
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestStreamPushesAdvancingEpochs(t *testing.T) {
	s := newTestServer(t, Options{PushInterval: 10 * time.Millisecond, PushStep: time.Hour})
	conn := dialStream(t, s, "?body=moon&epoch=2024-07-04T00:00:00Z")
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var first, second streamFrame
	require.NoError(t, conn.ReadJSON(&first))
	require.NoError(t, conn.ReadJSON(&second))

	assert.NotEmpty(t, first.Session)
	assert.Equal(t, first.Session, second.Session)
	assert.Equal(t, 0, first.Seq)
	assert.Equal(t, 1, second.Seq)
	assert.Empty(t, first.Error)
	assert.Equal(t, "moon", first.Reference)
	assert.Len(t, first.Positions, 3)
	assert.Equal(t, time.Hour, second.Epoch.Sub(first.Epoch))
}

func TestStreamStopsOutsideCoverage(t *testing.T) {
	s := newTestServer(t, Options{PushInterval: 10 * time.Millisecond, PushStep: 48 * time.Hour})
	conn := dialStream(t, s, "?epoch=2999-12-31T00:00:00Z")
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var frame streamFrame
	require.NoError(t, conn.ReadJSON(&frame))
	assert.Empty(t, frame.Error)

	require.NoError(t, conn.ReadJSON(&frame))
	assert.Contains(t, frame.Error, "coverage")

	err := conn.ReadJSON(&frame)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseInternalServerErr), err)
}

func TestStreamClosesWithServer(t *testing.T) {
	s := newTestServer(t, Options{PushInterval: 10 * time.Millisecond})
	conn := dialStream(t, s, "")
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var frame streamFrame
	require.NoError(t, conn.ReadJSON(&frame))
	s.Close()

	for {
		if err := conn.ReadJSON(&frame); err != nil {
			assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), err)
			return
		}
	}
}

func TestStreamRejectsUnknownBody(t *testing.T) {
	s := newTestServer(t, Options{})
	rec := get(t, s.Handler(), "/ws?body=pluto")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
