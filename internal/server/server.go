// Package server exposes orrery queries over HTTP and streams positions over
// WebSocket.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/litescript/ls-orrery/internal/astro"
	"github.com/litescript/ls-orrery/internal/bodies"
	"github.com/litescript/ls-orrery/internal/ephem"
	"github.com/litescript/ls-orrery/internal/logging"
	"github.com/litescript/ls-orrery/internal/state"
	"github.com/litescript/ls-orrery/internal/trajectory"
)

const (
	shutdownTimeout   = 5 * time.Second
	readHeaderTimeout = 10 * time.Second
	maxEventsReturned = 50
	cleanupInterval   = time.Minute
)

// errBadRequest marks malformed query parameters.
var errBadRequest = errors.New("bad request")

// Options controls limits and streaming.
type Options struct {
	Rate         float64 // requests per second per client, 0 for unlimited
	Burst        int
	PushInterval time.Duration
	PushStep     time.Duration
	MaxSteps     int           // largest steps a query may ask for
	ClientIdle   time.Duration // rate-limit buckets idle this long are dropped
}

// DefaultOptions returns the settings used when none are configured.
func DefaultOptions() Options {
	return Options{
		Rate:         10,
		Burst:        20,
		PushInterval: time.Second,
		PushStep:     time.Hour,
		MaxSteps:     10000,
		ClientIdle:   10 * time.Minute,
	}
}

// Server answers position and trajectory queries against a state manager.
// Queries never change the manager's selection or epoch.
type Server struct {
	mgr      *state.Manager
	opts     Options
	logger   *logging.Logger
	metrics  *MetricsCollector
	limiter  *ClientRateLimiter
	upgrader websocket.Upgrader

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a server over mgr.
func New(mgr *state.Manager, opts Options, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.Discard()
	}
	def := DefaultOptions()
	if opts.PushInterval <= 0 {
		opts.PushInterval = def.PushInterval
	}
	if opts.PushStep == 0 {
		opts.PushStep = def.PushStep
	}
	if opts.MaxSteps <= 0 || opts.MaxSteps > trajectory.MaxSteps {
		opts.MaxSteps = def.MaxSteps
	}
	if opts.ClientIdle <= 0 {
		opts.ClientIdle = def.ClientIdle
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		mgr:     mgr,
		opts:    opts,
		logger:  logger.With("component", "server"),
		metrics: NewMetricsCollector(),
		limiter: NewClientRateLimiter(opts.Rate, opts.Burst),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		ctx:    ctx,
		cancel: cancel,
	}
	go s.limiter.RunCleanup(ctx, cleanupInterval, opts.ClientIdle)
	return s
}

// Metrics returns the server's metrics collector.
func (s *Server) Metrics() *MetricsCollector {
	return s.metrics
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/bodies", s.handle("bodies", s.bodies))
	mux.HandleFunc("GET /api/positions", s.handle("positions", s.positions))
	mux.HandleFunc("GET /api/trajectories", s.handle("trajectories", s.trajectories))
	mux.HandleFunc("GET /api/events", s.handle("events", s.events))
	mux.HandleFunc("GET /ws", s.stream)
	mux.Handle("GET /metrics", s.metrics.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return mux
}

// Close ends every open stream session.
func (s *Server) Close() {
	s.cancel()
}

// ListenAndServe serves on addr until ctx is done, then shuts down.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.logger.Info("listening on %s", addr)

	select {
	case err := <-errCh:
		s.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

type queryFunc func(r *http.Request) (interface{}, error)

// handle wraps a query with rate limiting, metrics and JSON encoding.
func (s *Server) handle(operation string, fn queryFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow(r) {
			s.metrics.rateLimited.Inc()
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded"})
			return
		}

		start := time.Now()
		resp, err := fn(r)
		status := http.StatusOK
		if err != nil {
			status = statusFor(err)
			resp = errorResponse{Error: err.Error()}
			if status >= http.StatusInternalServerError {
				s.logger.Error("%s %s: %v", operation, r.URL.RawQuery, err)
			} else {
				s.logger.Debug("%s %s: %v", operation, r.URL.RawQuery, err)
			}
		}
		s.metrics.RecordRequest(operation, outcome(status), time.Since(start))
		writeJSON(w, status, resp)
	}
}

// statusFor maps query errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, bodies.ErrUnknownBody):
		return http.StatusNotFound
	case errors.Is(err, ephem.ErrCoverage), errors.Is(err, trajectory.ErrInvalidSampleCount):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func outcome(status int) string {
	switch status {
	case http.StatusOK:
		return "ok"
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusUnprocessableEntity:
		return "unprocessable"
	default:
		return "error"
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// query holds parsed request parameters with manager defaults applied.
type query struct {
	body  bodies.BodyID
	epoch time.Time
	steps int
	end   time.Time
}

func (s *Server) parseQuery(r *http.Request) (query, error) {
	snap := s.mgr.Snapshot()
	q := query{
		body:  snap.Selected.ID,
		epoch: snap.Epoch,
		steps: s.mgr.Steps(),
	}
	params := r.URL.Query()

	if v := params.Get("body"); v != "" {
		id, err := bodies.ParseID(v)
		if err != nil {
			return q, err
		}
		q.body = id
	}
	if v := params.Get("epoch"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return q, fmt.Errorf("%w: epoch %q is not RFC 3339", errBadRequest, v)
		}
		q.epoch = t.UTC()
	}
	if v := params.Get("steps"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return q, fmt.Errorf("%w: steps %q is not an integer", errBadRequest, v)
		}
		q.steps = n
	}
	if q.steps > s.opts.MaxSteps {
		return q, &trajectory.InvalidSampleCountError{Steps: q.steps, Max: s.opts.MaxSteps}
	}
	if v := params.Get("span"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return q, fmt.Errorf("%w: span %q is not a duration", errBadRequest, v)
		}
		if d <= 0 {
			return q, &trajectory.InvalidSampleCountError{Steps: q.steps, Span: d}
		}
		q.end = q.epoch.Add(d)
	}
	return q, nil
}

type bodyResponse struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	Parent     string  `json:"parent,omitempty"`
	RadiusKm   float64 `json:"radius_km"`
	AxialTilt  float64 `json:"axial_tilt_deg"`
	PeriodDays float64 `json:"orbital_period_days,omitempty"`
	Color      string  `json:"color,omitempty"`
}

type positionResponse struct {
	Body     string     `json:"body"`
	Position [3]float64 `json:"position"`
}

type positionsResponse struct {
	Reference string             `json:"reference"`
	Epoch     time.Time          `json:"epoch"`
	Positions []positionResponse `json:"positions"`
}

type trajectoryResponse struct {
	Body   string       `json:"body"`
	Epochs []time.Time  `json:"epochs"`
	Points [][3]float64 `json:"points"`
}

type trajectoriesResponse struct {
	Reference    string               `json:"reference"`
	Epoch        time.Time            `json:"epoch"`
	Steps        int                  `json:"steps"`
	Trajectories []trajectoryResponse `json:"trajectories"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func vec(v astro.Vec3) [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}

func newBodyResponse(b bodies.CelestialBody) bodyResponse {
	resp := bodyResponse{
		ID:         b.ID.String(),
		Name:       b.String(),
		Type:       b.Type.String(),
		RadiusKm:   b.Radius,
		AxialTilt:  b.AxialTilt(),
		PeriodDays: b.Period,
		Color:      b.Color,
	}
	if b.HasParent() {
		resp.Parent = b.Parent.String()
	}
	return resp
}

func newPositionsResponse(ref bodies.BodyID, epoch time.Time, ps []state.BodyPosition) positionsResponse {
	resp := positionsResponse{
		Reference: ref.String(),
		Epoch:     epoch,
		Positions: make([]positionResponse, len(ps)),
	}
	for i, p := range ps {
		resp.Positions[i] = positionResponse{Body: p.Body.ID.String(), Position: vec(p.Position)}
	}
	return resp
}

func (s *Server) bodies(r *http.Request) (interface{}, error) {
	all := s.mgr.Registry().Bodies()
	out := make([]bodyResponse, len(all))
	for i, b := range all {
		out[i] = newBodyResponse(b)
	}
	return out, nil
}

func (s *Server) positions(r *http.Request) (interface{}, error) {
	q, err := s.parseQuery(r)
	if err != nil {
		return nil, err
	}
	ps, err := state.PositionsFor(s.mgr.Registry(), s.mgr.Sampler().Resolver(), q.body, q.epoch)
	if err != nil {
		return nil, err
	}
	return newPositionsResponse(q.body, q.epoch, ps), nil
}

func (s *Server) trajectories(r *http.Request) (interface{}, error) {
	q, err := s.parseQuery(r)
	if err != nil {
		return nil, err
	}
	trs, err := state.TrajectoriesFor(r.Context(), s.mgr.Registry(), s.mgr.Sampler(), q.body, q.epoch, q.end, q.steps)
	if err != nil {
		return nil, err
	}

	resp := trajectoriesResponse{
		Reference:    q.body.String(),
		Epoch:        q.epoch,
		Steps:        q.steps,
		Trajectories: make([]trajectoryResponse, len(trs)),
	}
	for i, tr := range trs {
		points := make([][3]float64, len(tr.Points))
		for j, p := range tr.Points {
			points[j] = vec(p)
		}
		epochs := tr.Epochs
		if epochs == nil {
			epochs = []time.Time{}
		}
		resp.Trajectories[i] = trajectoryResponse{Body: tr.Target.String(), Epochs: epochs, Points: points}
	}
	return resp, nil
}

func (s *Server) events(r *http.Request) (interface{}, error) {
	events := s.mgr.RecentEvents(maxEventsReturned)
	if events == nil {
		events = []state.Event{}
	}
	return events, nil
}
