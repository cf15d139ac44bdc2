package server

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/litescript/ls-orrery/internal/state"
)

const writeWait = 10 * time.Second

// streamFrame is one pushed set of positions.
type streamFrame struct {
	Session string `json:"session"`
	Seq     int    `json:"seq"`
	positionsResponse
	Error string `json:"error,omitempty"`
}

// stream upgrades to a WebSocket and pushes the visible positions of the
// requested body every PushInterval, advancing the session epoch by PushStep
// after each frame. The session ends when the client goes away, the server
// closes, or a position cannot be resolved.
func (s *Server) stream(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.Allow(r) {
		s.metrics.rateLimited.Inc()
		writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded"})
		return
	}
	q, err := s.parseQuery(r)
	if err != nil {
		s.metrics.RecordRequest("stream", outcome(statusFor(err)), 0)
		writeJSON(w, statusFor(err), errorResponse{Error: err.Error()})
		return
	}
	if _, err := s.mgr.Registry().Get(q.body); err != nil {
		s.metrics.RecordRequest("stream", outcome(statusFor(err)), 0)
		writeJSON(w, statusFor(err), errorResponse{Error: err.Error()})
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	session := uuid.New().String()
	log := s.logger.With("session", session, "body", q.body.String())
	log.Info("stream opened")
	s.metrics.sessions.Inc()
	defer s.metrics.sessions.Dec()

	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(s.opts.PushInterval)
	defer ticker.Stop()

	epoch := q.epoch
	for seq := 0; ; seq++ {
		frame := streamFrame{Session: session, Seq: seq}
		ps, err := state.PositionsFor(s.mgr.Registry(), s.mgr.Sampler().Resolver(), q.body, epoch)
		if err != nil {
			frame.Error = err.Error()
			frame.Reference = q.body.String()
			frame.Epoch = epoch
		} else {
			frame.positionsResponse = newPositionsResponse(q.body, epoch, ps)
		}

		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if werr := conn.WriteJSON(frame); werr != nil {
			log.Debug("stream write: %v", werr)
			return
		}
		s.metrics.pushes.Inc()
		if err != nil {
			log.Warn("stream stopped: %v", err)
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "position unavailable"),
				time.Now().Add(writeWait))
			return
		}
		epoch = epoch.Add(s.opts.PushStep)

		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			log.Info("stream closed")
			return
		case <-ticker.C:
		}
	}
}
