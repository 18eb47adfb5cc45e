// Package server streams pitch contours and the live mora cursor to a
// renderer over a websocket.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/ieee0824/pitchflow"
	"github.com/ieee0824/pitchflow/internal/logging"
	"github.com/ieee0824/pitchflow/internal/metrics"
	"github.com/ieee0824/pitchflow/pitch"
	"github.com/ieee0824/pitchflow/playback"
	"github.com/ieee0824/pitchflow/timing"
)

const (
	writeWait    = 10 * time.Second
	maxMessage   = 1 << 20
	outboxLength = 64
)

// Request is a client message. A request without a type plays Words.
type Request struct {
	Type  string       `json:"type,omitempty"` // "play" or "stop"
	Words []pitch.Word `json:"words,omitempty"`
}

// Message is a server message.
type Message struct {
	Type    string              `json:"type"` // points, state, highlight, error
	Session string              `json:"session,omitempty"`
	Points  []pitch.MoraPoint   `json:"points,omitempty"`
	Contour string              `json:"contour,omitempty"`
	State   string              `json:"state,omitempty"`
	Timings []timing.MoraTiming `json:"timings,omitempty"`
	Index   *int                `json:"index,omitempty"`
	Active  bool                `json:"active,omitempty"`
	Error   string              `json:"error,omitempty"`
}

// Server serves /ws, /analyze, /metrics and /healthz.
type Server struct {
	engine   *pitchflow.Engine
	logger   zerolog.Logger
	upgrader websocket.Upgrader
	mux      *http.ServeMux
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logging.Component(logger, "server")
	}
}

// WithCheckOrigin sets the websocket origin policy. The default rejects
// browser requests whose Origin host differs from the request Host.
func WithCheckOrigin(f func(*http.Request) bool) Option {
	return func(s *Server) {
		s.upgrader.CheckOrigin = f
	}
}

// New creates a Server. Every websocket connection gets its own fork of
// engine, so phrases on one connection only supersede each other.
func New(engine *pitchflow.Engine, opts ...Option) *Server {
	s := &Server{
		engine: engine,
		logger: zerolog.Nop(),
		mux:    http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.mux.HandleFunc("/ws", s.handleWS)
	s.mux.HandleFunc("/analyze", s.handleAnalyze)
	s.mux.Handle("/metrics", promhttp.Handler())
	s.mux.HandleFunc("/healthz", s.handleHealth)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": pitchflow.Version})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"detail": "method not allowed"})
		return
	}
	var req Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxMessage)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid request body"})
		return
	}
	points := s.engine.Analyze(req.Words)
	writeJSON(w, http.StatusOK, Message{Type: "points", Points: points, Contour: pitch.Contour(points)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	conn.SetReadLimit(maxMessage)
	metrics.Connections.Inc()
	defer metrics.Connections.Dec()

	ctx, cancel := context.WithCancel(r.Context())
	out := make(chan Message, outboxLength)
	send := func(m Message) {
		select {
		case out <- m:
		case <-ctx.Done():
		}
	}

	var eng *pitchflow.Engine
	eng = s.engine.Fork(func(ev playback.Event) {
		send(s.eventMessage(eng, ev))
	})

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for {
			select {
			case m := <-out:
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteJSON(m); err != nil {
					s.logger.Debug().Err(err).Msg("websocket write failed")
					cancel()
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	s.readLoop(ctx, conn, eng, send)

	// Final session events are queued before the writer is told to quit.
	eng.Close()
	cancel()
	<-writerDone
	conn.Close()
}

func (s *Server) readLoop(ctx context.Context, conn *websocket.Conn, eng *pitchflow.Engine, send func(Message)) {
	for {
		var req Request
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug().Err(err).Msg("websocket read failed")
			}
			return
		}

		switch req.Type {
		case "stop":
			eng.Stop()
		case "", "play":
			if len(req.Words) == 0 {
				send(Message{Type: "error", Error: "no words"})
				continue
			}
			// The old phrase's last events go out before the new points.
			eng.Stop()
			points := eng.Analyze(req.Words)
			send(Message{Type: "points", Points: points, Contour: pitch.Contour(points)})
			if _, err := eng.Play(ctx, req.Words); err != nil {
				send(Message{Type: "error", Error: err.Error()})
			}
		default:
			send(Message{Type: "error", Error: "unknown request type " + req.Type})
		}
	}
}

func (s *Server) eventMessage(eng *pitchflow.Engine, ev playback.Event) Message {
	switch ev.Kind {
	case playback.EventHighlight:
		idx := ev.Highlight.Index
		return Message{Type: "highlight", Session: ev.SessionID, Index: &idx, Active: ev.Highlight.Active}
	default:
		m := Message{Type: "state", Session: ev.SessionID, State: ev.State.String()}
		if ev.Err != nil && ev.State == playback.Error {
			m.Error = ev.Err.Error()
		}
		if ev.State == playback.Playing {
			if cur := eng.Current(); cur != nil && cur.ID() == ev.SessionID {
				m.Timings = cur.Timings()
			}
		}
		return m
	}
}
