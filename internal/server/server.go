// Package server exposes the session over HTTP and WebSocket.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/GriffinCanCode/fishbot/internal/catalog"
	"github.com/GriffinCanCode/fishbot/internal/catchlog"
	"github.com/GriffinCanCode/fishbot/internal/config"
	apperrors "github.com/GriffinCanCode/fishbot/internal/errors"
	"github.com/GriffinCanCode/fishbot/internal/prefs"
	"github.com/GriffinCanCode/fishbot/internal/session"
	"github.com/GriffinCanCode/fishbot/internal/trace"
)

// Controller is the session surface the server drives.
type Controller interface {
	Start(ctx context.Context) error
	Stop() bool
	Status() session.Status
	Events() <-chan session.Event
}

// History answers catch statistics; optional.
type History interface {
	Summary(ctx context.Context, sessionID string) (catchlog.Summary, error)
	Recent(ctx context.Context, limit int) ([]catchlog.Entry, error)
}

// Message types.
type Message struct {
	Type string `json:"type"`
}

type StatusMessage struct {
	Type   string         `json:"type"`
	Status session.Status `json:"status"`
}

type EventMessage struct {
	Type  string        `json:"type"`
	Event session.Event `json:"event"`
}

type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type AreasResponse struct {
	Selected string          `json:"selected"`
	Areas    []catalog.Entry `json:"areas"`
}

type StatsResponse struct {
	Session  *catchlog.Summary `json:"session,omitempty"`
	AllTime  catchlog.Summary  `json:"all_time"`
	Rate     float64           `json:"catch_rate"`
	Duration string            `json:"session_duration,omitempty"`
}

// rateLimiter tracks message timestamps using a sliding window.
type rateLimiter struct {
	timestamps []time.Time
	mu         sync.Mutex
}

// allow checks if a message is allowed and records the timestamp if so.
func (r *rateLimiter) allow() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-RateLimitWindow)

	valid := r.timestamps[:0]
	for _, t := range r.timestamps {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}
	r.timestamps = valid

	if len(r.timestamps) >= RateLimitMessages {
		return false
	}
	r.timestamps = append(r.timestamps, now)
	return true
}

// Server handles HTTP and WebSocket connections.
type Server struct {
	ctl     Controller
	catalog *catalog.Catalog
	prefs   *prefs.Prefs
	history History
	origins []string

	mu    sync.RWMutex
	conns map[*websocket.Conn]*rateLimiter
}

// New creates a new server. history may be nil.
func New(ctl Controller, cat *catalog.Catalog, p *prefs.Prefs, history History, cfg *config.Config) *Server {
	return &Server{
		ctl:     ctl,
		catalog: cat,
		prefs:   p,
		history: history,
		origins: cfg.AllowedOrigins,
		conns:   make(map[*websocket.Conn]*rateLimiter),
	}
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/ws", s.handleWebSocket)

	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("POST /api/start", s.handleStart)
	mux.HandleFunc("POST /api/stop", s.handleStop)
	mux.HandleFunc("GET /api/areas", s.handleAreas)
	mux.HandleFunc("POST /api/areas/{id}/select", s.handleSelectArea)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("GET /api/cycles", s.handleCycles)

	return corsMiddleware(trace.Middleware(mux))
}

// ListenAndServe serves on addr and relays session events to WebSocket
// clients until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go s.broadcastEvents(ctx)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("status server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.origins,
	})
	if err != nil {
		slog.Error("websocket accept error", "error", err)
		return
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "") }()

	rl := &rateLimiter{}
	s.mu.Lock()
	s.conns[conn] = rl
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
	}()

	ctx := r.Context()
	log := trace.Logger(ctx)
	log.Info("websocket connected", "remote", r.RemoteAddr)

	if err := s.write(ctx, conn, StatusMessage{Type: "status", Status: s.ctl.Status()}); err != nil {
		return
	}

	for {
		var msg Message
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			log.Debug("websocket read error", "error", err)
			return
		}

		if !rl.allow() {
			log.Warn("rate limit exceeded", "remote", r.RemoteAddr)
			_ = s.write(ctx, conn, ErrorMessage{Type: "error", Message: "rate limit exceeded"})
			continue
		}

		switch msg.Type {
		case "start":
			if err := s.ctl.Start(ctx); err != nil {
				_ = s.write(ctx, conn, ErrorMessage{Type: "error", Message: err.Error()})
				continue
			}
		case "stop":
			s.ctl.Stop()
		case "status":
		default:
			_ = s.write(ctx, conn, ErrorMessage{Type: "error", Message: "unknown message type " + msg.Type})
			continue
		}
		_ = s.write(ctx, conn, StatusMessage{Type: "status", Status: s.ctl.Status()})
	}
}

func (s *Server) write(ctx context.Context, conn *websocket.Conn, v any) error {
	ctx, cancel := context.WithTimeout(ctx, WriteTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, v)
}

// broadcastEvents relays session events to every connected client.
func (s *Server) broadcastEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-s.ctl.Events():
			msg := EventMessage{Type: "event", Event: evt}

			s.mu.RLock()
			for conn := range s.conns {
				go func(c *websocket.Conn) {
					_ = s.write(ctx, c, msg)
				}(conn)
			}
			s.mu.RUnlock()
		}
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ctl.Status())
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	err := s.ctl.Start(r.Context())
	switch {
	case err == nil:
		writeJSON(w, http.StatusAccepted, s.ctl.Status())
	case errors.Is(err, session.ErrNoArea), errors.Is(err, session.ErrRunning):
		writeError(w, http.StatusConflict, err)
	default:
		trace.Logger(r.Context()).Error("start failed", "error", err)
		writeError(w, http.StatusInternalServerError, err)
	}
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	stopped := s.ctl.Stop()
	writeJSON(w, http.StatusOK, map[string]bool{"stopped": stopped})
}

func (s *Server) handleAreas(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, AreasResponse{
		Selected: s.prefs.SelectedArea(),
		Areas:    s.catalog.Entries(),
	})
}

func (s *Server) handleSelectArea(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := s.catalog.Get(id); !ok {
		writeError(w, http.StatusNotFound, apperrors.Newf(apperrors.ConfigInvalid, "unknown area %q", id))
		return
	}
	if err := s.prefs.SetSelectedArea(id); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"selected": id})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusNotFound, apperrors.New(apperrors.ConfigMissing, "catch log disabled"))
		return
	}
	all, err := s.history.Summary(r.Context(), "")
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	resp := StatsResponse{AllTime: all, Rate: all.CatchRate()}
	if st := s.ctl.Status(); st.SessionID != "" {
		cur, err := s.history.Summary(r.Context(), st.SessionID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		resp.Session = &cur
		if st.Running {
			resp.Duration = time.Since(st.StartedAt).Round(time.Second).String()
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCycles(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusNotFound, apperrors.New(apperrors.ConfigMissing, "catch log disabled"))
		return
	}
	entries, err := s.history.Recent(r.Context(), RecentCycles)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	out := make([]session.CycleInfo, 0, len(entries))
	for _, e := range entries {
		out = append(out, session.CycleInfo{
			Index:      e.Index,
			Outcome:    string(e.Outcome),
			Found:      e.Found,
			X:          e.Target.X,
			Y:          e.Target.Y,
			Confidence: e.Confidence,
			DurationMs: e.Duration().Milliseconds(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
