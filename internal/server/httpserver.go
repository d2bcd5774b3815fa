// Package server exposes a running game over HTTP: a read-only status API, the
// embedded status page and the WebSocket endpoint the guest plays through.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"battleship-p2p/internal/protocol"
	"battleship-p2p/web"
)

// StatusSource is anything that can describe the current game; *protocol.Session does.
type StatusSource interface {
	Status() protocol.Status
}

type Server struct {
	maxFrame int
	log      zerolog.Logger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	session StatusSource

	claimed atomic.Bool
	peers   chan protocol.Conn

	// Milliseconds since epoch when this server booted
	startAt int64
}

func New(maxFrame int, log zerolog.Logger) *Server {
	return &Server{
		maxFrame: maxFrame,
		log:      log.With().Str("component", "http").Logger(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 << 10,
			WriteBufferSize: 4 << 10,
			// peers are CLI clients without an Origin header
			CheckOrigin: func(*http.Request) bool { return true },
		},
		peers:   make(chan protocol.Conn, 1),
		startAt: time.Now().UnixMilli(),
	}
}

// Attach makes src the session reported by /v1/status.
func (s *Server) Attach(src StatusSource) {
	s.mu.Lock()
	s.session = src
	s.mu.Unlock()
}

func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/v1/status", s.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/v1/play", s.handlePlay).Methods(http.MethodGet)
	r.PathPrefix("/").Handler(http.FileServer(web.FS())).Methods(http.MethodGet)
	return WithCORS(r)
}

// Accept blocks until a peer has connected to /v1/play.
func (s *Server) Accept(ctx context.Context) (protocol.Conn, error) {
	select {
	case c := <-s.peers:
		return c, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Serve runs the HTTP server on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	stop := context.AfterFunc(ctx, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	})
	defer stop()
	s.log.Info().Str("addr", ln.Addr().String()).Msg("serving")
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	src := s.session
	s.mu.RUnlock()
	if src == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"state":      "waiting",
			"started_at": s.startAt,
		})
		return
	}
	writeJSON(w, http.StatusOK, src.Status())
}

// handlePlay hands the first upgraded connection to Accept; one game per server.
func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	if !s.claimed.CompareAndSwap(false, true) {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "a game is already in progress"})
		return
	}
	c, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error
		s.claimed.Store(false)
		s.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	s.log.Info().Str("remote", r.RemoteAddr).Msg("peer connected")
	s.peers <- protocol.NewWSConn(c, s.maxFrame)
}

func WithCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
