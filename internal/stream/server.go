// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/go-logr/logr"
	"github.com/gorilla/websocket"

	"github.com/MedicalEnvironment/cpu-monitoring-upgraded/internal/report"
)

const shutdownTimeout = 5 * time.Second

// Config configures the stream HTTP server.
type Config struct {
	// ListenAddr is the TCP address to serve on, e.g. ":8080"
	ListenAddr string

	// AllowedOrigins lists the Origin headers accepted for websocket upgrades.
	// Empty means only same-origin requests (and requests without an Origin) are accepted.
	AllowedOrigins []string

	// RouterStats, when set, adds per-consumer health to /health
	RouterStats func() report.RouterStats
}

// Server exposes a Hub over HTTP:
//
//	GET /ws      websocket, every report pushed as a JSON text message
//	GET /latest  the most recent report as JSON, 503 before the first one
//	GET /health  liveness, connected client count and consumer health
type Server struct {
	config   Config
	hub      *Hub
	logger   logr.Logger
	upgrader websocket.Upgrader
}

func NewServer(config Config, hub *Hub, logger logr.Logger) (*Server, error) {
	if config.ListenAddr == "" {
		return nil, errors.New("listen address is required")
	}
	if hub == nil {
		return nil, errors.New("hub is required")
	}

	s := &Server{
		config: config,
		hub:    hub,
		logger: logger.WithName("stream-server"),
	}
	if len(config.AllowedOrigins) > 0 {
		s.upgrader.CheckOrigin = func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || slices.Contains(config.AllowedOrigins, origin) {
				return true
			}
			s.logger.Info("Websocket origin rejected", "origin", origin)
			return false
		}
	}
	return s, nil
}

// Handler returns the HTTP routes served by Start.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", s.serveWS)
	mux.HandleFunc("GET /latest", s.serveLatest)
	mux.HandleFunc("GET /health", s.serveHealth)
	return mux
}

// Start serves until ctx is cancelled, then shuts the listener down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.ListenAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Serving report stream", "addr", s.config.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("stream server: %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("stream server shutdown: %w", err)
	}
	s.logger.V(1).Info("Stream server shutdown")
	return nil
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.V(1).Info("Websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	c := newClient(s.hub, conn, s.logger)
	if !s.hub.join(c) {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

func (s *Server) serveLatest(w http.ResponseWriter, _ *http.Request) {
	latest, ok := s.hub.Latest()
	if !ok {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no report yet"})
		return
	}
	writeJSON(w, http.StatusOK, latest)
}

func (s *Server) serveHealth(w http.ResponseWriter, _ *http.Request) {
	health := s.hub.Health()
	body := map[string]any{
		"status":  "ok",
		"clients": s.hub.ClientCount(),
		"reports": health.ReportsCount,
	}
	if s.config.RouterStats != nil {
		stats := s.config.RouterStats()
		consumers := make(map[string]consumerHealth, len(stats.Consumers))
		for name, h := range stats.Consumers {
			ch := consumerHealth{Healthy: h.Healthy, Reports: h.ReportsCount, Errors: h.ErrorsCount}
			if h.LastError != nil {
				ch.LastError = h.LastError.Error()
			}
			consumers[name] = ch
		}
		body["consumers"] = consumers
	}
	writeJSON(w, http.StatusOK, body)
}

type consumerHealth struct {
	Healthy   bool   `json:"healthy"`
	Reports   uint64 `json:"reports"`
	Errors    uint64 `json:"errors"`
	LastError string `json:"last_error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
