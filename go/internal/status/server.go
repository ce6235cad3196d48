package status

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mcdev12/makeitmeme/go/internal/client"
	"github.com/mcdev12/makeitmeme/go/internal/render"
)

// FrameSource provides the latest rendered frames
type FrameSource interface {
	Snapshot() map[string]render.Frame
	Get(view string) (render.Frame, bool)
}

// StatusSource provides the session summary
type StatusSource interface {
	Status(ctx context.Context) (client.Status, error)
}

// Server is the local read-only status endpoint used by overlays and
// debugging tools
type Server struct {
	frames FrameSource
	status StatusSource
	http   *http.Server
}

func NewServer(addr string, frames FrameSource, status StatusSource) *Server {
	s := &Server{frames: frames, status: status}

	s.http = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

// Handler returns the routes wrapped with CORS and h2c
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
		},
		AllowedOrigins: []string{"*"},
		AllowedHeaders: []string{"*"},
	})

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.HandleFunc("GET /api/view", s.handleViews)
	mux.HandleFunc("GET /api/view/{name}", s.handleView)
	mux.HandleFunc("GET /api/status", s.handleStatus)

	return h2c.NewHandler(c.Handler(mux), &http2.Server{})
}

func (s *Server) handleViews(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.frames.Snapshot())
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	frame, ok := s.frames.Get(name)
	if !ok {
		http.Error(w, "view not rendered yet", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, frame)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	st, err := s.status.Status(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("failed to read session status")
		http.Error(w, "session unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

// ListenAndServe serves until Shutdown
func (s *Server) ListenAndServe() error {
	log.Info().Str("addr", s.http.Addr).Msg("status server starting")
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
