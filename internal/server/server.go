// Package server exposes a page's autofill engine over HTTP: the message
// channel that triggers fill passes and a read-only view of the index.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/v0xg/formfill/internal/autofill"
	"github.com/v0xg/formfill/internal/detect"
)

// maxMessageBytes bounds an inbound autofill message.
const maxMessageBytes = 64 << 10

// Service serves one engine.
type Service struct {
	engine *autofill.Engine
	logger *zap.Logger
}

// New creates a Service.
func New(engine *autofill.Engine, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{engine: engine, logger: logger}
}

// RegisterHTTP registers the endpoints on r.
func (s *Service) RegisterHTTP(r chi.Router) {
	r.Post("/autofill", s.handleAutofill)
	r.Get("/fields", s.handleFields)
	r.Get("/healthz", s.handleHealth)
}

// Handler returns a router with the service mounted at the root.
func (s *Service) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	s.RegisterHTTP(r)
	return r
}

// ListenAndServe serves on addr until ctx is done.
func (s *Service) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("listening", zap.String("addr", addr))

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// handleAutofill runs one message through the engine.
// POST /autofill
func (s *Service) handleAutofill(w http.ResponseWriter, r *http.Request) {
	var msg autofill.Message
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxMessageBytes)).Decode(&msg); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	resp, err := s.engine.Handle(r.Context(), msg)
	if errors.Is(err, autofill.ErrUnknownAction) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		s.logger.Error("autofill failed", zap.Error(err))
		http.Error(w, "autofill failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, resp)
}

// FieldsResponse is the body of GET /fields.
type FieldsResponse struct {
	State     string         `json:"state"`
	ScanID    string         `json:"scan_id,omitempty"`
	ScannedAt *time.Time     `json:"scanned_at,omitempty"`
	Scanned   int            `json:"scanned"`
	Eligible  int            `json:"eligible"`
	Fields    detect.Summary `json:"fields"`
}

// handleFields reports the current index without rescanning.
// GET /fields
func (s *Service) handleFields(w http.ResponseWriter, r *http.Request) {
	ix := s.engine.Index()
	resp := FieldsResponse{
		State:  s.engine.State().String(),
		Fields: ix.Summary(),
	}
	if ix != nil {
		resp.ScanID = ix.ID
		resp.ScannedAt = &ix.ScannedAt
		resp.Scanned = ix.Scanned
		resp.Eligible = ix.Eligible
	}
	writeJSON(w, resp)
}

// GET /healthz
func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
