// Package api serves scan results as JSON over HTTP and pushes fresh snapshots over
// WebSocket.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/pam-pakkiri/coinpree/internal/service"
	"github.com/pam-pakkiri/coinpree/pkg/models"
)

// Scanner is the part of service.Engine the HTTP layer needs.
type Scanner interface {
	GetSignals(ctx context.Context, exchangeID, timeframe string) []models.Signal
	GetCrossoverSignals(ctx context.Context, timeframe string) []models.Signal
	GetShortReversalSignals(ctx context.Context, timeframe, exchangeID string, limit int) []models.Signal
	GetStructureSignals(ctx context.Context, exchangeID, timeframe string) []models.Signal
	ClearCache()
	Hub() *service.Hub
}

type signalsResponse struct {
	Signals     []models.Signal `json:"signals"`
	Count       int             `json:"count"`
	GeneratedAt int64           `json:"generatedAt"`
}

type Server struct {
	scanner Scanner
}

func NewServer(scanner Scanner) *Server {
	return &Server{scanner: scanner}
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ok"})
	})
	r.Get("/ws", s.handleWS)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/signals", s.handleSignals)
		r.Get("/signals/crossover", s.handleCrossover)
		r.Get("/signals/reversal", s.handleReversal)
		r.Get("/signals/structure", s.handleStructure)
		r.Delete("/cache", s.handleClearCache)
	})
	return r
}

func (s *Server) handleSignals(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	writeSignals(w, s.scanner.GetSignals(r.Context(), q.Get("exchange"), q.Get("timeframe")))
}

func (s *Server) handleCrossover(w http.ResponseWriter, r *http.Request) {
	writeSignals(w, s.scanner.GetCrossoverSignals(r.Context(), r.URL.Query().Get("timeframe")))
}

func (s *Server) handleReversal(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := 0
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}
	writeSignals(w, s.scanner.GetShortReversalSignals(r.Context(), q.Get("timeframe"), q.Get("exchange"), limit))
}

func (s *Server) handleStructure(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	writeSignals(w, s.scanner.GetStructureSignals(r.Context(), q.Get("exchange"), q.Get("timeframe")))
}

func (s *Server) handleClearCache(w http.ResponseWriter, r *http.Request) {
	s.scanner.ClearCache()
	w.WriteHeader(http.StatusNoContent)
}

func writeSignals(w http.ResponseWriter, signals []models.Signal) {
	if signals == nil {
		signals = []models.Signal{}
	}
	writeJSON(w, http.StatusOK, signalsResponse{
		Signals:     signals,
		Count:       len(signals),
		GeneratedAt: time.Now().UnixMilli(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
