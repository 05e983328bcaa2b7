// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/palmares/internal/adapters/repository"
	service "github.com/okian/palmares/internal/app"
	"github.com/okian/palmares/internal/domain/champions"
	"github.com/okian/palmares/internal/domain/model"
	"github.com/okian/palmares/internal/domain/season"
	"github.com/okian/palmares/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	CaptureDependencies
	CompetitionDependencies
	TrophiesDependencies
}

// CaptureDependencies accepts captures for the writer.
type CaptureDependencies interface {
	Enqueue(ctx context.Context, c model.Capture) (service.EnqueueResult, error)
}

// CompetitionDependencies exposes stored competition histories.
type CompetitionDependencies interface {
	Competitions(ctx context.Context) ([]string, error)
	History(ctx context.Context, competition string) ([]model.Snapshot, error)
	Seasons(ctx context.Context, competition string) ([]string, error)
	Current(ctx context.Context, competition, seasonLabel string, policy season.Policy) (model.Snapshot, error)
	Champions(ctx context.Context, competition string) ([]champions.Title, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler       *HealthHandler
	statsHandler        *StatsHandler
	capturesHandler     *CapturesHandler
	competitionsHandler *CompetitionsHandler
	trophiesHandler     *TrophiesHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, log logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	log = log.Named("api")
	return &Server{
		healthHandler:       NewHealthHandler(),
		statsHandler:        NewStatsHandler(statsProvider, deps, log),
		capturesHandler:     NewCapturesHandler(deps, log),
		competitionsHandler: NewCompetitionsHandler(deps, log),
		trophiesHandler:     NewTrophiesHandler(deps, log),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.HandleFunc("GET /healthz", Instrument(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /metrics", Instrument(s.healthHandler.HandleMetrics, "metrics"))
	mux.HandleFunc("GET /stats", Instrument(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("POST /captures", Instrument(s.capturesHandler.HandlePostCapture, "captures"))
	mux.HandleFunc("GET /competitions", Instrument(s.competitionsHandler.HandleList, "competitions"))
	mux.HandleFunc("GET /competitions/{competition}/history", Instrument(s.competitionsHandler.HandleHistory, "history"))
	mux.HandleFunc("GET /competitions/{competition}/seasons", Instrument(s.competitionsHandler.HandleSeasons, "seasons"))
	mux.HandleFunc("GET /competitions/{competition}/current", Instrument(s.competitionsHandler.HandleCurrent, "current"))
	mux.HandleFunc("GET /competitions/{competition}/champions", Instrument(s.competitionsHandler.HandleChampions, "champions"))
	mux.HandleFunc("GET /trophies", Instrument(s.trophiesHandler.HandleTrophies, "trophies"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeUpstreamError maps service and store errors onto status codes.
func writeUpstreamError(ctx context.Context, w http.ResponseWriter, log logger.Logger, op string, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", fmt.Errorf("%w: %w", ErrNotFound, err))
	case errors.Is(err, repository.ErrInvalidCompetition):
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %w", ErrBadRequest, err))
	case errors.Is(err, repository.ErrCorruptStore):
		log.Warn(ctx, "corrupt store", logger.String("op", op), logger.Error(err))
		writeError(w, http.StatusInternalServerError, "corrupt_store", err)
	default:
		log.Error(ctx, "request failed", logger.String("op", op), logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
