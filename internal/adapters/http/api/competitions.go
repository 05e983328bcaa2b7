package api

import (
	"fmt"
	"net/http"

	"github.com/okian/palmares/internal/domain/season"
	"github.com/okian/palmares/pkg/logger"
)

// CompetitionsHandler serves stored histories and their derived views.
type CompetitionsHandler struct {
	deps CompetitionDependencies
	log  logger.Logger
}

// NewCompetitionsHandler creates a new competitions handler.
func NewCompetitionsHandler(deps CompetitionDependencies, log logger.Logger) *CompetitionsHandler {
	return &CompetitionsHandler{deps: deps, log: log}
}

// HandleList handles GET /competitions requests.
func (h *CompetitionsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	names, err := h.deps.Competitions(r.Context())
	if err != nil {
		writeUpstreamError(r.Context(), w, h.log, "api.list_competitions", err)
		return
	}
	writeJSON(w, http.StatusOK, names)
}

// HandleHistory handles GET /competitions/{competition}/history requests.
func (h *CompetitionsHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.deps.History(r.Context(), r.PathValue("competition"))
	if err != nil {
		writeUpstreamError(r.Context(), w, h.log, "api.history", err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

// HandleSeasons handles GET /competitions/{competition}/seasons requests.
func (h *CompetitionsHandler) HandleSeasons(w http.ResponseWriter, r *http.Request) {
	seasons, err := h.deps.Seasons(r.Context(), r.PathValue("competition"))
	if err != nil {
		writeUpstreamError(r.Context(), w, h.log, "api.seasons", err)
		return
	}
	writeJSON(w, http.StatusOK, seasons)
}

// HandleCurrent handles GET /competitions/{competition}/current requests.
// Query: season (defaults to the most recent one), policy (latest|stable).
func (h *CompetitionsHandler) HandleCurrent(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	policy, ok := season.ParsePolicy(q.Get("policy"))
	if !ok {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: unknown policy %q", ErrBadRequest, q.Get("policy")))
		return
	}
	snap, err := h.deps.Current(r.Context(), r.PathValue("competition"), q.Get("season"), policy)
	if err != nil {
		writeUpstreamError(r.Context(), w, h.log, "api.current", err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// HandleChampions handles GET /competitions/{competition}/champions requests.
func (h *CompetitionsHandler) HandleChampions(w http.ResponseWriter, r *http.Request) {
	titles, err := h.deps.Champions(r.Context(), r.PathValue("competition"))
	if err != nil {
		writeUpstreamError(r.Context(), w, h.log, "api.champions", err)
		return
	}
	writeJSON(w, http.StatusOK, titles)
}
