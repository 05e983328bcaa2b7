package api

import (
	"context"
	"net/http"

	"github.com/okian/palmares/internal/domain/champions"
	"github.com/okian/palmares/pkg/logger"
)

// TrophiesDependencies builds the cross-competition trophy cabinet.
type TrophiesDependencies interface {
	Trophies(ctx context.Context) ([]champions.TeamTrophies, error)
}

// TrophiesHandler handles trophy cabinet requests.
type TrophiesHandler struct {
	deps TrophiesDependencies
	log  logger.Logger
}

// NewTrophiesHandler creates a new trophies handler.
func NewTrophiesHandler(deps TrophiesDependencies, log logger.Logger) *TrophiesHandler {
	return &TrophiesHandler{deps: deps, log: log}
}

// HandleTrophies handles GET /trophies requests.
func (h *TrophiesHandler) HandleTrophies(w http.ResponseWriter, r *http.Request) {
	cabinet, err := h.deps.Trophies(r.Context())
	if err != nil {
		writeUpstreamError(r.Context(), w, h.log, "api.trophies", err)
		return
	}
	writeJSON(w, http.StatusOK, cabinet)
}
