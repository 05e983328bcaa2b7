package api

import (
	"context"
	"net/http"

	"github.com/okian/palmares/pkg/logger"
)

// StatsProvider defines the interface for getting service statistics.
type StatsProvider interface {
	GetStats() map[string]interface{}
}

type competitionLister interface {
	Competitions(ctx context.Context) ([]string, error)
}

// StatsHandler reports ingest counters together with the number of stored
// competitions.
type StatsHandler struct {
	statsProvider StatsProvider
	lister        competitionLister
	log           logger.Logger
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(statsProvider StatsProvider, lister competitionLister, log logger.Logger) *StatsHandler {
	return &StatsHandler{statsProvider: statsProvider, lister: lister, log: log}
}

// HandleStats handles GET /stats requests. A failing store listing is
// logged and leaves the competitions count out.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	out := make(map[string]interface{})
	for k, v := range h.statsProvider.GetStats() {
		out[k] = v
	}
	comps, err := h.lister.Competitions(r.Context())
	if err != nil {
		h.log.Warn(r.Context(), "competition listing failed", logger.Error(err))
	} else {
		out["competitions"] = len(comps)
	}
	writeJSON(w, http.StatusOK, out)
}
