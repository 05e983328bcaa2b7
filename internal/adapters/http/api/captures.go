package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	service "github.com/okian/palmares/internal/app"
	"github.com/okian/palmares/internal/domain/model"
	"github.com/okian/palmares/pkg/logger"
)

const maxCaptureBytes = 1 << 20

type ackResponse struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

// CapturesHandler accepts capture records from the screen reader.
type CapturesHandler struct {
	deps CaptureDependencies
	log  logger.Logger
}

// NewCapturesHandler creates a new captures handler.
func NewCapturesHandler(deps CaptureDependencies, log logger.Logger) *CapturesHandler {
	return &CapturesHandler{deps: deps, log: log}
}

// HandlePostCapture handles POST /captures requests.
func (h *CapturesHandler) HandlePostCapture(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxCaptureBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	c, err := model.ParseCapture(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}

	res, err := h.deps.Enqueue(r.Context(), c)
	switch {
	case errors.Is(err, service.ErrInvalidCapture):
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %w", ErrBadRequest, err))
	case errors.Is(err, service.ErrQueueFull):
		writeError(w, http.StatusTooManyRequests, "backpressure", fmt.Errorf("%w: %w", ErrBackpressure, err))
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
	case err != nil:
		h.log.Error(r.Context(), "enqueue failed", logger.String("capture_id", res.ID), logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	case res.Duplicate:
		writeJSON(w, http.StatusOK, ackResponse{ID: res.ID, Status: "duplicate", Duplicate: true})
	default:
		writeJSON(w, http.StatusAccepted, ackResponse{ID: res.ID, Status: "accepted"})
	}
}
