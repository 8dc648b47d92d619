package handlers

import (
	"net/http"

	"github.com/Fantasim/tronxfer/internal/api/httputil"
	"github.com/Fantasim/tronxfer/internal/config"
	"github.com/Fantasim/tronxfer/internal/models"
)

// StatusSource reports the progress of the current run.
type StatusSource interface {
	Summary() models.Summary
}

// StatusHandler handles GET /api/status.
func StatusHandler(src StatusSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if src == nil {
			httputil.Error(w, http.StatusServiceUnavailable, config.ErrorStatusUnavailable, "no run in progress")
			return
		}
		httputil.JSON(w, http.StatusOK, src.Summary())
	}
}
