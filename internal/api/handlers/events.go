package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Fantasim/tronxfer/internal/api/httputil"
	"github.com/Fantasim/tronxfer/internal/config"
	"github.com/Fantasim/tronxfer/internal/pipeline"
)

// EventsSSE handles GET /api/events, a Server-Sent Events stream of run
// progress. A run_state snapshot is sent on connect so clients can resync.
func EventsSSE(hub *pipeline.Hub, src StatusSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			slog.Error("SSE not supported: response writer does not implement http.Flusher")
			httputil.Error(w, http.StatusInternalServerError, config.ErrorStatusUnavailable, "streaming not supported")
			return
		}
		if hub == nil {
			httputil.Error(w, http.StatusServiceUnavailable, config.ErrorStatusUnavailable, "event stream disabled")
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		ch := hub.Subscribe()
		defer func() {
			hub.Unsubscribe(ch)
			slog.Info("SSE client disconnected",
				"remoteAddr", r.RemoteAddr,
			)
		}()

		slog.Info("SSE client connected",
			"remoteAddr", r.RemoteAddr,
			"totalClients", hub.ClientCount(),
		)

		if src != nil {
			writeEvent(w, pipeline.Event{Type: pipeline.EventRunState, Data: src.Summary()})
			flusher.Flush()
		}

		keepAlive := time.NewTicker(config.SSEKeepAliveInterval)
		defer keepAlive.Stop()

		for {
			select {
			case event, ok := <-ch:
				if !ok {
					slog.Info("SSE channel closed, ending stream",
						"remoteAddr", r.RemoteAddr,
					)
					return
				}
				writeEvent(w, event)
				flusher.Flush()

			case <-keepAlive.C:
				fmt.Fprint(w, ": keepalive\n\n")
				flusher.Flush()

			case <-r.Context().Done():
				slog.Debug("SSE client context done",
					"remoteAddr", r.RemoteAddr,
					"reason", r.Context().Err(),
				)
				return
			}
		}
	}
}

func writeEvent(w http.ResponseWriter, event pipeline.Event) {
	data, err := json.Marshal(event.Data)
	if err != nil {
		slog.Error("failed to marshal SSE event data",
			"type", event.Type,
			"error", err,
		)
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, data)
}
