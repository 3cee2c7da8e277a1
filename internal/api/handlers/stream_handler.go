package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/alexmorales/GeoTolu/internal/domain/providers"
	"github.com/alexmorales/GeoTolu/internal/infrastructure/observability"
)

const heartbeatInterval = 30 * time.Second

// StreamHandler pushes newly logged search events to dashboards over
// Server-Sent Events.
type StreamHandler struct {
	bus       providers.EventBus
	heartbeat time.Duration
}

// NewStreamHandler creates a new stream handler
func NewStreamHandler(bus providers.EventBus) *StreamHandler {
	return &StreamHandler{bus: bus, heartbeat: heartbeatInterval}
}

// StreamSearchEvents handles GET /api/stats/stream
func (h *StreamHandler) StreamSearchEvents(w http.ResponseWriter, r *http.Request) {
	logger := observability.LoggerFromContext(r.Context())

	events, err := h.bus.Subscribe(r.Context())
	if err != nil {
		respondWithError(w, http.StatusServiceUnavailable, "event stream unavailable")
		return
	}

	rc := http.NewResponseController(w)
	// Streams outlive the server write timeout.
	_ = rc.SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if err := sendEvent(w, "connected", map[string]interface{}{"timestamp": time.Now()}); err != nil {
		return
	}
	if err := rc.Flush(); err != nil {
		logger.Warn().Err(err).Msg("streaming not supported by response writer")
		return
	}

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if err := sendEvent(w, "heartbeat", map[string]interface{}{"timestamp": time.Now()}); err != nil {
				return
			}
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := sendEvent(w, "search", event); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}

func sendEvent(w http.ResponseWriter, name string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, payload)
	return err
}
