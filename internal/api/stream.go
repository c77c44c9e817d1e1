package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/erazemk/shramba/internal/inventory"
	"github.com/erazemk/shramba/internal/live"
	"github.com/erazemk/shramba/internal/model"
)

// StreamHandler pushes live values to the client as server-sent events.
type StreamHandler struct {
	Inv       *inventory.Coordinator
	Icons     map[string]string
	Heartbeat time.Duration
}

// Serve handles GET /api/stream/{name}. Every snapshot of the named value is
// sent as one event until the client goes away.
func (h *StreamHandler) Serve(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	if name == "stats" {
		sub := h.Inv.WatchStats()
		defer sub.Cancel()
		pump(h, w, r, name, sub, func(st model.Stats) any { return st })
		return
	}

	var sub *live.Subscription[[]model.Item]
	switch name {
	case "all":
		sub = h.Inv.AllItems()
	case "recent":
		sub = h.Inv.RecentItems()
	case "expiring":
		sub = h.Inv.WatchExpiring()
	case "search":
		if q, ok := r.URL.Query()["q"]; ok {
			h.Inv.SetSearchQuery(q[0])
		}
		sub = h.Inv.WatchSearch()
	default:
		jsonError(w, r, http.StatusNotFound, "unknown stream")
		return
	}
	defer sub.Cancel()

	pump(h, w, r, name, sub, func(items []model.Item) any {
		return model.Annotate(items, h.Inv.Now(), h.Icons)
	})
}

// pump writes every snapshot of sub as an event named name. Comment lines
// are sent every heartbeat so idle connections stay open.
func pump[T any](h *StreamHandler, w http.ResponseWriter, r *http.Request, name string, sub *live.Subscription[T], render func(T) any) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		jsonError(w, r, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	heartbeat := time.NewTicker(h.Heartbeat)
	defer heartbeat.Stop()

	log := zerolog.Ctx(r.Context())
	for {
		select {
		case v, open := <-sub.C():
			if !open {
				return
			}
			data, err := json.Marshal(render(v))
			if err != nil {
				log.Error().Stack().Err(err).Str("stream", name).Msg("encoding event")
				return
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, data); err != nil {
				return
			}
			flusher.Flush()
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}
