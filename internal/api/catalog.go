package api

import (
	"net/http"

	"github.com/erazemk/shramba/internal/config"
	"github.com/erazemk/shramba/internal/inventory"
	"github.com/erazemk/shramba/internal/model"
)

// CatalogHandler serves the values offered when adding or editing an item.
type CatalogHandler struct {
	Inv     *inventory.Coordinator
	Presets config.Presets
}

// Locations handles GET /api/locations: presets followed by every other
// location in use.
func (h *CatalogHandler) Locations(w http.ResponseWriter, r *http.Request) {
	inUse, err := h.Inv.Locations(r.Context())
	if err != nil {
		internalError(w, r, "failed to list locations", err)
		return
	}
	jsonResponse(w, r, http.StatusOK, model.Suggestions(h.Presets.Locations, inUse))
}

// Categories handles GET /api/categories.
func (h *CatalogHandler) Categories(w http.ResponseWriter, r *http.Request) {
	inUse, err := h.Inv.Categories(r.Context())
	if err != nil {
		internalError(w, r, "failed to list categories", err)
		return
	}
	jsonResponse(w, r, http.StatusOK, model.Suggestions(h.Presets.Categories, inUse))
}

// Get handles GET /api/presets.
func (h *CatalogHandler) Get(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, r, http.StatusOK, h.Presets)
}

// Health handles GET /api/health.
func (h *CatalogHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.Inv.Ping(r.Context()); err != nil {
		internalError(w, r, "database unavailable", err)
		return
	}
	jsonResponse(w, r, http.StatusOK, map[string]string{"status": "ok"})
}
