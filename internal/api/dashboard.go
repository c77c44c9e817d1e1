package api

import (
	"net/http"

	"github.com/erazemk/shramba/internal/inventory"
	"github.com/erazemk/shramba/internal/model"
)

// DashboardHandler serves the dashboard summary and search.
type DashboardHandler struct {
	Inv   *inventory.Coordinator
	Icons map[string]string
}

type dashboardResponse struct {
	Stats    model.Stats      `json:"stats"`
	Recent   []model.ItemView `json:"recent"`
	Expiring []model.ItemView `json:"expiring"`
}

// Get handles GET /api/dashboard.
func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	recent, err := h.Inv.Recent(r.Context())
	if err != nil {
		internalError(w, r, "failed to list recent items", err)
		return
	}

	now := h.Inv.Now()
	jsonResponse(w, r, http.StatusOK, dashboardResponse{
		Stats:    h.Inv.Stats(),
		Recent:   model.Annotate(recent, now, h.Icons),
		Expiring: model.Annotate(h.Inv.ExpiringItems(), now, h.Icons),
	})
}

// Search handles GET /api/search?q=. A blank query returns no items.
func (h *DashboardHandler) Search(w http.ResponseWriter, r *http.Request) {
	items, err := h.Inv.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		internalError(w, r, "failed to search items", err)
		return
	}
	jsonResponse(w, r, http.StatusOK, model.Annotate(items, h.Inv.Now(), h.Icons))
}

type searchRequest struct {
	Query string `json:"query"`
}

// SetSearch handles PUT /api/search, switching the query streamed on
// /api/stream/search.
func (h *DashboardHandler) SetSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	h.Inv.SetSearchQuery(req.Query)
	jsonResponse(w, r, http.StatusOK, req)
}
