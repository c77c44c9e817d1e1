// Package api exposes the inventory over JSON and server-sent events for a
// local presentation layer.
package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/erazemk/shramba/internal/config"
	"github.com/erazemk/shramba/internal/imaging"
	"github.com/erazemk/shramba/internal/inventory"
)

// Deps are the collaborators the API serves.
type Deps struct {
	Inventory *inventory.Coordinator
	Images    *imaging.Library
	Presets   config.Presets
	Log       zerolog.Logger

	// Heartbeat is the interval of keep-alive comments on event streams.
	Heartbeat time.Duration
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(d Deps) *mux.Router {
	if d.Heartbeat <= 0 {
		d.Heartbeat = 15 * time.Second
	}

	items := &ItemsHandler{Inv: d.Inventory, Images: d.Images, Icons: d.Presets.Icons}
	dashboard := &DashboardHandler{Inv: d.Inventory, Icons: d.Presets.Icons}
	catalog := &CatalogHandler{Inv: d.Inventory, Presets: d.Presets}
	images := &ImagesHandler{Images: d.Images}
	stream := &StreamHandler{Inv: d.Inventory, Icons: d.Presets.Icons, Heartbeat: d.Heartbeat}

	router := mux.NewRouter()
	router.Use(LoggingMiddleware(d.Log), RecoveryMiddleware)
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		jsonError(w, r, http.StatusNotFound, "not found")
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		jsonError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})

	router.HandleFunc("/api/health", catalog.Health).Methods(http.MethodGet)

	router.HandleFunc("/api/items", items.List).Methods(http.MethodGet)
	router.HandleFunc("/api/items", items.Create).Methods(http.MethodPost)
	router.HandleFunc("/api/items/{id:[0-9]+}", items.Get).Methods(http.MethodGet)
	router.HandleFunc("/api/items/{id:[0-9]+}", items.Update).Methods(http.MethodPut)
	router.HandleFunc("/api/items/{id:[0-9]+}", items.Delete).Methods(http.MethodDelete)
	router.HandleFunc("/api/items/{id:[0-9]+}/image", items.Image).Methods(http.MethodGet)

	router.HandleFunc("/api/images", images.Upload).Methods(http.MethodPost)

	router.HandleFunc("/api/search", dashboard.Search).Methods(http.MethodGet)
	router.HandleFunc("/api/search", dashboard.SetSearch).Methods(http.MethodPut)
	router.HandleFunc("/api/dashboard", dashboard.Get).Methods(http.MethodGet)

	router.HandleFunc("/api/locations", catalog.Locations).Methods(http.MethodGet)
	router.HandleFunc("/api/categories", catalog.Categories).Methods(http.MethodGet)
	router.HandleFunc("/api/presets", catalog.Get).Methods(http.MethodGet)

	router.HandleFunc("/api/stream/{name:all|recent|expiring|stats|search}", stream.Serve).Methods(http.MethodGet)

	return router
}
