package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/erazemk/shramba/internal/imaging"
	"github.com/erazemk/shramba/internal/inventory"
	"github.com/erazemk/shramba/internal/model"
)

// ItemsHandler handles item CRUD endpoints.
type ItemsHandler struct {
	Inv    *inventory.Coordinator
	Images *imaging.Library
	Icons  map[string]string
}

// groupView is a group of annotated items.
type groupView struct {
	Name  string           `json:"name"`
	Items []model.ItemView `json:"items"`
}

// List handles GET /api/items. Optional location and category parameters
// filter the list; group=location|category groups it.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	group := q.Get("group")
	if group != "" && group != model.GroupByLocation && group != model.GroupByCategory {
		jsonError(w, r, http.StatusBadRequest, "group must be location or category")
		return
	}

	items, err := h.Inv.Items(r.Context(), q.Get("location"), q.Get("category"))
	if err != nil {
		internalError(w, r, "failed to list items", err)
		return
	}

	now := h.Inv.Now()
	if group == "" {
		jsonResponse(w, r, http.StatusOK, model.Annotate(items, now, h.Icons))
		return
	}

	groups := []groupView{}
	for _, g := range model.GroupBy(items, group) {
		groups = append(groups, groupView{Name: g.Name, Items: model.Annotate(g.Items, now, h.Icons)})
	}
	jsonResponse(w, r, http.StatusOK, groups)
}

// Create handles POST /api/items.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var d model.Draft
	if err := decodeJSON(r, &d); err != nil {
		jsonError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.Inv.Create(r.Context(), d)
	if err != nil {
		mutationError(w, r, "failed to create item", err)
		return
	}

	w.Header().Set("Location", "/api/items/"+strconv.FormatInt(item.ID, 10))
	views := model.Annotate([]model.Item{*item}, h.Inv.Now(), h.Icons)
	jsonResponse(w, r, http.StatusCreated, views[0])
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, ok := h.load(w, r)
	if !ok {
		return
	}
	views := model.Annotate([]model.Item{*item}, h.Inv.Now(), h.Icons)
	jsonResponse(w, r, http.StatusOK, views[0])
}

// Update handles PUT /api/items/{id}. The body replaces every editable field.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	item, ok := h.load(w, r)
	if !ok {
		return
	}

	var d model.Draft
	if err := decodeJSON(r, &d); err != nil {
		jsonError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	updated := item.Apply(d)
	if err := h.Inv.Update(r.Context(), updated); err != nil {
		mutationError(w, r, "failed to update item", err)
		return
	}

	if item.ImagePath != "" && item.ImagePath != updated.ImagePath {
		h.removeImage(r, item.ImagePath)
	}
	jsonResponse(w, r, http.StatusOK, updated)
}

// Delete handles DELETE /api/items/{id}. Deleting a missing item succeeds.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	item, err := h.Inv.Get(r.Context(), id)
	if err != nil {
		internalError(w, r, "failed to get item", err)
		return
	}
	if item == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if err := h.Inv.Delete(r.Context(), *item); err != nil {
		internalError(w, r, "failed to delete item", err)
		return
	}
	if item.ImagePath != "" {
		h.removeImage(r, item.ImagePath)
	}
	w.WriteHeader(http.StatusNoContent)
}

// Image handles GET /api/items/{id}/image.
func (h *ItemsHandler) Image(w http.ResponseWriter, r *http.Request) {
	item, ok := h.load(w, r)
	if !ok {
		return
	}
	if item.ImagePath == "" || h.Images == nil {
		jsonError(w, r, http.StatusNotFound, "item has no image")
		return
	}

	f, err := h.Images.Open(item.ImagePath)
	if err != nil {
		jsonError(w, r, http.StatusNotFound, "image not found")
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		internalError(w, r, "failed to read image", err)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

// load fetches the item named in the path, writing the error reply itself.
func (h *ItemsHandler) load(w http.ResponseWriter, r *http.Request) (*model.Item, bool) {
	id, ok := itemID(w, r)
	if !ok {
		return nil, false
	}

	item, err := h.Inv.Get(r.Context(), id)
	if err != nil {
		internalError(w, r, "failed to get item", err)
		return nil, false
	}
	if item == nil {
		jsonError(w, r, http.StatusNotFound, "item not found")
		return nil, false
	}
	return item, true
}

func (h *ItemsHandler) removeImage(r *http.Request, path string) {
	if h.Images == nil {
		return
	}
	err := h.Images.Remove(path)
	if err != nil && !errors.Is(err, imaging.ErrOutsideLibrary) {
		zerolog.Ctx(r.Context()).Warn().Err(err).Str("path", path).Msg("removing image")
	}
}

func itemID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		jsonError(w, r, http.StatusBadRequest, "invalid item id")
		return 0, false
	}
	return id, true
}

// mutationError maps validation failures to 400 and everything else to 500.
func mutationError(w http.ResponseWriter, r *http.Request, message string, err error) {
	if errors.Is(err, inventory.ErrInvalidItem) {
		jsonError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	internalError(w, r, message, err)
}
