package api

import (
	"errors"
	"net/http"

	"github.com/erazemk/shramba/internal/imaging"
)

// ImagesHandler accepts item photos.
type ImagesHandler struct {
	Images *imaging.Library
}

// Upload handles POST /api/images. The body is the raw image, or a multipart
// form with an "image" file field. The reply carries the path to store on the
// item.
func (h *ImagesHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if h.Images == nil {
		jsonError(w, r, http.StatusServiceUnavailable, "image storage disabled")
		return
	}

	body := r.Body
	if file, _, err := r.FormFile("image"); err == nil {
		defer file.Close()
		body = file
	} else if !errors.Is(err, http.ErrNotMultipart) {
		jsonError(w, r, http.StatusBadRequest, "invalid image upload")
		return
	}

	path, err := h.Images.Save(http.MaxBytesReader(w, body, imaging.MaxInputSize))
	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, imaging.ErrUnsupported), errors.Is(err, imaging.ErrInvalidImage):
		jsonError(w, r, http.StatusBadRequest, err.Error())
		return
	case errors.As(err, &tooLarge):
		jsonError(w, r, http.StatusRequestEntityTooLarge, "image too large")
		return
	case err != nil:
		internalError(w, r, "failed to store image", err)
		return
	}
	jsonResponse(w, r, http.StatusCreated, map[string]string{"image_path": path})
}
