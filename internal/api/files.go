package api

import (
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"

	"github.com/mwestall/shopfront/internal/storage"
)

// FileHandler serves uploaded binaries from the gallery and hero
// directories. Traversal is rejected by the storage layer.
type FileHandler struct {
	galleryDir *storage.Dir
	heroDir    *storage.Dir
}

// NewFileHandler creates a handler over the two upload directories.
func NewFileHandler(galleryDir, heroDir *storage.Dir) *FileHandler {
	return &FileHandler{galleryDir: galleryDir, heroDir: heroDir}
}

// ServeGallery handles GET /uploads/gallery/{filename}.
func (h *FileHandler) ServeGallery(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.galleryDir)
}

// ServeHero handles GET /uploads/hero/{filename}.
func (h *FileHandler) ServeHero(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.heroDir)
}

func (h *FileHandler) serve(w http.ResponseWriter, r *http.Request, dir *storage.Dir) {
	filename := chi.URLParam(r, "filename")
	abs, err := dir.Resolve(filename)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid filename"))
		return
	}
	if _, statErr := os.Stat(abs); os.IsNotExist(statErr) {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	http.ServeFile(w, r, abs)
}
