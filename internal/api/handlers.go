package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mwestall/shopfront/internal/apperr"
	"github.com/mwestall/shopfront/internal/checksum"
	"github.com/mwestall/shopfront/internal/siteservice"
	"github.com/mwestall/shopfront/internal/uploads"
)

// maxMultipartMemory bounds the in-memory portion of multipart parsing;
// larger parts spill to temp files.
const maxMultipartMemory = 4 << 20

// Handler holds the API route handlers.
type Handler struct {
	svc *siteservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *siteservice.Service) *Handler {
	return &Handler{svc: svc}
}

// writeErr maps the error taxonomy onto HTTP statuses. Internal failures
// are logged with detail but reported to the client without it.
func writeErr(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	default:
		slog.Error(op+" failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

// writeRecord writes a record response with an ETag and honors
// If-None-Match so pollers can skip unchanged bodies.
func writeRecord(w http.ResponseWriter, r *http.Request, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		slog.Error("record encode failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	etag := `"` + checksum.Sum(body) + `"`
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(append(body, '\n'))
}

// GetStatus handles GET /api/status.
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	rec, err := h.svc.Status(r.Context())
	if err != nil {
		writeErr(w, "get status", err)
		return
	}
	writeRecord(w, r, rec)
}

// SetStatus handles POST /api/status.
func (h *Handler) SetStatus(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req SetStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	if _, err := h.svc.SetStatus(r.Context(), req.Password, *req.Status, req.Notice); err != nil {
		writeErr(w, "set status", err)
		return
	}
	writeJSON(w, http.StatusOK, ackBody("status updated"))
}

// GetGallery handles GET /api/gallery.
func (h *Handler) GetGallery(w http.ResponseWriter, r *http.Request) {
	rec, err := h.svc.Gallery(r.Context())
	if err != nil {
		writeErr(w, "get gallery", err)
		return
	}
	writeRecord(w, r, rec)
}

// UploadGallery handles POST /api/gallery/upload (multipart form with a
// "password" field and up to ten "images" files).
func (h *Handler) UploadGallery(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, uploads.MaxGalleryBatch*uploads.MaxGalleryFileSize+(1<<20))
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid multipart form"))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	password := r.FormValue("password")
	files := formFiles(r.MultipartForm.File["images"])

	entries, err := h.svc.UploadGalleryImages(r.Context(), password, files)
	if err != nil {
		writeErr(w, "gallery upload", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "images uploaded",
		"images":  entries,
	})
}

// DeleteGalleryImage handles DELETE /api/gallery/{filename} with a JSON
// body carrying the password.
func (h *Handler) DeleteGalleryImage(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	var req PasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := h.svc.DeleteGalleryImage(r.Context(), req.Password, filename); err != nil {
		writeErr(w, "gallery delete", err)
		return
	}
	writeJSON(w, http.StatusOK, ackBody("image deleted"))
}

// GetHero handles GET /api/hero-background.
func (h *Handler) GetHero(w http.ResponseWriter, r *http.Request) {
	rec, err := h.svc.Hero(r.Context())
	if err != nil {
		writeErr(w, "get hero", err)
		return
	}
	writeRecord(w, r, rec)
}

// UploadHero handles POST /api/hero-background/upload (multipart form
// with a "password" field and one "heroImage" file).
func (h *Handler) UploadHero(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, uploads.MaxHeroFileSize+(1<<20))
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid multipart form"))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	password := r.FormValue("password")
	headers := r.MultipartForm.File["heroImage"]
	if len(headers) != 1 {
		writeJSON(w, http.StatusBadRequest, errorBody("exactly one heroImage file is required"))
		return
	}

	rec, err := h.svc.UploadHero(r.Context(), password, formFile(headers[0]))
	if err != nil {
		writeErr(w, "hero upload", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "hero background updated",
		"hero":    rec,
	})
}

// DeleteHero handles DELETE /api/hero-background.
func (h *Handler) DeleteHero(w http.ResponseWriter, r *http.Request) {
	var req PasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := h.svc.DeleteHero(r.Context(), req.Password); err != nil {
		writeErr(w, "hero delete", err)
		return
	}
	writeJSON(w, http.StatusOK, ackBody("hero background removed"))
}

// Health returns the /health handler. Uptime is reported in whole
// seconds and is never negative.
func Health(start time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		uptime := time.Since(start)
		if uptime < 0 {
			uptime = 0
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"uptime":    int64(uptime.Seconds()),
		})
	}
}

func formFiles(headers []*multipart.FileHeader) []siteservice.UploadFile {
	files := make([]siteservice.UploadFile, 0, len(headers))
	for _, fh := range headers {
		files = append(files, formFile(fh))
	}
	return files
}

func formFile(fh *multipart.FileHeader) siteservice.UploadFile {
	return siteservice.UploadFile{
		Name: fh.Filename,
		Mime: fh.Header.Get("Content-Type"),
		Size: fh.Size,
		Open: func() (io.ReadCloser, error) { return fh.Open() },
	}
}
