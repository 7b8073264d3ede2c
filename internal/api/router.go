// Package api implements the Shopfront REST API using chi.
package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/mwestall/shopfront/internal/siteservice"
)

// NewRouter creates a chi router with all /api routes mounted. The read
// endpoints are public; the mutating endpoints authorize per request via
// the admin password in the body and sit behind a per-IP rate limit when
// requestsPerMinute is positive.
func NewRouter(svc *siteservice.Service, requestsPerMinute int) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()

	// Public reads.
	r.Get("/status", h.GetStatus)
	r.Get("/gallery", h.GetGallery)
	r.Get("/hero-background", h.GetHero)

	// Admin mutations.
	r.Group(func(r chi.Router) {
		if requestsPerMinute > 0 {
			r.Use(httprate.LimitByIP(requestsPerMinute, time.Minute))
		}
		r.Post("/status", h.SetStatus)
		r.Post("/gallery/upload", h.UploadGallery)
		r.Delete("/gallery/{filename}", h.DeleteGalleryImage)
		r.Post("/hero-background/upload", h.UploadHero)
		r.Delete("/hero-background", h.DeleteHero)
	})

	return r
}
