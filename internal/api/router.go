package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/shelf/internal/covers"
	"github.com/starford/shelf/internal/library"
)

// RouterConfig carries the settings NewRouter needs besides the service.
type RouterConfig struct {
	// AuthEnabled controls whether Bearer token auth is enforced.
	AuthEnabled bool
	Token       string
	// Events, if non-nil, is mounted at GET /events inside the auth group.
	Events http.Handler
	// Covers enables POST /works/{id}/cover when set.
	Covers *covers.Store
	// ExportDir is the destination root for POST /export.
	ExportDir string
}

// NewRouter creates a chi router with all API routes mounted.
func NewRouter(svc *library.Service, cfg RouterConfig) chi.Router {
	h := NewHandler(svc, cfg.Covers, cfg.ExportDir)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(cfg.AuthEnabled, cfg.Token))

	// Works CRUD.
	r.Get("/works", h.ListWorks)
	r.Post("/works", h.CreateWork)
	r.Get("/works/{id}", h.GetWork)
	r.Put("/works/{id}", h.UpdateWork)
	r.Delete("/works/{id}", h.DeleteWork)
	r.Post("/works/{id}/cover", h.SetCover)

	r.Get("/stats", h.Stats)

	// Notes CRUD.
	r.Get("/notes", h.ListNotes)
	r.Post("/notes", h.CreateNote)
	r.Post("/notes/import", h.ImportNote)
	r.Get("/notes/{id}", h.GetNote)
	r.Put("/notes/{id}", h.UpdateNote)
	r.Delete("/notes/{id}", h.DeleteNote)

	r.Get("/search", h.Search)
	r.Post("/export", h.Export)

	if cfg.Events != nil {
		r.Get("/events", cfg.Events.ServeHTTP)
	}

	return r
}
