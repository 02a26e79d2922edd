package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/starford/shelf/internal/covers"
	"github.com/starford/shelf/internal/index"
	"github.com/starford/shelf/internal/library"
	"github.com/starford/shelf/internal/models"
)

// Handler holds API route handlers.
type Handler struct {
	svc       *library.Service
	covers    *covers.Store
	exportDir string
}

// NewHandler creates a new Handler. cs may be nil, which disables cover
// uploads. exportDir is where POST /export writes.
func NewHandler(svc *library.Service, cs *covers.Store, exportDir string) *Handler {
	return &Handler{svc: svc, covers: cs, exportDir: exportDir}
}

// Stats handles GET /api/stats.
//
//	@Summary		Library statistics
//	@Tags			stats
//	@Produce		json
//	@Param			type	query		string	false	"Restrict the status breakdown to one type"	Enums(ANIME, BOOK, MANGA, SERIES)
//	@Success		200		{object}	library.Stats
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/stats [get]
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	var typeFilter models.WorkType
	if raw := r.URL.Query().Get("type"); raw != "" {
		t, ok := models.ParseWorkType(raw)
		if !ok {
			writeJSON(w, http.StatusBadRequest, errorBody("unknown type: "+raw))
			return
		}
		typeFilter = t
	}
	st, err := h.svc.Stats(r.Context(), typeFilter)
	if err != nil {
		writeError(w, "stats", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across works and notes
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		writeError(w, "search", err, slog.String("query", q))
		return
	}
	if results == nil {
		results = []index.SearchResult{}
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// Export handles POST /api/export.
//
//	@Summary		Copy both collections into fresh timestamped directories
//	@Tags			export
//	@Produce		json
//	@Success		200	{object}	ExportResponse
//	@Failure		503	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/export [post]
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	if h.exportDir == "" {
		writeJSON(w, http.StatusServiceUnavailable, errorBody("export directory is not configured"))
		return
	}
	res, err := h.svc.Export(r.Context(), h.exportDir)
	if err != nil {
		writeError(w, "export", err, slog.String("dest", h.exportDir))
		return
	}
	writeJSON(w, http.StatusOK, res)
}
