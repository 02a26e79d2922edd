package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/shelf/internal/library"
	"github.com/starford/shelf/internal/models"
)

// ListWorks handles GET /api/works.
//
//	@Summary		List works with optional filtering and sorting
//	@Tags			works
//	@Produce		json
//	@Param			type	query		string	false	"Filter by type"	Enums(ANIME, BOOK, MANGA, SERIES)
//	@Param			status	query		string	false	"Filter by status"
//	@Param			q		query		string	false	"Match title or other titles"
//	@Param			sort	query		string	false	"Sort field"	Enums(title, year, dateRead)
//	@Success		200		{object}	WorkListResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/works [get]
func (h *Handler) ListWorks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var f library.Filter
	if raw := q.Get("type"); raw != "" {
		t, ok := models.ParseWorkType(raw)
		if !ok {
			writeJSON(w, http.StatusBadRequest, errorBody("unknown type: "+raw))
			return
		}
		f.Type = t
	}
	if raw := q.Get("status"); raw != "" {
		st, ok := models.ParseWorkStatus(raw)
		if !ok {
			writeJSON(w, http.StatusBadRequest, errorBody("unknown status: "+raw))
			return
		}
		f.Status = st
	}
	f.Query = q.Get("q")

	works, err := h.svc.ListWorks(r.Context(), f, q.Get("sort"))
	if err != nil {
		writeError(w, "list works", err)
		return
	}
	writeJSON(w, http.StatusOK, WorkListResponse{Works: works, Total: len(works)})
}

// GetWork handles GET /api/works/{id}.
//
//	@Summary		Get a single work
//	@Tags			works
//	@Produce		json
//	@Param			id	path		string	true	"Work id"
//	@Success		200	{object}	WorkDetail
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/works/{id} [get]
func (h *Handler) GetWork(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	d, err := h.svc.GetWork(r.Context(), id)
	if err != nil {
		writeError(w, "get work", err, slog.String("id", id))
		return
	}
	setETag(w, d.Checksum)
	writeJSON(w, http.StatusOK, d)
}

// CreateWork handles POST /api/works.
//
//	@Summary		Create a new work
//	@Tags			works
//	@Accept			json
//	@Produce		json
//	@Param			body	body		WorkRequest	true	"Work to create"
//	@Success		201		{object}	WorkDetail
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/works [post]
func (h *Handler) CreateWork(w http.ResponseWriter, r *http.Request) {
	var req WorkRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	work, err := req.toWork()
	if err != nil {
		writeError(w, "create work", err)
		return
	}
	d, err := h.svc.CreateWork(r.Context(), work)
	if err != nil {
		writeError(w, "create work", err, slog.String("id", work.ID))
		return
	}
	setETag(w, d.Checksum)
	writeJSON(w, http.StatusCreated, d)
}

// UpdateWork handles PUT /api/works/{id}.
//
//	@Summary		Replace a work with optimistic concurrency
//	@Tags			works
//	@Accept			json
//	@Produce		json
//	@Param			id			path		string		true	"Work id"
//	@Param			If-Match	header		string		false	"SHA-256 checksum for optimistic concurrency"
//	@Param			body		body		WorkRequest	true	"Updated work"
//	@Success		200			{object}	WorkDetail
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/works/{id} [put]
func (h *Handler) UpdateWork(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req WorkRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	work, err := req.toWork()
	if err != nil {
		writeError(w, "update work", err)
		return
	}
	d, err := h.svc.UpdateWork(r.Context(), id, work, ifMatch(r))
	if err != nil {
		writeError(w, "update work", err, slog.String("id", id))
		return
	}
	setETag(w, d.Checksum)
	writeJSON(w, http.StatusOK, d)
}

// DeleteWork handles DELETE /api/works/{id}.
//
//	@Summary		Delete a work
//	@Tags			works
//	@Param			id	path	string	true	"Work id"
//	@Success		204	"Work deleted"
//	@Security		BearerAuth
//	@Router			/works/{id} [delete]
func (h *Handler) DeleteWork(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.DeleteWork(r.Context(), id); err != nil {
		writeError(w, "delete work", err, slog.String("id", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
