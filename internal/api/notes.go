package api

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
)

// ListNotes handles GET /api/notes.
//
//	@Summary		List notes, most recently updated first
//	@Tags			notes
//	@Produce		json
//	@Success		200	{object}	NoteListResponse
//	@Security		BearerAuth
//	@Router			/notes [get]
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := h.svc.ListNotes(r.Context())
	if err != nil {
		writeError(w, "list notes", err)
		return
	}
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: notes, Total: len(notes)})
}

// GetNote handles GET /api/notes/{id}.
//
//	@Summary		Get a single note
//	@Tags			notes
//	@Produce		json
//	@Param			id	path		string	true	"Note id"
//	@Success		200	{object}	NoteDetail
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	d, err := h.svc.GetNote(r.Context(), id)
	if err != nil {
		writeError(w, "get note", err, slog.String("id", id))
		return
	}
	setETag(w, d.Checksum)
	writeJSON(w, http.StatusOK, d)
}

// CreateNote handles POST /api/notes.
//
//	@Summary		Create a new note
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		NoteRequest	true	"Note to create"
//	@Success		201		{object}	NoteDetail
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes [post]
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var req NoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	d, err := h.svc.CreateNote(r.Context(), req.Title, req.Content)
	if err != nil {
		writeError(w, "create note", err)
		return
	}
	setETag(w, d.Checksum)
	writeJSON(w, http.StatusCreated, d)
}

// UpdateNote handles PUT /api/notes/{id}.
//
//	@Summary		Update a note with optimistic concurrency
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			id			path		string		true	"Note id"
//	@Param			If-Match	header		string		false	"SHA-256 checksum for optimistic concurrency"
//	@Param			body		body		NoteRequest	true	"Updated note"
//	@Success		200			{object}	NoteDetail
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [put]
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req NoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	d, err := h.svc.UpdateNote(r.Context(), id, req.Title, req.Content, ifMatch(r))
	if err != nil {
		writeError(w, "update note", err, slog.String("id", id))
		return
	}
	setETag(w, d.Checksum)
	writeJSON(w, http.StatusOK, d)
}

// DeleteNote handles DELETE /api/notes/{id}.
//
//	@Summary		Delete a note
//	@Tags			notes
//	@Param			id	path	string	true	"Note id"
//	@Success		204	"Note deleted"
//	@Security		BearerAuth
//	@Router			/notes/{id} [delete]
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.DeleteNote(r.Context(), id); err != nil {
		writeError(w, "delete note", err, slog.String("id", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ImportNote handles POST /api/notes/import (multipart/form-data, field "file").
// A leading "# " line becomes the title; otherwise the file name is used.
// The optional "modTime" field (ms since epoch) stamps the note.
//
//	@Summary		Import a text file as a note
//	@Tags			notes
//	@Accept			mpfd
//	@Produce		json
//	@Param			file	formData	file	true	"Text file"
//	@Param			modTime	formData	int		false	"Last-modified time in ms"
//	@Success		201		{object}	NoteDetail
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/import [post]
func (h *Handler) ImportNote(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read file"))
		return
	}
	modTime := time.Now().UnixMilli()
	if raw := r.FormValue("modTime"); raw != "" {
		ms, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || ms < 0 {
			writeJSON(w, http.StatusBadRequest, errorBody("modTime must be milliseconds since epoch"))
			return
		}
		modTime = ms
	}

	d, err := h.svc.ImportNote(r.Context(), header.Filename, data, modTime)
	if err != nil {
		writeError(w, "import note", err, slog.String("file", header.Filename))
		return
	}
	setETag(w, d.Checksum)
	writeJSON(w, http.StatusCreated, d)
}
