package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/shelf/internal/covers"
)

const maxUploadBytes = covers.MaxSize + 1<<20

// SetCover handles POST /api/works/{id}/cover. A multipart request uploads
// the "file" field; a JSON request stores the image named by source.
//
//	@Summary		Attach a cover image to a work
//	@Tags			works
//	@Accept			mpfd,json
//	@Produce		json
//	@Param			id		path		string			true	"Work id"
//	@Param			file	formData	file			false	"Image file"
//	@Param			body	body		CoverRequest	false	"Data URI or URL"
//	@Success		200		{object}	CoverResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		415		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/works/{id}/cover [post]
func (h *Handler) SetCover(w http.ResponseWriter, r *http.Request) {
	if h.covers == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody("covers are not configured"))
		return
	}
	id := chi.URLParam(r, "id")
	if _, err := h.svc.GetWork(r.Context(), id); err != nil {
		writeError(w, "set cover", err, slog.String("id", id))
		return
	}

	var (
		cover *covers.Cover
		err   error
	)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		cover, err = h.uploadCover(w, r)
	} else {
		var req CoverRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.Source == "" {
			writeJSON(w, http.StatusBadRequest, errorBody("source is required"))
			return
		}
		cover, err = h.covers.SaveFrom(r.Context(), req.Source, req.Filename)
	}
	if err != nil {
		var reqErr badRequest
		if errors.As(err, &reqErr) {
			writeJSON(w, http.StatusBadRequest, errorBody(reqErr.Error()))
			return
		}
		if errors.Is(err, covers.ErrUnsupported) || errors.Is(err, covers.ErrTooLarge) {
			writeError(w, "set cover", err)
			return
		}
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	d, err := h.svc.SetCover(r.Context(), id, cover)
	if err != nil {
		_ = h.covers.Delete(cover.Filename)
		writeError(w, "set cover", err, slog.String("id", id))
		return
	}
	setETag(w, d.Checksum)
	writeJSON(w, http.StatusOK, CoverResponse{Cover: cover, Work: d})
}

type badRequest string

func (e badRequest) Error() string { return string(e) }

func (h *Handler) uploadCover(w http.ResponseWriter, r *http.Request) (*covers.Cover, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, badRequest("file too large or invalid multipart")
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, badRequest("missing 'file' field in multipart form")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, badRequest("failed to read file")
	}
	return h.covers.Save(header.Filename, data)
}

// CoverFiles serves stored cover images at GET /covers/{filename}.
type CoverFiles struct {
	store *covers.Store
}

// NewCoverFiles creates a file handler over the cover store.
func NewCoverFiles(store *covers.Store) *CoverFiles {
	return &CoverFiles{store: store}
}

// ServeFile handles GET /covers/{filename}.
func (c *CoverFiles) ServeFile(w http.ResponseWriter, r *http.Request) {
	abs, err := c.store.Path(chi.URLParam(r, "filename"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if _, statErr := os.Stat(abs); os.IsNotExist(statErr) {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, abs)
}
