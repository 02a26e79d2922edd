package api

import (
	"fmt"

	"github.com/starford/shelf/internal/apperr"
	"github.com/starford/shelf/internal/covers"
	"github.com/starford/shelf/internal/index"
	"github.com/starford/shelf/internal/library"
	"github.com/starford/shelf/internal/models"
)

// WorkRequest is the request body for creating or replacing a work.
// DateReadInput and OtherTitlesText accept the form-style inputs and, when
// set, take precedence over dateRead and otherTitle.
type WorkRequest struct {
	models.Work
	DateReadInput   string `json:"dateReadInput,omitempty" example:"14072023"`
	OtherTitlesText string `json:"otherTitlesText,omitempty" example:"Shingeki no Kyojin\n進撃の巨人"`
}

// toWork applies the form-style inputs.
func (req WorkRequest) toWork() (models.Work, error) {
	w := req.Work
	if req.DateReadInput != "" {
		iso, err := library.ParseDateInput(req.DateReadInput)
		if err != nil {
			return w, fmt.Errorf("%w: dateReadInput: %s", apperr.ErrValidation, err.Error())
		}
		if iso != "" {
			w.DateRead = &iso
		}
	}
	if req.OtherTitlesText != "" {
		w.OtherTitle = library.JoinOtherTitles(req.OtherTitlesText)
	}
	return w, nil
}

// WorkDetail is the full work response type (aliased from the domain layer).
type WorkDetail = library.WorkDetail

// WorkListResponse wraps work listings.
type WorkListResponse struct {
	Works []models.Work `json:"works" validate:"required"`
	Total int           `json:"total" example:"42" validate:"required"`
}

// NoteRequest is the request body for creating or updating a note.
type NoteRequest struct {
	Title   string `json:"title" example:"Trip" validate:"required"`
	Content string `json:"content" example:"Packed bags"`
}

// NoteDetail is the full note response type (aliased from the domain layer).
type NoteDetail = library.NoteDetail

// NoteListResponse wraps note listings.
type NoteListResponse struct {
	Notes []models.Note `json:"notes" validate:"required"`
	Total int           `json:"total" example:"7" validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []index.SearchResult `json:"results" validate:"required"`
}

// CoverRequest sets a cover from a data URI or an http(s) URL.
type CoverRequest struct {
	Source   string `json:"source" example:"https://example.com/poster.jpg" validate:"required"`
	Filename string `json:"filename,omitempty" example:"poster.jpg"`
}

// CoverResponse is returned after a cover is stored and attached.
type CoverResponse struct {
	Cover *covers.Cover `json:"cover" validate:"required"`
	Work  *WorkDetail   `json:"work" validate:"required"`
}

// ExportResponse is the result of POST /export.
type ExportResponse = library.ExportResult
