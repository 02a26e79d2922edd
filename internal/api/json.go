package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/starford/shelf/internal/apperr"
	"github.com/starford/shelf/internal/covers"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

type errResponse struct {
	Error string `json:"error" validate:"required"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}

// writeError maps a service error onto a status code. Unknown errors are
// logged under op and reported as 500.
func writeError(w http.ResponseWriter, op string, err error, attrs ...slog.Attr) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, apperr.ErrConflict):
		writeJSON(w, http.StatusConflict, errorBody("checksum mismatch"))
	case errors.Is(err, apperr.ErrAlreadyExists):
		writeJSON(w, http.StatusConflict, errorBody("already exists"))
	case errors.Is(err, apperr.ErrValidation), errors.Is(err, apperr.ErrInvalidID):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	case errors.Is(err, covers.ErrUnsupported):
		writeJSON(w, http.StatusUnsupportedMediaType, errorBody(err.Error()))
	case errors.Is(err, covers.ErrTooLarge):
		writeJSON(w, http.StatusRequestEntityTooLarge, errorBody(err.Error()))
	default:
		args := make([]any, 0, len(attrs)+1)
		for _, a := range attrs {
			args = append(args, a)
		}
		args = append(args, slog.String("error", err.Error()))
		slog.Error(op+" failed", args...)
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

// ifMatch reads the If-Match header without the ETag quotes.
func ifMatch(r *http.Request) string {
	return strings.Trim(strings.TrimSpace(r.Header.Get("If-Match")), `"`)
}

func setETag(w http.ResponseWriter, checksum string) {
	if checksum != "" {
		w.Header().Set("ETag", `"`+checksum+`"`)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return false
	}
	return true
}
