// Package notestore persists free-text notes as markdown files named by the
// note id.
package notestore

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/starford/shelf/internal/models"
	"github.com/starford/shelf/internal/records"
	"github.com/starford/shelf/internal/storage"
)

// Kind names the note collection.
const Kind = "notes"

// Store is the note repository.
type Store struct {
	*records.Store[models.Note]
}

// New creates a note store over files.
func New(files storage.Provider, logger *slog.Logger) *Store {
	return &Store{Store: records.New[models.Note](Kind, files, Codec{}, logger)}
}

// List returns every note, most recently updated first.
func (s *Store) List() ([]models.Note, error) {
	notes, err := s.Store.List()
	if err != nil {
		return nil, err
	}
	SortByUpdated(notes)
	return notes, nil
}

// SortByUpdated orders notes by UpdatedAt descending, then by id.
func SortByUpdated(notes []models.Note) {
	sort.SliceStable(notes, func(i, j int) bool {
		if notes[i].UpdatedAt != notes[j].UpdatedAt {
			return notes[i].UpdatedAt > notes[j].UpdatedAt
		}
		return notes[i].ID < notes[j].ID
	})
}

// Import reads an external text file and saves it as a new note.
func (s *Store) Import(path string) (models.Note, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Note{}, fmt.Errorf("notes: import: %w", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return models.Note{}, fmt.Errorf("notes: import: %w", err)
	}
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	n := FromText(base, string(data), info.ModTime().UnixMilli())
	if err := s.Save(n); err != nil {
		return models.Note{}, err
	}
	return n, nil
}

// UntitledImport titles an imported note that has neither a heading nor a
// usable file name.
const UntitledImport = "Imported note"

// FromText builds a new note from imported text. A leading "# " heading
// becomes the title; otherwise fallbackTitle is used and the whole text is
// the content. An empty heading also falls back to fallbackTitle, and an
// empty fallbackTitle to UntitledImport. Both timestamps are set to ts.
func FromText(fallbackTitle, text string, ts int64) models.Note {
	fallbackTitle = strings.TrimSpace(fallbackTitle)
	if fallbackTitle == "" || fallbackTitle == "." {
		fallbackTitle = UntitledImport
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	n := models.Note{
		ID:        uuid.NewString(),
		Title:     fallbackTitle,
		Content:   strings.TrimSpace(text),
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	first, rest, _ := strings.Cut(text, "\n")
	if strings.HasPrefix(first, "# ") {
		if title := strings.TrimSpace(strings.TrimPrefix(first, "# ")); title != "" {
			n.Title = title
		}
		n.Content = strings.TrimSpace(rest)
	}
	return n
}
