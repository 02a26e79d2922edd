package library

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/starford/shelf/internal/apperr"
	"github.com/starford/shelf/internal/checksum"
	"github.com/starford/shelf/internal/index"
	"github.com/starford/shelf/internal/models"
	"github.com/starford/shelf/internal/notestore"
)

// ListNotes returns every note, most recently updated first.
func (s *Service) ListNotes(_ context.Context) ([]models.Note, error) {
	return s.notes.List()
}

// GetNote loads a note by id.
func (s *Service) GetNote(_ context.Context, id string) (*NoteDetail, error) {
	data, meta, err := s.notes.Raw(id)
	if err != nil {
		return nil, err
	}
	n, err := notestore.Codec{}.Decode(meta, data)
	if err != nil {
		return nil, err
	}
	return &NoteDetail{Note: n, Checksum: meta.Checksum}, nil
}

// CreateNote stores a new note stamped with the current time.
func (s *Service) CreateNote(ctx context.Context, title, content string) (*NoteDetail, error) {
	now := models.NowMillis()
	n := models.Note{
		ID:        uuid.NewString(),
		Title:     strings.TrimSpace(title),
		Content:   strings.TrimSpace(content),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := n.Validate(); err != nil {
		return nil, invalid(err)
	}
	return s.writeNote(ctx, n, index.KindCreated)
}

// UpdateNote replaces the title and content of an existing note and
// refreshes UpdatedAt. A non-empty ifMatch must equal the current checksum.
func (s *Service) UpdateNote(ctx context.Context, id, title, content, ifMatch string) (*NoteDetail, error) {
	current, err := s.GetNote(ctx, id)
	if err != nil {
		return nil, err
	}
	if ifMatch != "" && strings.Trim(ifMatch, `"`) != current.Checksum {
		return nil, apperr.ErrConflict
	}
	n := current.Note
	n.Title = strings.TrimSpace(title)
	n.Content = strings.TrimSpace(content)
	n.UpdatedAt = models.NowMillis()
	if n.UpdatedAt < n.CreatedAt {
		n.UpdatedAt = n.CreatedAt
	}
	if err := n.Validate(); err != nil {
		return nil, invalid(err)
	}
	return s.writeNote(ctx, n, index.KindUpdated)
}

// SaveNote creates or replaces n exactly as given and reports whether it
// was new.
func (s *Service) SaveNote(ctx context.Context, n models.Note) (*NoteDetail, bool, error) {
	if strings.TrimSpace(n.ID) == "" {
		n.ID = uuid.NewString()
	}
	n.Title = strings.TrimSpace(n.Title)
	n.Content = strings.TrimSpace(n.Content)
	if err := n.Validate(); err != nil {
		return nil, false, invalid(err)
	}
	_, _, err := s.notes.Raw(n.ID)
	exists := err == nil
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return nil, false, err
	}
	kind := index.KindUpdated
	if !exists {
		kind = index.KindCreated
	}
	d, err := s.writeNote(ctx, n, kind)
	return d, !exists, err
}

// DeleteNote removes a note. Deleting an absent note succeeds.
func (s *Service) DeleteNote(_ context.Context, id string) error {
	_, _, err := s.notes.Raw(id)
	exists := err == nil
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return err
	}
	if err := s.notes.Delete(id); err != nil {
		return err
	}
	if !exists {
		return nil
	}
	s.unindex(index.Notes, id)
	if s.events != nil {
		s.events.PublishNoteEvent(index.KindDeleted, id)
	}
	return nil
}

// ImportNoteFile imports an external text file as a new note.
func (s *Service) ImportNoteFile(ctx context.Context, path string) (*NoteDetail, error) {
	n, err := s.notes.Import(path)
	if err != nil {
		return nil, err
	}
	return s.afterWriteNote(ctx, n, index.KindCreated), nil
}

// ImportNote imports uploaded text as a new note. filename provides the
// fallback title; modTime (ms) stamps both timestamps, or now when zero.
func (s *Service) ImportNote(ctx context.Context, filename string, data []byte, modTime int64) (*NoteDetail, error) {
	if modTime <= 0 {
		modTime = models.NowMillis()
	}
	base := filepath.Base(filename)
	n := notestore.FromText(strings.TrimSuffix(base, filepath.Ext(base)), string(data), modTime)
	d, err := s.writeNote(ctx, n, index.KindCreated)
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", filename, err)
	}
	return d, nil
}

func (s *Service) writeNote(ctx context.Context, n models.Note, kind string) (*NoteDetail, error) {
	if err := s.notes.Save(n); err != nil {
		return nil, err
	}
	return s.afterWriteNote(ctx, n, kind), nil
}

func (s *Service) afterWriteNote(_ context.Context, n models.Note, kind string) *NoteDetail {
	cs := checksum.Sum(notestore.Codec{}.Encode(n))
	if s.index != nil {
		if err := s.index.UpsertNote(index.NoteRowOf(n, cs), n.Content); err != nil {
			s.logger.Warn("library: index note failed", slog.String("id", n.ID), slog.String("error", err.Error()))
		}
	}
	if s.events != nil {
		s.events.PublishNoteEvent(kind, n.ID)
	}
	return &NoteDetail{Note: n, Checksum: cs}
}
