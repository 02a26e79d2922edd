// Package library coordinates the work and note stores with the search index
// and change notifications.
package library

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/starford/shelf/internal/apperr"
	"github.com/starford/shelf/internal/checksum"
	"github.com/starford/shelf/internal/covers"
	"github.com/starford/shelf/internal/index"
	"github.com/starford/shelf/internal/models"
	"github.com/starford/shelf/internal/notestore"
	"github.com/starford/shelf/internal/records"
	"github.com/starford/shelf/internal/workstore"
)

// Publisher receives change notifications. *sse.Broker implements it.
type Publisher interface {
	PublishWorkEvent(kind, id string)
	PublishNoteEvent(kind, id string)
}

// WorkDetail is a work together with the checksum of its file.
type WorkDetail struct {
	models.Work
	Checksum string `json:"checksum"`
}

// NoteDetail is a note together with the checksum of its file.
type NoteDetail struct {
	models.Note
	Checksum string `json:"checksum"`
}

// ExportResult reports one export of both collections.
type ExportResult struct {
	Works *records.ExportReport `json:"works"`
	Notes *records.ExportReport `json:"notes"`
}

// Service is the application layer over the library.
type Service struct {
	works  *workstore.Store
	notes  *notestore.Store
	index  index.RecordIndex
	events Publisher
	covers *covers.Store
	logger *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithIndex keeps idx in step with every mutation and serves Search from it.
func WithIndex(idx index.RecordIndex) Option {
	return func(s *Service) { s.index = idx }
}

// WithPublisher sends change notifications to p.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.events = p }
}

// WithCovers lets the service remove cover files it replaced.
func WithCovers(c *covers.Store) Option {
	return func(s *Service) { s.covers = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService creates a library service over the two stores.
func NewService(works *workstore.Store, notes *notestore.Store, opts ...Option) *Service {
	s := &Service{works: works, notes: notes, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Works exposes the work store.
func (s *Service) Works() *workstore.Store { return s.works }

// Notes exposes the note store.
func (s *Service) Notes() *notestore.Store { return s.notes }

func invalid(err error) error {
	return fmt.Errorf("%w: %s", apperr.ErrValidation, err.Error())
}

// normalizeWork trims the fields the file format trims on read, so the
// returned value equals what a later read yields.
func normalizeWork(w *models.Work) {
	w.ID = strings.TrimSpace(w.ID)
	w.Title = strings.TrimSpace(w.Title)
	w.Description = strings.TrimSpace(w.Description)
}

// GetWork loads a work by id.
func (s *Service) GetWork(_ context.Context, id string) (*WorkDetail, error) {
	data, meta, err := s.works.Raw(id)
	if err != nil {
		return nil, err
	}
	w, err := workstore.Codec{}.Decode(meta, data)
	if err != nil {
		return nil, err
	}
	return &WorkDetail{Work: w, Checksum: meta.Checksum}, nil
}

// CreateWork stores a new work. An empty id is generated.
func (s *Service) CreateWork(ctx context.Context, w models.Work) (*WorkDetail, error) {
	if strings.TrimSpace(w.ID) == "" {
		w.ID = workstore.GenerateID()
	}
	normalizeWork(&w)
	if err := w.Validate(); err != nil {
		return nil, invalid(err)
	}
	exists, err := s.workExists(w.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("work %s: %w", w.ID, apperr.ErrAlreadyExists)
	}
	return s.writeWork(ctx, w, index.KindCreated)
}

// UpdateWork replaces an existing work. A non-empty ifMatch must equal the
// checksum of the current file.
func (s *Service) UpdateWork(ctx context.Context, id string, w models.Work, ifMatch string) (*WorkDetail, error) {
	w.ID = id
	normalizeWork(&w)
	if err := w.Validate(); err != nil {
		return nil, invalid(err)
	}
	current, _, err := s.works.Raw(w.ID)
	if err != nil {
		return nil, err
	}
	if ifMatch != "" && !checksum.Matches(current, ifMatch) {
		return nil, apperr.ErrConflict
	}
	return s.writeWork(ctx, w, index.KindUpdated)
}

// SaveWork creates or replaces a work and reports whether it was new.
func (s *Service) SaveWork(ctx context.Context, w models.Work) (*WorkDetail, bool, error) {
	if strings.TrimSpace(w.ID) == "" {
		w.ID = workstore.GenerateID()
	}
	normalizeWork(&w)
	if err := w.Validate(); err != nil {
		return nil, false, invalid(err)
	}
	exists, err := s.workExists(w.ID)
	if err != nil {
		return nil, false, err
	}
	kind := index.KindUpdated
	if !exists {
		kind = index.KindCreated
	}
	d, err := s.writeWork(ctx, w, kind)
	return d, !exists, err
}

// DeleteWork removes a work. Deleting an absent work succeeds.
func (s *Service) DeleteWork(_ context.Context, id string) error {
	exists, err := s.workExists(id)
	if err != nil {
		return err
	}
	if err := s.works.Delete(id); err != nil {
		return err
	}
	if !exists {
		return nil
	}
	s.unindex(index.Works, id)
	if s.events != nil {
		s.events.PublishWorkEvent(index.KindDeleted, id)
	}
	return nil
}

// SetCover points a work at a stored cover image. A previous cover kept in
// the covers directory is removed once the work is saved.
func (s *Service) SetCover(ctx context.Context, id string, c *covers.Cover) (*WorkDetail, error) {
	current, err := s.GetWork(ctx, id)
	if err != nil {
		return nil, err
	}
	w := current.Work
	old := deref(w.CoverPath)
	w.CoverPath = &c.Path
	d, err := s.writeWork(ctx, w, index.KindUpdated)
	if err != nil {
		return nil, err
	}
	if s.covers != nil && old != c.Path {
		if name, ok := s.covers.Owns(old); ok {
			if err := s.covers.Delete(name); err != nil {
				s.logger.Warn("library: remove old cover failed", slog.String("file", name), slog.String("error", err.Error()))
			}
		}
	}
	return d, nil
}

func (s *Service) workExists(id string) (bool, error) {
	_, _, err := s.works.Raw(id)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, apperr.ErrNotFound) {
		return false, nil
	}
	return false, err
}

func (s *Service) writeWork(_ context.Context, w models.Work, kind string) (*WorkDetail, error) {
	if err := s.works.Save(w); err != nil {
		return nil, err
	}
	cs := checksum.Sum(workstore.Codec{}.Encode(w))
	if s.index != nil {
		if err := s.index.UpsertWork(index.WorkRowOf(w, cs), w.Description); err != nil {
			s.logger.Warn("library: index work failed", slog.String("id", w.ID), slog.String("error", err.Error()))
		}
	}
	if s.events != nil {
		s.events.PublishWorkEvent(kind, w.ID)
	}
	return &WorkDetail{Work: w, Checksum: cs}, nil
}

func (s *Service) unindex(collection, id string) {
	if s.index == nil {
		return
	}
	if err := s.index.Delete(collection, id); err != nil {
		s.logger.Warn("library: unindex failed",
			slog.String("collection", collection),
			slog.String("id", id),
			slog.String("error", err.Error()))
	}
}

// Search looks up works and notes matching query. Without an index it
// falls back to a case-insensitive scan of both stores.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]index.SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	if s.index != nil {
		return s.index.Search(query, limit)
	}
	return s.scanSearch(ctx, query, limit)
}

func (s *Service) scanSearch(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	q := strings.ToLower(query)
	var out []index.SearchResult

	works, err := s.works.List()
	if err != nil {
		return nil, err
	}
	SortWorks(works, SortTitle)
	for _, w := range works {
		if len(out) >= limit {
			return out, nil
		}
		other := ""
		if w.OtherTitle != nil {
			other = *w.OtherTitle
		}
		if containsFold(w.Title, q) || containsFold(other, q) || containsFold(w.Description, q) {
			out = append(out, index.SearchResult{Collection: index.Works, ID: w.ID, Title: w.Title, Snippet: snippet(w.Description)})
		}
	}

	notes, err := s.notes.List()
	if err != nil {
		return nil, err
	}
	for _, n := range notes {
		if len(out) >= limit {
			break
		}
		if containsFold(n.Title, q) || containsFold(n.Content, q) {
			out = append(out, index.SearchResult{Collection: index.Notes, ID: n.ID, Title: n.Title, Snippet: snippet(n.Content)})
		}
	}
	return out, nil
}

func containsFold(s, lowerQuery string) bool {
	return strings.Contains(strings.ToLower(s), lowerQuery)
}

func snippet(s string) string {
	r := []rune(s)
	if len(r) > 200 {
		return string(r[:200])
	}
	return s
}

// Export copies both collections into fresh directories under destRoot.
func (s *Service) Export(_ context.Context, destRoot string) (*ExportResult, error) {
	wr, err := s.works.Export(destRoot)
	if err != nil {
		return nil, err
	}
	nr, err := s.notes.Export(destRoot)
	if err != nil {
		return &ExportResult{Works: wr}, err
	}
	return &ExportResult{Works: wr, Notes: nr}, nil
}
