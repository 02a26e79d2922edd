// Package records implements a directory of one-file-per-record markdown
// documents, shared by the work and note stores.
//
// Every read re-scans the directory; nothing is cached. Operations are plain
// sequences of file system calls with no locking, so a List racing a Save
// may observe either version of the file.
package records

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/starford/shelf/internal/apperr"
	"github.com/starford/shelf/internal/models"
	"github.com/starford/shelf/internal/storage"
)

// Codec maps one record type to and from file content.
type Codec[T any] interface {
	// Encode renders rec as a complete file.
	Encode(rec T) []byte
	// Decode parses a file. meta carries the file name and modification
	// time for fields derived from the file itself.
	Decode(meta models.FileMeta, data []byte) (T, error)
	// ID returns the identifier that names rec's file.
	ID(rec T) string
}

// Skipped describes a file that Scan could not turn into a record.
type Skipped struct {
	Name string `json:"name"`
	Err  error  `json:"-"`
}

// ScanResult is the outcome of reading a whole store directory.
type ScanResult[T any] struct {
	Records []T
	Skipped []Skipped
}

// ExportReport summarises an Export call.
type ExportReport struct {
	Dir    string   `json:"dir"`
	Copied int      `json:"copied"`
	Failed []string `json:"failed,omitempty"`
}

// Store persists records of type T as files.
type Store[T any] struct {
	kind   string
	files  storage.Provider
	codec  Codec[T]
	logger *slog.Logger
}

// New creates a store. kind names the collection in logs and export
// directories (e.g. "works").
func New[T any](kind string, files storage.Provider, codec Codec[T], logger *slog.Logger) *Store[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store[T]{kind: kind, files: files, codec: codec, logger: logger}
}

// Files exposes the underlying provider.
func (s *Store[T]) Files() storage.Provider { return s.files }

// Dir returns the store directory.
func (s *Store[T]) Dir() string { return s.files.Dir() }

// ValidateID rejects ids that cannot name a file inside the store directory.
func ValidateID(id string) error {
	if strings.TrimSpace(id) == "" || id == "." || id == ".." || strings.ContainsAny(id, "/\\\x00") {
		return fmt.Errorf("%w: %q", apperr.ErrInvalidID, id)
	}
	return nil
}

func (s *Store[T]) fileName(id string) string { return id + s.files.Ext() }

// Scan decodes every record file. Files that fail to read or decode are
// reported in Skipped; the error is non-nil only when the directory itself
// cannot be listed.
func (s *Store[T]) Scan() (*ScanResult[T], error) {
	metas, err := s.files.List()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.kind, err)
	}
	res := &ScanResult[T]{Records: make([]T, 0, len(metas))}
	for _, m := range metas {
		rec, err := s.load(m.Name)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			s.logger.Warn(s.kind+": skipping record file",
				slog.String("file", m.Name),
				slog.String("error", err.Error()))
			res.Skipped = append(res.Skipped, Skipped{Name: m.Name, Err: err})
			continue
		}
		res.Records = append(res.Records, rec)
	}
	return res, nil
}

// List returns every decodable record in no particular order.
func (s *Store[T]) List() ([]T, error) {
	res, err := s.Scan()
	if err != nil {
		return nil, err
	}
	return res.Records, nil
}

// Get loads a single record by id.
func (s *Store[T]) Get(id string) (T, error) {
	var zero T
	data, meta, err := s.Raw(id)
	if err != nil {
		return zero, err
	}
	rec, err := s.codec.Decode(meta, data)
	if err != nil {
		return zero, fmt.Errorf("%s: decode %s: %w", s.kind, meta.Name, err)
	}
	return rec, nil
}

// Raw returns the file content and metadata for id.
func (s *Store[T]) Raw(id string) ([]byte, models.FileMeta, error) {
	if err := ValidateID(id); err != nil {
		return nil, models.FileMeta{}, err
	}
	data, meta, err := s.files.Load(s.fileName(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, models.FileMeta{}, fmt.Errorf("%s: %s: %w", s.kind, id, apperr.ErrNotFound)
		}
		return nil, models.FileMeta{}, fmt.Errorf("%s: %w", s.kind, err)
	}
	return data, meta, nil
}

func (s *Store[T]) load(name string) (T, error) {
	var zero T
	data, meta, err := s.files.Load(name)
	if err != nil {
		return zero, fmt.Errorf("%s: %w", s.kind, err)
	}
	rec, err := s.codec.Decode(meta, data)
	if err != nil {
		return zero, fmt.Errorf("%s: decode %s: %w", s.kind, name, err)
	}
	return rec, nil
}

// Save writes rec to the file named by its id, replacing any previous
// version. Encoding happens in memory first so a failed write never leaves
// a partial file behind.
func (s *Store[T]) Save(rec T) error {
	id := s.codec.ID(rec)
	if err := ValidateID(id); err != nil {
		return err
	}
	if err := s.files.Write(s.fileName(id), s.codec.Encode(rec)); err != nil {
		return fmt.Errorf("%s: save %s: %w", s.kind, id, err)
	}
	return nil
}

// Delete removes the file for id. Deleting an absent record succeeds.
func (s *Store[T]) Delete(id string) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	if err := s.files.Delete(s.fileName(id)); err != nil {
		return fmt.Errorf("%s: delete %s: %w", s.kind, id, err)
	}
	return nil
}

// Export copies every record file verbatim into a new directory under
// destRoot and returns a report. Only failing to create the directory or to
// list the store is an error; individual copy failures are recorded and
// the export continues.
func (s *Store[T]) Export(destRoot string) (*ExportReport, error) {
	if err := os.MkdirAll(destRoot, 0o755); err != nil {
		return nil, fmt.Errorf("%s: export: create root: %w", s.kind, err)
	}
	dir, err := os.MkdirTemp(destRoot, s.kind+"-"+time.Now().Format("20060102-150405")+"-*")
	if err != nil {
		return nil, fmt.Errorf("%s: export: create dir: %w", s.kind, err)
	}
	// MkdirTemp creates the directory with mode 0700.
	if err := os.Chmod(dir, 0o755); err != nil {
		s.logger.Warn(s.kind+": export chmod failed",
			slog.String("dir", dir),
			slog.String("error", err.Error()))
	}

	metas, err := s.files.List()
	if err != nil {
		return nil, fmt.Errorf("%s: export: %w", s.kind, err)
	}
	report := &ExportReport{Dir: dir}
	for _, m := range metas {
		if err := s.files.CopyTo(m.Name, dir); err != nil {
			s.logger.Warn(s.kind+": export copy failed",
				slog.String("file", m.Name),
				slog.String("error", err.Error()))
			report.Failed = append(report.Failed, m.Name)
			continue
		}
		report.Copied++
	}
	s.logger.Info(s.kind+": exported",
		slog.String("dir", dir),
		slog.Int("copied", report.Copied),
		slog.Int("failed", len(report.Failed)))
	return report, nil
}
