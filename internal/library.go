package internal

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/lmittmann/tint"

	"github.com/starford/shelf/internal/covers"
	"github.com/starford/shelf/internal/dirs"
	"github.com/starford/shelf/internal/index"
	"github.com/starford/shelf/internal/library"
	"github.com/starford/shelf/internal/models"
	"github.com/starford/shelf/internal/notestore"
	"github.com/starford/shelf/internal/storage"
	"github.com/starford/shelf/internal/workstore"
)

// newLogger builds the JSON logger, or a tint console logger when the
// configured format is text.
func newLogger(cfg ApplicationConfig, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	if cfg.LogFormat == LogFormatText {
		return slog.New(tint.NewHandler(w, &tint.Options{
			Level:      cfg.LogLevel,
			TimeFormat: time.TimeOnly,
		}))
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
}

// stack is the library wired from configuration.
type stack struct {
	logger  *slog.Logger
	works   *workstore.Store
	notes   *notestore.Store
	covers  *covers.Store
	db      *index.DB
	sources []index.Source
	opts    []library.Option
}

func (s *stack) service(extra ...library.Option) *library.Service {
	opts := append(append([]library.Option{}, s.opts...), extra...)
	return library.NewService(s.works, s.notes, opts...)
}

func (s *stack) close() {
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Warn("close index failed", slog.String("error", err.Error()))
		}
	}
}

// setup resolves the store directories and, when withIndex is set, opens
// and syncs the search index.
func setup(opts []Option, withIndex bool) (*application, *stack, error) {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, nil, fmt.Errorf("config is required")
	}
	cfg := app.config

	logger := newLogger(cfg.App, app.logOutput)
	slog.SetDefault(logger)

	lib := cfg.Library
	works := workstore.New(storage.NewFS(
		dirs.NewResolver(workstore.Kind, lib.ExternalDir, lib.PrivateDir, logger), lib.Extension), logger)
	notes := notestore.New(storage.NewFS(
		dirs.NewResolver(notestore.Kind, lib.ExternalDir, lib.PrivateDir, logger), lib.Extension), logger)
	cs := covers.New(dirs.NewResolver(covers.DirName, lib.PrivateDir, "", logger), logger)

	st := &stack{
		logger: logger,
		works:  works,
		notes:  notes,
		covers: cs,
		sources: []index.Source{
			{Collection: index.Works, Files: works.Files()},
			{Collection: index.Notes, Files: notes.Files()},
		},
		opts: []library.Option{library.WithCovers(cs), library.WithLogger(logger)},
	}

	if !withIndex {
		return app, st, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.SQLite.Path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create index dir: %w", err)
	}
	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("init index: %w", err)
	}
	st.db = db
	st.opts = append(st.opts, library.WithIndex(db))

	if err := index.Sync(db, logger, st.sources...); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}
	return app, st, nil
}

// Export copies both collections into fresh directories under dest, or
// under the configured export directory when dest is empty.
func Export(ctx context.Context, dest string, opts ...Option) (*library.ExportResult, error) {
	app, st, err := setup(opts, false)
	if err != nil {
		return nil, err
	}
	if dest == "" {
		dest = app.config.Library.ExportDir
	}
	return st.service().Export(ctx, dest)
}

// Import stores each file as a new note.
func Import(ctx context.Context, paths []string, opts ...Option) ([]*library.NoteDetail, error) {
	_, st, err := setup(opts, true)
	if err != nil {
		return nil, err
	}
	defer st.close()

	svc := st.service()
	out := make([]*library.NoteDetail, 0, len(paths))
	for _, p := range paths {
		d, err := svc.ImportNoteFile(ctx, p)
		if err != nil {
			return out, err
		}
		out = append(out, d)
	}
	return out, nil
}

// List returns the works passing f in the given order.
func List(ctx context.Context, f library.Filter, order string, opts ...Option) ([]models.Work, error) {
	_, st, err := setup(opts, false)
	if err != nil {
		return nil, err
	}
	return st.service().ListWorks(ctx, f, order)
}
