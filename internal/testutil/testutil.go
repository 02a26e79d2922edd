// Package testutil provides shared test helpers for setting up libraries and databases.
package testutil

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/starford/shelf/internal/covers"
	"github.com/starford/shelf/internal/dirs"
	"github.com/starford/shelf/internal/index"
	"github.com/starford/shelf/internal/library"
	"github.com/starford/shelf/internal/notestore"
	"github.com/starford/shelf/internal/storage"
	"github.com/starford/shelf/internal/workstore"
)

// QuietLogger discards everything.
func QuietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// TestDB creates a temporary SQLite database that is automatically closed.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	db, err := index.Open(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// Library is a fully wired library rooted in a temp directory.
type Library struct {
	Root    string
	Works   *workstore.Store
	Notes   *notestore.Store
	Covers  *covers.Store
	DB      *index.DB
	Service *library.Service
}

// Sources returns the index sources for both stores.
func (l *Library) Sources() []index.Source {
	return []index.Source{
		{Collection: index.Works, Files: l.Works.Files()},
		{Collection: index.Notes, Files: l.Notes.Files()},
	}
}

// NewLibrary creates stores, a cover store and an index under a temp
// directory, and a service using all of them. opts are applied after the
// defaults.
func NewLibrary(t *testing.T, opts ...library.Option) *Library {
	t.Helper()
	root := t.TempDir()
	logger := QuietLogger()

	l := &Library{
		Root:   root,
		Works:  workstore.New(storage.NewFS(dirs.NewResolver(workstore.Kind, root, "", logger), storage.DefaultExt), logger),
		Notes:  notestore.New(storage.NewFS(dirs.NewResolver(notestore.Kind, root, "", logger), storage.DefaultExt), logger),
		Covers: covers.New(dirs.NewResolver(covers.DirName, root, "", logger), logger),
		DB:     TestDB(t),
	}
	all := append([]library.Option{
		library.WithIndex(l.DB),
		library.WithCovers(l.Covers),
		library.WithLogger(logger),
	}, opts...)
	l.Service = library.NewService(l.Works, l.Notes, all...)
	return l
}
