package index

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/shelf/internal/dirs"
	"github.com/starford/shelf/internal/models"
	"github.com/starford/shelf/internal/notestore"
	"github.com/starford/shelf/internal/storage"
	"github.com/starford/shelf/internal/workstore"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

type testEnv struct {
	db     *DB
	works  *workstore.Store
	notes  *notestore.Store
	wdir   string
	ndir   string
	logger *slog.Logger
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	root := t.TempDir()
	logger := quietLogger()
	wfs := storage.NewFS(dirs.NewResolver(workstore.Kind, root, "", logger), storage.DefaultExt)
	nfs := storage.NewFS(dirs.NewResolver(notestore.Kind, root, "", logger), storage.DefaultExt)
	return &testEnv{
		db:     testDB(t),
		works:  workstore.New(wfs, logger),
		notes:  notestore.New(nfs, logger),
		wdir:   wfs.Dir(),
		ndir:   nfs.Dir(),
		logger: logger,
	}
}

func (e *testEnv) sources() []Source {
	return []Source{
		{Collection: Works, Files: e.works.Files()},
		{Collection: Notes, Files: e.notes.Files()},
	}
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	for _, table := range []string{"works", "notes"} {
		var count int
		if err := db.conn.QueryRow(`SELECT count(*) FROM ` + table).Scan(&count); err != nil {
			t.Fatalf("%s table missing: %v", table, err)
		}
	}
}

func TestUpsertAndChecksum(t *testing.T) {
	db := testDB(t)
	w := models.Work{ID: "w1", Title: "Berserk", Type: models.WorkTypeManga, Status: models.StatusReading}
	if err := db.UpsertWork(WorkRowOf(w, "abc"), "dark fantasy"); err != nil {
		t.Fatalf("UpsertWork: %v", err)
	}
	cs, err := db.Checksum(Works, "w1")
	if err != nil || cs != "abc" {
		t.Errorf("checksum = %q, %v", cs, err)
	}
	cs, err = db.Checksum(Notes, "w1")
	if err != nil || cs != "" {
		t.Errorf("work id leaked into notes: %q, %v", cs, err)
	}
}

func TestChecksum_NotFound(t *testing.T) {
	db := testDB(t)
	cs, err := db.Checksum(Works, "missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cs != "" {
		t.Errorf("expected empty checksum, got %q", cs)
	}
}

func TestUnknownCollection(t *testing.T) {
	db := testDB(t)
	if _, err := db.Checksum("films", "x"); err == nil {
		t.Error("expected error for unknown collection")
	}
	if err := db.Delete("films", "x"); err == nil {
		t.Error("expected error for unknown collection")
	}
}

func TestUpsertUpdatesExisting(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertNote(NoteRow{ID: "n", Title: "Old", UpdatedAt: 1, Checksum: "1"}, "old body")
	_ = db.UpsertNote(NoteRow{ID: "n", Title: "New", UpdatedAt: 2, Checksum: "2"}, "new body")

	cs, _ := db.Checksum(Notes, "n")
	if cs != "2" {
		t.Errorf("checksum = %q, want 2", cs)
	}
	n, _ := db.Count(Notes)
	if n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
	results, _ := db.Search("old body", 10)
	if len(results) != 0 {
		t.Errorf("stale body still searchable: %+v", results)
	}
}

func TestDelete(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertNote(NoteRow{ID: "del", Title: "Delete me", Checksum: "x"}, "body")
	if err := db.Delete(Notes, "del"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if cs, _ := db.Checksum(Notes, "del"); cs != "" {
		t.Errorf("deleted note still has checksum %q", cs)
	}
	if err := db.Delete(Notes, "del"); err != nil {
		t.Errorf("deleting twice: %v", err)
	}
}

func TestSearch_BothCollections(t *testing.T) {
	db := testDB(t)
	w := models.Work{ID: "w", Title: "Frieren", Type: models.WorkTypeAnime, Status: models.StatusWatched,
		OtherTitle: models.Ptr("Sousou no Frieren")}
	_ = db.UpsertWork(WorkRowOf(w, "1"), "an elf mage travels")
	_ = db.UpsertNote(NoteRow{ID: "n", Title: "Watchlist", Checksum: "2"}, "finish Frieren season two")

	results, err := db.Search("Frieren", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %+v, want 2", results)
	}
	got := map[string]string{}
	for _, r := range results {
		got[r.Collection] = r.ID
	}
	if got[Works] != "w" || got[Notes] != "n" {
		t.Errorf("results = %+v", results)
	}

	results, _ = db.Search("Sousou", 10)
	if len(results) != 1 || results[0].ID != "w" {
		t.Errorf("other title not searchable: %+v", results)
	}
}

func TestSync(t *testing.T) {
	e := newEnv(t)
	w := models.Work{ID: "w1", Title: "Dune", Type: models.WorkTypeBook, Status: models.StatusRead, Description: "spice"}
	_ = e.works.Save(w)
	_ = e.notes.Save(models.Note{ID: "n1", Title: "Reading list", Content: "more Herbert", CreatedAt: 1, UpdatedAt: 2})
	_ = os.WriteFile(filepath.Join(e.wdir, "junk.md"), []byte("no front matter"), 0o644)

	if err := Sync(e.db, e.logger, e.sources()...); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if n, _ := e.db.Count(Works); n != 1 {
		t.Errorf("works indexed = %d, want 1", n)
	}
	if n, _ := e.db.Count(Notes); n != 1 {
		t.Errorf("notes indexed = %d, want 1", n)
	}

	_ = e.works.Delete("w1")
	if err := Sync(e.db, e.logger, e.sources()...); err != nil {
		t.Fatalf("second Sync: %v", err)
	}
	if cs, _ := e.db.Checksum(Works, "w1"); cs != "" {
		t.Error("stale work not removed")
	}
	if cs, _ := e.db.Checksum(Notes, "n1"); cs == "" {
		t.Error("unchanged note dropped")
	}
}

func TestSync_UnreadableEntryDoesNotAbort(t *testing.T) {
	e := newEnv(t)
	_ = e.works.Save(models.Work{ID: "w1", Title: "Dune", Type: models.WorkTypeBook, Status: models.StatusRead})
	target := filepath.Join(t.TempDir(), "folder")
	_ = os.MkdirAll(target, 0o755)
	if err := os.Symlink(target, filepath.Join(e.wdir, "weird.md")); err != nil {
		t.Skipf("symlink: %v", err)
	}

	if err := Sync(e.db, e.logger, e.sources()...); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if n, _ := e.db.Count(Works); n != 1 {
		t.Errorf("works indexed = %d, want 1", n)
	}
}

func TestIndexFile_UnknownCollection(t *testing.T) {
	db := testDB(t)
	if _, err := IndexFile(db, "films", models.FileMeta{}, nil); err == nil {
		t.Error("expected error")
	}
}
