package library

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/starford/shelf/internal/apperr"
	"github.com/starford/shelf/internal/dirs"
	"github.com/starford/shelf/internal/index"
	"github.com/starford/shelf/internal/models"
	"github.com/starford/shelf/internal/notestore"
	"github.com/starford/shelf/internal/storage"
	"github.com/starford/shelf/internal/workstore"
)

type fakePublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *fakePublisher) PublishWorkEvent(kind, id string) { p.add("work." + kind + ":" + id) }
func (p *fakePublisher) PublishNoteEvent(kind, id string) { p.add("note." + kind + ":" + id) }

func (p *fakePublisher) add(e string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *fakePublisher) list() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}

type env struct {
	svc *Service
	db  *index.DB
	pub *fakePublisher
}

func newEnv(t *testing.T) *env {
	t.Helper()
	root := t.TempDir()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	works := workstore.New(storage.NewFS(dirs.NewResolver(workstore.Kind, root, "", logger), storage.DefaultExt), logger)
	notes := notestore.New(storage.NewFS(dirs.NewResolver(notestore.Kind, root, "", logger), storage.DefaultExt), logger)
	db, err := index.Open(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	pub := &fakePublisher{}
	svc := NewService(works, notes, WithIndex(db), WithPublisher(pub), WithLogger(logger))
	return &env{svc: svc, db: db, pub: pub}
}

func work(id, title string, typ models.WorkType, status models.WorkStatus) models.Work {
	return models.Work{ID: id, Title: title, Type: typ, Status: status}
}

func TestCreateWork(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	d, err := e.svc.CreateWork(ctx, models.Work{Title: "  Dune  ", Description: "spice\n", Type: models.WorkTypeBook, Status: models.StatusRead})
	if err != nil {
		t.Fatalf("CreateWork: %v", err)
	}
	if d.ID == "" || d.Title != "Dune" || d.Checksum == "" {
		t.Errorf("detail = %+v", d)
	}

	got, err := e.svc.GetWork(ctx, d.ID)
	if err != nil {
		t.Fatalf("GetWork: %v", err)
	}
	if diff := cmp.Diff(d, got); diff != "" {
		t.Errorf("read back (-created +got):\n%s", diff)
	}

	if cs, _ := e.db.Checksum(index.Works, d.ID); cs != d.Checksum {
		t.Errorf("index checksum = %q, want %q", cs, d.Checksum)
	}
	if diff := cmp.Diff([]string{"work.created:" + d.ID}, e.pub.list()); diff != "" {
		t.Errorf("events (-want +got):\n%s", diff)
	}
}

func TestCreateWork_Conflicts(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, _ = e.svc.CreateWork(ctx, work("w1", "One", models.WorkTypeBook, models.StatusRead))
	_, err := e.svc.CreateWork(ctx, work("w1", "Again", models.WorkTypeBook, models.StatusRead))
	if !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("err = %v, want ErrAlreadyExists", err)
	}
}

func TestCreateWork_Validation(t *testing.T) {
	e := newEnv(t)
	tests := []struct {
		name string
		w    models.Work
	}{
		{"blank title", work("", "   ", models.WorkTypeBook, models.StatusRead)},
		{"bad type", work("", "x", "COMIC", models.StatusRead)},
		{"bad date", models.Work{Title: "x", Type: models.WorkTypeBook, Status: models.StatusRead, DateRead: models.Ptr("14.07.2023")}},
		{"negative chapters", models.Work{Title: "x", Type: models.WorkTypeBook, Status: models.StatusRead, Chapters: models.Ptr(-1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := e.svc.CreateWork(context.Background(), tt.w); !errors.Is(err, apperr.ErrValidation) {
				t.Errorf("err = %v, want ErrValidation", err)
			}
		})
	}
	works, _ := e.svc.Works().List()
	if len(works) != 0 {
		t.Errorf("invalid works were stored: %+v", works)
	}
}

func TestUpdateWork(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	created, _ := e.svc.CreateWork(ctx, work("w1", "Monster", models.WorkTypeManga, models.StatusReading))

	upd := created.Work
	upd.Status = models.StatusRead
	upd.Chapters = models.Ptr(162)
	d, err := e.svc.UpdateWork(ctx, "w1", upd, `"`+created.Checksum+`"`)
	if err != nil {
		t.Fatalf("UpdateWork: %v", err)
	}
	if d.Checksum == created.Checksum {
		t.Error("checksum did not change")
	}

	_, err = e.svc.UpdateWork(ctx, "w1", upd, created.Checksum)
	if !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("stale If-Match: err = %v, want ErrConflict", err)
	}

	_, err = e.svc.UpdateWork(ctx, "missing", upd, "")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing: err = %v, want ErrNotFound", err)
	}
}

func TestSaveWork_Upsert(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	w := work("w1", "Mushishi", models.WorkTypeAnime, models.StatusWatching)

	_, created, err := e.svc.SaveWork(ctx, w)
	if err != nil || !created {
		t.Fatalf("first save: created=%v err=%v", created, err)
	}
	w.Status = models.StatusWatched
	_, created, err = e.svc.SaveWork(ctx, w)
	if err != nil || created {
		t.Fatalf("second save: created=%v err=%v", created, err)
	}
	if diff := cmp.Diff([]string{"work.created:w1", "work.updated:w1"}, e.pub.list()); diff != "" {
		t.Errorf("events (-want +got):\n%s", diff)
	}
}

func TestDeleteWork(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, _ = e.svc.CreateWork(ctx, work("w1", "Gone", models.WorkTypeBook, models.StatusRead))

	if err := e.svc.DeleteWork(ctx, "w1"); err != nil {
		t.Fatalf("DeleteWork: %v", err)
	}
	if err := e.svc.DeleteWork(ctx, "w1"); err != nil {
		t.Fatalf("DeleteWork again: %v", err)
	}
	if _, err := e.svc.GetWork(ctx, "w1"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if cs, _ := e.db.Checksum(index.Works, "w1"); cs != "" {
		t.Error("deleted work still indexed")
	}
	if diff := cmp.Diff([]string{"work.created:w1", "work.deleted:w1"}, e.pub.list()); diff != "" {
		t.Errorf("events (-want +got):\n%s", diff)
	}
}

func TestListWorks_FilterAndSort(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	seed := []models.Work{
		{ID: "a", Title: "Akira", Type: models.WorkTypeManga, Status: models.StatusRead, Year: models.Ptr(1982), DateRead: models.Ptr("2021-01-10")},
		{ID: "b", Title: "berserk", Type: models.WorkTypeManga, Status: models.StatusReading, Year: models.Ptr(1989), OtherTitle: models.Ptr("ベルセルク; Berserk of Gluttony")},
		{ID: "c", Title: "Cowboy Bebop", Type: models.WorkTypeAnime, Status: models.StatusWatched, Year: models.Ptr(1998), DateRead: models.Ptr("2023-06-01")},
		{ID: "d", Title: "Dune", Type: models.WorkTypeBook, Status: models.StatusInPlans},
	}
	for _, w := range seed {
		if _, err := e.svc.CreateWork(ctx, w); err != nil {
			t.Fatal(err)
		}
	}

	ids := func(ws []models.Work) []string {
		var out []string
		for _, w := range ws {
			out = append(out, w.ID)
		}
		return out
	}

	tests := []struct {
		name   string
		filter Filter
		order  string
		want   []string
	}{
		{"all by title", Filter{}, "", []string{"a", "b", "c", "d"}},
		{"manga", Filter{Type: models.WorkTypeManga}, SortTitle, []string{"a", "b"}},
		{"status", Filter{Status: models.StatusWatched}, "", []string{"c"}},
		{"query title case-insensitive", Filter{Query: "BEBOP"}, "", []string{"c"}},
		{"query other title", Filter{Query: "gluttony"}, "", []string{"b"}},
		{"by year", Filter{}, SortYear, []string{"c", "b", "a", "d"}},
		{"by date read", Filter{}, SortDateRead, []string{"c", "a", "b", "d"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.svc.ListWorks(ctx, tt.filter, tt.order)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, ids(got)); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
		})
	}
}

func TestStats(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	for _, w := range []models.Work{
		work("1", "a", models.WorkTypeManga, models.StatusReading),
		work("2", "b", models.WorkTypeManga, models.StatusRead),
		work("3", "c", models.WorkTypeAnime, models.StatusWatching),
		work("4", "d", models.WorkTypeBook, models.StatusAbandoned),
	} {
		_, _ = e.svc.CreateWork(ctx, w)
	}
	_, _ = e.svc.CreateNote(ctx, "n", "")

	all, err := e.svc.Stats(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if all.Total != 4 || all.StatusTotal != 4 || all.Active != 2 || all.Completed != 1 || all.Notes != 1 {
		t.Errorf("stats = %+v", all)
	}
	if all.ByType[models.WorkTypeSeries] != 0 || all.ByType[models.WorkTypeManga] != 2 {
		t.Errorf("by type = %v", all.ByType)
	}

	manga, _ := e.svc.Stats(ctx, models.WorkTypeManga)
	if manga.Total != 4 || manga.StatusTotal != 2 || manga.ByStatus[models.StatusAbandoned] != 0 {
		t.Errorf("manga stats = %+v", manga)
	}
	if manga.ByType[models.WorkTypeAnime] != 1 {
		t.Error("type counts must ignore the type filter")
	}
}

func TestNotes_Lifecycle(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	d, err := e.svc.CreateNote(ctx, "Plan", "watch more films")
	if err != nil {
		t.Fatalf("CreateNote: %v", err)
	}
	if d.CreatedAt != d.UpdatedAt || d.CreatedAt == 0 {
		t.Errorf("timestamps = %d/%d", d.CreatedAt, d.UpdatedAt)
	}

	_, err = e.svc.UpdateNote(ctx, d.ID, "Plan", "new", "stale")
	if !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("err = %v, want ErrConflict", err)
	}
	upd, err := e.svc.UpdateNote(ctx, d.ID, "Plan v2", "watch more anime", d.Checksum)
	if err != nil {
		t.Fatalf("UpdateNote: %v", err)
	}
	if upd.CreatedAt != d.CreatedAt || upd.UpdatedAt < d.UpdatedAt {
		t.Errorf("timestamps after update = %d/%d", upd.CreatedAt, upd.UpdatedAt)
	}

	got, _ := e.svc.GetNote(ctx, d.ID)
	if diff := cmp.Diff(upd, got); diff != "" {
		t.Errorf("read back (-updated +got):\n%s", diff)
	}

	results, err := e.svc.Search(ctx, "anime", 10)
	if err != nil || len(results) != 1 || results[0].ID != d.ID {
		t.Errorf("search = %+v, %v", results, err)
	}

	if err := e.svc.DeleteNote(ctx, d.ID); err != nil {
		t.Fatalf("DeleteNote: %v", err)
	}
	notes, _ := e.svc.ListNotes(ctx)
	if len(notes) != 0 {
		t.Errorf("notes = %+v", notes)
	}
	want := []string{"note.created:" + d.ID, "note.updated:" + d.ID, "note.deleted:" + d.ID}
	if diff := cmp.Diff(want, e.pub.list()); diff != "" {
		t.Errorf("events (-want +got):\n%s", diff)
	}
}

func TestImportNote(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	d, err := e.svc.ImportNote(ctx, "trip.md", []byte("# My Trip\r\nDay one...\r\n"), 1690000000000)
	if err != nil {
		t.Fatalf("ImportNote: %v", err)
	}
	if d.Title != "My Trip" || d.Content != "Day one..." || d.CreatedAt != 1690000000000 {
		t.Errorf("note = %+v", d)
	}

	src := filepath.Join(t.TempDir(), "ideas.txt")
	_ = os.WriteFile(src, []byte("read more\n"), 0o644)
	f, err := e.svc.ImportNoteFile(ctx, src)
	if err != nil {
		t.Fatalf("ImportNoteFile: %v", err)
	}
	if f.Title != "ideas" {
		t.Errorf("title = %q", f.Title)
	}

	notes, _ := e.svc.ListNotes(ctx)
	if len(notes) != 2 {
		t.Errorf("len = %d, want 2", len(notes))
	}
	if n, _ := e.db.Count(index.Notes); n != 2 {
		t.Errorf("indexed = %d, want 2", n)
	}
}

func TestSearch_WithoutIndex(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, _ = e.svc.CreateWork(ctx, models.Work{ID: "w", Title: "Solaris", Type: models.WorkTypeBook, Status: models.StatusRead, Description: "ocean planet"})
	_, _ = e.svc.CreateNote(ctx, "Ocean reads", "list")

	plain := NewService(e.svc.Works(), e.svc.Notes())
	results, err := plain.Search(ctx, "OCEAN", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 || results[0].Collection != index.Works || results[1].Collection != index.Notes {
		t.Errorf("results = %+v", results)
	}
	limited, _ := plain.Search(ctx, "ocean", 1)
	if len(limited) != 1 {
		t.Errorf("limit ignored: %+v", limited)
	}
}

func TestExport(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, _ = e.svc.CreateWork(ctx, work("w", "W", models.WorkTypeBook, models.StatusRead))
	_, _ = e.svc.CreateNote(ctx, "N", "")

	res, err := e.svc.Export(ctx, t.TempDir())
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if res.Works.Copied != 1 || res.Notes.Copied != 1 {
		t.Errorf("result = %+v / %+v", res.Works, res.Notes)
	}
	if !strings.HasPrefix(filepath.Base(res.Works.Dir), "works-") || !strings.HasPrefix(filepath.Base(res.Notes.Dir), "notes-") {
		t.Errorf("dirs = %s, %s", res.Works.Dir, res.Notes.Dir)
	}
}
