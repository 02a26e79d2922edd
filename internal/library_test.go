package internal

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/shelf/internal/library"
	"github.com/starford/shelf/internal/models"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	root := t.TempDir()
	cfg := NewDefaultConfig()
	cfg.Library.ExternalDir = filepath.Join(root, "external")
	cfg.Library.PrivateDir = filepath.Join(root, "private")
	cfg.Library.ExportDir = filepath.Join(root, "exports")
	cfg.SQLite.Path = filepath.Join(root, "private", "index.db")
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	return cfg
}

func testOptions(cfg *Config) []Option {
	return []Option{WithConfig(cfg), WithLogOutput(io.Discard)}
}

func TestSetup_RequiresConfig(t *testing.T) {
	if _, _, err := setup(nil, false); err == nil {
		t.Error("expected error without config")
	}
}

func TestImportListExport(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	src := filepath.Join(t.TempDir(), "trip.txt")
	if err := os.WriteFile(src, []byte("# My Trip\nDay one."), 0o644); err != nil {
		t.Fatal(err)
	}
	notes, err := Import(ctx, []string{src}, testOptions(cfg)...)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if len(notes) != 1 || notes[0].Title != "My Trip" {
		t.Fatalf("notes = %+v", notes)
	}
	if _, err := os.Stat(filepath.Join(cfg.Library.ExternalDir, "notes", notes[0].ID+".md")); err != nil {
		t.Errorf("note not stored in the external notes dir: %v", err)
	}
	if _, err := os.Stat(cfg.SQLite.Path); err != nil {
		t.Errorf("index not created: %v", err)
	}

	if _, err := Import(ctx, []string{filepath.Join(t.TempDir(), "missing.txt")}, testOptions(cfg)...); err == nil {
		t.Error("importing a missing file should fail")
	}

	_, st, err := setup(testOptions(cfg), false)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := st.service().CreateWork(ctx, models.Work{Title: "Dune", Type: models.WorkTypeBook, Status: models.StatusRead}); err != nil {
		t.Fatal(err)
	}

	works, err := List(ctx, library.Filter{Type: models.WorkTypeBook}, library.SortTitle, testOptions(cfg)...)
	if err != nil || len(works) != 1 || works[0].Title != "Dune" {
		t.Errorf("List = %+v, %v", works, err)
	}

	res, err := Export(ctx, "", testOptions(cfg)...)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if res.Works.Copied != 1 || res.Notes.Copied != 1 {
		t.Errorf("export = %+v / %+v", res.Works, res.Notes)
	}
	if filepath.Dir(res.Works.Dir) != cfg.Library.ExportDir {
		t.Errorf("works exported to %q", res.Works.Dir)
	}
}

func TestNewLogger_Formats(t *testing.T) {
	var buf bytes.Buffer
	newLogger(ApplicationConfig{LogFormat: LogFormatJSON}, &buf).Info("hello")
	if !strings.HasPrefix(buf.String(), "{") {
		t.Errorf("json output = %q", buf.String())
	}

	buf.Reset()
	newLogger(ApplicationConfig{LogFormat: LogFormatText}, &buf).Info("hello")
	if strings.HasPrefix(buf.String(), "{") || !strings.Contains(buf.String(), "hello") {
		t.Errorf("text output = %q", buf.String())
	}
}
