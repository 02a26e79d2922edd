package dirs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolver_PrefersPreferred(t *testing.T) {
	pref, fb := t.TempDir(), t.TempDir()
	r := NewResolver("works", pref, fb, nil)
	got := r.Dir()
	if got != filepath.Join(pref, "works") {
		t.Errorf("dir = %q", got)
	}
	if info, err := os.Stat(got); err != nil || !info.IsDir() {
		t.Errorf("dir not created: %v", err)
	}
}

func TestResolver_FallsBack(t *testing.T) {
	fb := t.TempDir()
	// A regular file cannot host a subdirectory.
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	r := NewResolver("notes", blocker, fb, nil)
	if got := r.Dir(); got != filepath.Join(fb, "notes") {
		t.Errorf("dir = %q, want fallback", got)
	}
}

func TestResolver_EmptyPreferred(t *testing.T) {
	fb := t.TempDir()
	r := NewResolver("notes", "", fb, nil)
	if got := r.Dir(); got != filepath.Join(fb, "notes") {
		t.Errorf("dir = %q", got)
	}
}

func TestResolver_ResolvesOnce(t *testing.T) {
	pref := t.TempDir()
	r := NewResolver("works", pref, "", nil)
	first := r.Dir()
	if err := os.RemoveAll(first); err != nil {
		t.Fatal(err)
	}
	if second := r.Dir(); second != first {
		t.Errorf("dir changed: %q -> %q", first, second)
	}
	if _, err := os.Stat(first); !os.IsNotExist(err) {
		t.Error("second call should not recreate the directory")
	}
}

func TestResolver_NoFailurePath(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	_ = os.WriteFile(blocker, []byte("x"), 0o644)
	r := NewResolver("works", blocker, "", nil)
	if got := r.Dir(); got != filepath.Join(blocker, "works") {
		t.Errorf("dir = %q", got)
	}
}

func TestFixed(t *testing.T) {
	dir := t.TempDir()
	if got := Fixed(dir).Dir(); got != dir {
		t.Errorf("dir = %q, want %q", got, dir)
	}
}
