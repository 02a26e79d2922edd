package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"

	"github.com/starford/shelf/internal/checksum"
	"github.com/starford/shelf/internal/dirs"
	"github.com/starford/shelf/internal/models"
)

// DefaultExt is the record file extension used by both stores.
const DefaultExt = ".md"

// FS implements Provider backed by a single flat directory.
type FS struct {
	dirs *dirs.Resolver
	ext  string
}

// NewFS creates a provider whose directory is resolved lazily by r.
func NewFS(r *dirs.Resolver, ext string) *FS {
	if ext == "" {
		ext = DefaultExt
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return &FS{dirs: r, ext: ext}
}

// Dir returns the absolute store directory.
func (f *FS) Dir() string { return f.dirs.Dir() }

// Ext returns the record file extension.
func (f *FS) Ext() string { return f.ext }

// safePath resolves name inside the store directory and rejects anything
// that is not a plain file name.
func (f *FS) safePath(name string) (string, error) {
	if name == "" || name == "." || name == ".." {
		return "", fmt.Errorf("storage: invalid name %q", name)
	}
	if strings.ContainsAny(name, `/\`) || filepath.Base(name) != name {
		return "", fmt.Errorf("storage: name escapes store dir: %s", name)
	}
	return filepath.Join(f.Dir(), name), nil
}

// List returns metadata for every record file, ignoring subdirectories and
// files without the record extension. It only reads the directory, so an
// unreadable entry is still listed and fails later on Load.
func (f *FS) List() ([]models.FileMeta, error) {
	entries, err := os.ReadDir(f.Dir())
	if err != nil {
		return nil, fmt.Errorf("storage: list: %w", err)
	}
	out := make([]models.FileMeta, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), f.ext) {
			continue
		}
		meta := models.FileMeta{Name: e.Name(), ID: strings.TrimSuffix(e.Name(), f.ext)}
		info, err := e.Info()
		switch {
		case err == nil:
			meta.ModTime = info.ModTime()
		case errors.Is(err, os.ErrNotExist):
			// Vanished between ReadDir and Info.
			continue
		}
		out = append(out, meta)
	}
	return out, nil
}

// Read returns the raw bytes of a record file.
func (f *FS) Read(name string) ([]byte, error) {
	abs, err := f.safePath(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", name, err)
	}
	return data, nil
}

// Load reads name once and returns its content together with metadata,
// including the checksum of exactly those bytes.
func (f *FS) Load(name string) ([]byte, models.FileMeta, error) {
	abs, err := f.safePath(name)
	if err != nil {
		return nil, models.FileMeta{}, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, models.FileMeta{}, fmt.Errorf("storage: read %s: %w", name, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, models.FileMeta{}, fmt.Errorf("storage: stat %s: %w", name, err)
	}
	return data, models.FileMeta{
		Name:     name,
		ID:       strings.TrimSuffix(name, f.ext),
		Checksum: checksum.Sum(data),
		ModTime:  info.ModTime(),
	}, nil
}

// Write atomically replaces name: temp file, fsync, rename. The previous
// content stays in place when any step fails.
func (f *FS) Write(name string, content []byte) error {
	abs, err := f.safePath(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return fmt.Errorf("storage: mkdir: %w", err)
	}
	if err := atomic.WriteFile(abs, bytes.NewReader(content)); err != nil {
		return fmt.Errorf("storage: write %s: %w", name, err)
	}
	return nil
}

// Delete removes a record file. Removing a missing file succeeds.
func (f *FS) Delete(name string) error {
	abs, err := f.safePath(name)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("storage: delete %s: %w", name, err)
	}
	return nil
}

// CopyTo copies name byte for byte into dstDir under the same file name.
func (f *FS) CopyTo(name, dstDir string) error {
	abs, err := f.safePath(name)
	if err != nil {
		return err
	}
	src, err := os.Open(abs)
	if err != nil {
		return fmt.Errorf("storage: open %s: %w", name, err)
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(dstDir, name))
	if err != nil {
		return fmt.Errorf("storage: create copy of %s: %w", name, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return fmt.Errorf("storage: copy %s: %w", name, err)
	}
	if err := dst.Close(); err != nil {
		return fmt.Errorf("storage: close copy of %s: %w", name, err)
	}
	return nil
}
