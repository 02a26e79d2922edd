// Package covers stores cover images for works in the application-private
// covers directory.
package covers

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/natefinch/atomic"

	"github.com/starford/shelf/internal/dirs"
)

// DirName is the name of the covers directory.
const DirName = "covers"

// MaxSize is the largest accepted cover image.
const MaxSize = 10 << 20

var (
	allowedExtensions = map[string]bool{
		".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true,
	}

	mimeToExt = map[string]string{
		"image/png":  ".png",
		"image/jpeg": ".jpg",
		"image/gif":  ".gif",
		"image/webp": ".webp",
	}

	safeFilenameRe = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

	// ErrUnsupported is returned for content that is not an accepted image.
	ErrUnsupported = errors.New("covers: unsupported image")
	// ErrTooLarge is returned when an image exceeds MaxSize.
	ErrTooLarge = errors.New("covers: image too large")
)

// Cover describes a stored image.
type Cover struct {
	Filename string `json:"filename"`
	// Path is the absolute file path, stored in a work's cover field.
	Path string `json:"path"`
	URL  string `json:"url"`
	Size int64  `json:"size"`
}

// Store saves and serves cover images.
type Store struct {
	dirs      *dirs.Resolver
	client    *http.Client
	hostCheck func(host string) error
	logger    *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithHTTPClient sets the client used by Fetch.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Store) { s.client = c }
}

// WithHostCheck replaces the blocked-host check applied before every
// download and redirect.
func WithHostCheck(fn func(host string) error) Option {
	return func(s *Store) { s.hostCheck = fn }
}

// New creates a cover store whose directory is resolved by r.
func New(r *dirs.Resolver, logger *slog.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{dirs: r, hostCheck: CheckBlockedHost, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	if s.client == nil {
		s.client = newHTTPClient(s.hostCheck)
	}
	return s
}

// Dir returns the covers directory.
func (s *Store) Dir() string { return s.dirs.Dir() }

// Path resolves a stored cover by file name. Anything that is not a plain
// file name is rejected.
func (s *Store) Path(filename string) (string, error) {
	if filename == "" {
		return "", fmt.Errorf("covers: filename is required")
	}
	cleaned := filepath.Clean(filename)
	if cleaned != filepath.Base(cleaned) || strings.Contains(cleaned, "..") || strings.ContainsAny(cleaned, `/\`) {
		return "", fmt.Errorf("covers: invalid filename: %s", filename)
	}
	return filepath.Join(s.Dir(), cleaned), nil
}

// Save validates data as an image and writes it under a sanitised version
// of filename. An existing file is never overwritten; a clashing name gets
// a random suffix.
func (s *Store) Save(filename string, data []byte) (*Cover, error) {
	if len(data) > MaxSize {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrTooLarge, len(data), MaxSize)
	}
	name := SanitizeFilename(filename)
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		if detected := DetectExt(data); detected != "" {
			ext = detected
			name += ext
		}
	}
	if !allowedExtensions[ext] {
		return nil, fmt.Errorf("%w: extension %q (allowed: png, jpg, jpeg, gif, webp)", ErrUnsupported, ext)
	}
	if err := ValidateMagicBytes(data, ext); err != nil {
		return nil, err
	}

	abs, err := s.Path(name)
	if err != nil {
		return nil, err
	}
	if _, statErr := os.Stat(abs); statErr == nil {
		name = strings.TrimSuffix(name, filepath.Ext(name)) + "-" + uuid.NewString()[:8] + filepath.Ext(name)
		abs = filepath.Join(s.Dir(), name)
	}
	if err := atomic.WriteFile(abs, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("covers: write %s: %w", name, err)
	}
	s.logger.Debug("covers: saved", slog.String("file", name), slog.Int("size", len(data)))
	return &Cover{Filename: name, Path: abs, URL: "/covers/" + name, Size: int64(len(data))}, nil
}

// Delete removes a stored cover. Removing a missing file succeeds.
func (s *Store) Delete(filename string) error {
	abs, err := s.Path(filename)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("covers: delete %s: %w", filename, err)
	}
	return nil
}

// Owns reports whether path points into the covers directory and returns
// the file name.
func (s *Store) Owns(path string) (string, bool) {
	if path == "" {
		return "", false
	}
	if filepath.Dir(filepath.Clean(path)) != filepath.Clean(s.Dir()) {
		return "", false
	}
	return filepath.Base(path), true
}

// SanitizeFilename strips path components and unsafe characters.
func SanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	name = safeFilenameRe.ReplaceAllString(name, "_")
	if name == "" || name == "." || name == ".." || name == "/" {
		name = uuid.NewString()
	}
	return name
}

// DetectExt returns the image extension implied by the content, or "".
func DetectExt(data []byte) string {
	return mimeToExt[strings.Split(http.DetectContentType(data), ";")[0]]
}

// ValidateMagicBytes verifies that data matches the declared extension.
func ValidateMagicBytes(data []byte, ext string) error {
	detected := http.DetectContentType(data)
	got := mimeToExt[strings.Split(detected, ";")[0]]

	switch ext {
	case ".jpg", ".jpeg":
		if got != ".jpg" {
			return fmt.Errorf("%w: content does not match extension %s (detected: %s)", ErrUnsupported, ext, detected)
		}
	default:
		if got != ext {
			return fmt.Errorf("%w: content does not match extension %s (detected: %s)", ErrUnsupported, ext, detected)
		}
	}
	return nil
}
