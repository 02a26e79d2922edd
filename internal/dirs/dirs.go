// Package dirs resolves the backing directory of a record store.
package dirs

import (
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// Resolver picks a store directory once, on first use.
//
// The preferred root is the user-visible application area; the fallback is
// the private one. The first root under which <name> can be created wins.
// When both fail the fallback path is returned anyway and later file
// operations fail on their own.
type Resolver struct {
	name      string
	preferred string
	fallback  string
	logger    *slog.Logger

	once sync.Once
	dir  string
}

// NewResolver creates a resolver for the <name> subdirectory.
func NewResolver(name, preferred, fallback string, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{name: name, preferred: preferred, fallback: fallback, logger: logger}
}

// Fixed returns a resolver that always yields dir.
func Fixed(dir string) *Resolver {
	return NewResolver("", dir, "", nil)
}

// Dir returns the absolute store directory, creating it on first call.
func (r *Resolver) Dir() string {
	r.once.Do(func() {
		r.dir = r.resolve()
	})
	return r.dir
}

func (r *Resolver) resolve() string {
	var last string
	for _, root := range []string{r.preferred, r.fallback} {
		if root == "" {
			continue
		}
		dir := filepath.Join(root, r.name)
		if abs, err := filepath.Abs(dir); err == nil {
			dir = abs
		}
		last = dir
		if err := os.MkdirAll(dir, 0o755); err != nil {
			r.logger.Warn("dirs: create store dir failed",
				slog.String("dir", dir),
				slog.String("error", err.Error()))
			continue
		}
		return dir
	}
	return last
}
