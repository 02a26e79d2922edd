package index

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Change kinds reported to an EventCallback.
const (
	KindCreated = "created"
	KindUpdated = "updated"
	KindDeleted = "deleted"
)

// EventCallback is called after a watcher-driven index change.
type EventCallback func(collection, kind, id string)

// Watch starts an fsnotify watcher on every source directory and processes
// file change events until ctx is cancelled. It calls cb (if non-nil) after
// each index mutation that changed something; writes the index already
// reflects (such as saves made through the library service) are ignored.
//
// Rename events trigger a debounced reconciliation pass that removes stale
// index entries and indexes files the watcher missed.
func Watch(ctx context.Context, db *DB, logger *slog.Logger, cb EventCallback, sources ...Source) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	byDir := make(map[string]Source, len(sources))
	for _, src := range sources {
		dir := filepath.Clean(src.Files.Dir())
		if err := w.Add(dir); err != nil {
			return err
		}
		byDir[dir] = src
		logger.Info("watcher: started", slog.String("collection", src.Collection), slog.String("dir", dir))
	}

	notify := func(collection, kind, id string) {
		if cb != nil {
			cb(collection, kind, id)
		}
	}

	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time
	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(200 * time.Millisecond)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(200 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			for _, src := range sources {
				reconcile(db, src, logger, notify)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			src, found := byDir[filepath.Dir(ev.Name)]
			if !found {
				continue
			}
			name := filepath.Base(ev.Name)
			ext := src.Files.Ext()
			// Atomic-write temp files never carry the record extension.
			if !strings.HasSuffix(name, ext) {
				continue
			}
			id := strings.TrimSuffix(name, ext)

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				data, meta, readErr := src.Files.Load(name)
				if readErr != nil {
					// Gone again before we looked; the Remove event follows.
					if !errors.Is(readErr, os.ErrNotExist) {
						logger.Warn("watcher: read failed", slog.String("file", name), slog.String("error", readErr.Error()))
					}
					continue
				}
				existing, _ := db.Checksum(src.Collection, id)
				if existing == meta.Checksum {
					continue
				}
				indexed, idxErr := IndexFile(db, src.Collection, meta, data)
				if idxErr != nil {
					logger.Warn("watcher: index failed", slog.String("file", name), slog.String("error", idxErr.Error()))
					continue
				}
				kind := KindUpdated
				if existing == "" {
					kind = KindCreated
				}
				logger.Debug("watcher: indexed", slog.String("collection", src.Collection), slog.String("id", indexed), slog.String("op", kind))
				notify(src.Collection, kind, indexed)

			case ev.Op&fsnotify.Remove != 0:
				if !removeIndexed(db, src.Collection, id, logger) {
					continue
				}
				notify(src.Collection, KindDeleted, id)

			case ev.Op&fsnotify.Rename != 0:
				// fsnotify reports Rename on the old path only; the new path
				// arrives as a Create when it stays inside a watched dir.
				if removeIndexed(db, src.Collection, id, logger) {
					notify(src.Collection, KindDeleted, id)
				}
				scheduleReconcile()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// removeIndexed deletes id from the index and reports whether it was there.
func removeIndexed(db *DB, collection, id string, logger *slog.Logger) bool {
	cs, _ := db.Checksum(collection, id)
	if cs == "" {
		return false
	}
	if err := db.Delete(collection, id); err != nil {
		logger.Warn("watcher: delete failed", slog.String("id", id), slog.String("error", err.Error()))
		return false
	}
	logger.Debug("watcher: deleted", slog.String("collection", collection), slog.String("id", id))
	return true
}

// reconcile removes index entries without a file and indexes files whose
// checksum differs from the index.
func reconcile(db *DB, src Source, logger *slog.Logger, notify EventCallback) {
	checksums, err := db.AllChecksums(src.Collection)
	if err != nil {
		logger.Warn("reconcile: all checksums failed", slog.String("error", err.Error()))
		return
	}
	metas, err := src.Files.List()
	if err != nil {
		logger.Warn("reconcile: list failed", slog.String("error", err.Error()))
		return
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.ID] = struct{}{}
		data, meta, readErr := src.Files.Load(m.Name)
		if readErr != nil {
			continue
		}
		prev, known := checksums[meta.ID]
		if prev == meta.Checksum {
			continue
		}
		id, idxErr := IndexFile(db, src.Collection, meta, data)
		if idxErr != nil {
			continue
		}
		kind := KindUpdated
		if !known {
			kind = KindCreated
		}
		logger.Debug("reconcile: indexed", slog.String("collection", src.Collection), slog.String("id", id))
		notify(src.Collection, kind, id)
	}

	for id := range checksums {
		if _, ok := disk[id]; ok {
			continue
		}
		if delErr := db.Delete(src.Collection, id); delErr == nil {
			logger.Debug("reconcile: removed stale", slog.String("collection", src.Collection), slog.String("id", id))
			notify(src.Collection, KindDeleted, id)
		}
	}
}
