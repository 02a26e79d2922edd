package index

import (
	"fmt"
	"log/slog"

	"github.com/starford/shelf/internal/models"
	"github.com/starford/shelf/internal/notestore"
	"github.com/starford/shelf/internal/storage"
	"github.com/starford/shelf/internal/workstore"
)

// Source is one record directory feeding the index.
type Source struct {
	Collection string
	Files      storage.Provider
}

// Sync brings the index up to date with every source:
//   - new/changed files are decoded and upserted
//   - ids whose files are gone are deleted from the index
//
// Files that cannot be decoded are logged and left out.
func Sync(db *DB, logger *slog.Logger, sources ...Source) error {
	for _, src := range sources {
		if err := syncSource(db, src, logger); err != nil {
			return err
		}
	}
	return nil
}

func syncSource(db *DB, src Source, logger *slog.Logger) error {
	metas, err := src.Files.List()
	if err != nil {
		return err
	}
	checksums, err := db.AllChecksums(src.Collection)
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		data, meta, err := src.Files.Load(m.Name)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("file", m.Name), slog.String("error", err.Error()))
			continue
		}
		if checksums[meta.ID] == meta.Checksum {
			disk[meta.ID] = struct{}{}
			continue
		}
		id, err := IndexFile(db, src.Collection, meta, data)
		if err != nil {
			logger.Warn("sync: index failed", slog.String("file", m.Name), slog.String("error", err.Error()))
			continue
		}
		disk[id] = struct{}{}
		logger.Debug("sync: indexed", slog.String("collection", src.Collection), slog.String("id", id))
	}

	for id := range checksums {
		if _, ok := disk[id]; ok {
			continue
		}
		if err := db.Delete(src.Collection, id); err != nil {
			logger.Warn("sync: delete failed", slog.String("id", id), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: removed stale", slog.String("collection", src.Collection), slog.String("id", id))
		}
	}
	return nil
}

// IndexFile decodes a record file of collection and upserts it. It returns
// the id of the indexed record; for works this is the id stored in the file,
// which may differ from the file name.
func IndexFile(db RecordIndex, collection string, meta models.FileMeta, data []byte) (string, error) {
	switch collection {
	case Works:
		w, err := workstore.Codec{}.Decode(meta, data)
		if err != nil {
			return "", err
		}
		return w.ID, db.UpsertWork(WorkRowOf(w, meta.Checksum), w.Description)
	case Notes:
		n, err := notestore.Codec{}.Decode(meta, data)
		if err != nil {
			return "", err
		}
		return n.ID, db.UpsertNote(NoteRowOf(n, meta.Checksum), n.Content)
	}
	return "", fmt.Errorf("index: unknown collection %q", collection)
}
