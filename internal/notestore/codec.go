package notestore

import (
	"errors"
	"strconv"

	"github.com/starford/shelf/internal/frontmatter"
	"github.com/starford/shelf/internal/models"
)

const (
	keyTitle     = "title"
	keyCreatedAt = "createdAt"
	keyUpdatedAt = "updatedAt"
)

// Codec maps notes to record files. The id is the file name without its
// extension and is never written into the file.
type Codec struct{}

// ID returns the note id.
func (Codec) ID(n models.Note) string { return n.ID }

// Encode renders n. Notes have no blank line between the block and the body.
func (Codec) Encode(n models.Note) []byte {
	return frontmatter.Encode([]frontmatter.Field{
		{Key: keyTitle, Value: n.Title},
		{Key: keyCreatedAt, Value: strconv.FormatInt(n.CreatedAt, 10)},
		{Key: keyUpdatedAt, Value: strconv.FormatInt(n.UpdatedAt, 10)},
	}, n.Content)
}

// Decode never rejects a note file. Without a usable block the whole text is
// the content; a missing title falls back to the id and missing timestamps to
// the file's modification time.
func (Codec) Decode(meta models.FileMeta, data []byte) (models.Note, error) {
	mtime := meta.ModTime.UnixMilli()
	n := models.Note{
		ID:        meta.ID,
		Title:     meta.ID,
		CreatedAt: mtime,
		UpdatedAt: mtime,
	}

	doc, err := frontmatter.Decode(data)
	switch {
	case errors.Is(err, frontmatter.ErrNoFrontmatter):
		n.Content = doc.Body
		return n, nil
	case errors.Is(err, frontmatter.ErrUnterminated):
		n.Content = string(data)
		return n, nil
	case err != nil:
		return models.Note{}, err
	}

	if t, ok := doc.String(keyTitle); ok && t != "" {
		n.Title = t
	}
	if v, ok := doc.Int64(keyCreatedAt); ok {
		n.CreatedAt = v
	}
	if v, ok := doc.Int64(keyUpdatedAt); ok {
		n.UpdatedAt = v
	}
	n.Content = doc.Body
	return n, nil
}
