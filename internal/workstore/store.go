// Package workstore persists catalogue works as markdown files, one file per
// work, named by the work id.
package workstore

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/starford/shelf/internal/models"
	"github.com/starford/shelf/internal/records"
	"github.com/starford/shelf/internal/storage"
)

// Kind names the work collection.
const Kind = "works"

// Store is the work repository.
type Store struct {
	*records.Store[models.Work]
}

// New creates a work store over files.
func New(files storage.Provider, logger *slog.Logger) *Store {
	return &Store{Store: records.New[models.Work](Kind, files, Codec{}, logger)}
}

// GenerateID returns a new random identifier for a record.
func GenerateID() string {
	return uuid.NewString()
}
