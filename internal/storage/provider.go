// Package storage defines the record directory abstraction.
package storage

import "github.com/starford/shelf/internal/models"

// Provider is the interface for record file operations. Names are plain file
// names inside the store directory.
type Provider interface {
	// Dir returns the absolute store directory.
	Dir() string
	// Ext returns the record file extension, including the dot.
	Ext() string
	// List returns name, id and modification time for every record file in
	// the directory. Checksums are left empty.
	List() ([]models.FileMeta, error)
	// Read returns the raw bytes of a record file.
	Read(name string) ([]byte, error)
	// Load returns the bytes of a record file and its metadata with the
	// checksum of those bytes.
	Load(name string) ([]byte, models.FileMeta, error)
	// Write atomically replaces the content of a record file.
	Write(name string, content []byte) error
	// Delete removes a record file. A missing file is not an error.
	Delete(name string) error
	// CopyTo copies a record file verbatim into dstDir.
	CopyTo(name, dstDir string) error
}
