package index

// RecordIndex is the index surface used by the library service and the
// API. Consumers depend on it rather than *DB so tests can substitute it.
type RecordIndex interface {
	UpsertWork(w WorkRow, body string) error
	UpsertNote(n NoteRow, body string) error
	Delete(collection, id string) error
	Checksum(collection, id string) (string, error)
	AllChecksums(collection string) (map[string]string, error)
	Count(collection string) (int, error)
	Search(query string, limit int) ([]SearchResult, error)
	Close() error
}

var _ RecordIndex = (*DB)(nil)
