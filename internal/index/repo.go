package index

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/starford/shelf/internal/models"
)

// WorkRow is a row in the works table.
type WorkRow struct {
	ID         string
	Title      string
	OtherTitle string
	Type       string
	Status     string
	Checksum   string
}

// NoteRow is a row in the notes table.
type NoteRow struct {
	ID        string
	Title     string
	UpdatedAt int64
	Checksum  string
}

// SearchResult is one search hit.
type SearchResult struct {
	Collection string `json:"collection"`
	ID         string `json:"id"`
	Title      string `json:"title"`
	Snippet    string `json:"snippet"`
}

// WorkRowOf builds the index row for w.
func WorkRowOf(w models.Work, checksum string) WorkRow {
	row := WorkRow{
		ID:       w.ID,
		Title:    w.Title,
		Type:     string(w.Type),
		Status:   string(w.Status),
		Checksum: checksum,
	}
	if w.OtherTitle != nil {
		row.OtherTitle = *w.OtherTitle
	}
	return row
}

// NoteRowOf builds the index row for n.
func NoteRowOf(n models.Note, checksum string) NoteRow {
	return NoteRow{ID: n.ID, Title: n.Title, UpdatedAt: n.UpdatedAt, Checksum: checksum}
}

// UpsertWork inserts or replaces a work and its FTS entry.
func (db *DB) UpsertWork(w WorkRow, body string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.Exec(`
		INSERT INTO works (id, title, other_title, type, status, body, checksum)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title       = excluded.title,
			other_title = excluded.other_title,
			type        = excluded.type,
			status      = excluded.status,
			body        = excluded.body,
			checksum    = excluded.checksum
	`, w.ID, w.Title, w.OtherTitle, w.Type, w.Status, body, w.Checksum)
	if err != nil {
		return fmt.Errorf("index: upsert work: %w", err)
	}
	if err := ftsUpsert(tx, Works, w.ID, w.Title+" "+w.OtherTitle, body); err != nil {
		return err
	}
	return tx.Commit()
}

// UpsertNote inserts or replaces a note and its FTS entry.
func (db *DB) UpsertNote(n NoteRow, body string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.Exec(`
		INSERT INTO notes (id, title, body, updated_at, checksum)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title      = excluded.title,
			body       = excluded.body,
			updated_at = excluded.updated_at,
			checksum   = excluded.checksum
	`, n.ID, n.Title, body, n.UpdatedAt, n.Checksum)
	if err != nil {
		return fmt.Errorf("index: upsert note: %w", err)
	}
	if err := ftsUpsert(tx, Notes, n.ID, n.Title, body); err != nil {
		return err
	}
	return tx.Commit()
}

// Delete removes a record of collection and its FTS entry. Deleting an
// unindexed id succeeds.
func (db *DB) Delete(collection, id string) error {
	table, err := tableFor(collection)
	if err != nil {
		return err
	}
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, collection, id)
	if _, err := tx.Exec(`DELETE FROM `+table+` WHERE id = ?`, id); err != nil {
		return fmt.Errorf("index: delete %s: %w", collection, err)
	}
	return tx.Commit()
}

// Checksum returns the stored checksum of a record, or "" when the record is
// not indexed.
func (db *DB) Checksum(collection, id string) (string, error) {
	table, err := tableFor(collection)
	if err != nil {
		return "", err
	}
	var cs string
	err = db.conn.QueryRow(`SELECT checksum FROM `+table+` WHERE id = ?`, id).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: checksum: %w", err)
	}
	return cs, nil
}

// AllChecksums maps every indexed id of collection to its checksum.
func (db *DB) AllChecksums(collection string) (map[string]string, error) {
	table, err := tableFor(collection)
	if err != nil {
		return nil, err
	}
	rows, err := db.conn.Query(`SELECT id, checksum FROM ` + table)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var id, cs string
		if err := rows.Scan(&id, &cs); err != nil {
			return nil, err
		}
		out[id] = cs
	}
	return out, rows.Err()
}

// Count returns the number of indexed records in collection.
func (db *DB) Count(collection string) (int, error) {
	table, err := tableFor(collection)
	if err != nil {
		return 0, err
	}
	var n int
	if err := db.conn.QueryRow(`SELECT count(*) FROM ` + table).Scan(&n); err != nil {
		return 0, fmt.Errorf("index: count: %w", err)
	}
	return n, nil
}
