//go:build sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS records_fts USING fts5(
			collection UNINDEXED,
			id UNINDEXED,
			title,
			body,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(tx *sql.Tx, collection, id, title, body string) error {
	ftsDelete(tx, collection, id)
	_, err := tx.Exec(`INSERT INTO records_fts (collection, id, title, body) VALUES (?, ?, ?, ?)`,
		collection, id, title, body)
	if err != nil {
		return fmt.Errorf("index: upsert fts: %w", err)
	}
	return nil
}

func ftsDelete(tx *sql.Tx, collection, id string) {
	_, _ = tx.Exec(`DELETE FROM records_fts WHERE collection = ? AND id = ?`, collection, id)
}

// Search performs an FTS5 full-text search over both collections and
// returns hits ranked by relevance, with snippets.
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT r.collection,
		       r.id,
		       coalesce(w.title, n.title, ''),
		       snippet(records_fts, 3, '<b>', '</b>', '...', 64)
		FROM records_fts r
		LEFT JOIN works w ON r.collection = 'works' AND w.id = r.id
		LEFT JOIN notes n ON r.collection = 'notes' AND n.id = r.id
		WHERE records_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.Collection, &r.ID, &r.Title, &r.Snippet); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
