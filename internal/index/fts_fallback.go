//go:build !sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
	"strings"
)

// likeEscaper makes LIKE wildcards in a user query match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

func initFTS(_ *sql.DB) error {
	// FTS5 not available; search uses LIKE over the body columns.
	return nil
}

func ftsUpsert(_ *sql.Tx, _, _, _, _ string) error { return nil }

func ftsDelete(_ *sql.Tx, _, _ string) {}

// Search performs a case-insensitive LIKE search over both collections
// (fallback when FTS5 is not compiled in). Works are listed before notes.
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	like := "%" + likeEscaper.Replace(query) + "%"
	rows, err := db.conn.Query(`
		SELECT collection, id, title, snippet FROM (
			SELECT 'works' AS collection, 0 AS ord, id, title, substr(body, 1, 200) AS snippet
			FROM works
			WHERE title LIKE ?1 ESCAPE '\' OR other_title LIKE ?1 ESCAPE '\' OR body LIKE ?1 ESCAPE '\'
			UNION ALL
			SELECT 'notes', 1, id, title, substr(body, 1, 200)
			FROM notes
			WHERE title LIKE ?1 ESCAPE '\' OR body LIKE ?1 ESCAPE '\'
		)
		ORDER BY ord, title COLLATE NOCASE
		LIMIT ?2
	`, like, limit)
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
