package source

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// StreamDocuments iterates over all documents in a SQLite corpus, calling fn
// for each (id, content) row. Only one document is alive at a time, keeping
// memory usage constant regardless of corpus size.
func StreamDocuments(dbPath string, fn func(id, content string) error) error {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	defer func() { _ = db.Close() }() // safe to ignore

	rows, err := db.Query("SELECT id, content FROM documents ORDER BY id")
	if err != nil {
		return fmt.Errorf("query documents: %w", err)
	}
	defer func() { _ = rows.Close() }() // safe to ignore

	for rows.Next() {
		var id, content string
		if err := rows.Scan(&id, &content); err != nil {
			return fmt.Errorf("scan row: %w", err)
		}
		if err := fn(id, content); err != nil {
			return err
		}
	}
	return rows.Err()
}

// CorpusWriter builds a document corpus database. Used by tooling and tests;
// the pipeline itself only reads.
type CorpusWriter struct {
	db   *sql.DB
	stmt *sql.Stmt
}

// NewCorpusWriter creates (or opens) a corpus database and prepares the
// documents table.
func NewCorpusWriter(dbPath string) (*CorpusWriter, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		content TEXT NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create documents table: %w", err)
	}
	stmt, err := db.Prepare("INSERT OR REPLACE INTO documents (id, content) VALUES (?, ?)")
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("prepare insert: %w", err)
	}
	return &CorpusWriter{db: db, stmt: stmt}, nil
}

// Add inserts or replaces one document.
func (w *CorpusWriter) Add(id, content string) error {
	if _, err := w.stmt.Exec(id, content); err != nil {
		return fmt.Errorf("insert document %s: %w", id, err)
	}
	return nil
}

// Close releases the prepared statement and the database handle.
func (w *CorpusWriter) Close() error {
	_ = w.stmt.Close()
	return w.db.Close()
}
