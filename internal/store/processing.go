package store

import (
	"database/sql"
	"fmt"
)

// FileNeedsProcessing reports whether a source file's content hash differs
// from the hash recorded on its last run. Files never seen before always
// need processing.
func (db *DB) FileNeedsProcessing(path, hash string) (bool, error) {
	var stored string
	err := db.conn.QueryRow(
		`SELECT file_hash FROM processing_log WHERE source_file = ?`, path,
	).Scan(&stored)
	if err == sql.ErrNoRows {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("store: file needs processing: %w", err)
	}
	return stored != hash, nil
}

// MarkFileProcessed records (or overwrites) the processed content hash for
// a source file.
func (db *DB) MarkFileProcessed(path, hash string) error {
	_, err := db.conn.Exec(`
		INSERT INTO processing_log (source_file, file_hash, processed_at)
		VALUES (?, ?, datetime('now'))
		ON CONFLICT(source_file) DO UPDATE SET
			file_hash    = excluded.file_hash,
			processed_at = excluded.processed_at
	`, path, hash)
	if err != nil {
		return fmt.Errorf("store: mark file processed: %w", err)
	}
	return nil
}
