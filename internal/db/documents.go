package db

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/jackc/pgx/v5"
)

// HashFile returns the hex SHA-256 of a file's contents.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// RegisterDocument inserts a document row. A duplicate file hash returns a
// ConflictError carrying the existing doc's ID so callers can report it.
func (db *DB) RegisterDocument(ctx context.Context, source, title, path, fileHash string, pageCount int) (*Document, error) {
	if fileHash != "" {
		var existing int
		err := db.pool.QueryRow(ctx,
			`SELECT doc_id FROM documents WHERE file_hash = $1`, fileHash,
		).Scan(&existing)
		if err == nil {
			return nil, &ConflictError{Entity: "document", Key: strconv.Itoa(existing)}
		}
		if err != pgx.ErrNoRows {
			return nil, fmt.Errorf("failed to check file hash: %w", err)
		}
	}

	var doc Document
	err := db.pool.QueryRow(ctx,
		`INSERT INTO documents (source, title, path, file_hash, page_count)
		 VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, 0))
		 RETURNING doc_id, source, title, path, file_hash, page_count, uploaded_at`,
		source, title, path, fileHash, pageCount,
	).Scan(&doc.DocID, &doc.Source, &doc.Title, &doc.Path, &doc.FileHash, &doc.PageCount, &doc.UploadedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to register document: %w", err)
	}
	return &doc, nil
}

// GetDocument retrieves a document by ID. Returns a NotFoundError when absent.
func (db *DB) GetDocument(ctx context.Context, docID int) (*Document, error) {
	var doc Document
	err := db.pool.QueryRow(ctx,
		`SELECT doc_id, source, title, path, file_hash, page_count, uploaded_at
		 FROM documents WHERE doc_id = $1`,
		docID,
	).Scan(&doc.DocID, &doc.Source, &doc.Title, &doc.Path, &doc.FileHash, &doc.PageCount, &doc.UploadedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, &NotFoundError{Entity: "document", Key: strconv.Itoa(docID)}
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return &doc, nil
}

// ListDocuments retrieves documents, newest first.
func (db *DB) ListDocuments(ctx context.Context, limit int) ([]Document, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.pool.Query(ctx,
		`SELECT doc_id, source, title, path, file_hash, page_count, uploaded_at
		 FROM documents ORDER BY uploaded_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var doc Document
		if err := rows.Scan(&doc.DocID, &doc.Source, &doc.Title, &doc.Path, &doc.FileHash, &doc.PageCount, &doc.UploadedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// BackfillFileHashes hashes documents registered before hash tracking existed.
// Files that no longer exist on disk are skipped. Returns the update count.
func (db *DB) BackfillFileHashes(ctx context.Context) (int, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT doc_id, path FROM documents WHERE file_hash IS NULL`)
	if err != nil {
		return 0, fmt.Errorf("failed to list unhashed documents: %w", err)
	}

	type pending struct {
		docID int
		path  string
	}
	var work []pending
	for rows.Next() {
		var p pending
		if err := rows.Scan(&p.docID, &p.path); err != nil {
			rows.Close()
			return 0, fmt.Errorf("failed to scan document: %w", err)
		}
		work = append(work, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	updated := 0
	for _, p := range work {
		hash, err := HashFile(p.path)
		if err != nil {
			continue
		}
		if _, err := db.pool.Exec(ctx,
			`UPDATE documents SET file_hash = $1 WHERE doc_id = $2`, hash, p.docID); err != nil {
			return updated, fmt.Errorf("failed to backfill doc %d: %w", p.docID, err)
		}
		updated++
	}
	return updated, nil
}

// CleanupDuplicateDocuments deletes documents sharing a file hash, keeping
// the earliest registration of each. Course mappings of the deleted rows go
// with them. Returns the number of documents removed.
func (db *DB) CleanupDuplicateDocuments(ctx context.Context) (int, error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin cleanup: %w", err)
	}
	defer tx.Rollback(ctx)

	const dupQuery = `
		SELECT doc_id FROM (
			SELECT doc_id,
			       ROW_NUMBER() OVER (PARTITION BY file_hash ORDER BY uploaded_at, doc_id) AS rn
			FROM documents
			WHERE file_hash IS NOT NULL
		) ranked
		WHERE rn > 1`

	if _, err := tx.Exec(ctx,
		`DELETE FROM doc_course_map WHERE doc_id IN (`+dupQuery+`)`); err != nil {
		return 0, fmt.Errorf("failed to delete duplicate mappings: %w", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM documents WHERE doc_id IN (`+dupQuery+`)`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete duplicate documents: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit cleanup: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
