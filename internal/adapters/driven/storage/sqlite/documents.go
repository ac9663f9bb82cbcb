package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/reportrag/internal/core/domain"
	"github.com/custodia-labs/reportrag/internal/core/ports/driven"
)

const documentColumns = `id, company_id, file_name, file_hash, file_size, source, report_year, active,
	chunk_index_path, document_index_path, status, attempts, last_error, created_at, updated_at`

// documentStore implements driven.DocumentStore.
type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

// Save stores or updates a document record.
func (s *documentStore) Save(ctx context.Context, doc *domain.Document) error {
	if doc == nil || doc.ID == "" {
		return domain.ErrInvalidInput
	}

	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now
	if doc.Source == "" {
		doc.Source = domain.SourceManual
	}
	if doc.Status == "" {
		doc.Status = domain.StatusPending
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO documents (`+documentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			company_id = excluded.company_id,
			file_name = excluded.file_name,
			file_hash = excluded.file_hash,
			file_size = excluded.file_size,
			source = excluded.source,
			report_year = excluded.report_year,
			active = excluded.active,
			chunk_index_path = excluded.chunk_index_path,
			document_index_path = excluded.document_index_path,
			status = excluded.status,
			attempts = excluded.attempts,
			last_error = excluded.last_error,
			updated_at = excluded.updated_at
	`, doc.ID, doc.CompanyID, doc.FileName, doc.FileHash, doc.FileSize, string(doc.Source),
		nullInt(doc.ReportYear), doc.Active, doc.ChunkIndexPath, doc.DocumentIndexPath,
		string(doc.Status), doc.Attempts, doc.LastError, doc.CreatedAt.UTC(), doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// Get retrieves a document by ID.
func (s *documentStore) Get(ctx context.Context, id string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = ?`, id)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning document: %w", err)
	}
	return doc, nil
}

// GetByHash returns documents with the given content hash, oldest first.
func (s *documentStore) GetByHash(ctx context.Context, fileHash string) ([]domain.Document, error) {
	return s.query(ctx, `SELECT `+documentColumns+` FROM documents
		WHERE file_hash = ? ORDER BY created_at, id`, fileHash)
}

// List returns documents matching the filter, oldest first.
func (s *documentStore) List(ctx context.Context, filter domain.DocumentFilter) ([]domain.Document, error) {
	var where []string
	var args []any
	if filter.CompanyID != "" {
		where = append(where, "company_id = ?")
		args = append(args, filter.CompanyID)
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.ActiveOnly {
		where = append(where, "active = 1")
	}

	query := `SELECT ` + documentColumns + ` FROM documents`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	return s.query(ctx, query+" ORDER BY created_at, id", args...)
}

// UpdateStatus records an ingestion attempt outcome.
func (s *documentStore) UpdateStatus(
	ctx context.Context, id string, status domain.ProcessingStatus, attempts int, lastErr string,
) error {
	return s.exec(ctx, `UPDATE documents SET status = ?, attempts = ?, last_error = ?, updated_at = ?
		WHERE id = ?`, string(status), attempts, lastErr, time.Now().UTC(), id)
}

// UpdateIndex records index artifact paths and, when non-nil, the report year.
func (s *documentStore) UpdateIndex(
	ctx context.Context, id, chunkIndexPath, documentIndexPath string, reportYear *int,
) error {
	return s.exec(ctx, `UPDATE documents SET chunk_index_path = ?, document_index_path = ?,
		report_year = COALESCE(?, report_year), updated_at = ?
		WHERE id = ?`, chunkIndexPath, documentIndexPath, nullInt(reportYear), time.Now().UTC(), id)
}

// SetActive toggles the active flag.
func (s *documentStore) SetActive(ctx context.Context, id string, active bool) error {
	return s.exec(ctx, `UPDATE documents SET active = ?, updated_at = ? WHERE id = ?`,
		active, time.Now().UTC(), id)
}

// Delete removes a document record.
func (s *documentStore) Delete(ctx context.Context, id string) error {
	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	return nil
}

// exec runs an update and maps "no rows touched" to domain.ErrNotFound.
func (s *documentStore) exec(ctx context.Context, query string, args ...any) error {
	res, err := s.store.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating document: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *documentStore) query(ctx context.Context, query string, args ...any) ([]domain.Document, error) {
	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	docs := []domain.Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return docs, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (*domain.Document, error) {
	var doc domain.Document
	var source, status string
	var year sql.NullInt64
	var createdAt, updatedAt sql.NullTime
	if err := row.Scan(&doc.ID, &doc.CompanyID, &doc.FileName, &doc.FileHash, &doc.FileSize,
		&source, &year, &doc.Active, &doc.ChunkIndexPath, &doc.DocumentIndexPath,
		&status, &doc.Attempts, &doc.LastError, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	doc.Source = domain.DocumentSource(source)
	doc.Status = domain.ProcessingStatus(status)
	doc.ReportYear = intPtr(year)
	if createdAt.Valid {
		doc.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		doc.UpdatedAt = updatedAt.Time
	}
	return &doc, nil
}
