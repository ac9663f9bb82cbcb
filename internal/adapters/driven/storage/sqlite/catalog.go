package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/reportrag/internal/core/domain"
	"github.com/custodia-labs/reportrag/internal/core/ports/driven"
)

// ==================== Company Store ====================

// companyStore implements driven.CompanyStore.
type companyStore struct {
	store *Store
}

var _ driven.CompanyStore = (*companyStore)(nil)

// Save stores or updates a company.
func (s *companyStore) Save(ctx context.Context, company *domain.Company) error {
	if company == nil || company.ID == "" {
		return domain.ErrInvalidInput
	}
	if company.CreatedAt.IsZero() {
		company.CreatedAt = time.Now().UTC()
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO companies (id, name, active, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			active = excluded.active
	`, company.ID, company.Name, company.Active, company.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("saving company: %w", err)
	}
	return nil
}

// Get retrieves a company by ID.
func (s *companyStore) Get(ctx context.Context, id string) (*domain.Company, error) {
	row := s.store.db.QueryRowContext(ctx,
		`SELECT id, name, active, created_at FROM companies WHERE id = ?`, id)

	var c domain.Company
	var createdAt sql.NullTime
	if err := row.Scan(&c.ID, &c.Name, &c.Active, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning company: %w", err)
	}
	c.CreatedAt = createdAt.Time
	return &c, nil
}

// List returns companies ordered by name.
func (s *companyStore) List(ctx context.Context, activeOnly bool) ([]domain.Company, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, name, active, created_at FROM companies
		WHERE (? = 0 OR active = 1)
		ORDER BY name, id
	`, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("querying companies: %w", err)
	}
	defer rows.Close()

	companies := []domain.Company{}
	for rows.Next() {
		var c domain.Company
		var createdAt sql.NullTime
		if err := rows.Scan(&c.ID, &c.Name, &c.Active, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning company: %w", err)
		}
		c.CreatedAt = createdAt.Time
		companies = append(companies, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating companies: %w", err)
	}
	return companies, nil
}

// ==================== Query Store ====================

// queryStore implements driven.QueryStore.
type queryStore struct {
	store *Store
}

var _ driven.QueryStore = (*queryStore)(nil)

// Save stores or updates a query.
func (s *queryStore) Save(ctx context.Context, query *domain.Query) error {
	if query == nil || query.ID == "" {
		return domain.ErrInvalidInput
	}
	if query.CreatedAt.IsZero() {
		query.CreatedAt = time.Now().UTC()
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO queries (id, name, question, active, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			question = excluded.question,
			active = excluded.active
	`, query.ID, query.Name, query.Question, query.Active, query.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("saving query: %w", err)
	}
	return nil
}

// Get retrieves a query by ID.
func (s *queryStore) Get(ctx context.Context, id string) (*domain.Query, error) {
	row := s.store.db.QueryRowContext(ctx,
		`SELECT id, name, question, active, created_at FROM queries WHERE id = ?`, id)

	var q domain.Query
	var createdAt sql.NullTime
	if err := row.Scan(&q.ID, &q.Name, &q.Question, &q.Active, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning query: %w", err)
	}
	q.CreatedAt = createdAt.Time
	return &q, nil
}

// List returns queries ordered by name.
func (s *queryStore) List(ctx context.Context, activeOnly bool) ([]domain.Query, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, name, question, active, created_at FROM queries
		WHERE (? = 0 OR active = 1)
		ORDER BY name, id
	`, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("querying queries: %w", err)
	}
	defer rows.Close()

	queries := []domain.Query{}
	for rows.Next() {
		var q domain.Query
		var createdAt sql.NullTime
		if err := rows.Scan(&q.ID, &q.Name, &q.Question, &q.Active, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning query: %w", err)
		}
		q.CreatedAt = createdAt.Time
		queries = append(queries, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating queries: %w", err)
	}
	return queries, nil
}

// ==================== Evaluation Store ====================

// evaluationStore implements driven.EvaluationStore.
type evaluationStore struct {
	store *Store
}

var _ driven.EvaluationStore = (*evaluationStore)(nil)

// SaveAll stores all records in one transaction.
func (s *evaluationStore) SaveAll(ctx context.Context, records []domain.EvaluationRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO evaluation_records (id, evaluation_id, query_id, company_id, document_id,
			chunk_id, chunk_type, answer, report_year, confidence, similarity_score, refs,
			model_version, processing_time_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i := range records {
		r := &records[i]
		refs, err := json.Marshal(r.References)
		if err != nil {
			return fmt.Errorf("marshalling references: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, r.ID, r.EvaluationID, r.QueryID, r.CompanyID, r.DocumentID,
			r.ChunkID, string(r.ChunkType), r.Answer, nullInt(r.ReportYear), r.Confidence,
			r.SimilarityScore, string(refs), r.ModelVersion, r.ProcessingTimeMS, r.Timestamp.UTC()); err != nil {
			return fmt.Errorf("saving evaluation record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing evaluation records: %w", err)
	}
	return nil
}

// ListByQuery returns the records of one query and company, newest first.
func (s *evaluationStore) ListByQuery(ctx context.Context, companyID, queryID string) ([]domain.EvaluationRecord, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, evaluation_id, query_id, company_id, document_id, chunk_id, chunk_type, answer,
			report_year, confidence, similarity_score, refs, model_version, processing_time_ms, created_at
		FROM evaluation_records
		WHERE company_id = ? AND query_id = ?
		ORDER BY created_at DESC, rowid DESC
	`, companyID, queryID)
	if err != nil {
		return nil, fmt.Errorf("querying evaluation records: %w", err)
	}
	defer rows.Close()

	records := []domain.EvaluationRecord{}
	for rows.Next() {
		var r domain.EvaluationRecord
		var chunkType, refs string
		var year sql.NullInt64
		var createdAt sql.NullTime
		if err := rows.Scan(&r.ID, &r.EvaluationID, &r.QueryID, &r.CompanyID, &r.DocumentID,
			&r.ChunkID, &chunkType, &r.Answer, &year, &r.Confidence, &r.SimilarityScore, &refs,
			&r.ModelVersion, &r.ProcessingTimeMS, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning evaluation record: %w", err)
		}
		if err := json.Unmarshal([]byte(refs), &r.References); err != nil {
			return nil, fmt.Errorf("unmarshalling references: %w", err)
		}
		r.ChunkType = domain.ChunkType(chunkType)
		r.ReportYear = intPtr(year)
		r.Timestamp = createdAt.Time
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating evaluation records: %w", err)
	}
	return records, nil
}
