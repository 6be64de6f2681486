package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	domain "github.com/bryanwahyu/chromaleap/internal/domain/analysis"
)

type AnalysisRepository struct {
	db *sql.DB
}

func NewAnalysisRepository(db *sql.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

// Insert stores a new analysis record and returns its id
func (r *AnalysisRepository) Insert(ctx context.Context, a *domain.Record) (domain.RecordID, error) {
	const q = `
INSERT INTO image_analyses
  (id, image_url, analysis_result, created_at)
VALUES ($1,$2,$3,$4);
`
	id := a.ID
	if id == "" {
		id = domain.RecordID(uuid.NewString())
	}
	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	if _, err := r.db.ExecContext(ctx, q, string(id), stringOrDash(a.ImageURL), a.Result, createdAt); err != nil {
		return "", err
	}
	return id, nil
}

// Get returns one record by id
func (r *AnalysisRepository) Get(ctx context.Context, id domain.RecordID) (*domain.Record, error) {
	const q = `
SELECT id, image_url, analysis_result, created_at
FROM image_analyses
WHERE id=$1
LIMIT 1;`
	// id is a UUID column; anything else cannot match
	if _, err := uuid.Parse(string(id)); err != nil {
		return nil, domain.ErrNotFound
	}
	var a domain.Record
	err := r.db.QueryRowContext(ctx, q, string(id)).Scan(&a.ID, &a.ImageURL, &a.Result, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Paginate returns a page of records ordered by created_at desc
func (r *AnalysisRepository) Paginate(ctx context.Context, page, pageSize int) ([]*domain.Record, error) {
	if page <= 0 { page = 1 }
	if pageSize <= 0 { pageSize = 20 }
	offset := (page - 1) * pageSize

	const q = `
SELECT id, image_url, analysis_result, created_at
FROM image_analyses
ORDER BY created_at DESC, id DESC
LIMIT $1 OFFSET $2;
`
	rows, err := r.db.QueryContext(ctx, q, pageSize, offset)
	if err != nil { return nil, err }
	defer rows.Close()

	out := []*domain.Record{}
	for rows.Next() {
		var a domain.Record
		if err := rows.Scan(&a.ID, &a.ImageURL, &a.Result, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

// stringOrDash returns "-" when the input is empty/whitespace
func stringOrDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
