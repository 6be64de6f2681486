package mysql

import (
    "context"
    "database/sql"
    "errors"
    "strings"
    "time"

    "github.com/google/uuid"

    domain "github.com/bryanwahyu/chromaleap/internal/domain/analysis"
)

// AnalysisRepository uses ?-placeholders only, so it also serves SQLite.
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
VALUES (?,?,?,?);
`
    id := a.ID
    if id == "" {
        id = domain.RecordID(uuid.NewString())
    }
    // image_url is NOT NULL; keep the row even if the caller lost the URL
    imageURL := stringOrDash(a.ImageURL)
    createdAt := a.CreatedAt
    if createdAt.IsZero() {
        createdAt = time.Now().UTC()
    }

    if _, err := r.db.ExecContext(ctx, q, string(id), imageURL, a.Result, createdAt); err != nil {
        return "", err
    }
    return id, nil
}

// Get returns one record by id
func (r *AnalysisRepository) Get(ctx context.Context, id domain.RecordID) (*domain.Record, error) {
    const q = `
SELECT id, image_url, analysis_result, created_at
FROM image_analyses
WHERE id=?
LIMIT 1;`
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
    if page <= 0 {
        page = 1
    }
    if pageSize <= 0 {
        pageSize = 20
    }
    offset := (page - 1) * pageSize

    const q = `
SELECT id, image_url, analysis_result, created_at
FROM image_analyses
ORDER BY created_at DESC, id DESC
LIMIT ? OFFSET ?;
`
    rows, err := r.db.QueryContext(ctx, q, pageSize, offset)
    if err != nil {
        return nil, err
    }
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
