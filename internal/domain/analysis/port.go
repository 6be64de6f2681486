package analysis

import "context"

// Repository port for persisting and reading analyses
type Repository interface {
	Insert(ctx context.Context, r *Record) (RecordID, error)
	Get(ctx context.Context, id RecordID) (*Record, error)
	Paginate(ctx context.Context, page, pageSize int) ([]*Record, error)
}
