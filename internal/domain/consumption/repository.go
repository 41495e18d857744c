package consumption

import "context"

// Repository is the store behind the pipeline. QueryPage returns one page of
// joined rows plus metadata computed from the store-side filtered count.
type Repository interface {
	QueryPage(ctx context.Context, query Query) ([]Row, PaginationMeta, error)
	GetRow(ctx context.Context, id int64) (*Row, error)
	InsertRow(ctx context.Context, record *Record) (*Row, error)
	UpdateRow(ctx context.Context, id int64, patch RowPatch) (*Row, error)
	DeleteRow(ctx context.Context, id int64) (DeleteResult, error)
}
