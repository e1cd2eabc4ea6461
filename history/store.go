package history

import (
	"context"

	"github.com/xraph/custody/types"
)

// Store persists history records. Records are never updated; PurgeHistory
// removes every record whose id is below before.
type Store interface {
	AppendHistory(ctx context.Context, records []*Record) error
	GetHistory(ctx context.Context, kind Kind, recordID uint64) (*Record, error)
	ListHistory(ctx context.Context, opts ListOpts) ([]*Record, error)
	PurgeHistory(ctx context.Context, before uint64) (int64, error)
	DeleteHistory(ctx context.Context, recordID uint64) error
}

// ListOpts filters ListHistory. Results are ordered by id ascending.
type ListOpts struct {
	Kind    Kind
	User    types.Principal
	AfterID *uint64
	Limit   int
}
