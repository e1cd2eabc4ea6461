package balance

import (
	"context"

	"github.com/xraph/custody/types"
)

// Store persists balances. PutBalances upserts every row it is given.
type Store interface {
	PutBalances(ctx context.Context, balances []*Balance) error
	ListBalances(ctx context.Context, opts ListOpts) ([]*Balance, error)
}

// ListOpts filters ListBalances. Zero values match everything.
type ListOpts struct {
	User   types.Principal
	Asset  types.AssetID
	Limit  int
	Offset int
}
