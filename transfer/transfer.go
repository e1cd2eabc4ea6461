// Package transfer defines how a custody ledger moves assets outside its own
// recorded balances.
//
// A Port is the asset-transfer primitive of the environment. A Capability
// binds a port to the asset it moves; the ledger performs every fee and
// principal leg through a Capability so that native and token operations
// share one code path.
package transfer

import (
	"context"
	"errors"

	"github.com/xraph/custody/types"
)

// ErrInsufficientFunds is returned by a Port when the source cannot cover
// the amount.
var ErrInsufficientFunds = errors.New("transfer: insufficient funds")

// Port moves an amount of one asset between principals. Any non-nil error
// is a failed transfer.
type Port interface {
	Transfer(ctx context.Context, amount uint64, from, to types.Principal) error
	Balance(ctx context.Context, who types.Principal) (uint64, error)
}

// Capability is a Port bound to the asset it moves.
type Capability interface {
	Port

	// Asset returns the balance key movements are recorded under.
	Asset() types.AssetID

	// Native reports whether this is the native-asset variant.
	Native() bool
}

type capability struct {
	Port
	asset  types.AssetID
	native bool
}

func (c *capability) Asset() types.AssetID { return c.asset }
func (c *capability) Native() bool         { return c.native }

// Native returns the native-asset capability backed by book.
func Native(book *Book) Capability {
	return &capability{Port: book, asset: types.NativeAsset, native: true}
}

// Token returns the capability that moves asset through p.
func Token(asset types.AssetID, p Port) Capability {
	return &capability{Port: p, asset: asset}
}
