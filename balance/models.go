// Package balance models per-user, per-asset recorded balances.
package balance

import (
	"time"

	"github.com/xraph/custody/types"
)

// Key addresses one entry of the balance table.
type Key struct {
	User  types.Principal `json:"user"`
	Asset types.AssetID   `json:"asset"`
}

// Balance is a recorded holding. A missing row means zero.
type Balance struct {
	User      types.Principal `json:"user"`
	Asset     types.AssetID   `json:"asset"`
	Amount    uint64          `json:"amount"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Key returns the table key of b.
func (b *Balance) Key() Key {
	return Key{User: b.User, Asset: b.Asset}
}
