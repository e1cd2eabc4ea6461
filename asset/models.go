// Package asset models the whitelist of token assets a ledger accepts.
package asset

import (
	"time"

	"github.com/xraph/custody/types"
)

// Asset is a whitelisted token. The native asset is implicitly supported and
// never appears in the whitelist.
type Asset struct {
	ID      types.AssetID `json:"id"`
	AddedAt time.Time     `json:"added_at"`
}
