package asset

import (
	"context"

	"github.com/xraph/custody/types"
)

// Store persists the supported-asset set. Add and Remove are idempotent.
type Store interface {
	AddAsset(ctx context.Context, a *Asset) error
	RemoveAsset(ctx context.Context, assetID types.AssetID) error
	ListAssets(ctx context.Context) ([]*Asset, error)
}
