// Package store defines the persistence interface of a custody ledger.
package store

import (
	"context"

	"github.com/xraph/custody/asset"
	"github.com/xraph/custody/balance"
	"github.com/xraph/custody/history"
	"github.com/xraph/custody/policy"
	"github.com/xraph/custody/types"
)

// Store is the unified storage interface for all custody entities.
// Methods are declared explicitly rather than by embedding the per-package
// interfaces so that every backend reads as one checklist.
//
// GetPolicy returns custody.ErrNotFound on a fresh store.
type Store interface {
	// Policy methods
	GetPolicy(ctx context.Context) (*policy.Policy, error)
	SavePolicy(ctx context.Context, p *policy.Policy) error

	// Asset methods
	AddAsset(ctx context.Context, a *asset.Asset) error
	RemoveAsset(ctx context.Context, assetID types.AssetID) error
	ListAssets(ctx context.Context) ([]*asset.Asset, error)

	// Balance methods
	PutBalances(ctx context.Context, balances []*balance.Balance) error
	ListBalances(ctx context.Context, opts balance.ListOpts) ([]*balance.Balance, error)

	// History methods
	AppendHistory(ctx context.Context, records []*history.Record) error
	GetHistory(ctx context.Context, kind history.Kind, recordID uint64) (*history.Record, error)
	ListHistory(ctx context.Context, opts history.ListOpts) ([]*history.Record, error)
	PurgeHistory(ctx context.Context, before uint64) (int64, error)
	DeleteHistory(ctx context.Context, recordID uint64) error

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// compile-time checks that the per-package interfaces stay in step.
var (
	_ policy.Store  = (Store)(nil)
	_ asset.Store   = (Store)(nil)
	_ balance.Store = (Store)(nil)
	_ history.Store = (Store)(nil)
)
