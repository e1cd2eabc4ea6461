// Package plugin provides an extensible plugin system for custody.
// Plugins hook into ledger lifecycle and domain events to extend
// functionality without touching the engine.
package plugin

import (
	"context"

	"github.com/xraph/custody/event"
	"github.com/xraph/custody/history"
	"github.com/xraph/custody/policy"
	"github.com/xraph/custody/types"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the ledger starts.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, l any) error
}

// OnShutdown is called when the ledger stops.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Value movement hooks
// ──────────────────────────────────────────────────

// OnDeposit is called after a native or token deposit commits.
type OnDeposit interface {
	Plugin
	OnDeposit(ctx context.Context, evt *event.Event, rec *history.Record) error
}

// OnWithdrawal is called after a native or token withdrawal commits.
type OnWithdrawal interface {
	Plugin
	OnWithdrawal(ctx context.Context, evt *event.Event, rec *history.Record) error
}

// OnInternalTransfer is called after recorded balance moves between users.
type OnInternalTransfer interface {
	Plugin
	OnInternalTransfer(ctx context.Context, evt *event.Event) error
}

// ──────────────────────────────────────────────────
// Administrative hooks
// ──────────────────────────────────────────────────

// OnPauseChanged is called when the ledger is paused or unpaused.
type OnPauseChanged interface {
	Plugin
	OnPauseChanged(ctx context.Context, evt *event.Event, paused bool) error
}

// OnOwnerChanged is called when ownership moves to a new principal.
type OnOwnerChanged interface {
	Plugin
	OnOwnerChanged(ctx context.Context, oldOwner, newOwner types.Principal) error
}

// OnPolicyChanged is called when the fee rate or a limit changes.
type OnPolicyChanged interface {
	Plugin
	OnPolicyChanged(ctx context.Context, oldPolicy, newPolicy *policy.Policy) error
}

// OnAssetListingChanged is called when an asset joins or leaves the
// whitelist. It is not called for idempotent no-ops.
type OnAssetListingChanged interface {
	Plugin
	OnAssetListingChanged(ctx context.Context, asset types.AssetID, supported bool) error
}

// ──────────────────────────────────────────────────
// Event sinks
// ──────────────────────────────────────────────────

// OnEvent receives every domain event, after the typed hooks have run.
type OnEvent interface {
	Plugin
	OnEvent(ctx context.Context, evt *event.Event) error
}
