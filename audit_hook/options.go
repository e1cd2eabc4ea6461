package audithook

import (
	"log/slog"

	"github.com/xraph/custody/types"
)

// Option configures an Extension.
type Option func(*Extension)

// WithLogger sets the logger for the extension.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extension) {
		e.logger = logger
	}
}

// WithUnits records display amounts for assetID, with decimals digits after
// the point, next to the raw integer amounts.
func WithUnits(assetID types.AssetID, decimals int32) Option {
	return func(e *Extension) {
		if e.units == nil {
			e.units = make(map[types.AssetID]int32)
		}
		e.units[assetID] = decimals
	}
}

// WithEnabledActions sets which actions to audit.
// If not called, all actions are audited.
func WithEnabledActions(actions ...string) Option {
	return func(e *Extension) {
		e.enabled = make(map[string]bool)
		for _, action := range actions {
			e.enabled[action] = true
		}
	}
}

// WithDisabledActions sets which actions to skip.
func WithDisabledActions(actions ...string) Option {
	return func(e *Extension) {
		if e.enabled == nil {
			// Start with all enabled
			e.enabled = make(map[string]bool)
			// Add all known actions
			for _, action := range allActions() {
				e.enabled[action] = true
			}
		}
		// Disable specified actions
		for _, action := range actions {
			delete(e.enabled, action)
		}
	}
}

// allActions returns all known audit actions.
func allActions() []string {
	return []string{
		ActionDepositNative,
		ActionDepositToken,
		ActionWithdrawNative,
		ActionWithdrawToken,
		ActionInternalTransfer,
		ActionWalletPaused,
		ActionWalletUnpaused,
		ActionOwnerChanged,
		ActionPolicyChanged,
		ActionAssetListed,
		ActionAssetDelisted,
	}
}
