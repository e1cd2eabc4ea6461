package custody

import (
	"context"
	"time"

	"github.com/xraph/custody/asset"
	"github.com/xraph/custody/event"
	"github.com/xraph/custody/policy"
	"github.com/xraph/custody/types"
)

// ──────────────────────────────────────────────────
// Owner-gated configuration
// ──────────────────────────────────────────────────

// SetOwner transfers ownership. The burn principal is rejected.
func (l *Ledger) SetOwner(ctx context.Context, caller, newOwner types.Principal) error {
	return l.exclusive(func() (func(), error) {
		if err := l.requireOwner(caller); err != nil {
			return nil, err
		}
		if newOwner.IsZero() || newOwner.IsBurn() {
			return nil, ErrInvalidRecipient
		}

		oldOwner := l.policy.Owner
		next := l.nextPolicy()
		next.Owner = newOwner
		if err := l.commit(ctx, &changeset{policy: next}); err != nil {
			return nil, err
		}

		l.logger.Info("owner changed", "old_owner", oldOwner, "new_owner", newOwner)
		return func() { l.plugins.EmitOwnerChanged(ctx, oldOwner, newOwner) }, nil
	})
}

// Pause stops every value-moving operation.
func (l *Ledger) Pause(ctx context.Context, caller types.Principal) error {
	return l.setPaused(ctx, caller, true)
}

// Unpause resumes value-moving operations.
func (l *Ledger) Unpause(ctx context.Context, caller types.Principal) error {
	return l.setPaused(ctx, caller, false)
}

func (l *Ledger) setPaused(ctx context.Context, caller types.Principal, paused bool) error {
	return l.exclusive(func() (func(), error) {
		if err := l.requireOwner(caller); err != nil {
			return nil, err
		}
		if l.policy.Paused == paused {
			if paused {
				return nil, ErrAlreadyPaused
			}
			return nil, ErrNotPaused
		}

		next := l.nextPolicy()
		next.Paused = paused
		if err := l.commit(ctx, &changeset{policy: next}); err != nil {
			return nil, err
		}

		name := event.WalletUnpaused
		if paused {
			name = event.WalletPaused
		}
		evt := l.newEvent(name, caller)

		l.logger.Info("pause state changed", "paused", paused, "by", caller)
		return func() { l.plugins.EmitPauseChanged(ctx, evt, paused) }, nil
	})
}

// SetFeeRate sets the fee in basis points applied to deposits and
// withdrawals. Rates above 100 (1%) are rejected.
func (l *Ledger) SetFeeRate(ctx context.Context, caller types.Principal, rateBps uint32) error {
	return l.updatePolicy(ctx, caller, func(next *policy.Policy) error {
		if rateBps > types.MaxFeeRateBps {
			return ErrInvalidFeeRate
		}
		next.FeeRateBps = rateBps
		return nil
	})
}

// SetMinDeposit sets the smallest accepted deposit.
func (l *Ledger) SetMinDeposit(ctx context.Context, caller types.Principal, v uint64) error {
	return l.updatePolicy(ctx, caller, func(next *policy.Policy) error {
		if v == 0 {
			return ErrInvalidMinDeposit
		}
		next.MinDeposit = v
		return nil
	})
}

// SetMaxWithdraw sets the largest accepted withdrawal per call.
func (l *Ledger) SetMaxWithdraw(ctx context.Context, caller types.Principal, v uint64) error {
	return l.updatePolicy(ctx, caller, func(next *policy.Policy) error {
		if v == 0 {
			return ErrInvalidMaxWithdraw
		}
		next.MaxWithdraw = v
		return nil
	})
}

// updatePolicy checks ownership, lets change validate and edit a staged copy
// of the policy, then commits it.
func (l *Ledger) updatePolicy(ctx context.Context, caller types.Principal, change func(next *policy.Policy) error) error {
	return l.exclusive(func() (func(), error) {
		if err := l.requireOwner(caller); err != nil {
			return nil, err
		}
		next := l.nextPolicy()
		if err := change(next); err != nil {
			return nil, err
		}

		prev := l.policy
		if err := l.commit(ctx, &changeset{policy: next}); err != nil {
			return nil, err
		}

		l.logger.Debug("policy changed",
			"fee_rate_bps", next.FeeRateBps,
			"min_deposit", next.MinDeposit,
			"max_withdraw", next.MaxWithdraw,
		)
		oldPolicy, newPolicy := prev.Clone(), next.Clone()
		return func() { l.plugins.EmitPolicyChanged(ctx, oldPolicy, newPolicy) }, nil
	})
}

// AddSupportedAsset whitelists a token asset. Adding a listed asset or the
// native asset is a no-op.
func (l *Ledger) AddSupportedAsset(ctx context.Context, caller types.Principal, assetID types.AssetID) error {
	return l.exclusive(func() (func(), error) {
		if err := l.requireOwner(caller); err != nil {
			return nil, err
		}
		if assetID.IsNative() {
			return nil, nil
		}
		if _, ok := l.supported[assetID]; ok {
			return nil, nil
		}

		a := &asset.Asset{ID: assetID, AddedAt: time.Now().UTC()}
		if err := l.commit(ctx, &changeset{addAsset: a}); err != nil {
			return nil, err
		}

		l.logger.Info("asset listed", "asset", assetID)
		return func() { l.plugins.EmitAssetListingChanged(ctx, assetID, true) }, nil
	})
}

// RemoveSupportedAsset delists a token asset. Recorded balances of the asset
// are kept but cannot be withdrawn until it is listed again.
func (l *Ledger) RemoveSupportedAsset(ctx context.Context, caller types.Principal, assetID types.AssetID) error {
	return l.exclusive(func() (func(), error) {
		if err := l.requireOwner(caller); err != nil {
			return nil, err
		}
		if _, ok := l.supported[assetID]; !ok {
			return nil, nil
		}

		if err := l.commit(ctx, &changeset{removeAsset: assetID}); err != nil {
			return nil, err
		}

		l.logger.Info("asset delisted", "asset", assetID)
		return func() { l.plugins.EmitAssetListingChanged(ctx, assetID, false) }, nil
	})
}
