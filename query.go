package custody

import (
	"github.com/xraph/custody/balance"
	"github.com/xraph/custody/history"
	"github.com/xraph/custody/policy"
	"github.com/xraph/custody/types"
)

// ──────────────────────────────────────────────────
// Read-only queries
// ──────────────────────────────────────────────────

// Balance returns the recorded balance of user in asset, or zero.
func (l *Ledger) Balance(user types.Principal, assetID types.AssetID) uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balances[balance.Key{User: user, Asset: assetID}]
}

// Owner returns the current owner.
func (l *Ledger) Owner() types.Principal {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.policy.Owner
}

// IsPaused reports whether value movement is paused.
func (l *Ledger) IsPaused() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.policy.Paused
}

// FeeRate returns the fee rate in basis points.
func (l *Ledger) FeeRate() uint32 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.policy.FeeRateBps
}

// MinDeposit returns the smallest accepted deposit.
func (l *Ledger) MinDeposit() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.policy.MinDeposit
}

// MaxWithdraw returns the largest accepted withdrawal.
func (l *Ledger) MaxWithdraw() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.policy.MaxWithdraw
}

// MaxHistory returns the declared history retention cap.
func (l *Ledger) MaxHistory() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.policy.MaxHistory
}

// NextHistoryID returns the id the next deposit or withdrawal will receive.
func (l *Ledger) NextHistoryID() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.log.Next()
}

// Policy returns a copy of the current policy.
func (l *Ledger) Policy() *policy.Policy {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.policy.Clone()
}

// IsAssetSupported reports whether asset may be deposited and withdrawn.
// The native asset is always supported.
func (l *Ledger) IsAssetSupported(assetID types.AssetID) bool {
	if assetID.IsNative() {
		return true
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.supported[assetID]
	return ok
}

// SupportedAssets returns the whitelisted token assets in id order. The
// native asset is not included.
func (l *Ledger) SupportedAssets() []types.AssetID {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return sortedAssets(l.supported)
}

// DepositHistory returns the deposit recorded under recordID.
func (l *Ledger) DepositHistory(recordID uint64) (history.Record, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.log.Get(history.KindDeposit, recordID)
}

// WithdrawHistory returns the withdrawal recorded under recordID.
func (l *Ledger) WithdrawHistory(recordID uint64) (history.Record, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.log.Get(history.KindWithdrawal, recordID)
}
