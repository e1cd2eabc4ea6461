// Package policy holds the owner-controlled configuration of a custody ledger.
package policy

import "github.com/xraph/custody/types"

// Default policy values applied when a ledger is first initialized.
const (
	DefaultFeeRateBps  uint32 = 0
	DefaultMinDeposit  uint64 = 100
	DefaultMaxWithdraw uint64 = 1_000_000
	DefaultMaxHistory  uint64 = 500
	DefaultMaxDeposits uint64 = 1000
)

// Policy is the ledger configuration aggregate. It is mutated only by
// owner-gated operations; the history counter advances with every recorded
// deposit or withdrawal.
type Policy struct {
	types.Entity

	Owner       types.Principal `json:"owner"`
	Paused      bool            `json:"paused"`
	FeeRateBps  uint32          `json:"fee_rate_bps"`
	MinDeposit  uint64          `json:"min_deposit"`
	MaxWithdraw uint64          `json:"max_withdraw"`
	MaxHistory  uint64          `json:"max_history"`

	// MaxDeposits is declared policy only. Nothing enforces it.
	MaxDeposits uint64 `json:"max_deposits"`

	// NextHistoryID is the id the next deposit or withdrawal record receives.
	NextHistoryID uint64 `json:"next_history_id"`
}

// Default returns the initial policy for a ledger deployed by owner.
func Default(owner types.Principal) *Policy {
	return &Policy{
		Entity:      types.NewEntity(),
		Owner:       owner,
		FeeRateBps:  DefaultFeeRateBps,
		MinDeposit:  DefaultMinDeposit,
		MaxWithdraw: DefaultMaxWithdraw,
		MaxHistory:  DefaultMaxHistory,
		MaxDeposits: DefaultMaxDeposits,
	}
}

// Clone returns a copy of p.
func (p *Policy) Clone() *Policy {
	c := *p
	return &c
}

// Validate reports whether p satisfies the static policy bounds.
func (p *Policy) Validate() error {
	switch {
	case p.Owner.IsZero():
		return errInvalid("owner", "must not be empty")
	case p.Owner.IsBurn():
		return errInvalid("owner", "must not be the burn principal")
	case p.FeeRateBps > types.MaxFeeRateBps:
		return errInvalid("fee_rate_bps", "must not exceed 100")
	case p.MinDeposit == 0:
		return errInvalid("min_deposit", "must be positive")
	case p.MaxWithdraw == 0:
		return errInvalid("max_withdraw", "must be positive")
	case p.MaxHistory == 0:
		return errInvalid("max_history", "must be positive")
	}
	return nil
}
