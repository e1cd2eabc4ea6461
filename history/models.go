// Package history records deposits and withdrawals under one global,
// strictly increasing id sequence.
package history

import (
	"time"

	"github.com/xraph/custody/id"
	"github.com/xraph/custody/types"
)

// Kind tags which table a record belongs to.
type Kind string

const (
	KindDeposit    Kind = "deposit"
	KindWithdrawal Kind = "withdrawal"
)

// Record is an immutable audit entry. Amount is net of fee.
type Record struct {
	ID        uint64          `json:"id"`
	Ref       id.ID           `json:"ref"`
	Kind      Kind            `json:"kind"`
	User      types.Principal `json:"user"`
	Asset     types.AssetID   `json:"asset"`
	Amount    uint64          `json:"amount"`
	Fee       uint64          `json:"fee"`
	Height    uint64          `json:"height"`
	TxStamp   []byte          `json:"tx_stamp"`
	CreatedAt time.Time       `json:"created_at"`
}

// Gross returns the amount before fee deduction.
func (r *Record) Gross() uint64 { return r.Amount + r.Fee }
