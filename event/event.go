// Package event defines the domain events a custody ledger emits after a
// successful operation.
package event

import (
	"time"

	"github.com/xraph/custody/id"
	"github.com/xraph/custody/types"
)

// Name identifies the kind of a domain event.
type Name string

// Event names. They match the names observers of the historical deployment
// subscribe to.
const (
	NativeDeposited  Name = "stx-deposited"
	TokenDeposited   Name = "token-deposited"
	NativeWithdrawn  Name = "stx-withdrawn"
	TokenWithdrawn   Name = "token-withdrawn"
	InternalTransfer Name = "internal-transfer"
	WalletPaused     Name = "wallet-paused"
	WalletUnpaused   Name = "wallet-unpaused"
)

// Event is emitted once per successful value movement or pause toggle.
// Amount is the net amount credited or paid out; for internal transfers it
// is the full amount moved. Ref is the history record reference of a
// deposit or withdrawal, or the transfer id of an internal transfer.
type Event struct {
	ID         id.ID           `json:"id"`
	Name       Name            `json:"event"`
	Ref        id.ID           `json:"ref,omitzero"`
	User       types.Principal `json:"user,omitempty"`
	Recipient  types.Principal `json:"recipient,omitempty"`
	Asset      types.AssetID   `json:"token,omitempty"`
	Amount     uint64          `json:"amount,omitempty"`
	Fee        uint64          `json:"fee,omitempty"`
	HistoryID  *uint64         `json:"history_id,omitempty"`
	Height     uint64          `json:"height"`
	TxStamp    []byte          `json:"tx_stamp,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// New returns an event named n with a fresh id.
func New(n Name) *Event {
	return &Event{
		ID:         id.NewEventID(),
		Name:       n,
		OccurredAt: time.Now().UTC(),
	}
}

// IsValueMovement reports whether the event records assets changing hands.
func (e *Event) IsValueMovement() bool {
	switch e.Name {
	case WalletPaused, WalletUnpaused:
		return false
	}
	return true
}

// Key returns the partition key used when publishing the event: the acting
// user, or the event name for events with no user.
func (e *Event) Key() string {
	if e.User != "" {
		return string(e.User)
	}
	return string(e.Name)
}
