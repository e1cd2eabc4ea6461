package custody

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/custody/balance"
	"github.com/xraph/custody/event"
	"github.com/xraph/custody/history"
	"github.com/xraph/custody/id"
	"github.com/xraph/custody/transfer"
	"github.com/xraph/custody/types"
)

var errNilPort = errors.New("custody: nil transfer port")

// ──────────────────────────────────────────────────
// Deposits
// ──────────────────────────────────────────────────

// DepositNative moves amount of the native asset from caller into custody
// and credits caller with the amount net of fee. It returns the net amount.
func (l *Ledger) DepositNative(ctx context.Context, caller types.Principal, amount uint64) (uint64, error) {
	return l.deposit(ctx, caller, transfer.Native(l.native), amount)
}

// DepositToken moves amount of a whitelisted token from caller into custody
// through port and credits caller with the amount net of fee. It returns the
// net amount.
func (l *Ledger) DepositToken(ctx context.Context, caller types.Principal, assetID types.AssetID, port transfer.Port, amount uint64) (uint64, error) {
	if port == nil {
		return 0, errNilPort
	}
	return l.deposit(ctx, caller, transfer.Token(assetID, port), amount)
}

func (l *Ledger) deposit(ctx context.Context, caller types.Principal, capability transfer.Capability, amount uint64) (uint64, error) {
	return locked(l, func() (uint64, func(), error) {
		assetID := capability.Asset()
		p := l.policy

		if p.Paused {
			return 0, nil, ErrWalletPaused
		}
		if err := l.checkEligible(capability); err != nil {
			return 0, nil, err
		}
		if amount == 0 {
			return 0, nil, ErrInvalidAmount
		}
		if amount < p.MinDeposit {
			return 0, nil, ErrInvalidMinDeposit
		}

		fee, net := types.SplitFee(amount, p.FeeRateBps)

		if capability.Native() {
			have, err := capability.Balance(ctx, caller)
			if err != nil {
				return 0, nil, fmt.Errorf("%w: %w", ErrTransferFailed, err)
			}
			if have < amount {
				return 0, nil, ErrInsufficientBalance
			}
		}

		key := balance.Key{User: caller, Asset: assetID}
		credited, ok := types.AddChecked(l.balances[key], net)
		if !ok {
			return 0, nil, ErrInvalidAmount
		}

		lg := legs{fee: fee, net: net, feeFrom: caller, owner: p.Owner, from: caller, to: l.account}
		if err := l.moveLegs(ctx, capability, lg); err != nil {
			return 0, nil, err
		}

		rec := l.newRecord(history.KindDeposit, id.NewDepositID(), caller, assetID, net, fee)
		next := l.nextPolicy()
		next.NextHistoryID = rec.ID + 1

		c := &changeset{policy: next, record: rec}
		c.setBalance(caller, assetID, credited)
		if err := l.commit(ctx, c); err != nil {
			l.reverseLegs(ctx, capability, lg)
			return 0, nil, err
		}

		name := event.TokenDeposited
		if capability.Native() {
			name = event.NativeDeposited
		}
		evt := l.recordEvent(name, rec)

		l.logger.Debug("deposit accepted",
			"user", caller,
			"asset", assetID,
			"amount", amount,
			"fee", fee,
			"net", net,
			"history_id", rec.ID,
		)
		return net, func() { l.plugins.EmitDeposit(ctx, evt, rec) }, nil
	})
}

// ──────────────────────────────────────────────────
// Withdrawals
// ──────────────────────────────────────────────────

// WithdrawNative pays amount of caller's recorded native balance out of
// custody. The fee is taken from amount; caller's balance is debited by the
// full amount. It returns the net amount paid out.
func (l *Ledger) WithdrawNative(ctx context.Context, caller types.Principal, amount uint64) (uint64, error) {
	return l.withdraw(ctx, caller, transfer.Native(l.native), amount)
}

// WithdrawToken pays amount of caller's recorded token balance out of
// custody through port. It returns the net amount paid out.
func (l *Ledger) WithdrawToken(ctx context.Context, caller types.Principal, assetID types.AssetID, port transfer.Port, amount uint64) (uint64, error) {
	if port == nil {
		return 0, errNilPort
	}
	return l.withdraw(ctx, caller, transfer.Token(assetID, port), amount)
}

func (l *Ledger) withdraw(ctx context.Context, caller types.Principal, capability transfer.Capability, amount uint64) (uint64, error) {
	return locked(l, func() (uint64, func(), error) {
		assetID := capability.Asset()
		p := l.policy

		if p.Paused {
			return 0, nil, ErrWalletPaused
		}
		if err := l.checkEligible(capability); err != nil {
			return 0, nil, err
		}
		if amount == 0 {
			return 0, nil, ErrInvalidAmount
		}
		if amount > p.MaxWithdraw {
			return 0, nil, ErrInvalidMaxWithdraw
		}

		key := balance.Key{User: caller, Asset: assetID}
		have := l.balances[key]
		if have < amount {
			return 0, nil, ErrInsufficientBalance
		}

		fee, net := types.SplitFee(amount, p.FeeRateBps)

		lg := legs{fee: fee, net: net, feeFrom: l.account, owner: p.Owner, from: l.account, to: caller}
		if err := l.moveLegs(ctx, capability, lg); err != nil {
			return 0, nil, err
		}

		rec := l.newRecord(history.KindWithdrawal, id.NewWithdrawalID(), caller, assetID, net, fee)
		next := l.nextPolicy()
		next.NextHistoryID = rec.ID + 1

		c := &changeset{policy: next, record: rec}
		c.setBalance(caller, assetID, have-amount)
		if err := l.commit(ctx, c); err != nil {
			l.reverseLegs(ctx, capability, lg)
			return 0, nil, err
		}

		name := event.TokenWithdrawn
		if capability.Native() {
			name = event.NativeWithdrawn
		}
		evt := l.recordEvent(name, rec)

		l.logger.Debug("withdrawal accepted",
			"user", caller,
			"asset", assetID,
			"amount", amount,
			"fee", fee,
			"net", net,
			"history_id", rec.ID,
		)
		return net, func() { l.plugins.EmitWithdrawal(ctx, evt, rec) }, nil
	})
}

// ──────────────────────────────────────────────────
// Internal transfers
// ──────────────────────────────────────────────────

// TransferInternal moves recorded balance from caller to recipient. No fee
// is charged and no asset leaves custody. It returns amount.
func (l *Ledger) TransferInternal(ctx context.Context, caller, recipient types.Principal, assetID types.AssetID, amount uint64) (uint64, error) {
	return locked(l, func() (uint64, func(), error) {
		if l.policy.Paused {
			return 0, nil, ErrWalletPaused
		}
		if amount == 0 {
			return 0, nil, ErrInvalidAmount
		}
		if recipient.IsBurn() || recipient.IsZero() {
			return 0, nil, ErrInvalidRecipient
		}

		from := balance.Key{User: caller, Asset: assetID}
		have := l.balances[from]
		if have < amount {
			return 0, nil, ErrInsufficientBalance
		}

		c := &changeset{}
		if recipient != caller {
			to := balance.Key{User: recipient, Asset: assetID}
			credited, ok := types.AddChecked(l.balances[to], amount)
			if !ok {
				return 0, nil, ErrInvalidAmount
			}
			c.setBalance(caller, assetID, have-amount)
			c.setBalance(recipient, assetID, credited)
		}
		if err := l.commit(ctx, c); err != nil {
			return 0, nil, err
		}

		evt := l.newEvent(event.InternalTransfer, caller)
		evt.Ref = id.NewTransferID()
		evt.Recipient = recipient
		evt.Asset = assetID
		evt.Amount = amount

		l.logger.Debug("internal transfer accepted",
			"ref", evt.Ref.String(),
			"from", caller,
			"to", recipient,
			"asset", assetID,
			"amount", amount,
		)
		return amount, func() { l.plugins.EmitInternalTransfer(ctx, evt) }, nil
	})
}

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

// checkEligible rejects token operations on assets outside the whitelist.
// The native asset id is only reachable through the native capability.
func (l *Ledger) checkEligible(capability transfer.Capability) error {
	if capability.Native() {
		return nil
	}
	assetID := capability.Asset()
	if assetID.IsNative() {
		return ErrTokenNotSupported
	}
	if _, ok := l.supported[assetID]; !ok {
		return ErrTokenNotSupported
	}
	return nil
}

// legs describes the two movements of a deposit or withdrawal: fee from
// feeFrom to owner, then net from from to to.
type legs struct {
	fee, net       uint64
	feeFrom, owner types.Principal
	from, to       types.Principal
}

// moveLegs performs the fee leg when fee is positive, then the principal
// leg. When the principal leg fails the fee leg is moved back.
func (l *Ledger) moveLegs(ctx context.Context, capability transfer.Capability, lg legs) error {
	if lg.fee > 0 {
		if err := capability.Transfer(ctx, lg.fee, lg.feeFrom, lg.owner); err != nil {
			return fmt.Errorf("%w: fee leg: %w", ErrTransferFailed, err)
		}
	}
	if err := capability.Transfer(ctx, lg.net, lg.from, lg.to); err != nil {
		if lg.fee > 0 {
			l.refund(ctx, capability, "fee", lg.fee, lg.owner, lg.feeFrom)
		}
		return fmt.Errorf("%w: principal leg: %w", ErrTransferFailed, err)
	}
	return nil
}

// reverseLegs moves both legs back after the state change they paid for
// could not be committed.
func (l *Ledger) reverseLegs(ctx context.Context, capability transfer.Capability, lg legs) {
	l.refund(ctx, capability, "principal", lg.net, lg.to, lg.from)
	if lg.fee > 0 {
		l.refund(ctx, capability, "fee", lg.fee, lg.owner, lg.feeFrom)
	}
}

func (l *Ledger) refund(ctx context.Context, capability transfer.Capability, leg string, amount uint64, from, to types.Principal) {
	if err := capability.Transfer(ctx, amount, from, to); err != nil {
		l.logger.Warn("failed to move leg back",
			"leg", leg,
			"asset", capability.Asset(),
			"from", from,
			"to", to,
			"amount", amount,
			"error", err,
		)
	}
}

func (l *Ledger) newRecord(kind history.Kind, ref id.ID, user types.Principal, assetID types.AssetID, net, fee uint64) *history.Record {
	return &history.Record{
		ID:        l.log.Next(),
		Ref:       ref,
		Kind:      kind,
		User:      user,
		Asset:     assetID,
		Amount:    net,
		Fee:       fee,
		Height:    l.clock.Height(),
		TxStamp:   l.clock.TxStamp(),
		CreatedAt: nowUTC(),
	}
}

// recordEvent builds the event announcing rec, sharing its stamps.
func (l *Ledger) recordEvent(name event.Name, rec *history.Record) *event.Event {
	evt := event.New(name)
	evt.User = rec.User
	if !rec.Asset.IsNative() {
		evt.Asset = rec.Asset
	}
	evt.Ref = rec.Ref
	evt.Amount = rec.Amount
	evt.Fee = rec.Fee
	recordID := rec.ID
	evt.HistoryID = &recordID
	evt.Height = rec.Height
	evt.TxStamp = rec.TxStamp
	return evt
}
