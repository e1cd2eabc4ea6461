// Package custody provides a custodial multi-asset ledger engine for Go
// applications.
//
// Custody is designed as a library, not a service. It holds deposits of a
// native asset and of whitelisted token assets on behalf of many users and
// provides:
//
//   - Per-user, per-asset recorded balances
//   - A proportional fee in basis points on deposits and withdrawals
//   - Deposit and withdrawal history under one global id sequence
//   - An owner-controlled policy and a global pause switch
//   - Pluggable persistence (memory, PostgreSQL, SQLite, MongoDB)
//   - Plugins for audit trails, metrics and event publishing
//
// # Quick Start
//
//	book := transfer.NewBook()
//	book.Mint("alice", 10_000)
//
//	l, err := custody.New("deployer", memory.New(),
//	    custody.WithNativeBook(book),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := l.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer l.Stop()
//
//	net, err := l.DepositNative(ctx, "alice", 1000)
//
// # Fees
//
// The fee on an amount is floor(amount * rate / 10000) with the rate capped
// at 100 basis points. Deposits credit the user with the amount net of fee;
// withdrawals debit the gross amount and pay out the net. Fees go to the
// owner.
//
// # Errors
//
// Every rejected operation returns an *Error carrying a stable numeric code
// (see CodeOf). Checks run in a fixed order per operation and a rejected
// operation changes no state and emits no event.
//
// # Token assets
//
// Token movements go through a transfer.Port supplied by the caller. The
// ledger never retries: a failed leg surfaces as ErrTransferFailed wrapping
// the port's error. Legs already moved by a failed operation are moved back.
//
// # Plugins
//
// Plugin hooks run after the operation has committed and the ledger lock is
// released, so a hook may query the ledger it observes.
package custody
