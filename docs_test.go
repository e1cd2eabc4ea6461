package custody_test

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"

	"github.com/xraph/custody"
	"github.com/xraph/custody/store/memory"
	"github.com/xraph/custody/transfer"
	"github.com/xraph/custody/types"
)

// Example mirrors the quick start in the package documentation.
func Example() {
	ctx := context.Background()

	book := transfer.NewBook()
	book.Mint("alice", 10_000)

	l, err := custody.New("deployer", memory.New(),
		custody.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		custody.WithNativeBook(book),
	)
	if err != nil {
		log.Fatal(err)
	}
	if err := l.Start(ctx); err != nil {
		log.Fatal(err)
	}
	defer l.Stop()

	if err := l.SetFeeRate(ctx, "deployer", 100); err != nil {
		log.Fatal(err)
	}

	net, err := l.DepositNative(ctx, "alice", 1000)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("credited:", net)

	_, err = l.WithdrawNative(ctx, "alice", 1500)
	fmt.Println("code:", custody.CodeOf(err))

	_, err = l.TransferInternal(ctx, "alice", custody.BurnPrincipal, types.NativeAsset, 300)
	fmt.Println("burn rejected:", custody.IsPolicyViolation(err))

	fmt.Println("balance:", custody.FormatUnits(l.Balance("alice", types.NativeAsset), 6))

	// Output:
	// credited: 990
	// code: 102
	// burn rejected: true
	// balance: 0.000990
}
