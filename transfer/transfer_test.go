package transfer_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xraph/custody/transfer"
	"github.com/xraph/custody/types"
)

func TestBookTransfer(t *testing.T) {
	ctx := context.Background()
	b := transfer.NewBook()
	b.Mint("alice", 1000)

	require.NoError(t, b.Transfer(ctx, 400, "alice", "bob"))

	got, err := b.Balance(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, uint64(600), got)

	got, err = b.Balance(ctx, "bob")
	require.NoError(t, err)
	require.Equal(t, uint64(400), got)

	moves := b.Movements()
	require.Len(t, moves, 1)
	require.Equal(t, types.Principal("alice"), moves[0].From)
	require.Equal(t, types.Principal("bob"), moves[0].To)
	require.Equal(t, uint64(400), moves[0].Amount)
}

func TestBookInsufficientFunds(t *testing.T) {
	ctx := context.Background()
	b := transfer.NewBook()
	b.Mint("alice", 10)

	err := b.Transfer(ctx, 11, "alice", "bob")
	require.Error(t, err)
	require.True(t, errors.Is(err, transfer.ErrInsufficientFunds))

	got, _ := b.Balance(ctx, "alice")
	require.Equal(t, uint64(10), got)
	require.Empty(t, b.Movements())
}

func TestBookOverflow(t *testing.T) {
	ctx := context.Background()
	b := transfer.NewBook()
	b.Mint("alice", 10)
	b.Mint("bob", math.MaxUint64)

	require.Error(t, b.Transfer(ctx, 1, "alice", "bob"))
	got, _ := b.Balance(ctx, "alice")
	require.Equal(t, uint64(10), got)
}

func TestCapabilities(t *testing.T) {
	ctx := context.Background()
	book := transfer.NewBook()
	book.Mint("alice", 50)

	native := transfer.Native(book)
	require.True(t, native.Native())
	require.Equal(t, types.NativeAsset, native.Asset())

	token := transfer.Token("token-a", book)
	require.False(t, token.Native())
	require.Equal(t, types.AssetID("token-a"), token.Asset())

	require.NoError(t, token.Transfer(ctx, 20, "alice", "custody"))
	got, err := native.Balance(ctx, "custody")
	require.NoError(t, err)
	require.Equal(t, uint64(20), got)
}
