package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/custody"
	"github.com/xraph/custody/asset"
	"github.com/xraph/custody/balance"
	"github.com/xraph/custody/history"
	"github.com/xraph/custody/policy"
	"github.com/xraph/custody/store/memory"
	"github.com/xraph/custody/types"
)

const (
	alice types.Principal = "SP1ALICE"
	bob   types.Principal = "SP1BOB"
	token types.AssetID   = "SP1TOKEN.usd"
)

func TestPolicy(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	_, err := s.GetPolicy(ctx)
	assert.ErrorIs(t, err, custody.ErrNotFound)

	p := policy.Default(alice)
	require.NoError(t, s.SavePolicy(ctx, p))

	p.FeeRateBps = 50
	got, err := s.GetPolicy(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), got.FeeRateBps, "store must keep its own copy")
	assert.Equal(t, alice, got.Owner)
}

func TestAssets(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	require.NoError(t, s.AddAsset(ctx, &asset.Asset{ID: token}))
	require.NoError(t, s.AddAsset(ctx, &asset.Asset{ID: token}))
	require.NoError(t, s.AddAsset(ctx, &asset.Asset{ID: "SP1TOKEN.eur"}))

	list, err := s.ListAssets(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, types.AssetID("SP1TOKEN.eur"), list[0].ID)

	require.NoError(t, s.RemoveAsset(ctx, token))
	require.NoError(t, s.RemoveAsset(ctx, token))
	list, err = s.ListAssets(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestBalances(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	require.NoError(t, s.PutBalances(ctx, []*balance.Balance{
		{User: bob, Asset: types.NativeAsset, Amount: 10},
		{User: alice, Asset: token, Amount: 20},
		{User: alice, Asset: types.NativeAsset, Amount: 30},
	}))
	require.NoError(t, s.PutBalances(ctx, []*balance.Balance{
		{User: alice, Asset: token, Amount: 25},
	}))

	all, err := s.ListBalances(ctx, balance.ListOpts{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, alice, all[0].User)
	assert.False(t, all[0].UpdatedAt.IsZero())

	mine, err := s.ListBalances(ctx, balance.ListOpts{User: alice, Asset: token})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, uint64(25), mine[0].Amount)

	page, err := s.ListBalances(ctx, balance.ListOpts{Offset: 1, Limit: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, all[1].Key(), page[0].Key())

	empty, err := s.ListBalances(ctx, balance.ListOpts{Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestHistory(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	records := []*history.Record{
		{ID: 0, Kind: history.KindDeposit, User: alice, Asset: types.NativeAsset, Amount: 990, Fee: 10},
		{ID: 1, Kind: history.KindWithdrawal, User: alice, Asset: types.NativeAsset, Amount: 495, Fee: 5},
		{ID: 2, Kind: history.KindDeposit, User: bob, Asset: token, Amount: 100},
	}
	require.NoError(t, s.AppendHistory(ctx, records))
	assert.ErrorIs(t, s.AppendHistory(ctx, records[:1]), custody.ErrAlreadyExists)

	r, err := s.GetHistory(ctx, history.KindWithdrawal, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(500), r.Gross())

	_, err = s.GetHistory(ctx, history.KindDeposit, 1)
	assert.ErrorIs(t, err, custody.ErrNotFound, "id 1 is a withdrawal")

	deposits, err := s.ListHistory(ctx, history.ListOpts{Kind: history.KindDeposit})
	require.NoError(t, err)
	require.Len(t, deposits, 2)
	assert.Equal(t, uint64(0), deposits[0].ID)
	assert.Equal(t, uint64(2), deposits[1].ID)

	after := uint64(0)
	rest, err := s.ListHistory(ctx, history.ListOpts{User: alice, AfterID: &after})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, uint64(1), rest[0].ID)

	n, err := s.PurgeHistory(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	left, err := s.ListHistory(ctx, history.ListOpts{})
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, uint64(2), left[0].ID)

	require.NoError(t, s.DeleteHistory(ctx, 2))
	require.NoError(t, s.DeleteHistory(ctx, 2), "deleting a missing record is a no-op")
	_, err = s.GetHistory(ctx, history.KindDeposit, 2)
	assert.ErrorIs(t, err, custody.ErrNotFound)
}

func TestClose(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	require.NoError(t, s.Migrate(ctx))
	require.NoError(t, s.Ping(ctx))
	require.NoError(t, s.Close())

	assert.ErrorIs(t, s.Ping(ctx), custody.ErrStoreClosed)
	_, err := s.GetPolicy(ctx)
	assert.ErrorIs(t, err, custody.ErrStoreClosed)
	assert.ErrorIs(t, s.AddAsset(ctx, &asset.Asset{ID: token}), custody.ErrStoreClosed)
}
