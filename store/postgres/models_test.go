package postgres

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/custody/balance"
	"github.com/xraph/custody/history"
	"github.com/xraph/custody/id"
	"github.com/xraph/custody/policy"
	"github.com/xraph/custody/types"
)

func TestPolicyModelRoundTrip(t *testing.T) {
	p := policy.Default("SP1OWNER")
	p.FeeRateBps = 100
	p.NextHistoryID = 42

	m, err := toPolicyModel(p)
	require.NoError(t, err)
	assert.Equal(t, policySingletonID, m.ID)

	got := fromPolicyModel(m)
	assert.Equal(t, p.Owner, got.Owner)
	assert.Equal(t, p.FeeRateBps, got.FeeRateBps)
	assert.Equal(t, p.MinDeposit, got.MinDeposit)
	assert.Equal(t, p.MaxWithdraw, got.MaxWithdraw)
	assert.Equal(t, p.MaxHistory, got.MaxHistory)
	assert.Equal(t, p.NextHistoryID, got.NextHistoryID)
}

func TestPolicyModelRange(t *testing.T) {
	p := policy.Default("SP1OWNER")
	p.MaxWithdraw = math.MaxUint64

	_, err := toPolicyModel(p)
	assert.ErrorContains(t, err, "max_withdraw")
}

func TestHistoryModelRoundTrip(t *testing.T) {
	r := &history.Record{
		ID:        7,
		Ref:       id.NewDepositID(),
		Kind:      history.KindDeposit,
		User:      "SP1ALICE",
		Asset:     types.NativeAsset,
		Amount:    990,
		Fee:       10,
		Height:    12,
		TxStamp:   []byte{0xab},
		CreatedAt: time.Now().UTC(),
	}

	m, err := toHistoryModel(r)
	require.NoError(t, err)

	got, err := fromHistoryModel(m)
	require.NoError(t, err)
	assert.Equal(t, r.Ref.String(), got.Ref.String())
	assert.Equal(t, r.Gross(), got.Gross())
	assert.Equal(t, r.TxStamp, got.TxStamp)
	assert.Equal(t, r.Kind, got.Kind)

	m.Ref = "not-an-id"
	_, err = fromHistoryModel(m)
	assert.Error(t, err)
}

func TestBalanceModelDefaultsTimestamp(t *testing.T) {
	m, err := toBalanceModel(&balance.Balance{User: "SP1ALICE", Asset: types.NativeAsset, Amount: 5})
	require.NoError(t, err)
	assert.False(t, m.UpdatedAt.IsZero())
	assert.Equal(t, int64(5), m.Amount)

	_, err = toBalanceModel(&balance.Balance{Amount: math.MaxUint64})
	assert.Error(t, err)
}
