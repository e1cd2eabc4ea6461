package postgres

import (
	"fmt"
	"math"
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/custody/asset"
	"github.com/xraph/custody/balance"
	"github.com/xraph/custody/history"
	"github.com/xraph/custody/id"
	"github.com/xraph/custody/policy"
	"github.com/xraph/custody/types"
)

// policySingletonID is the primary key of the only policy row.
const policySingletonID = 1

// ==================== Policy models ====================

type policyModel struct {
	grove.BaseModel `grove:"table:custody_policy"`

	ID            int       `grove:"id,pk"`
	Owner         string    `grove:"owner"`
	Paused        bool      `grove:"paused"`
	FeeRateBps    int32     `grove:"fee_rate_bps"`
	MinDeposit    int64     `grove:"min_deposit"`
	MaxWithdraw   int64     `grove:"max_withdraw"`
	MaxHistory    int64     `grove:"max_history"`
	MaxDeposits   int64     `grove:"max_deposits"`
	NextHistoryID int64     `grove:"next_history_id"`
	CreatedAt     time.Time `grove:"created_at"`
	UpdatedAt     time.Time `grove:"updated_at"`
}

func toPolicyModel(p *policy.Policy) (*policyModel, error) {
	m := &policyModel{
		ID:         policySingletonID,
		Owner:      p.Owner.String(),
		Paused:     p.Paused,
		FeeRateBps: int32(p.FeeRateBps), //nolint:gosec // bounded by policy validation
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
	var err error
	if m.MinDeposit, err = toBigint("min_deposit", p.MinDeposit); err != nil {
		return nil, err
	}
	if m.MaxWithdraw, err = toBigint("max_withdraw", p.MaxWithdraw); err != nil {
		return nil, err
	}
	if m.MaxHistory, err = toBigint("max_history", p.MaxHistory); err != nil {
		return nil, err
	}
	if m.MaxDeposits, err = toBigint("max_deposits", p.MaxDeposits); err != nil {
		return nil, err
	}
	if m.NextHistoryID, err = toBigint("next_history_id", p.NextHistoryID); err != nil {
		return nil, err
	}
	return m, nil
}

func fromPolicyModel(m *policyModel) *policy.Policy {
	return &policy.Policy{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		Owner:         types.Principal(m.Owner),
		Paused:        m.Paused,
		FeeRateBps:    uint32(m.FeeRateBps),
		MinDeposit:    uint64(m.MinDeposit),
		MaxWithdraw:   uint64(m.MaxWithdraw),
		MaxHistory:    uint64(m.MaxHistory),
		MaxDeposits:   uint64(m.MaxDeposits),
		NextHistoryID: uint64(m.NextHistoryID),
	}
}

// ==================== Asset models ====================

type assetModel struct {
	grove.BaseModel `grove:"table:custody_assets"`

	ID      string    `grove:"id,pk"`
	AddedAt time.Time `grove:"added_at"`
}

func toAssetModel(a *asset.Asset) *assetModel {
	return &assetModel{
		ID:      a.ID.String(),
		AddedAt: a.AddedAt,
	}
}

func fromAssetModel(m *assetModel) *asset.Asset {
	return &asset.Asset{
		ID:      types.AssetID(m.ID),
		AddedAt: m.AddedAt,
	}
}

// ==================== Balance models ====================

type balanceModel struct {
	grove.BaseModel `grove:"table:custody_balances"`

	UserID    string    `grove:"user_id,pk"`
	AssetID   string    `grove:"asset_id,pk"`
	Amount    int64     `grove:"amount"`
	UpdatedAt time.Time `grove:"updated_at"`
}

func toBalanceModel(b *balance.Balance) (*balanceModel, error) {
	amount, err := toBigint("amount", b.Amount)
	if err != nil {
		return nil, err
	}
	updatedAt := b.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = now()
	}
	return &balanceModel{
		UserID:    b.User.String(),
		AssetID:   b.Asset.String(),
		Amount:    amount,
		UpdatedAt: updatedAt,
	}, nil
}

func fromBalanceModel(m *balanceModel) *balance.Balance {
	return &balance.Balance{
		User:      types.Principal(m.UserID),
		Asset:     types.AssetID(m.AssetID),
		Amount:    uint64(m.Amount),
		UpdatedAt: m.UpdatedAt,
	}
}

// ==================== History models ====================

type historyModel struct {
	grove.BaseModel `grove:"table:custody_history"`

	ID        int64     `grove:"id,pk"`
	Ref       string    `grove:"ref"`
	Kind      string    `grove:"kind"`
	UserID    string    `grove:"user_id"`
	AssetID   string    `grove:"asset_id"`
	Amount    int64     `grove:"amount"`
	Fee       int64     `grove:"fee"`
	Height    int64     `grove:"height"`
	TxStamp   []byte    `grove:"tx_stamp"`
	CreatedAt time.Time `grove:"created_at"`
}

func toHistoryModel(r *history.Record) (*historyModel, error) {
	m := &historyModel{
		Ref:       r.Ref.String(),
		Kind:      string(r.Kind),
		UserID:    r.User.String(),
		AssetID:   r.Asset.String(),
		TxStamp:   r.TxStamp,
		CreatedAt: r.CreatedAt,
	}
	var err error
	if m.ID, err = toBigint("id", r.ID); err != nil {
		return nil, err
	}
	if m.Amount, err = toBigint("amount", r.Amount); err != nil {
		return nil, err
	}
	if m.Fee, err = toBigint("fee", r.Fee); err != nil {
		return nil, err
	}
	if m.Height, err = toBigint("height", r.Height); err != nil {
		return nil, err
	}
	return m, nil
}

func fromHistoryModel(m *historyModel) (*history.Record, error) {
	var ref id.ID
	if m.Ref != "" {
		parsed, err := id.Parse(m.Ref)
		if err != nil {
			return nil, fmt.Errorf("custody/postgres: history %d ref: %w", m.ID, err)
		}
		ref = parsed
	}
	return &history.Record{
		ID:        uint64(m.ID),
		Ref:       ref,
		Kind:      history.Kind(m.Kind),
		User:      types.Principal(m.UserID),
		Asset:     types.AssetID(m.AssetID),
		Amount:    uint64(m.Amount),
		Fee:       uint64(m.Fee),
		Height:    uint64(m.Height),
		TxStamp:   m.TxStamp,
		CreatedAt: m.CreatedAt,
	}, nil
}

// toBigint narrows v to a BIGINT column value.
func toBigint(column string, v uint64) (int64, error) {
	if v > math.MaxInt64 {
		return 0, fmt.Errorf("custody/postgres: %s %d exceeds BIGINT range", column, v)
	}
	return int64(v), nil
}
