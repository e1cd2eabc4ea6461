package mongo

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

// policySingletonID is the _id of the only policy document.
const policySingletonID = "policy"

// ==================== Policy models ====================

type policyModel struct {
	grove.BaseModel `grove:"table:custody_policy"`

	ID            string    `grove:"id,pk"           bson:"_id"`
	Owner         string    `grove:"owner"           bson:"owner"`
	Paused        bool      `grove:"paused"          bson:"paused"`
	FeeRateBps    int32     `grove:"fee_rate_bps"    bson:"fee_rate_bps"`
	MinDeposit    int64     `grove:"min_deposit"     bson:"min_deposit"`
	MaxWithdraw   int64     `grove:"max_withdraw"    bson:"max_withdraw"`
	MaxHistory    int64     `grove:"max_history"     bson:"max_history"`
	MaxDeposits   int64     `grove:"max_deposits"    bson:"max_deposits"`
	NextHistoryID int64     `grove:"next_history_id" bson:"next_history_id"`
	CreatedAt     time.Time `grove:"created_at"      bson:"created_at"`
	UpdatedAt     time.Time `grove:"updated_at"      bson:"updated_at"`
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
	if m.MinDeposit, err = toInt64("min_deposit", p.MinDeposit); err != nil {
		return nil, err
	}
	if m.MaxWithdraw, err = toInt64("max_withdraw", p.MaxWithdraw); err != nil {
		return nil, err
	}
	if m.MaxHistory, err = toInt64("max_history", p.MaxHistory); err != nil {
		return nil, err
	}
	if m.MaxDeposits, err = toInt64("max_deposits", p.MaxDeposits); err != nil {
		return nil, err
	}
	if m.NextHistoryID, err = toInt64("next_history_id", p.NextHistoryID); err != nil {
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

	ID      string    `grove:"id,pk"    bson:"_id"`
	AddedAt time.Time `grove:"added_at" bson:"added_at"`
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

	Key       string    `grove:"id,pk"      bson:"_id"`
	UserID    string    `grove:"user_id"    bson:"user_id"`
	AssetID   string    `grove:"asset_id"   bson:"asset_id"`
	Amount    int64     `grove:"amount"     bson:"amount"`
	UpdatedAt time.Time `grove:"updated_at" bson:"updated_at"`
}

// balanceKey is the document _id of a (user, asset) pair.
func balanceKey(user types.Principal, assetID types.AssetID) string {
	return user.String() + "|" + assetID.String()
}

func toBalanceModel(b *balance.Balance) (*balanceModel, error) {
	amount, err := toInt64("amount", b.Amount)
	if err != nil {
		return nil, err
	}
	updatedAt := b.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = now()
	}
	return &balanceModel{
		Key:       balanceKey(b.User, b.Asset),
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

	ID        int64     `grove:"id,pk"      bson:"_id"`
	Ref       string    `grove:"ref"        bson:"ref"`
	Kind      string    `grove:"kind"       bson:"kind"`
	UserID    string    `grove:"user_id"    bson:"user_id"`
	AssetID   string    `grove:"asset_id"   bson:"asset_id"`
	Amount    int64     `grove:"amount"     bson:"amount"`
	Fee       int64     `grove:"fee"        bson:"fee"`
	Height    int64     `grove:"height"     bson:"height"`
	TxStamp   []byte    `grove:"tx_stamp"   bson:"tx_stamp,omitempty"`
	CreatedAt time.Time `grove:"created_at" bson:"created_at"`
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
	if m.ID, err = toInt64("id", r.ID); err != nil {
		return nil, err
	}
	if m.Amount, err = toInt64("amount", r.Amount); err != nil {
		return nil, err
	}
	if m.Fee, err = toInt64("fee", r.Fee); err != nil {
		return nil, err
	}
	if m.Height, err = toInt64("height", r.Height); err != nil {
		return nil, err
	}
	return m, nil
}

func fromHistoryModel(m *historyModel) (*history.Record, error) {
	var ref id.ID
	if m.Ref != "" {
		parsed, err := id.Parse(m.Ref)
		if err != nil {
			return nil, fmt.Errorf("custody/mongo: history %d ref: %w", m.ID, err)
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

// toInt64 narrows v to a BSON int64.
func toInt64(field string, v uint64) (int64, error) {
	if v > math.MaxInt64 {
		return 0, fmt.Errorf("custody/mongo: %s %d exceeds int64 range", field, v)
	}
	return int64(v), nil
}
