// Package mongo implements store.Store on MongoDB via Grove ORM.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/custody"
	"github.com/xraph/custody/asset"
	"github.com/xraph/custody/balance"
	"github.com/xraph/custody/history"
	"github.com/xraph/custody/policy"
	custodystore "github.com/xraph/custody/store"
	"github.com/xraph/custody/types"
)

// Collection name constants.
const (
	colPolicy   = "custody_policy"
	colAssets   = "custody_assets"
	colBalances = "custody_balances"
	colHistory  = "custody_history"
)

// compile-time interface check
var _ custodystore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all custody collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("custody/mongo: migrate %s indexes: %w", col, err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Policy Store ====================

func (s *Store) GetPolicy(ctx context.Context) (*policy.Policy, error) {
	var m policyModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": policySingletonID}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, custody.ErrNotFound
		}
		return nil, fmt.Errorf("custody/mongo: get policy: %w", err)
	}
	return fromPolicyModel(&m), nil
}

func (s *Store) SavePolicy(ctx context.Context, p *policy.Policy) error {
	m, err := toPolicyModel(p)
	if err != nil {
		return err
	}
	_, err = s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		SetUpdate(bson.M{
			"$set": bson.M{
				"owner":           m.Owner,
				"paused":          m.Paused,
				"fee_rate_bps":    m.FeeRateBps,
				"min_deposit":     m.MinDeposit,
				"max_withdraw":    m.MaxWithdraw,
				"max_history":     m.MaxHistory,
				"max_deposits":    m.MaxDeposits,
				"next_history_id": m.NextHistoryID,
				"updated_at":      m.UpdatedAt,
			},
			"$setOnInsert": bson.M{"created_at": m.CreatedAt},
		}).
		Upsert().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("custody/mongo: save policy: %w", err)
	}
	return nil
}

// ==================== Asset Store ====================

func (s *Store) AddAsset(ctx context.Context, a *asset.Asset) error {
	m := toAssetModel(a)
	_, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		SetUpdate(bson.M{"$setOnInsert": bson.M{"added_at": m.AddedAt}}).
		Upsert().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("custody/mongo: add asset: %w", err)
	}
	return nil
}

func (s *Store) RemoveAsset(ctx context.Context, assetID types.AssetID) error {
	_, err := s.mdb.NewDelete((*assetModel)(nil)).
		Filter(bson.M{"_id": assetID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("custody/mongo: remove asset: %w", err)
	}
	return nil
}

func (s *Store) ListAssets(ctx context.Context) ([]*asset.Asset, error) {
	var models []assetModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{}).
		Sort(bson.D{{Key: "_id", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("custody/mongo: list assets: %w", err)
	}

	result := make([]*asset.Asset, len(models))
	for i := range models {
		result[i] = fromAssetModel(&models[i])
	}
	return result, nil
}

// ==================== Balance Store ====================

func (s *Store) PutBalances(ctx context.Context, balances []*balance.Balance) error {
	for _, b := range balances {
		m, err := toBalanceModel(b)
		if err != nil {
			return err
		}
		_, err = s.mdb.NewUpdate(m).
			Filter(bson.M{"_id": m.Key}).
			SetUpdate(bson.M{"$set": bson.M{
				"user_id":    m.UserID,
				"asset_id":   m.AssetID,
				"amount":     m.Amount,
				"updated_at": m.UpdatedAt,
			}}).
			Upsert().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("custody/mongo: put balance %s: %w", m.Key, err)
		}
	}
	return nil
}

func (s *Store) ListBalances(ctx context.Context, opts balance.ListOpts) ([]*balance.Balance, error) {
	var models []balanceModel

	filter := bson.M{}
	if opts.User != "" {
		filter["user_id"] = opts.User.String()
	}
	if opts.Asset != "" {
		filter["asset_id"] = opts.Asset.String()
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "user_id", Value: 1}, {Key: "asset_id", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("custody/mongo: list balances: %w", err)
	}

	result := make([]*balance.Balance, len(models))
	for i := range models {
		result[i] = fromBalanceModel(&models[i])
	}
	return result, nil
}

// ==================== History Store ====================

func (s *Store) AppendHistory(ctx context.Context, records []*history.Record) error {
	for _, r := range records {
		m, err := toHistoryModel(r)
		if err != nil {
			return err
		}
		if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return custody.ErrAlreadyExists
			}
			return fmt.Errorf("custody/mongo: append history: %w", err)
		}
	}
	return nil
}

func (s *Store) GetHistory(ctx context.Context, kind history.Kind, recordID uint64) (*history.Record, error) {
	rid, err := toInt64("id", recordID)
	if err != nil {
		return nil, custody.ErrNotFound
	}
	var m historyModel
	err = s.mdb.NewFind(&m).
		Filter(bson.M{"_id": rid, "kind": string(kind)}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, custody.ErrNotFound
		}
		return nil, fmt.Errorf("custody/mongo: get history: %w", err)
	}
	return fromHistoryModel(&m)
}

func (s *Store) ListHistory(ctx context.Context, opts history.ListOpts) ([]*history.Record, error) {
	var models []historyModel

	filter := bson.M{}
	if opts.Kind != "" {
		filter["kind"] = string(opts.Kind)
	}
	if opts.User != "" {
		filter["user_id"] = opts.User.String()
	}
	if opts.AfterID != nil {
		after, err := toInt64("id", *opts.AfterID)
		if err != nil {
			return []*history.Record{}, nil
		}
		filter["_id"] = bson.M{"$gt": after}
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "_id", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("custody/mongo: list history: %w", err)
	}

	result := make([]*history.Record, len(models))
	for i := range models {
		r, err := fromHistoryModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = r
	}
	return result, nil
}

func (s *Store) PurgeHistory(ctx context.Context, before uint64) (int64, error) {
	cutoff, err := toInt64("id", before)
	if err != nil {
		return 0, err
	}
	res, err := s.mdb.NewDelete((*historyModel)(nil)).
		Filter(bson.M{"_id": bson.M{"$lt": cutoff}}).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("custody/mongo: purge history: %w", err)
	}
	return res.DeletedCount(), nil
}

// DeleteHistory removes one record. A missing record is not an error.
func (s *Store) DeleteHistory(ctx context.Context, recordID uint64) error {
	key, err := toInt64("id", recordID)
	if err != nil {
		return err
	}
	_, err = s.mdb.NewDelete((*historyModel)(nil)).
		Filter(bson.M{"_id": key}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("custody/mongo: delete history: %w", err)
	}
	return nil
}

// ==================== Helpers ====================

func now() time.Time {
	return time.Now().UTC()
}

func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all custody collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colAssets: {
			{Keys: bson.D{{Key: "added_at", Value: 1}}},
		},
		colBalances: {
			{
				Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "asset_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "asset_id", Value: 1}}},
		},
		colHistory: {
			{Keys: bson.D{{Key: "kind", Value: 1}, {Key: "_id", Value: 1}}},
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "_id", Value: 1}}},
		},
	}
}
