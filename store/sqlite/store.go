// Package sqlite implements store.Store on SQLite via Grove ORM.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/custody"
	"github.com/xraph/custody/asset"
	"github.com/xraph/custody/balance"
	"github.com/xraph/custody/history"
	"github.com/xraph/custody/policy"
	custodystore "github.com/xraph/custody/store"
	"github.com/xraph/custody/types"
)

// compile-time interface check
var _ custodystore.Store = (*Store)(nil)

// Store implements store.Store using SQLite via Grove ORM.
type Store struct {
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB
}

// New creates a new SQLite store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("custody/sqlite: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("custody/sqlite: migration failed: %w", err)
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
	m := new(policyModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", policySingletonID).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, custody.ErrNotFound
		}
		return nil, fmt.Errorf("custody/sqlite: get policy: %w", err)
	}
	return fromPolicyModel(m), nil
}

func (s *Store) SavePolicy(ctx context.Context, p *policy.Policy) error {
	m, err := toPolicyModel(p)
	if err != nil {
		return err
	}
	_, err = s.sdb.NewInsert(m).
		OnConflict("(id) DO UPDATE").
		Set("owner = EXCLUDED.owner").
		Set("paused = EXCLUDED.paused").
		Set("fee_rate_bps = EXCLUDED.fee_rate_bps").
		Set("min_deposit = EXCLUDED.min_deposit").
		Set("max_withdraw = EXCLUDED.max_withdraw").
		Set("max_history = EXCLUDED.max_history").
		Set("max_deposits = EXCLUDED.max_deposits").
		Set("next_history_id = EXCLUDED.next_history_id").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("custody/sqlite: save policy: %w", err)
	}
	return nil
}

// ==================== Asset Store ====================

func (s *Store) AddAsset(ctx context.Context, a *asset.Asset) error {
	_, err := s.sdb.NewInsert(toAssetModel(a)).
		OnConflict("(id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("custody/sqlite: add asset: %w", err)
	}
	return nil
}

func (s *Store) RemoveAsset(ctx context.Context, assetID types.AssetID) error {
	_, err := s.sdb.NewDelete((*assetModel)(nil)).
		Where("id = ?", assetID.String()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("custody/sqlite: remove asset: %w", err)
	}
	return nil
}

func (s *Store) ListAssets(ctx context.Context) ([]*asset.Asset, error) {
	var models []assetModel
	err := s.sdb.NewSelect(&models).
		OrderExpr("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("custody/sqlite: list assets: %w", err)
	}

	result := make([]*asset.Asset, len(models))
	for i := range models {
		result[i] = fromAssetModel(&models[i])
	}
	return result, nil
}

// ==================== Balance Store ====================

func (s *Store) PutBalances(ctx context.Context, balances []*balance.Balance) error {
	if len(balances) == 0 {
		return nil
	}
	models := make([]balanceModel, len(balances))
	for i, b := range balances {
		m, err := toBalanceModel(b)
		if err != nil {
			return err
		}
		models[i] = *m
	}
	_, err := s.sdb.NewInsert(&models).
		OnConflict("(user_id, asset_id) DO UPDATE").
		Set("amount = EXCLUDED.amount").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("custody/sqlite: put balances: %w", err)
	}
	return nil
}

func (s *Store) ListBalances(ctx context.Context, opts balance.ListOpts) ([]*balance.Balance, error) {
	var models []balanceModel
	q := s.sdb.NewSelect(&models)

	if opts.User != "" {
		q = q.Where("user_id = ?", opts.User.String())
	}
	if opts.Asset != "" {
		q = q.Where("asset_id = ?", opts.Asset.String())
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("user_id ASC, asset_id ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("custody/sqlite: list balances: %w", err)
	}

	result := make([]*balance.Balance, len(models))
	for i := range models {
		result[i] = fromBalanceModel(&models[i])
	}
	return result, nil
}

// ==================== History Store ====================

func (s *Store) AppendHistory(ctx context.Context, records []*history.Record) error {
	if len(records) == 0 {
		return nil
	}
	models := make([]historyModel, len(records))
	for i, r := range records {
		m, err := toHistoryModel(r)
		if err != nil {
			return err
		}
		models[i] = *m
	}
	_, err := s.sdb.NewInsert(&models).Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return custody.ErrAlreadyExists
		}
		return fmt.Errorf("custody/sqlite: append history: %w", err)
	}
	return nil
}

func (s *Store) GetHistory(ctx context.Context, kind history.Kind, recordID uint64) (*history.Record, error) {
	rid, err := toInteger("id", recordID)
	if err != nil {
		return nil, custody.ErrNotFound
	}
	m := new(historyModel)
	err = s.sdb.NewSelect(m).
		Where("id = ?", rid).
		Where("kind = ?", string(kind)).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, custody.ErrNotFound
		}
		return nil, fmt.Errorf("custody/sqlite: get history: %w", err)
	}
	return fromHistoryModel(m)
}

func (s *Store) ListHistory(ctx context.Context, opts history.ListOpts) ([]*history.Record, error) {
	var models []historyModel
	q := s.sdb.NewSelect(&models)

	if opts.Kind != "" {
		q = q.Where("kind = ?", string(opts.Kind))
	}
	if opts.User != "" {
		q = q.Where("user_id = ?", opts.User.String())
	}
	if opts.AfterID != nil {
		after, err := toInteger("id", *opts.AfterID)
		if err != nil {
			return []*history.Record{}, nil
		}
		q = q.Where("id > ?", after)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	q = q.OrderExpr("id ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("custody/sqlite: list history: %w", err)
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
	cutoff, err := toInteger("id", before)
	if err != nil {
		return 0, err
	}
	res, err := s.sdb.NewDelete((*historyModel)(nil)).
		Where("id < ?", cutoff).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("custody/sqlite: purge history: %w", err)
	}
	return res.RowsAffected()
}

// DeleteHistory removes one record. A missing record is not an error.
func (s *Store) DeleteHistory(ctx context.Context, recordID uint64) error {
	key, err := toInteger("id", recordID)
	if err != nil {
		return err
	}
	_, err = s.sdb.NewDelete((*historyModel)(nil)).
		Where("id = ?", key).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("custody/sqlite: delete history: %w", err)
	}
	return nil
}

// ==================== Helpers ====================

func now() time.Time {
	return time.Now().UTC()
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// isUniqueViolation reports whether err is a SQLite UNIQUE or PRIMARY KEY
// constraint failure.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
