// Package postgres implements store.Store on PostgreSQL via Grove ORM.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"
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

// Store implements store.Store using PostgreSQL via Grove ORM.
type Store struct {
	db *grove.DB
	pg *pgdriver.PgDB
}

// New creates a new PostgreSQL store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db: db,
		pg: pgdriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pg)
	if err != nil {
		return fmt.Errorf("custody/postgres: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("custody/postgres: migration failed: %w", err)
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
	err := s.pg.NewSelect(m).
		Where("id = $1", policySingletonID).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, custody.ErrNotFound
		}
		return nil, fmt.Errorf("custody/postgres: get policy: %w", err)
	}
	return fromPolicyModel(m), nil
}

func (s *Store) SavePolicy(ctx context.Context, p *policy.Policy) error {
	m, err := toPolicyModel(p)
	if err != nil {
		return err
	}
	_, err = s.pg.NewInsert(m).
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
		return fmt.Errorf("custody/postgres: save policy: %w", err)
	}
	return nil
}

// ==================== Asset Store ====================

func (s *Store) AddAsset(ctx context.Context, a *asset.Asset) error {
	_, err := s.pg.NewInsert(toAssetModel(a)).
		OnConflict("(id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("custody/postgres: add asset: %w", err)
	}
	return nil
}

func (s *Store) RemoveAsset(ctx context.Context, assetID types.AssetID) error {
	_, err := s.pg.NewDelete((*assetModel)(nil)).
		Where("id = $1", assetID.String()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("custody/postgres: remove asset: %w", err)
	}
	return nil
}

func (s *Store) ListAssets(ctx context.Context) ([]*asset.Asset, error) {
	var models []assetModel
	err := s.pg.NewSelect(&models).
		OrderExpr("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("custody/postgres: list assets: %w", err)
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
	_, err := s.pg.NewInsert(&models).
		OnConflict("(user_id, asset_id) DO UPDATE").
		Set("amount = EXCLUDED.amount").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("custody/postgres: put balances: %w", err)
	}
	return nil
}

func (s *Store) ListBalances(ctx context.Context, opts balance.ListOpts) ([]*balance.Balance, error) {
	var models []balanceModel
	q := s.pg.NewSelect(&models)

	argIdx := 0
	if opts.User != "" {
		argIdx++
		q = q.Where(fmt.Sprintf("user_id = $%d", argIdx), opts.User.String())
	}
	if opts.Asset != "" {
		argIdx++
		q = q.Where(fmt.Sprintf("asset_id = $%d", argIdx), opts.Asset.String())
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("user_id ASC, asset_id ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("custody/postgres: list balances: %w", err)
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
	_, err := s.pg.NewInsert(&models).Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return custody.ErrAlreadyExists
		}
		return fmt.Errorf("custody/postgres: append history: %w", err)
	}
	return nil
}

func (s *Store) GetHistory(ctx context.Context, kind history.Kind, recordID uint64) (*history.Record, error) {
	rid, err := toBigint("id", recordID)
	if err != nil {
		return nil, custody.ErrNotFound
	}
	m := new(historyModel)
	err = s.pg.NewSelect(m).
		Where("id = $1", rid).
		Where("kind = $2", string(kind)).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, custody.ErrNotFound
		}
		return nil, fmt.Errorf("custody/postgres: get history: %w", err)
	}
	return fromHistoryModel(m)
}

func (s *Store) ListHistory(ctx context.Context, opts history.ListOpts) ([]*history.Record, error) {
	var models []historyModel
	q := s.pg.NewSelect(&models)

	argIdx := 0
	if opts.Kind != "" {
		argIdx++
		q = q.Where(fmt.Sprintf("kind = $%d", argIdx), string(opts.Kind))
	}
	if opts.User != "" {
		argIdx++
		q = q.Where(fmt.Sprintf("user_id = $%d", argIdx), opts.User.String())
	}
	if opts.AfterID != nil {
		after, err := toBigint("id", *opts.AfterID)
		if err != nil {
			return []*history.Record{}, nil
		}
		argIdx++
		q = q.Where(fmt.Sprintf("id > $%d", argIdx), after)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	q = q.OrderExpr("id ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("custody/postgres: list history: %w", err)
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
	cutoff, err := toBigint("id", before)
	if err != nil {
		return 0, err
	}
	res, err := s.pg.NewDelete((*historyModel)(nil)).
		Where("id < $1", cutoff).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("custody/postgres: purge history: %w", err)
	}
	return res.RowsAffected()
}

// DeleteHistory removes one record. A missing record is not an error.
func (s *Store) DeleteHistory(ctx context.Context, recordID uint64) error {
	key, err := toBigint("id", recordID)
	if err != nil {
		return err
	}
	_, err = s.pg.NewDelete((*historyModel)(nil)).
		Where("id = $1", key).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("custody/postgres: delete history: %w", err)
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

// isUniqueViolation reports whether err is a PostgreSQL unique_violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
