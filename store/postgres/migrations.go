package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the custody store.
var Migrations = migrate.NewGroup("custody")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_custody_policy",
			Version: "20240101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS custody_policy (
    id              INT PRIMARY KEY,
    owner           TEXT NOT NULL,
    paused          BOOLEAN NOT NULL DEFAULT FALSE,
    fee_rate_bps    INT NOT NULL DEFAULT 0 CHECK (fee_rate_bps BETWEEN 0 AND 100),
    min_deposit     BIGINT NOT NULL CHECK (min_deposit > 0),
    max_withdraw    BIGINT NOT NULL CHECK (max_withdraw > 0),
    max_history     BIGINT NOT NULL CHECK (max_history > 0),
    max_deposits    BIGINT NOT NULL DEFAULT 0,
    next_history_id BIGINT NOT NULL DEFAULT 0,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS custody_policy`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_custody_assets",
			Version: "20240101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS custody_assets (
    id       TEXT PRIMARY KEY,
    added_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS custody_assets`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_custody_balances",
			Version: "20240101000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS custody_balances (
    user_id    TEXT NOT NULL,
    asset_id   TEXT NOT NULL,
    amount     BIGINT NOT NULL DEFAULT 0 CHECK (amount >= 0),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (user_id, asset_id)
);

CREATE INDEX IF NOT EXISTS idx_custody_balances_asset ON custody_balances (asset_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS custody_balances`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_custody_history",
			Version: "20240101000004",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS custody_history (
    id         BIGINT PRIMARY KEY,
    ref        TEXT NOT NULL DEFAULT '',
    kind       TEXT NOT NULL,
    user_id    TEXT NOT NULL,
    asset_id   TEXT NOT NULL,
    amount     BIGINT NOT NULL DEFAULT 0,
    fee        BIGINT NOT NULL DEFAULT 0,
    height     BIGINT NOT NULL DEFAULT 0,
    tx_stamp   BYTEA,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_custody_history_kind ON custody_history (kind, id);
CREATE INDEX IF NOT EXISTS idx_custody_history_user ON custody_history (user_id, id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS custody_history`)
				return err
			},
		},
	)
}
