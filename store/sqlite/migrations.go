package sqlite

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the custody store (SQLite).
var Migrations = migrate.NewGroup("custody")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_custody_policy",
			Version: "20240101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS custody_policy (
    id              INTEGER PRIMARY KEY,
    owner           TEXT NOT NULL,
    paused          INTEGER NOT NULL DEFAULT 0,
    fee_rate_bps    INTEGER NOT NULL DEFAULT 0 CHECK (fee_rate_bps BETWEEN 0 AND 100),
    min_deposit     INTEGER NOT NULL CHECK (min_deposit > 0),
    max_withdraw    INTEGER NOT NULL CHECK (max_withdraw > 0),
    max_history     INTEGER NOT NULL CHECK (max_history > 0),
    max_deposits    INTEGER NOT NULL DEFAULT 0,
    next_history_id INTEGER NOT NULL DEFAULT 0,
    created_at      TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at      TEXT NOT NULL DEFAULT (datetime('now'))
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
    added_at TEXT NOT NULL DEFAULT (datetime('now'))
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
    amount     INTEGER NOT NULL DEFAULT 0 CHECK (amount >= 0),
    updated_at TEXT NOT NULL DEFAULT (datetime('now')),
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
    id         INTEGER PRIMARY KEY,
    ref        TEXT NOT NULL DEFAULT '',
    kind       TEXT NOT NULL,
    user_id    TEXT NOT NULL,
    asset_id   TEXT NOT NULL,
    amount     INTEGER NOT NULL DEFAULT 0,
    fee        INTEGER NOT NULL DEFAULT 0,
    height     INTEGER NOT NULL DEFAULT 0,
    tx_stamp   BLOB,
    created_at TEXT NOT NULL DEFAULT (datetime('now'))
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
