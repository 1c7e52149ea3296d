package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

// Connect opens a pool for connStr and verifies it with a ping.
func Connect(ctx context.Context, connStr string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to parse pgx config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create pgx pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	log.Infof("Connected to database at %s:%d/%s", config.ConnConfig.Host, config.ConnConfig.Port, config.ConnConfig.Database)
	return pool, nil
}

const schema = `
	CREATE TABLE IF NOT EXISTS cricketers (
		id             TEXT PRIMARY KEY,
		name           TEXT NOT NULL,
		role           TEXT NOT NULL,
		base_price     INTEGER NOT NULL,
		overall_rating INTEGER NOT NULL,
		sub_ratings    JSONB
	);

	CREATE TABLE IF NOT EXISTS auction_rooms (
		code       TEXT PRIMARY KEY,
		status     TEXT NOT NULL,
		start_time TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		end_time   TIMESTAMPTZ
	);

	CREATE TABLE IF NOT EXISTS auction_actions (
		id             BIGSERIAL PRIMARY KEY,
		room_code      TEXT NOT NULL,
		action_index   INTEGER NOT NULL,
		actor_id       TEXT NOT NULL,
		action_type    TEXT NOT NULL,
		action_payload JSONB NOT NULL,
		created_at     TIMESTAMPTZ NOT NULL
	);

	CREATE INDEX IF NOT EXISTS auction_actions_room_idx ON auction_actions (room_code, action_index);
`

// EnsureSchema creates the tables used by the catalog and the historian.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
