package db

import (
	"context"
	"fmt"
)

// schema creates the tables the repositories expect. JSONB columns hold the
// weight maps and feature preferences as produced by the analyzer.
const schema = `
CREATE TABLE IF NOT EXISTS user_profiles (
	user_id            TEXT PRIMARY KEY,
	genres             JSONB NOT NULL DEFAULT '{}',
	artists            JSONB NOT NULL DEFAULT '{}',
	decades            JSONB NOT NULL DEFAULT '{}',
	moods              JSONB NOT NULL DEFAULT '{}',
	features           JSONB NOT NULL DEFAULT '{}',
	confidence         DOUBLE PRECISION NOT NULL DEFAULT 0,
	total_interactions INTEGER NOT NULL DEFAULT 0,
	last_retrained_at  TIMESTAMPTZ,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS user_interactions (
	id          UUID PRIMARY KEY,
	user_id     TEXT NOT NULL,
	track_id    TEXT NOT NULL,
	action      TEXT NOT NULL,
	context     TEXT,
	occurred_at TIMESTAMPTZ NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_user_interactions_user
	ON user_interactions (user_id, occurred_at DESC);
`

// EnsureSchema creates missing tables and indexes.
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}
	return nil
}
