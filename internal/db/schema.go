package db

import (
	"context"
	"fmt"
)

// Schema contains the DDL for the service tables. Every statement is
// idempotent so Migrate can run on every start.
const Schema = `
CREATE EXTENSION IF NOT EXISTS pgcrypto;

CREATE TABLE IF NOT EXISTS users (
    id                   UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    external_identity_id TEXT NOT NULL UNIQUE,
    email                TEXT NOT NULL,
    is_paid              BOOLEAN NOT NULL DEFAULT FALSE,
    created_at           TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS scheduled_scrapers (
    id              UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    user_id         UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    name            TEXT NOT NULL,
    criteria        TEXT NOT NULL,
    regularity      TEXT NOT NULL CHECK (regularity IN ('weekly', 'monthly')),
    day_number      INTEGER NOT NULL CHECK (day_number BETWEEN 1 AND 31),
    time_utc        TEXT NOT NULL CHECK (time_utc ~ '^[0-9]{2}:[0-9]{2}:[0-9]{2}$'),
    monitoring      TEXT NOT NULL,
    scraper_service TEXT NOT NULL DEFAULT 'default',
    prompt_summary  TEXT NOT NULL DEFAULT '',
    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_scheduled_scrapers_user_created
    ON scheduled_scrapers(user_id, created_at DESC);
`

// Migrate applies Schema.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
