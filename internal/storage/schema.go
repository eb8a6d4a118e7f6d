// Package storage persists organizations, sections, notices and default
// keywords in Postgres.
package storage

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS organizations (
		id         BIGSERIAL PRIMARY KEY,
		name       TEXT NOT NULL,
		base_url   TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS organizations_name_key ON organizations (LOWER(name))`,
	`CREATE TABLE IF NOT EXISTS sections (
		id           BIGSERIAL PRIMARY KEY,
		org_id       BIGINT NOT NULL REFERENCES organizations (id) ON DELETE CASCADE,
		section_name TEXT NOT NULL,
		section_url  TEXT NOT NULL,
		parser_type  TEXT NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (org_id, section_url)
	)`,
	`CREATE TABLE IF NOT EXISTS notices (
		id           BIGSERIAL PRIMARY KEY,
		org_name     TEXT NOT NULL,
		section_name TEXT NOT NULL,
		title        TEXT NOT NULL,
		url          TEXT NOT NULL,
		scraped_at   TIMESTAMPTZ NOT NULL,
		UNIQUE (org_name, section_name, title, url)
	)`,
	`CREATE INDEX IF NOT EXISTS notices_org_scraped_at_idx ON notices (org_name, scraped_at DESC)`,
	`CREATE TABLE IF NOT EXISTS default_keywords (
		keyword TEXT PRIMARY KEY
	)`,
}

// Migrate creates the tables and indexes. Safe to run on every start.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
