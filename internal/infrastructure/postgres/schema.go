package postgres

import (
	"context"
	"fmt"
	"log"
)

// createStatements is the base schema. Every statement is idempotent;
// EnsureSchema runs on every startup.
var createStatements = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		type TEXT NOT NULL DEFAULT '',
		bank TEXT NOT NULL DEFAULT '',
		iban TEXT NOT NULL UNIQUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS categories (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		UNIQUE (name, type)
	)`,
	`CREATE TABLE IF NOT EXISTS transactions (
		id BIGSERIAL PRIMARY KEY,
		account_id BIGINT NOT NULL REFERENCES accounts(id),
		date DATE NOT NULL,
		amount NUMERIC NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		source TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_dedup
		ON transactions (account_id, date, amount)`,
	`CREATE TABLE IF NOT EXISTS balances (
		id BIGSERIAL PRIMARY KEY,
		account_id BIGINT NOT NULL REFERENCES accounts(id),
		date DATE NOT NULL,
		amount NUMERIC NOT NULL,
		currency TEXT NOT NULL DEFAULT 'EUR',
		fetched_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (account_id, date)
	)`,
	`CREATE TABLE IF NOT EXISTS documents (
		id BIGSERIAL PRIMARY KEY,
		filename TEXT NOT NULL DEFAULT '',
		raw_text TEXT NOT NULL,
		subject TEXT NOT NULL DEFAULT '',
		amount NUMERIC,
		date DATE,
		imported_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// EnsureSchema creates missing tables and applies the single additive
// upgrade this service knows about: the self-referential parent column
// on categories. It must run before the category reconciler.
func EnsureSchema(ctx context.Context, db *DB) error {
	for _, stmt := range createStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}

	return ensureCategoryParentColumn(ctx, db)
}

// ensureCategoryParentColumn adds categories.parent_id when an older
// schema lacks it. Check-then-alter, safe on every startup.
func ensureCategoryParentColumn(ctx context.Context, db *DB) error {
	var exists bool
	err := db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.columns
			WHERE table_name = 'categories' AND column_name = 'parent_id'
		)
	`).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check for parent_id column: %w", err)
	}
	if exists {
		return nil
	}

	_, err = db.ExecContext(ctx, `
		ALTER TABLE categories
		ADD COLUMN parent_id BIGINT REFERENCES categories(id) ON DELETE SET NULL
	`)
	if err != nil {
		return fmt.Errorf("failed to add parent_id column: %w", err)
	}
	log.Println("Added parent_id column to categories")

	return nil
}
