package database

import (
	"context"
	"fmt"
)

// Schema statements are idempotent and applied in order at startup.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS settings (
		id              INTEGER PRIMARY KEY DEFAULT 1 CHECK (id = 1),
		restaurant_name TEXT NOT NULL DEFAULT 'Mi Restaurante',
		tax_rate        NUMERIC(5,2) NOT NULL DEFAULT 0.00 CHECK (tax_rate >= 0),
		opens_at        TEXT NOT NULL DEFAULT '08:00',
		closes_at       TEXT NOT NULL DEFAULT '22:00',
		phone           TEXT,
		address         TEXT,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS categories (
		id          UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		name        TEXT NOT NULL UNIQUE,
		description TEXT,
		sort_order  INTEGER NOT NULL DEFAULT 0,
		active      BOOLEAN NOT NULL DEFAULT true,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS products (
		id          UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		category_id UUID NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
		name        TEXT NOT NULL,
		description TEXT,
		price       NUMERIC(10,2) NOT NULL CHECK (price >= 0),
		active      BOOLEAN NOT NULL DEFAULT true,
		available   BOOLEAN NOT NULL DEFAULT true,
		low_stock   BOOLEAN NOT NULL DEFAULT false,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS orders (
		id              UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		order_number    TEXT NOT NULL UNIQUE,
		status          TEXT NOT NULL DEFAULT 'PLACED'
			CHECK (status IN ('PLACED', 'IN_PROGRESS', 'READY', 'DELIVERED', 'CANCELLED')),
		table_number    INTEGER,
		subtotal        NUMERIC(10,2) NOT NULL DEFAULT 0.00,
		tax_amount      NUMERIC(10,2) NOT NULL DEFAULT 0.00,
		total_with_tax  NUMERIC(10,2) NOT NULL DEFAULT 0.00,
		discount        NUMERIC(10,2) NOT NULL DEFAULT 0.00 CHECK (discount >= 0),
		total_final     NUMERIC(10,2) NOT NULL DEFAULT 0.00,
		payment_method  TEXT,
		amount_received NUMERIC(10,2),
		change_given    NUMERIC(10,2),
		notes           TEXT,
		pickup_time     TEXT,
		receipt_path    TEXT,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS order_items (
		id         UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		order_id   UUID NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		product_id UUID NOT NULL REFERENCES products(id),
		quantity   INTEGER NOT NULL CHECK (quantity > 0),
		unit_price NUMERIC(10,2) NOT NULL CHECK (unit_price >= 0),
		subtotal   NUMERIC(10,2) NOT NULL,
		notes      TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	// One line per product per order; merge-on-add relies on this.
	`CREATE UNIQUE INDEX IF NOT EXISTS order_items_order_id_product_id_key
		ON order_items (order_id, product_id)`,

	`CREATE TABLE IF NOT EXISTS tables (
		number         INTEGER PRIMARY KEY CHECK (number > 0),
		state          TEXT NOT NULL DEFAULT 'FREE' CHECK (state IN ('FREE', 'OCCUPIED')),
		open_order_id  UUID REFERENCES orders(id) ON DELETE SET NULL,
		customer_name  TEXT,
		customer_phone TEXT,
		opened_at      TIMESTAMPTZ,
		closed_at      TIMESTAMPTZ,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE INDEX IF NOT EXISTS orders_status_idx ON orders (status)`,
	`CREATE INDEX IF NOT EXISTS orders_created_at_idx ON orders (created_at)`,
	`CREATE INDEX IF NOT EXISTS order_items_order_id_idx ON order_items (order_id)`,

	`INSERT INTO settings (id) VALUES (1) ON CONFLICT (id) DO NOTHING`,
}

// Migrate applies the schema. Safe to run on every startup.
func Migrate(ctx context.Context, db DBTX) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
