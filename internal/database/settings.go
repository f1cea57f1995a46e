package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const settingsColumns = `id, restaurant_name, tax_rate, opens_at, closes_at, phone,
	address, created_at, updated_at`

func (q *Queries) GetSettings(ctx context.Context) (Settings, error) {
	var s Settings
	err := q.db.QueryRow(ctx, `SELECT `+settingsColumns+` FROM settings WHERE id = 1`).Scan(
		&s.ID, &s.RestaurantName, &s.TaxRate, &s.OpensAt, &s.ClosesAt,
		&s.Phone, &s.Address, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

type UpdateSettingsParams struct {
	RestaurantName string
	TaxRate        pgtype.Numeric
	OpensAt        string
	ClosesAt       string
	Phone          pgtype.Text
	Address        pgtype.Text
}

func (q *Queries) UpdateSettings(ctx context.Context, arg UpdateSettingsParams) (Settings, error) {
	var s Settings
	err := q.db.QueryRow(ctx, `
		INSERT INTO settings (id, restaurant_name, tax_rate, opens_at, closes_at, phone, address)
		VALUES (1, $1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			restaurant_name = EXCLUDED.restaurant_name,
			tax_rate = EXCLUDED.tax_rate,
			opens_at = EXCLUDED.opens_at,
			closes_at = EXCLUDED.closes_at,
			phone = EXCLUDED.phone,
			address = EXCLUDED.address,
			updated_at = now()
		RETURNING `+settingsColumns,
		arg.RestaurantName, arg.TaxRate, arg.OpensAt, arg.ClosesAt, arg.Phone, arg.Address).Scan(
		&s.ID, &s.RestaurantName, &s.TaxRate, &s.OpensAt, &s.ClosesAt,
		&s.Phone, &s.Address, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}
