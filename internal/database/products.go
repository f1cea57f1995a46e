package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const productColumns = `id, category_id, name, description, price, active, available,
	low_stock, created_at, updated_at`

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.CategoryID, &p.Name, &p.Description, &p.Price,
		&p.Active, &p.Available, &p.LowStock, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func collectProducts(rows pgx.Rows) ([]Product, error) {
	defer rows.Close()
	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (q *Queries) GetProduct(ctx context.Context, id uuid.UUID) (Product, error) {
	row := q.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	return scanProduct(row)
}

func (q *Queries) ListActiveProducts(ctx context.Context) ([]Product, error) {
	rows, err := q.db.Query(ctx,
		`SELECT `+productColumns+` FROM products WHERE active ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return collectProducts(rows)
}

func (q *Queries) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, name, description, sort_order, active, created_at, updated_at
		FROM categories
		WHERE active
		ORDER BY sort_order, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.SortOrder,
			&c.Active, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

type UpdateProductStockParams struct {
	ID        uuid.UUID
	Available bool
	LowStock  bool
}

func (q *Queries) UpdateProductStock(ctx context.Context, arg UpdateProductStockParams) (Product, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE products SET available = $2, low_stock = $3, updated_at = now()
		WHERE id = $1
		RETURNING `+productColumns,
		arg.ID, arg.Available, arg.LowStock)
	return scanProduct(row)
}

func (q *Queries) ListLowStockProducts(ctx context.Context) ([]Product, error) {
	rows, err := q.db.Query(ctx,
		`SELECT `+productColumns+` FROM products WHERE active AND available AND low_stock ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return collectProducts(rows)
}

func (q *Queries) ListOutOfStockProducts(ctx context.Context) ([]Product, error) {
	rows, err := q.db.Query(ctx,
		`SELECT `+productColumns+` FROM products WHERE active AND NOT available ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return collectProducts(rows)
}

type StockStatsRow struct {
	TotalProducts int64
	OutOfStock    int64
	LowStock      int64
	StockOK       int64
}

func (q *Queries) GetStockStats(ctx context.Context) (StockStatsRow, error) {
	var s StockStatsRow
	err := q.db.QueryRow(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE NOT available),
			COUNT(*) FILTER (WHERE available AND low_stock),
			COUNT(*) FILTER (WHERE available AND NOT low_stock)
		FROM products
		WHERE active`).Scan(&s.TotalProducts, &s.OutOfStock, &s.LowStock, &s.StockOK)
	return s, err
}
