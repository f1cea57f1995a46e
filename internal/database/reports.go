package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

type SalesSummaryParams struct {
	From pgtype.Timestamptz
	To   pgtype.Timestamptz
}

type SalesSummaryRow struct {
	OrderCount     int64
	CancelledCount int64
	GrossSales     pgtype.Numeric
	TaxCollected   pgtype.Numeric
	DiscountsGiven pgtype.Numeric
	NetSales       pgtype.Numeric
	AvgTicket      pgtype.Numeric
}

// GetSalesSummary aggregates delivered orders only; cancelled orders are
// counted but never contribute revenue.
func (q *Queries) GetSalesSummary(ctx context.Context, arg SalesSummaryParams) (SalesSummaryRow, error) {
	var r SalesSummaryRow
	err := q.db.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE status = 'DELIVERED'),
			COUNT(*) FILTER (WHERE status = 'CANCELLED'),
			COALESCE(SUM(total_with_tax) FILTER (WHERE status = 'DELIVERED'), 0),
			COALESCE(SUM(tax_amount) FILTER (WHERE status = 'DELIVERED'), 0),
			COALESCE(SUM(discount) FILTER (WHERE status = 'DELIVERED'), 0),
			COALESCE(SUM(total_final) FILTER (WHERE status = 'DELIVERED'), 0),
			COALESCE(AVG(total_with_tax) FILTER (WHERE status = 'DELIVERED'), 0)
		FROM orders
		WHERE created_at >= $1 AND created_at < $2`,
		arg.From, arg.To).Scan(&r.OrderCount, &r.CancelledCount, &r.GrossSales,
		&r.TaxCollected, &r.DiscountsGiven, &r.NetSales, &r.AvgTicket)
	return r, err
}

type SalesByPaymentMethodRow struct {
	PaymentMethod string
	OrderCount    int64
	Total         pgtype.Numeric
}

func (q *Queries) ListSalesByPaymentMethod(ctx context.Context, arg SalesSummaryParams) ([]SalesByPaymentMethodRow, error) {
	rows, err := q.db.Query(ctx, `
		SELECT payment_method, COUNT(*), COALESCE(SUM(total_final), 0)
		FROM orders
		WHERE status = 'DELIVERED' AND payment_method IS NOT NULL
			AND created_at >= $1 AND created_at < $2
		GROUP BY payment_method
		ORDER BY payment_method`,
		arg.From, arg.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SalesByPaymentMethodRow
	for rows.Next() {
		var r SalesByPaymentMethodRow
		if err := rows.Scan(&r.PaymentMethod, &r.OrderCount, &r.Total); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type TopProductsParams struct {
	From  pgtype.Timestamptz
	To    pgtype.Timestamptz
	Limit int32
}

type TopProductRow struct {
	ProductID   pgtype.UUID
	ProductName string
	UnitsSold   int64
	Revenue     pgtype.Numeric
}

func (q *Queries) ListTopProducts(ctx context.Context, arg TopProductsParams) ([]TopProductRow, error) {
	rows, err := q.db.Query(ctx, `
		SELECT oi.product_id, p.name, SUM(oi.quantity), COALESCE(SUM(oi.subtotal), 0)
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		JOIN products p ON p.id = oi.product_id
		WHERE o.status = 'DELIVERED' AND o.created_at >= $1 AND o.created_at < $2
		GROUP BY oi.product_id, p.name
		ORDER BY SUM(oi.quantity) DESC, p.name
		LIMIT $3`,
		arg.From, arg.To, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TopProductRow
	for rows.Next() {
		var r TopProductRow
		if err := rows.Scan(&r.ProductID, &r.ProductName, &r.UnitsSold, &r.Revenue); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
