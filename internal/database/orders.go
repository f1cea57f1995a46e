package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `id, order_number, status, table_number, subtotal, tax_amount,
	total_with_tax, discount, total_final, payment_method, amount_received,
	change_given, notes, pickup_time, receipt_path, created_at, updated_at`

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.Status, &o.TableNumber, &o.Subtotal, &o.TaxAmount,
		&o.TotalWithTax, &o.Discount, &o.TotalFinal, &o.PaymentMethod, &o.AmountReceived,
		&o.ChangeGiven, &o.Notes, &o.PickupTime, &o.ReceiptPath, &o.CreatedAt, &o.UpdatedAt,
	)
	return o, err
}

func collectOrders(rows pgx.Rows) ([]Order, error) {
	defer rows.Close()
	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

type CreateOrderParams struct {
	OrderNumber    string
	Status         string
	TableNumber    pgtype.Int4
	Subtotal       pgtype.Numeric
	TaxAmount      pgtype.Numeric
	TotalWithTax   pgtype.Numeric
	Discount       pgtype.Numeric
	TotalFinal     pgtype.Numeric
	PaymentMethod  pgtype.Text
	AmountReceived pgtype.Numeric
	ChangeGiven    pgtype.Numeric
	Notes          pgtype.Text
	PickupTime     pgtype.Text
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO orders (order_number, status, table_number, subtotal, tax_amount,
			total_with_tax, discount, total_final, payment_method, amount_received,
			change_given, notes, pickup_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING `+orderColumns,
		arg.OrderNumber, arg.Status, arg.TableNumber, arg.Subtotal, arg.TaxAmount,
		arg.TotalWithTax, arg.Discount, arg.TotalFinal, arg.PaymentMethod,
		arg.AmountReceived, arg.ChangeGiven, arg.Notes, arg.PickupTime)
	return scanOrder(row)
}

func (q *Queries) GetOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	row := q.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	return scanOrder(row)
}

type ListOrdersParams struct {
	Status pgtype.Text
	Day    pgtype.Date
	Limit  int32
	Offset int32
}

func (q *Queries) ListOrders(ctx context.Context, arg ListOrdersParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE ($1::text IS NULL OR status = $1)
		  AND ($2::date IS NULL OR created_at::date = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`,
		arg.Status, arg.Day, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	return collectOrders(rows)
}

// ListActiveOrders returns the kitchen feed: every order still being worked
// on, oldest first.
func (q *Queries) ListActiveOrders(ctx context.Context) ([]Order, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE status IN ('PLACED', 'IN_PROGRESS', 'READY')
		ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	return collectOrders(rows)
}

// MaxOrderSequence returns the highest NNN already used for a day prefix
// (order numbers look like 20260830-007), or 0 when the day has no orders.
func (q *Queries) MaxOrderSequence(ctx context.Context, datePrefix string) (int32, error) {
	var max int32
	err := q.db.QueryRow(ctx, `
		SELECT COALESCE(MAX(CAST(SPLIT_PART(order_number, '-', 2) AS INTEGER)), 0)
		FROM orders
		WHERE order_number LIKE $1 || '-%'`, datePrefix).Scan(&max)
	return max, err
}

func (q *Queries) OrderNumberExists(ctx context.Context, orderNumber string) (bool, error) {
	var exists bool
	err := q.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM orders WHERE order_number = $1)`, orderNumber).Scan(&exists)
	return exists, err
}

type UpdateOrderStatusParams struct {
	ID         uuid.UUID
	Status     string
	FromStatus string
}

// UpdateOrderStatus only succeeds when the order is still in FromStatus;
// pgx.ErrNoRows means the status changed between read and write.
func (q *Queries) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) (Order, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE orders SET status = $2, updated_at = now()
		WHERE id = $1 AND status = $3
		RETURNING `+orderColumns,
		arg.ID, arg.Status, arg.FromStatus)
	return scanOrder(row)
}

type UpdateOrderTotalsParams struct {
	ID           uuid.UUID
	Subtotal     pgtype.Numeric
	TaxAmount    pgtype.Numeric
	TotalWithTax pgtype.Numeric
	Discount     pgtype.Numeric
	TotalFinal   pgtype.Numeric
}

func (q *Queries) UpdateOrderTotals(ctx context.Context, arg UpdateOrderTotalsParams) (Order, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE orders SET subtotal = $2, tax_amount = $3, total_with_tax = $4,
			discount = $5, total_final = $6, updated_at = now()
		WHERE id = $1
		RETURNING `+orderColumns,
		arg.ID, arg.Subtotal, arg.TaxAmount, arg.TotalWithTax, arg.Discount, arg.TotalFinal)
	return scanOrder(row)
}

type FinalizeOrderParams struct {
	ID             uuid.UUID
	PaymentMethod  pgtype.Text
	Discount       pgtype.Numeric
	TotalFinal     pgtype.Numeric
	AmountReceived pgtype.Numeric
	ChangeGiven    pgtype.Numeric
	Notes          pgtype.Text
	PickupTime     pgtype.Text
}

// FinalizeOrder marks the order delivered with its payment details. Only
// legal from a non-terminal status; pgx.ErrNoRows otherwise.
func (q *Queries) FinalizeOrder(ctx context.Context, arg FinalizeOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE orders SET status = 'DELIVERED', payment_method = $2, discount = $3,
			total_final = $4, amount_received = $5, change_given = $6,
			notes = COALESCE($7, notes), pickup_time = COALESCE($8, pickup_time),
			updated_at = now()
		WHERE id = $1 AND status IN ('PLACED', 'IN_PROGRESS', 'READY')
		RETURNING `+orderColumns,
		arg.ID, arg.PaymentMethod, arg.Discount, arg.TotalFinal,
		arg.AmountReceived, arg.ChangeGiven, arg.Notes, arg.PickupTime)
	return scanOrder(row)
}

// CancelOrder only succeeds when the order is not already terminal;
// pgx.ErrNoRows otherwise (the caller decides whether that is an error).
func (q *Queries) CancelOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE orders SET status = 'CANCELLED', updated_at = now()
		WHERE id = $1 AND status NOT IN ('DELIVERED', 'CANCELLED')
		RETURNING `+orderColumns, id)
	return scanOrder(row)
}

func (q *Queries) DeleteOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) error {
	_, err := q.db.Exec(ctx, `DELETE FROM order_items WHERE order_id = $1`, orderID)
	return err
}

func (q *Queries) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	return err
}

type SetOrderReceiptPathParams struct {
	ID          uuid.UUID
	ReceiptPath pgtype.Text
}

func (q *Queries) SetOrderReceiptPath(ctx context.Context, arg SetOrderReceiptPathParams) error {
	_, err := q.db.Exec(ctx,
		`UPDATE orders SET receipt_path = $2, updated_at = now() WHERE id = $1`,
		arg.ID, arg.ReceiptPath)
	return err
}

// --- Order items ---

const orderItemColumns = `id, order_id, product_id, quantity, unit_price, subtotal, notes, created_at`

func scanOrderItem(row pgx.Row) (OrderItem, error) {
	var it OrderItem
	err := row.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity,
		&it.UnitPrice, &it.Subtotal, &it.Notes, &it.CreatedAt)
	return it, err
}

type CreateOrderItemParams struct {
	OrderID   uuid.UUID
	ProductID uuid.UUID
	Quantity  int32
	UnitPrice pgtype.Numeric
	Subtotal  pgtype.Numeric
	Notes     pgtype.Text
}

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO order_items (order_id, product_id, quantity, unit_price, subtotal, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+orderItemColumns,
		arg.OrderID, arg.ProductID, arg.Quantity, arg.UnitPrice, arg.Subtotal, arg.Notes)
	return scanOrderItem(row)
}

type GetOrderItemByProductParams struct {
	OrderID   uuid.UUID
	ProductID uuid.UUID
}

func (q *Queries) GetOrderItemByProduct(ctx context.Context, arg GetOrderItemByProductParams) (OrderItem, error) {
	row := q.db.QueryRow(ctx,
		`SELECT `+orderItemColumns+` FROM order_items WHERE order_id = $1 AND product_id = $2`,
		arg.OrderID, arg.ProductID)
	return scanOrderItem(row)
}

type GetOrderItemParams struct {
	ID      uuid.UUID
	OrderID uuid.UUID
}

func (q *Queries) GetOrderItem(ctx context.Context, arg GetOrderItemParams) (OrderItem, error) {
	row := q.db.QueryRow(ctx,
		`SELECT `+orderItemColumns+` FROM order_items WHERE id = $1 AND order_id = $2`,
		arg.ID, arg.OrderID)
	return scanOrderItem(row)
}

type UpdateOrderItemParams struct {
	ID       uuid.UUID
	Quantity int32
	Subtotal pgtype.Numeric
	Notes    pgtype.Text
}

func (q *Queries) UpdateOrderItem(ctx context.Context, arg UpdateOrderItemParams) (OrderItem, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE order_items SET quantity = $2, subtotal = $3, notes = COALESCE($4, notes)
		WHERE id = $1
		RETURNING `+orderItemColumns,
		arg.ID, arg.Quantity, arg.Subtotal, arg.Notes)
	return scanOrderItem(row)
}

func (q *Queries) DeleteOrderItem(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, `DELETE FROM order_items WHERE id = $1`, id)
	return err
}

// ListOrderItemsRow carries the product name alongside the line for display.
type ListOrderItemsRow struct {
	OrderItem
	ProductName string
}

func (q *Queries) ListOrderItems(ctx context.Context, orderID uuid.UUID) ([]ListOrderItemsRow, error) {
	rows, err := q.db.Query(ctx, `
		SELECT i.id, i.order_id, i.product_id, i.quantity, i.unit_price, i.subtotal,
			i.notes, i.created_at, p.name
		FROM order_items i
		JOIN products p ON p.id = i.product_id
		WHERE i.order_id = $1
		ORDER BY p.name`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []ListOrderItemsRow
	for rows.Next() {
		var r ListOrderItemsRow
		if err := rows.Scan(&r.ID, &r.OrderID, &r.ProductID, &r.Quantity,
			&r.UnitPrice, &r.Subtotal, &r.Notes, &r.CreatedAt, &r.ProductName); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}
