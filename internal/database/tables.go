package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const tableColumns = `number, state, open_order_id, customer_name, customer_phone,
	opened_at, closed_at, created_at, updated_at`

func scanTable(row pgx.Row) (Table, error) {
	var t Table
	err := row.Scan(&t.Number, &t.State, &t.OpenOrderID, &t.CustomerName,
		&t.CustomerPhone, &t.OpenedAt, &t.ClosedAt, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func (q *Queries) GetTable(ctx context.Context, number int32) (Table, error) {
	row := q.db.QueryRow(ctx, `SELECT `+tableColumns+` FROM tables WHERE number = $1`, number)
	return scanTable(row)
}

func (q *Queries) ListTables(ctx context.Context) ([]Table, error) {
	rows, err := q.db.Query(ctx, `SELECT `+tableColumns+` FROM tables ORDER BY number`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []Table
	for rows.Next() {
		t, err := scanTable(rows)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

type CreateOccupiedTableParams struct {
	Number        int32
	CustomerName  pgtype.Text
	CustomerPhone pgtype.Text
}

// CreateOccupiedTable lazily creates an unknown table already in the
// occupied state (tables are implicitly creatable on first open).
func (q *Queries) CreateOccupiedTable(ctx context.Context, arg CreateOccupiedTableParams) (Table, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO tables (number, state, customer_name, customer_phone, opened_at)
		VALUES ($1, 'OCCUPIED', $2, $3, now())
		RETURNING `+tableColumns,
		arg.Number, arg.CustomerName, arg.CustomerPhone)
	return scanTable(row)
}

type OccupyTableParams struct {
	Number        int32
	CustomerName  pgtype.Text
	CustomerPhone pgtype.Text
}

// OccupyTable transitions FREE → OCCUPIED. pgx.ErrNoRows means the table
// was not free; this conditional write is the storage-level backstop for
// table exclusivity.
func (q *Queries) OccupyTable(ctx context.Context, arg OccupyTableParams) (Table, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE tables SET state = 'OCCUPIED', customer_name = $2, customer_phone = $3,
			opened_at = now(), closed_at = NULL, updated_at = now()
		WHERE number = $1 AND state = 'FREE'
		RETURNING `+tableColumns,
		arg.Number, arg.CustomerName, arg.CustomerPhone)
	return scanTable(row)
}

type LinkTableOrderParams struct {
	Number  int32
	OrderID uuid.UUID
}

func (q *Queries) LinkTableOrder(ctx context.Context, arg LinkTableOrderParams) error {
	_, err := q.db.Exec(ctx,
		`UPDATE tables SET open_order_id = $2, updated_at = now() WHERE number = $1`,
		arg.Number, arg.OrderID)
	return err
}

// FreeTable releases a table unconditionally and clears its open order.
func (q *Queries) FreeTable(ctx context.Context, number int32) (Table, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE tables SET state = 'FREE', open_order_id = NULL, closed_at = now(),
			updated_at = now()
		WHERE number = $1
		RETURNING `+tableColumns, number)
	return scanTable(row)
}

// FreeTablesByOrder releases any table still pointing at the given order.
// Used by the administrative order delete so no table is left referencing a
// missing order.
func (q *Queries) FreeTablesByOrder(ctx context.Context, orderID uuid.UUID) error {
	_, err := q.db.Exec(ctx, `
		UPDATE tables SET state = 'FREE', open_order_id = NULL, closed_at = now(),
			updated_at = now()
		WHERE open_order_id = $1`, orderID)
	return err
}
