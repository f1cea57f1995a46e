package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/comanda-pos/api/internal/database"
	"github.com/comanda-pos/api/internal/enum"
	"github.com/comanda-pos/api/internal/events"
	"github.com/comanda-pos/api/internal/money"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// TableStore defines the DB methods the table service needs.
// Satisfied by *database.Queries (and its WithTx variant).
type TableStore interface {
	GetTable(ctx context.Context, number int32) (database.Table, error)
	ListTables(ctx context.Context) ([]database.Table, error)
	CreateOccupiedTable(ctx context.Context, arg database.CreateOccupiedTableParams) (database.Table, error)
	OccupyTable(ctx context.Context, arg database.OccupyTableParams) (database.Table, error)
	LinkTableOrder(ctx context.Context, arg database.LinkTableOrderParams) error
	FreeTable(ctx context.Context, number int32) (database.Table, error)
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	FinalizeOrder(ctx context.Context, arg database.FinalizeOrderParams) (database.Order, error)
	ListOrderItems(ctx context.Context, orderID uuid.UUID) ([]database.ListOrderItemsRow, error)
}

// NewTableStore creates a TableStore from a DBTX (pool or tx).
type NewTableStore func(db database.DBTX) TableStore

// TableService binds physical tables to their open orders. It shares the
// order service's locks so every mutation path observes the same ordering:
// table lock first, then order lock.
type TableService struct {
	pool     TxBeginner
	store    TableStore
	newStore NewTableStore
	orders   *OrderService
	events   events.Publisher
}

func NewTableService(pool TxBeginner, db database.DBTX, newStore NewTableStore, orders *OrderService, pub events.Publisher) *TableService {
	return &TableService{
		pool:     pool,
		store:    newStore(db),
		newStore: newStore,
		orders:   orders,
		events:   pub,
	}
}

// OpenTableRequest carries the optional customer metadata for a session.
type OpenTableRequest struct {
	CustomerName  string
	CustomerPhone string
}

// OpenTableResult is the occupied table with its freshly created order.
type OpenTableResult struct {
	Table database.Table
	Order database.Order
}

// Open seats a table: occupies it, creates an empty order numbered from
// the table and the clock, and links the two. Unknown table numbers are
// created on the fly. A second open without an intervening close or cancel
// fails with ErrTableOccupied.
func (s *TableService) Open(ctx context.Context, number int32, req OpenTableRequest) (*OpenTableResult, error) {
	if number <= 0 {
		return nil, ErrInvalidTableNumber
	}

	unlock := s.orders.locks.Lock(tableKey(number))
	defer unlock()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	var table database.Table
	_, err = store.GetTable(ctx, number)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		table, err = store.CreateOccupiedTable(ctx, database.CreateOccupiedTableParams{
			Number:        number,
			CustomerName:  textOrNull(req.CustomerName),
			CustomerPhone: textOrNull(req.CustomerPhone),
		})
		if err != nil {
			return nil, fmt.Errorf("create table: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("get table: %w", err)
	default:
		table, err = store.OccupyTable(ctx, database.OccupyTableParams{
			Number:        number,
			CustomerName:  textOrNull(req.CustomerName),
			CustomerPhone: textOrNull(req.CustomerPhone),
		})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrTableOccupied
			}
			return nil, fmt.Errorf("occupy table: %w", err)
		}
	}

	zero := decimalToNumeric(decimal.Zero)
	order, err := store.CreateOrder(ctx, database.CreateOrderParams{
		OrderNumber:  NewSequencer(s.orders.store).TableNumber(number),
		Status:       enum.OrderStatusPlaced,
		TableNumber:  int4(number),
		Subtotal:     zero,
		TaxAmount:    zero,
		TotalWithTax: zero,
		Discount:     zero,
		TotalFinal:   zero,
	})
	if err != nil {
		if isOrderNumberConflict(err) {
			return nil, ErrDuplicateOrderNumber
		}
		return nil, fmt.Errorf("create order: %w", err)
	}

	if err := store.LinkTableOrder(ctx, database.LinkTableOrderParams{
		Number:  number,
		OrderID: order.ID,
	}); err != nil {
		return nil, fmt.Errorf("link table order: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	table.OpenOrderID = uuidToPg(order.ID)
	s.events.Publish(events.TableOpened, OpenTableResult{Table: table, Order: order})
	s.events.Publish(events.OrderCreated, order)
	return &OpenTableResult{Table: table, Order: order}, nil
}

// AddProduct adds a line to the table's open order.
func (s *TableService) AddProduct(ctx context.Context, number int32, req OrderLineRequest) (*OrderDetail, error) {
	unlock := s.orders.locks.Lock(tableKey(number))
	defer unlock()

	orderID, err := s.activeOrderID(ctx, number)
	if err != nil {
		return nil, err
	}

	detail, err := s.orders.AddLine(ctx, orderID, req)
	if errors.Is(err, ErrOrderTerminal) {
		return nil, ErrNoActiveOrder
	}
	return detail, err
}

// RemoveProduct removes a line from the table's open order.
func (s *TableService) RemoveProduct(ctx context.Context, number int32, lineID uuid.UUID) (*OrderDetail, error) {
	unlock := s.orders.locks.Lock(tableKey(number))
	defer unlock()

	orderID, err := s.activeOrderID(ctx, number)
	if err != nil {
		return nil, err
	}

	detail, err := s.orders.RemoveLine(ctx, orderID, lineID)
	if errors.Is(err, ErrOrderTerminal) {
		return nil, ErrNoActiveOrder
	}
	return detail, err
}

// CloseTableRequest is the payment handed over when the session ends.
type CloseTableRequest struct {
	PaymentMethod  string
	AmountReceived string // empty means exact payment
	Discount       string // empty keeps the order's current discount
	Notes          string
	PickupTime     string
}

// CloseTableResult reports what the customer owed and got back.
type CloseTableResult struct {
	Order       database.Order
	TotalFinal  decimal.Decimal
	ChangeGiven decimal.Decimal
}

// Close settles the open order (delivered, paid) and frees the table.
func (s *TableService) Close(ctx context.Context, number int32, req CloseTableRequest) (*CloseTableResult, error) {
	if !enum.IsValidPaymentMethod(req.PaymentMethod) {
		return nil, ErrInvalidPaymentMethod
	}

	unlockT := s.orders.locks.Lock(tableKey(number))
	defer unlockT()

	orderID, err := s.activeOrderID(ctx, number)
	if err != nil {
		return nil, err
	}

	unlockO := s.orders.locks.Lock("order:" + orderID.String())
	defer unlockO()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := store.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoActiveOrder
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	if enum.IsTerminalOrderStatus(order.Status) {
		return nil, ErrNoActiveOrder
	}

	discount := numericToDecimal(order.Discount)
	if req.Discount != "" {
		discount, err = decimal.NewFromString(req.Discount)
		if err != nil || discount.IsNegative() {
			return nil, ErrInvalidDiscount
		}
	}
	totalFinal, err := money.Final(numericToDecimal(order.TotalWithTax), discount)
	if err != nil {
		return nil, ErrInvalidDiscount
	}

	var receivedPtr *decimal.Decimal
	if req.AmountReceived != "" {
		received, err := decimal.NewFromString(req.AmountReceived)
		if err != nil {
			return nil, fmt.Errorf("%w: amount_received", money.ErrInvalidAmount)
		}
		receivedPtr = &received
	}
	if !money.Covers(totalFinal, receivedPtr) {
		return nil, ErrInsufficientPayment
	}
	change, err := money.Change(totalFinal, receivedPtr)
	if err != nil {
		return nil, err
	}

	amountReceived := decimalToNumeric(totalFinal)
	if receivedPtr != nil {
		amountReceived = decimalToNumeric(*receivedPtr)
	}

	finalized, err := store.FinalizeOrder(ctx, database.FinalizeOrderParams{
		ID:             orderID,
		PaymentMethod:  textOrNull(req.PaymentMethod),
		Discount:       decimalToNumeric(discount),
		TotalFinal:     decimalToNumeric(totalFinal),
		AmountReceived: amountReceived,
		ChangeGiven:    decimalToNumeric(change),
		Notes:          textOrNull(req.Notes),
		PickupTime:     textOrNull(req.PickupTime),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStatusRace
		}
		return nil, fmt.Errorf("finalize order: %w", err)
	}

	table, err := store.FreeTable(ctx, number)
	if err != nil {
		return nil, fmt.Errorf("free table: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	s.events.Publish(events.TableClosed, table)
	s.events.Publish(events.OrderStatusChanged, finalized)

	items, err := s.store.ListOrderItems(ctx, finalized.ID)
	if err != nil {
		items = nil
	}
	s.orders.renderReceipt(ctx, &OrderDetail{Order: finalized, Items: items})

	return &CloseTableResult{Order: finalized, TotalFinal: totalFinal, ChangeGiven: change}, nil
}

// Cancel abandons the session. The open order is cancelled when still
// cancellable, and the table is freed regardless: a stuck order must never
// hold a table hostage.
func (s *TableService) Cancel(ctx context.Context, number int32) error {
	unlock := s.orders.locks.Lock(tableKey(number))
	defer unlock()

	table, err := s.store.GetTable(ctx, number)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrTableNotFound
		}
		return fmt.Errorf("get table: %w", err)
	}

	if table.OpenOrderID.Valid {
		orderID := uuid.UUID(table.OpenOrderID.Bytes)
		if _, err := s.orders.Cancel(ctx, orderID); err != nil {
			if !errors.Is(err, ErrOrderTerminal) && !errors.Is(err, ErrOrderNotFound) {
				return err
			}
		}
	}

	freed, err := s.store.FreeTable(ctx, number)
	if err != nil {
		return fmt.Errorf("free table: %w", err)
	}

	s.events.Publish(events.TableCancelled, freed)
	return nil
}

// Get returns a single table.
func (s *TableService) Get(ctx context.Context, number int32) (database.Table, error) {
	table, err := s.store.GetTable(ctx, number)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Table{}, ErrTableNotFound
		}
		return database.Table{}, fmt.Errorf("get table: %w", err)
	}
	return table, nil
}

// List returns every known table.
func (s *TableService) List(ctx context.Context) ([]database.Table, error) {
	return s.store.ListTables(ctx)
}

// activeOrderID resolves the table's open order.
func (s *TableService) activeOrderID(ctx context.Context, number int32) (uuid.UUID, error) {
	table, err := s.store.GetTable(ctx, number)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, ErrTableNotFound
		}
		return uuid.Nil, fmt.Errorf("get table: %w", err)
	}
	if !table.OpenOrderID.Valid {
		return uuid.Nil, ErrNoActiveOrder
	}
	return uuid.UUID(table.OpenOrderID.Bytes), nil
}

func tableKey(number int32) string {
	return fmt.Sprintf("table:%d", number)
}
