package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/comanda-pos/api/internal/database"
	"github.com/comanda-pos/api/internal/enum"
	"github.com/comanda-pos/api/internal/events"
	"github.com/comanda-pos/api/internal/money"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

const maxOrderNumberRetries = 3

// allowedTransitions is the kitchen flow. Cancellation is handled
// separately because it is legal from every non-terminal status.
var allowedTransitions = map[string][]string{
	enum.OrderStatusPlaced:     {enum.OrderStatusInProgress},
	enum.OrderStatusInProgress: {enum.OrderStatusReady},
	enum.OrderStatusReady:      {enum.OrderStatusDelivered},
}

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// OrderStore defines the DB methods the order service needs.
// Satisfied by *database.Queries (and its WithTx variant).
type OrderStore interface {
	SequenceStore
	GetSettings(ctx context.Context) (database.Settings, error)
	GetProduct(ctx context.Context, id uuid.UUID) (database.Product, error)
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	ListOrders(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error)
	ListActiveOrders(ctx context.Context) ([]database.Order, error)
	ListOrderItems(ctx context.Context, orderID uuid.UUID) ([]database.ListOrderItemsRow, error)
	GetOrderItemByProduct(ctx context.Context, arg database.GetOrderItemByProductParams) (database.OrderItem, error)
	GetOrderItem(ctx context.Context, arg database.GetOrderItemParams) (database.OrderItem, error)
	UpdateOrderItem(ctx context.Context, arg database.UpdateOrderItemParams) (database.OrderItem, error)
	DeleteOrderItem(ctx context.Context, id uuid.UUID) error
	UpdateOrderTotals(ctx context.Context, arg database.UpdateOrderTotalsParams) (database.Order, error)
	UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error)
	CancelOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	DeleteOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) error
	DeleteOrder(ctx context.Context, id uuid.UUID) error
	FreeTablesByOrder(ctx context.Context, orderID uuid.UUID) error
	SetOrderReceiptPath(ctx context.Context, arg database.SetOrderReceiptPathParams) error
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx).
type NewOrderStore func(db database.DBTX) OrderStore

// ReceiptRenderer writes a printable ticket for a paid order and returns
// the file path. Rendering is best effort; a failure never undoes the sale.
type ReceiptRenderer interface {
	Render(order database.Order, items []database.ListOrderItemsRow, settings database.Settings) (string, error)
}

// OrderLineRequest is a single line in an order.
type OrderLineRequest struct {
	ProductID string
	Quantity  int32
	Notes     string
}

// CreateOrderRequest is the validated input for a counter (takeaway) order.
// Payment is captured up front because the customer pays at the register.
type CreateOrderRequest struct {
	Items          []OrderLineRequest
	Notes          string
	PickupTime     string
	PaymentMethod  string
	AmountReceived string
	Discount       string
}

// OrderDetail is an order with its lines.
type OrderDetail struct {
	Order database.Order
	Items []database.ListOrderItemsRow
}

// OrderService handles order lifecycle business logic.
type OrderService struct {
	pool     TxBeginner
	store    OrderStore
	newStore NewOrderStore
	locks    *keyedLocks
	events   events.Publisher
	receipts ReceiptRenderer
}

// NewOrderService wires the service. db is the pool the non-transactional
// reads run against; newStore builds tx-scoped stores.
func NewOrderService(pool TxBeginner, db database.DBTX, newStore NewOrderStore, pub events.Publisher, receipts ReceiptRenderer) *OrderService {
	return &OrderService{
		pool:     pool,
		store:    newStore(db),
		newStore: newStore,
		locks:    newKeyedLocks(),
		events:   pub,
		receipts: receipts,
	}
}

// preparedLine is a validated, priced order line ready to insert.
type preparedLine struct {
	productID uuid.UUID
	quantity  int32
	unitPrice decimal.Decimal
	subtotal  decimal.Decimal
	notes     pgtype.Text
}

// CreateOrder validates items, prices the order, and creates it atomically
// with a day-scoped order number. Retries on order number unique violations
// (two registers can propose the same number between check and insert).
func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*OrderDetail, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}
	if req.PaymentMethod != "" && !enum.IsValidPaymentMethod(req.PaymentMethod) {
		return nil, ErrInvalidPaymentMethod
	}

	var lastErr error
	for attempt := 0; attempt < maxOrderNumberRetries; attempt++ {
		detail, err := s.createOrderTx(ctx, req)
		if err == nil {
			s.events.Publish(events.OrderCreated, detail.Order)
			s.renderReceipt(ctx, detail)
			return detail, nil
		}
		if isOrderNumberConflict(err) {
			lastErr = err
			continue
		}
		return nil, err
	}
	return nil, fmt.Errorf("%w: %v", ErrDuplicateOrderNumber, lastErr)
}

// isOrderNumberConflict checks for a unique violation on orders.order_number
// (pgconn error code 23505).
func isOrderNumberConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == "orders_order_number_key"
	}
	return false
}

func (s *OrderService) createOrderTx(ctx context.Context, req CreateOrderRequest) (*OrderDetail, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	orderNumber, err := NewSequencer(store).NextDayNumber(ctx)
	if err != nil {
		return nil, err
	}

	settings, err := store.GetSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}
	taxRate := numericToDecimal(settings.TaxRate)

	lines, lineSubtotals, err := s.prepareLines(ctx, store, req.Items)
	if err != nil {
		return nil, err
	}

	subtotal := money.Subtotal(lineSubtotals)
	taxAmount, err := money.Tax(subtotal, taxRate)
	if err != nil {
		return nil, fmt.Errorf("compute tax: %w", err)
	}
	totalWithTax := money.WithTax(subtotal, taxAmount)

	discount := decimal.Zero
	if req.Discount != "" {
		discount, err = decimal.NewFromString(req.Discount)
		if err != nil || discount.IsNegative() {
			return nil, ErrInvalidDiscount
		}
	}
	totalFinal, err := money.Final(totalWithTax, discount)
	if err != nil {
		return nil, ErrInvalidDiscount
	}

	amountReceived := pgtype.Numeric{}
	changeGiven := pgtype.Numeric{}
	var receivedPtr *decimal.Decimal
	if req.AmountReceived != "" {
		received, err := decimal.NewFromString(req.AmountReceived)
		if err != nil {
			return nil, fmt.Errorf("%w: amount_received", money.ErrInvalidAmount)
		}
		receivedPtr = &received
		amountReceived = decimalToNumeric(received)
	}
	if req.PaymentMethod != "" {
		if !money.Covers(totalFinal, receivedPtr) {
			return nil, ErrInsufficientPayment
		}
		change, err := money.Change(totalFinal, receivedPtr)
		if err != nil {
			return nil, err
		}
		changeGiven = decimalToNumeric(change)
	}

	order, err := store.CreateOrder(ctx, database.CreateOrderParams{
		OrderNumber:    orderNumber,
		Status:         enum.OrderStatusPlaced,
		Subtotal:       decimalToNumeric(subtotal),
		TaxAmount:      decimalToNumeric(taxAmount),
		TotalWithTax:   decimalToNumeric(totalWithTax),
		Discount:       decimalToNumeric(discount),
		TotalFinal:     decimalToNumeric(totalFinal),
		PaymentMethod:  textOrNull(req.PaymentMethod),
		AmountReceived: amountReceived,
		ChangeGiven:    changeGiven,
		Notes:          textOrNull(req.Notes),
		PickupTime:     textOrNull(req.PickupTime),
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	for _, line := range lines {
		if _, err := store.CreateOrderItem(ctx, database.CreateOrderItemParams{
			OrderID:   order.ID,
			ProductID: line.productID,
			Quantity:  line.quantity,
			UnitPrice: decimalToNumeric(line.unitPrice),
			Subtotal:  decimalToNumeric(line.subtotal),
			Notes:     line.notes,
		}); err != nil {
			return nil, fmt.Errorf("create order item: %w", err)
		}
	}

	items, err := store.ListOrderItems(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &OrderDetail{Order: order, Items: items}, nil
}

// prepareLines validates and prices the requested lines. The stock gate
// lives here: only active, available products can enter a new line.
func (s *OrderService) prepareLines(ctx context.Context, store OrderStore, reqs []OrderLineRequest) ([]preparedLine, []decimal.Decimal, error) {
	var lines []preparedLine
	var subtotals []decimal.Decimal

	for i, item := range reqs {
		if item.Quantity <= 0 {
			return nil, nil, fmt.Errorf("item[%d]: %w", i, ErrInvalidQuantity)
		}
		productID, err := uuid.Parse(item.ProductID)
		if err != nil {
			return nil, nil, fmt.Errorf("item[%d]: %w", i, ErrInvalidProductID)
		}

		product, err := store.GetProduct(ctx, productID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, nil, fmt.Errorf("item[%d]: %w", i, ErrProductNotFound)
			}
			return nil, nil, fmt.Errorf("item[%d]: get product: %w", i, err)
		}
		if !Acceptable(product) {
			return nil, nil, fmt.Errorf("item[%d] %s: %w", i, product.Name, ErrProductUnavailable)
		}

		unitPrice := numericToDecimal(product.Price)
		lineSubtotal, err := money.LineSubtotal(unitPrice, item.Quantity)
		if err != nil {
			return nil, nil, fmt.Errorf("item[%d]: %w", i, err)
		}

		lines = append(lines, preparedLine{
			productID: productID,
			quantity:  item.Quantity,
			unitPrice: unitPrice,
			subtotal:  lineSubtotal,
			notes:     textOrNull(item.Notes),
		})
		subtotals = append(subtotals, lineSubtotal)
	}
	return lines, subtotals, nil
}

// AddLine adds a product to an open order. A line for the same product is
// merged (quantities added, notes replaced when provided) instead of
// duplicated. Totals are recomputed in the same transaction.
func (s *OrderService) AddLine(ctx context.Context, orderID uuid.UUID, req OrderLineRequest) (*OrderDetail, error) {
	if req.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return nil, ErrInvalidProductID
	}

	unlock := s.locks.Lock("order:" + orderID.String())
	defer unlock()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := s.mutableOrder(ctx, store, orderID)
	if err != nil {
		return nil, err
	}

	product, err := store.GetProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	if !Acceptable(product) {
		return nil, fmt.Errorf("%s: %w", product.Name, ErrProductUnavailable)
	}

	existing, err := store.GetOrderItemByProduct(ctx, database.GetOrderItemByProductParams{
		OrderID:   orderID,
		ProductID: productID,
	})
	switch {
	case err == nil:
		newQty := existing.Quantity + req.Quantity
		subtotal, err := money.LineSubtotal(numericToDecimal(existing.UnitPrice), newQty)
		if err != nil {
			return nil, err
		}
		if _, err := store.UpdateOrderItem(ctx, database.UpdateOrderItemParams{
			ID:       existing.ID,
			Quantity: newQty,
			Subtotal: decimalToNumeric(subtotal),
			Notes:    textOrNull(req.Notes),
		}); err != nil {
			return nil, fmt.Errorf("update order item: %w", err)
		}
	case errors.Is(err, pgx.ErrNoRows):
		unitPrice := numericToDecimal(product.Price)
		subtotal, err := money.LineSubtotal(unitPrice, req.Quantity)
		if err != nil {
			return nil, err
		}
		if _, err := store.CreateOrderItem(ctx, database.CreateOrderItemParams{
			OrderID:   orderID,
			ProductID: productID,
			Quantity:  req.Quantity,
			UnitPrice: decimalToNumeric(unitPrice),
			Subtotal:  decimalToNumeric(subtotal),
			Notes:     textOrNull(req.Notes),
		}); err != nil {
			return nil, fmt.Errorf("create order item: %w", err)
		}
	default:
		return nil, fmt.Errorf("get order item: %w", err)
	}

	detail, err := s.recomputeTotals(ctx, store, order)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return detail, nil
}

// RemoveLine deletes a line from an open order and recomputes totals.
func (s *OrderService) RemoveLine(ctx context.Context, orderID, lineID uuid.UUID) (*OrderDetail, error) {
	unlock := s.locks.Lock("order:" + orderID.String())
	defer unlock()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := s.mutableOrder(ctx, store, orderID)
	if err != nil {
		return nil, err
	}

	line, err := store.GetOrderItem(ctx, database.GetOrderItemParams{ID: lineID, OrderID: orderID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderItemNotFound
		}
		return nil, fmt.Errorf("get order item: %w", err)
	}
	if err := store.DeleteOrderItem(ctx, line.ID); err != nil {
		return nil, fmt.Errorf("delete order item: %w", err)
	}

	detail, err := s.recomputeTotals(ctx, store, order)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return detail, nil
}

// mutableOrder loads an order and checks lines may still change.
func (s *OrderService) mutableOrder(ctx context.Context, store OrderStore, orderID uuid.UUID) (database.Order, error) {
	order, err := store.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, ErrOrderNotFound
		}
		return database.Order{}, fmt.Errorf("get order: %w", err)
	}
	if enum.IsTerminalOrderStatus(order.Status) {
		return database.Order{}, fmt.Errorf("%s: %w", order.Status, ErrOrderTerminal)
	}
	return order, nil
}

// recomputeTotals rederives every monetary field from the current lines,
// keeping the order's stored discount.
func (s *OrderService) recomputeTotals(ctx context.Context, store OrderStore, order database.Order) (*OrderDetail, error) {
	items, err := store.ListOrderItems(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}

	subtotals := make([]decimal.Decimal, 0, len(items))
	for _, it := range items {
		subtotals = append(subtotals, numericToDecimal(it.Subtotal))
	}
	subtotal := money.Subtotal(subtotals)

	settings, err := store.GetSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}
	taxAmount, err := money.Tax(subtotal, numericToDecimal(settings.TaxRate))
	if err != nil {
		return nil, err
	}
	totalWithTax := money.WithTax(subtotal, taxAmount)
	discount := numericToDecimal(order.Discount)
	totalFinal, err := money.Final(totalWithTax, discount)
	if err != nil {
		return nil, err
	}

	updated, err := store.UpdateOrderTotals(ctx, database.UpdateOrderTotalsParams{
		ID:           order.ID,
		Subtotal:     decimalToNumeric(subtotal),
		TaxAmount:    decimalToNumeric(taxAmount),
		TotalWithTax: decimalToNumeric(totalWithTax),
		Discount:     decimalToNumeric(discount),
		TotalFinal:   decimalToNumeric(totalFinal),
	})
	if err != nil {
		return nil, fmt.Errorf("update order totals: %w", err)
	}
	return &OrderDetail{Order: updated, Items: items}, nil
}

// GetOrder returns the order with its lines.
func (s *OrderService) GetOrder(ctx context.Context, id uuid.UUID) (*OrderDetail, error) {
	store := s.store

	order, err := store.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	items, err := store.ListOrderItems(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	return &OrderDetail{Order: order, Items: items}, nil
}

// ListOrdersRequest filters the order history.
type ListOrdersRequest struct {
	Status string
	Day    string // YYYY-MM-DD
	Limit  int32
	Offset int32
}

func (s *OrderService) ListOrders(ctx context.Context, req ListOrdersRequest) ([]database.Order, error) {
	status := pgtype.Text{}
	if req.Status != "" {
		if !isValidOrderStatus(req.Status) {
			return nil, ErrInvalidStatus
		}
		status = pgtype.Text{String: req.Status, Valid: true}
	}

	day := pgtype.Date{}
	if req.Day != "" {
		t, err := time.Parse("2006-01-02", req.Day)
		if err != nil {
			return nil, ErrInvalidDate
		}
		day = pgtype.Date{Time: t, Valid: true}
	}

	limit := req.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	return s.store.ListOrders(ctx, database.ListOrdersParams{
		Status: status,
		Day:    day,
		Limit:  limit,
		Offset: req.Offset,
	})
}

func (s *OrderService) ListActiveOrders(ctx context.Context) ([]database.Order, error) {
	return s.store.ListActiveOrders(ctx)
}

// UpdateStatus moves an order one step along the kitchen flow. The
// conditional write catches the race where another writer moved the order
// between read and update. Delivery is terminal, so it also liberates any
// table still attached, in the same transaction.
func (s *OrderService) UpdateStatus(ctx context.Context, id uuid.UUID, newStatus string) (database.Order, error) {
	if !isValidOrderStatus(newStatus) {
		return database.Order{}, ErrInvalidStatus
	}
	if newStatus == enum.OrderStatusCancelled {
		return s.Cancel(ctx, id)
	}

	unlock := s.locks.Lock("order:" + id.String())
	defer unlock()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.Order{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := store.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, ErrOrderNotFound
		}
		return database.Order{}, fmt.Errorf("get order: %w", err)
	}

	if enum.IsTerminalOrderStatus(order.Status) {
		return database.Order{}, fmt.Errorf("%s: %w", order.Status, ErrOrderTerminal)
	}
	if !transitionAllowed(order.Status, newStatus) {
		return database.Order{}, fmt.Errorf("%s -> %s: %w", order.Status, newStatus, ErrInvalidTransition)
	}

	updated, err := store.UpdateOrderStatus(ctx, database.UpdateOrderStatusParams{
		ID:         id,
		Status:     newStatus,
		FromStatus: order.Status,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, ErrStatusRace
		}
		return database.Order{}, fmt.Errorf("update order status: %w", err)
	}

	if newStatus == enum.OrderStatusDelivered {
		if err := store.FreeTablesByOrder(ctx, id); err != nil {
			return database.Order{}, fmt.Errorf("free tables: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return database.Order{}, fmt.Errorf("commit tx: %w", err)
	}

	s.events.Publish(events.OrderStatusChanged, updated)
	return updated, nil
}

// Cancel cancels an order and liberates any table still attached to it.
// Cancelling an already-cancelled order is a no-op, not an error.
func (s *OrderService) Cancel(ctx context.Context, id uuid.UUID) (database.Order, error) {
	unlock := s.locks.Lock("order:" + id.String())
	defer unlock()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.Order{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := store.CancelOrder(ctx, id)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, fmt.Errorf("cancel order: %w", err)
		}
		// Not cancellable: missing, delivered, or already cancelled.
		existing, err := store.GetOrder(ctx, id)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return database.Order{}, ErrOrderNotFound
			}
			return database.Order{}, fmt.Errorf("get order: %w", err)
		}
		if existing.Status == enum.OrderStatusCancelled {
			return existing, nil
		}
		return database.Order{}, fmt.Errorf("%s: %w", existing.Status, ErrOrderTerminal)
	}

	if err := store.FreeTablesByOrder(ctx, id); err != nil {
		return database.Order{}, fmt.Errorf("free tables: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return database.Order{}, fmt.Errorf("commit tx: %w", err)
	}

	s.events.Publish(events.OrderStatusChanged, order)
	return order, nil
}

// Delete removes an order and its lines outright, freeing any table that
// references it. This is the administrative override, not the normal
// cancellation path.
func (s *OrderService) Delete(ctx context.Context, id uuid.UUID) error {
	unlock := s.locks.Lock("order:" + id.String())
	defer unlock()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := store.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("get order: %w", err)
	}

	if err := store.FreeTablesByOrder(ctx, id); err != nil {
		return fmt.Errorf("free tables: %w", err)
	}
	if err := store.DeleteOrderItemsByOrder(ctx, id); err != nil {
		return fmt.Errorf("delete order items: %w", err)
	}
	if err := store.DeleteOrder(ctx, id); err != nil {
		return fmt.Errorf("delete order: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	s.events.Publish(events.OrderDeleted, order)
	return nil
}

// renderReceipt writes the printable ticket after the sale is committed.
// Failures are logged and swallowed: the sale stands without the paper.
func (s *OrderService) renderReceipt(ctx context.Context, detail *OrderDetail) {
	if s.receipts == nil || !detail.Order.PaymentMethod.Valid {
		return
	}
	store := s.store
	settings, err := store.GetSettings(ctx)
	if err != nil {
		log.Printf("ERROR: get settings for receipt %s: %v", detail.Order.OrderNumber, err)
		return
	}
	path, err := s.receipts.Render(detail.Order, detail.Items, settings)
	if err != nil {
		log.Printf("ERROR: render receipt %s: %v", detail.Order.OrderNumber, err)
		return
	}
	if err := store.SetOrderReceiptPath(ctx, database.SetOrderReceiptPathParams{
		ID:          detail.Order.ID,
		ReceiptPath: pgtype.Text{String: path, Valid: true},
	}); err != nil {
		log.Printf("ERROR: save receipt path %s: %v", detail.Order.OrderNumber, err)
		return
	}
	detail.Order.ReceiptPath = pgtype.Text{String: path, Valid: true}
}

func transitionAllowed(from, to string) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func isValidOrderStatus(s string) bool {
	switch s {
	case enum.OrderStatusPlaced, enum.OrderStatusInProgress, enum.OrderStatusReady,
		enum.OrderStatusDelivered, enum.OrderStatusCancelled:
		return true
	}
	return false
}
