package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/comanda-pos/api/internal/database"
	"github.com/comanda-pos/api/internal/enum"
	"github.com/comanda-pos/api/internal/events"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// --- Mock implementations ---

// mockTx implements pgx.Tx with only the methods we need.
// The unused methods panic so we catch accidental calls.
type mockTx struct {
	commitErr   error
	rollbackErr error
	commits     int
}

func (m *mockTx) Begin(ctx context.Context) (pgx.Tx, error) { panic("not implemented") }
func (m *mockTx) Commit(ctx context.Context) error {
	m.commits++
	return m.commitErr
}
func (m *mockTx) Rollback(ctx context.Context) error { return m.rollbackErr }
func (m *mockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	panic("not implemented")
}
func (m *mockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	panic("not implemented")
}
func (m *mockTx) LargeObjects() pgx.LargeObjects { panic("not implemented") }
func (m *mockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	panic("not implemented")
}
func (m *mockTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	panic("not implemented")
}
func (m *mockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	panic("not implemented")
}
func (m *mockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	panic("not implemented")
}
func (m *mockTx) Conn() *pgx.Conn { panic("not implemented") }

// mockTxBeginner implements TxBeginner.
type mockTxBeginner struct {
	tx  *mockTx
	err error
}

func (m *mockTxBeginner) Begin(ctx context.Context) (pgx.Tx, error) {
	return m.tx, m.err
}

// mockPublisher records published events.
type mockPublisher struct {
	mu        sync.Mutex
	published []publishedEvent
}

type publishedEvent struct {
	name    string
	payload any
}

func (m *mockPublisher) Publish(name string, payload any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, publishedEvent{name: name, payload: payload})
}

func (m *mockPublisher) names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.published))
	for _, e := range m.published {
		out = append(out, e.name)
	}
	return out
}

// mockOrderStore implements OrderStore with configurable behavior.
type mockOrderStore struct {
	maxOrderSequenceFn        func(ctx context.Context, datePrefix string) (int32, error)
	orderNumberExistsFn       func(ctx context.Context, orderNumber string) (bool, error)
	getSettingsFn             func(ctx context.Context) (database.Settings, error)
	getProductFn              func(ctx context.Context, id uuid.UUID) (database.Product, error)
	createOrderFn             func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	createOrderItemFn         func(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
	getOrderFn                func(ctx context.Context, id uuid.UUID) (database.Order, error)
	listOrdersFn              func(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error)
	listActiveOrdersFn        func(ctx context.Context) ([]database.Order, error)
	listOrderItemsFn          func(ctx context.Context, orderID uuid.UUID) ([]database.ListOrderItemsRow, error)
	getOrderItemByProductFn   func(ctx context.Context, arg database.GetOrderItemByProductParams) (database.OrderItem, error)
	getOrderItemFn            func(ctx context.Context, arg database.GetOrderItemParams) (database.OrderItem, error)
	updateOrderItemFn         func(ctx context.Context, arg database.UpdateOrderItemParams) (database.OrderItem, error)
	deleteOrderItemFn         func(ctx context.Context, id uuid.UUID) error
	updateOrderTotalsFn       func(ctx context.Context, arg database.UpdateOrderTotalsParams) (database.Order, error)
	updateOrderStatusFn       func(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error)
	cancelOrderFn             func(ctx context.Context, id uuid.UUID) (database.Order, error)
	deleteOrderItemsByOrderFn func(ctx context.Context, orderID uuid.UUID) error
	deleteOrderFn             func(ctx context.Context, id uuid.UUID) error
	freeTablesByOrderFn       func(ctx context.Context, orderID uuid.UUID) error
	setOrderReceiptPathFn     func(ctx context.Context, arg database.SetOrderReceiptPathParams) error
}

func (m *mockOrderStore) MaxOrderSequence(ctx context.Context, datePrefix string) (int32, error) {
	return m.maxOrderSequenceFn(ctx, datePrefix)
}
func (m *mockOrderStore) OrderNumberExists(ctx context.Context, orderNumber string) (bool, error) {
	return m.orderNumberExistsFn(ctx, orderNumber)
}
func (m *mockOrderStore) GetSettings(ctx context.Context) (database.Settings, error) {
	return m.getSettingsFn(ctx)
}
func (m *mockOrderStore) GetProduct(ctx context.Context, id uuid.UUID) (database.Product, error) {
	return m.getProductFn(ctx, id)
}
func (m *mockOrderStore) CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
	return m.createOrderFn(ctx, arg)
}
func (m *mockOrderStore) CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error) {
	return m.createOrderItemFn(ctx, arg)
}
func (m *mockOrderStore) GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error) {
	return m.getOrderFn(ctx, id)
}
func (m *mockOrderStore) ListOrders(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error) {
	return m.listOrdersFn(ctx, arg)
}
func (m *mockOrderStore) ListActiveOrders(ctx context.Context) ([]database.Order, error) {
	return m.listActiveOrdersFn(ctx)
}
func (m *mockOrderStore) ListOrderItems(ctx context.Context, orderID uuid.UUID) ([]database.ListOrderItemsRow, error) {
	return m.listOrderItemsFn(ctx, orderID)
}
func (m *mockOrderStore) GetOrderItemByProduct(ctx context.Context, arg database.GetOrderItemByProductParams) (database.OrderItem, error) {
	return m.getOrderItemByProductFn(ctx, arg)
}
func (m *mockOrderStore) GetOrderItem(ctx context.Context, arg database.GetOrderItemParams) (database.OrderItem, error) {
	return m.getOrderItemFn(ctx, arg)
}
func (m *mockOrderStore) UpdateOrderItem(ctx context.Context, arg database.UpdateOrderItemParams) (database.OrderItem, error) {
	return m.updateOrderItemFn(ctx, arg)
}
func (m *mockOrderStore) DeleteOrderItem(ctx context.Context, id uuid.UUID) error {
	return m.deleteOrderItemFn(ctx, id)
}
func (m *mockOrderStore) UpdateOrderTotals(ctx context.Context, arg database.UpdateOrderTotalsParams) (database.Order, error) {
	return m.updateOrderTotalsFn(ctx, arg)
}
func (m *mockOrderStore) UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error) {
	return m.updateOrderStatusFn(ctx, arg)
}
func (m *mockOrderStore) CancelOrder(ctx context.Context, id uuid.UUID) (database.Order, error) {
	return m.cancelOrderFn(ctx, id)
}
func (m *mockOrderStore) DeleteOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) error {
	return m.deleteOrderItemsByOrderFn(ctx, orderID)
}
func (m *mockOrderStore) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	return m.deleteOrderFn(ctx, id)
}
func (m *mockOrderStore) FreeTablesByOrder(ctx context.Context, orderID uuid.UUID) error {
	return m.freeTablesByOrderFn(ctx, orderID)
}
func (m *mockOrderStore) SetOrderReceiptPath(ctx context.Context, arg database.SetOrderReceiptPathParams) error {
	return m.setOrderReceiptPathFn(ctx, arg)
}

// --- Test helpers ---

func makeNumeric(val string) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(val)
	return n
}

func numericEquals(n pgtype.Numeric, expected string) bool {
	d := numericToDecimal(n)
	exp, _ := decimal.NewFromString(expected)
	return d.Equal(exp)
}

// newTestOrderService creates an OrderService whose store factory always
// returns the given mock.
func newTestOrderService(store *mockOrderStore) (*OrderService, *mockTx, *mockPublisher) {
	tx := &mockTx{}
	pool := &mockTxBeginner{tx: tx}
	pub := &mockPublisher{}
	newStore := func(db database.DBTX) OrderStore { return store }
	return NewOrderService(pool, tx, newStore, pub, nil), tx, pub
}

func availableProduct(id uuid.UUID, name, price string) database.Product {
	return database.Product{
		ID:        id,
		Name:      name,
		Price:     makeNumeric(price),
		Active:    true,
		Available: true,
	}
}

// defaultOrderStore covers the happy create path: empty day sequence, 10%
// tax, the given products orderable. Tests override what they care about.
func defaultOrderStore(products map[uuid.UUID]database.Product) *mockOrderStore {
	return &mockOrderStore{
		maxOrderSequenceFn: func(ctx context.Context, datePrefix string) (int32, error) {
			return 0, nil
		},
		orderNumberExistsFn: func(ctx context.Context, orderNumber string) (bool, error) {
			return false, nil
		},
		getSettingsFn: func(ctx context.Context) (database.Settings, error) {
			return database.Settings{ID: 1, TaxRate: makeNumeric("10.00")}, nil
		},
		getProductFn: func(ctx context.Context, id uuid.UUID) (database.Product, error) {
			p, ok := products[id]
			if !ok {
				return database.Product{}, pgx.ErrNoRows
			}
			return p, nil
		},
		createOrderFn: func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
			return database.Order{
				ID:             uuid.New(),
				OrderNumber:    arg.OrderNumber,
				Status:         arg.Status,
				Subtotal:       arg.Subtotal,
				TaxAmount:      arg.TaxAmount,
				TotalWithTax:   arg.TotalWithTax,
				Discount:       arg.Discount,
				TotalFinal:     arg.TotalFinal,
				PaymentMethod:  arg.PaymentMethod,
				AmountReceived: arg.AmountReceived,
				ChangeGiven:    arg.ChangeGiven,
			}, nil
		},
		createOrderItemFn: func(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error) {
			return database.OrderItem{
				ID:        uuid.New(),
				OrderID:   arg.OrderID,
				ProductID: arg.ProductID,
				Quantity:  arg.Quantity,
				UnitPrice: arg.UnitPrice,
				Subtotal:  arg.Subtotal,
				Notes:     arg.Notes,
			}, nil
		},
		listOrderItemsFn: func(ctx context.Context, orderID uuid.UUID) ([]database.ListOrderItemsRow, error) {
			return nil, nil
		},
	}
}

// --- CreateOrder ---

func TestCreateOrderComputesTotals(t *testing.T) {
	colaID := uuid.New()
	burgerID := uuid.New()
	store := defaultOrderStore(map[uuid.UUID]database.Product{
		colaID:   availableProduct(colaID, "Coca Cola", "2.50"),
		burgerID: availableProduct(burgerID, "Hamburguesa", "9.90"),
	})

	var created database.CreateOrderParams
	base := store.createOrderFn
	store.createOrderFn = func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
		created = arg
		return base(ctx, arg)
	}

	svc, tx, pub := newTestOrderService(store)
	detail, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		Items: []OrderLineRequest{
			{ProductID: colaID.String(), Quantity: 2},
			{ProductID: burgerID.String(), Quantity: 1},
		},
		PaymentMethod:  enum.PaymentMethodCash,
		AmountReceived: "20.00",
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	if !numericEquals(created.Subtotal, "14.90") {
		t.Errorf("subtotal: got %v, want 14.90", numericToDecimal(created.Subtotal))
	}
	if !numericEquals(created.TaxAmount, "1.49") {
		t.Errorf("tax: got %v, want 1.49", numericToDecimal(created.TaxAmount))
	}
	if !numericEquals(created.TotalWithTax, "16.39") {
		t.Errorf("total with tax: got %v, want 16.39", numericToDecimal(created.TotalWithTax))
	}
	if !numericEquals(created.TotalFinal, "16.39") {
		t.Errorf("total final: got %v, want 16.39", numericToDecimal(created.TotalFinal))
	}
	if !numericEquals(created.ChangeGiven, "3.61") {
		t.Errorf("change: got %v, want 3.61", numericToDecimal(created.ChangeGiven))
	}
	if !strings.HasSuffix(created.OrderNumber, "-001") {
		t.Errorf("order number %q should end with -001", created.OrderNumber)
	}
	if created.Status != enum.OrderStatusPlaced {
		t.Errorf("status: got %s, want %s", created.Status, enum.OrderStatusPlaced)
	}
	if tx.commits != 1 {
		t.Errorf("commits: got %d, want 1", tx.commits)
	}
	if detail.Order.OrderNumber != created.OrderNumber {
		t.Errorf("returned order number mismatch")
	}

	names := pub.names()
	if len(names) != 1 || names[0] != events.OrderCreated {
		t.Errorf("events: got %v, want [%s]", names, events.OrderCreated)
	}
}

func TestCreateOrderValidation(t *testing.T) {
	colaID := uuid.New()
	products := map[uuid.UUID]database.Product{
		colaID: availableProduct(colaID, "Coca Cola", "2.50"),
	}

	tests := []struct {
		name    string
		req     CreateOrderRequest
		wantErr error
	}{
		{
			name:    "empty items",
			req:     CreateOrderRequest{},
			wantErr: ErrEmptyItems,
		},
		{
			name: "zero quantity",
			req: CreateOrderRequest{
				Items: []OrderLineRequest{{ProductID: colaID.String(), Quantity: 0}},
			},
			wantErr: ErrInvalidQuantity,
		},
		{
			name: "bad product id",
			req: CreateOrderRequest{
				Items: []OrderLineRequest{{ProductID: "nope", Quantity: 1}},
			},
			wantErr: ErrInvalidProductID,
		},
		{
			name: "unknown product",
			req: CreateOrderRequest{
				Items: []OrderLineRequest{{ProductID: uuid.NewString(), Quantity: 1}},
			},
			wantErr: ErrProductNotFound,
		},
		{
			name: "bad payment method",
			req: CreateOrderRequest{
				Items:         []OrderLineRequest{{ProductID: colaID.String(), Quantity: 1}},
				PaymentMethod: "BARTER",
			},
			wantErr: ErrInvalidPaymentMethod,
		},
		{
			name: "negative discount",
			req: CreateOrderRequest{
				Items:    []OrderLineRequest{{ProductID: colaID.String(), Quantity: 1}},
				Discount: "-1.00",
			},
			wantErr: ErrInvalidDiscount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newTestOrderService(defaultOrderStore(products))
			_, err := svc.CreateOrder(context.Background(), tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateOrderRejectsUnavailableProduct(t *testing.T) {
	soldOut := uuid.New()
	p := availableProduct(soldOut, "Tiramisu", "5.00")
	p.Available = false
	store := defaultOrderStore(map[uuid.UUID]database.Product{soldOut: p})

	svc, _, _ := newTestOrderService(store)
	_, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		Items: []OrderLineRequest{{ProductID: soldOut.String(), Quantity: 1}},
	})
	if !errors.Is(err, ErrProductUnavailable) {
		t.Errorf("got %v, want %v", err, ErrProductUnavailable)
	}
}

func TestCreateOrderInsufficientPayment(t *testing.T) {
	colaID := uuid.New()
	store := defaultOrderStore(map[uuid.UUID]database.Product{
		colaID: availableProduct(colaID, "Coca Cola", "2.50"),
	})

	svc, _, _ := newTestOrderService(store)
	_, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		Items:          []OrderLineRequest{{ProductID: colaID.String(), Quantity: 2}},
		PaymentMethod:  enum.PaymentMethodCash,
		AmountReceived: "1.00",
	})
	if !errors.Is(err, ErrInsufficientPayment) {
		t.Errorf("got %v, want %v", err, ErrInsufficientPayment)
	}
}

func TestCreateOrderRetriesOnNumberConflict(t *testing.T) {
	colaID := uuid.New()
	store := defaultOrderStore(map[uuid.UUID]database.Product{
		colaID: availableProduct(colaID, "Coca Cola", "2.50"),
	})

	attempts := 0
	base := store.createOrderFn
	store.createOrderFn = func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
		attempts++
		if attempts == 1 {
			return database.Order{}, &pgconn.PgError{
				Code:           "23505",
				ConstraintName: "orders_order_number_key",
			}
		}
		return base(ctx, arg)
	}

	svc, _, _ := newTestOrderService(store)
	_, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		Items: []OrderLineRequest{{ProductID: colaID.String(), Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("CreateOrder should succeed after retry: %v", err)
	}
	if attempts != 2 {
		t.Errorf("attempts: got %d, want 2", attempts)
	}
}

func TestCreateOrderGivesUpAfterRepeatedConflicts(t *testing.T) {
	colaID := uuid.New()
	store := defaultOrderStore(map[uuid.UUID]database.Product{
		colaID: availableProduct(colaID, "Coca Cola", "2.50"),
	})
	store.createOrderFn = func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
		return database.Order{}, &pgconn.PgError{
			Code:           "23505",
			ConstraintName: "orders_order_number_key",
		}
	}

	svc, _, _ := newTestOrderService(store)
	_, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		Items: []OrderLineRequest{{ProductID: colaID.String(), Quantity: 1}},
	})
	if !errors.Is(err, ErrDuplicateOrderNumber) {
		t.Errorf("got %v, want %v", err, ErrDuplicateOrderNumber)
	}
}

// --- AddLine / RemoveLine ---

func openOrder(id uuid.UUID) database.Order {
	return database.Order{
		ID:           id,
		OrderNumber:  "20260830-001",
		Status:       enum.OrderStatusPlaced,
		Subtotal:     makeNumeric("5.00"),
		TaxAmount:    makeNumeric("0.50"),
		TotalWithTax: makeNumeric("5.50"),
		Discount:     makeNumeric("0.00"),
		TotalFinal:   makeNumeric("5.50"),
	}
}

func TestAddLineMergesExistingLine(t *testing.T) {
	orderID := uuid.New()
	colaID := uuid.New()
	lineID := uuid.New()

	store := defaultOrderStore(map[uuid.UUID]database.Product{
		colaID: availableProduct(colaID, "Coca Cola", "2.50"),
	})
	store.getOrderFn = func(ctx context.Context, id uuid.UUID) (database.Order, error) {
		return openOrder(orderID), nil
	}
	store.getOrderItemByProductFn = func(ctx context.Context, arg database.GetOrderItemByProductParams) (database.OrderItem, error) {
		return database.OrderItem{
			ID:        lineID,
			OrderID:   orderID,
			ProductID: colaID,
			Quantity:  2,
			UnitPrice: makeNumeric("2.50"),
			Subtotal:  makeNumeric("5.00"),
		}, nil
	}

	var updated database.UpdateOrderItemParams
	store.updateOrderItemFn = func(ctx context.Context, arg database.UpdateOrderItemParams) (database.OrderItem, error) {
		updated = arg
		return database.OrderItem{ID: arg.ID, Quantity: arg.Quantity, Subtotal: arg.Subtotal}, nil
	}
	created := false
	store.createOrderItemFn = func(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error) {
		created = true
		return database.OrderItem{}, nil
	}
	store.listOrderItemsFn = func(ctx context.Context, orderID uuid.UUID) ([]database.ListOrderItemsRow, error) {
		return []database.ListOrderItemsRow{
			{OrderItem: database.OrderItem{ID: lineID, Quantity: 5, Subtotal: makeNumeric("12.50")}, ProductName: "Coca Cola"},
		}, nil
	}
	var totals database.UpdateOrderTotalsParams
	store.updateOrderTotalsFn = func(ctx context.Context, arg database.UpdateOrderTotalsParams) (database.Order, error) {
		totals = arg
		o := openOrder(orderID)
		o.Subtotal = arg.Subtotal
		o.TotalFinal = arg.TotalFinal
		return o, nil
	}

	svc, _, _ := newTestOrderService(store)
	_, err := svc.AddLine(context.Background(), orderID, OrderLineRequest{
		ProductID: colaID.String(),
		Quantity:  3,
	})
	if err != nil {
		t.Fatalf("AddLine: %v", err)
	}

	if created {
		t.Error("existing line should be merged, not duplicated")
	}
	if updated.ID != lineID {
		t.Errorf("updated line: got %s, want %s", updated.ID, lineID)
	}
	if updated.Quantity != 5 {
		t.Errorf("merged quantity: got %d, want 5", updated.Quantity)
	}
	if !numericEquals(updated.Subtotal, "12.50") {
		t.Errorf("merged subtotal: got %v, want 12.50", numericToDecimal(updated.Subtotal))
	}
	if !numericEquals(totals.Subtotal, "12.50") {
		t.Errorf("order subtotal: got %v, want 12.50", numericToDecimal(totals.Subtotal))
	}
	if !numericEquals(totals.TotalFinal, "13.75") {
		t.Errorf("order total: got %v, want 13.75", numericToDecimal(totals.TotalFinal))
	}
}

func TestAddLineRejectsClosedOrder(t *testing.T) {
	orderID := uuid.New()
	colaID := uuid.New()
	store := defaultOrderStore(map[uuid.UUID]database.Product{
		colaID: availableProduct(colaID, "Coca Cola", "2.50"),
	})
	store.getOrderFn = func(ctx context.Context, id uuid.UUID) (database.Order, error) {
		o := openOrder(orderID)
		o.Status = enum.OrderStatusDelivered
		return o, nil
	}

	svc, _, _ := newTestOrderService(store)
	_, err := svc.AddLine(context.Background(), orderID, OrderLineRequest{
		ProductID: colaID.String(),
		Quantity:  1,
	})
	if !errors.Is(err, ErrOrderTerminal) {
		t.Errorf("got %v, want %v", err, ErrOrderTerminal)
	}
}

func TestAddLineStockGate(t *testing.T) {
	orderID := uuid.New()
	soldOut := uuid.New()
	p := availableProduct(soldOut, "Pizza", "12.00")
	p.Available = false
	store := defaultOrderStore(map[uuid.UUID]database.Product{soldOut: p})
	store.getOrderFn = func(ctx context.Context, id uuid.UUID) (database.Order, error) {
		return openOrder(orderID), nil
	}

	svc, _, _ := newTestOrderService(store)
	_, err := svc.AddLine(context.Background(), orderID, OrderLineRequest{
		ProductID: soldOut.String(),
		Quantity:  1,
	})
	if !errors.Is(err, ErrProductUnavailable) {
		t.Errorf("got %v, want %v", err, ErrProductUnavailable)
	}
}

func TestRemoveLineNotFound(t *testing.T) {
	orderID := uuid.New()
	store := defaultOrderStore(nil)
	store.getOrderFn = func(ctx context.Context, id uuid.UUID) (database.Order, error) {
		return openOrder(orderID), nil
	}
	store.getOrderItemFn = func(ctx context.Context, arg database.GetOrderItemParams) (database.OrderItem, error) {
		return database.OrderItem{}, pgx.ErrNoRows
	}

	svc, _, _ := newTestOrderService(store)
	_, err := svc.RemoveLine(context.Background(), orderID, uuid.New())
	if !errors.Is(err, ErrOrderItemNotFound) {
		t.Errorf("got %v, want %v", err, ErrOrderItemNotFound)
	}
}

func TestRemoveLineRecomputesTotals(t *testing.T) {
	orderID := uuid.New()
	lineID := uuid.New()
	store := defaultOrderStore(nil)
	store.getOrderFn = func(ctx context.Context, id uuid.UUID) (database.Order, error) {
		return openOrder(orderID), nil
	}
	store.getOrderItemFn = func(ctx context.Context, arg database.GetOrderItemParams) (database.OrderItem, error) {
		return database.OrderItem{ID: lineID, OrderID: orderID}, nil
	}
	deleted := false
	store.deleteOrderItemFn = func(ctx context.Context, id uuid.UUID) error {
		deleted = true
		return nil
	}
	store.listOrderItemsFn = func(ctx context.Context, orderID uuid.UUID) ([]database.ListOrderItemsRow, error) {
		return nil, nil
	}
	var totals database.UpdateOrderTotalsParams
	store.updateOrderTotalsFn = func(ctx context.Context, arg database.UpdateOrderTotalsParams) (database.Order, error) {
		totals = arg
		return openOrder(orderID), nil
	}

	svc, _, _ := newTestOrderService(store)
	if _, err := svc.RemoveLine(context.Background(), orderID, lineID); err != nil {
		t.Fatalf("RemoveLine: %v", err)
	}
	if !deleted {
		t.Error("line should be deleted")
	}
	if !numericEquals(totals.TotalFinal, "0.00") {
		t.Errorf("empty order total: got %v, want 0.00", numericToDecimal(totals.TotalFinal))
	}
}

// --- UpdateStatus ---

func TestUpdateStatusTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		to      string
		wantErr error
	}{
		{name: "placed to in progress", from: enum.OrderStatusPlaced, to: enum.OrderStatusInProgress},
		{name: "in progress to ready", from: enum.OrderStatusInProgress, to: enum.OrderStatusReady},
		{name: "ready to delivered", from: enum.OrderStatusReady, to: enum.OrderStatusDelivered},
		{name: "placed cannot skip to ready", from: enum.OrderStatusPlaced, to: enum.OrderStatusReady, wantErr: ErrInvalidTransition},
		{name: "no going backwards", from: enum.OrderStatusReady, to: enum.OrderStatusPlaced, wantErr: ErrInvalidTransition},
		{name: "delivered is terminal", from: enum.OrderStatusDelivered, to: enum.OrderStatusReady, wantErr: ErrOrderTerminal},
		{name: "cancelled is terminal", from: enum.OrderStatusCancelled, to: enum.OrderStatusInProgress, wantErr: ErrOrderTerminal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orderID := uuid.New()
			store := defaultOrderStore(nil)
			store.getOrderFn = func(ctx context.Context, id uuid.UUID) (database.Order, error) {
				o := openOrder(orderID)
				o.Status = tt.from
				return o, nil
			}
			store.updateOrderStatusFn = func(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error) {
				o := openOrder(orderID)
				o.Status = arg.Status
				return o, nil
			}
			store.freeTablesByOrderFn = func(ctx context.Context, id uuid.UUID) error {
				return nil
			}

			svc, _, pub := newTestOrderService(store)
			updated, err := svc.UpdateStatus(context.Background(), orderID, tt.to)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("got %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("UpdateStatus: %v", err)
			}
			if updated.Status != tt.to {
				t.Errorf("status: got %s, want %s", updated.Status, tt.to)
			}
			names := pub.names()
			if len(names) != 1 || names[0] != events.OrderStatusChanged {
				t.Errorf("events: got %v, want [%s]", names, events.OrderStatusChanged)
			}
		})
	}
}

func TestDeliverFreesTables(t *testing.T) {
	orderID := uuid.New()
	store := defaultOrderStore(nil)
	store.getOrderFn = func(ctx context.Context, id uuid.UUID) (database.Order, error) {
		o := openOrder(orderID)
		o.Status = enum.OrderStatusReady
		o.TableNumber = pgtype.Int4{Int32: 5, Valid: true}
		return o, nil
	}
	store.updateOrderStatusFn = func(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error) {
		o := openOrder(orderID)
		o.Status = arg.Status
		o.TableNumber = pgtype.Int4{Int32: 5, Valid: true}
		return o, nil
	}
	var freedOrder uuid.UUID
	store.freeTablesByOrderFn = func(ctx context.Context, id uuid.UUID) error {
		freedOrder = id
		return nil
	}

	svc, tx, _ := newTestOrderService(store)
	updated, err := svc.UpdateStatus(context.Background(), orderID, enum.OrderStatusDelivered)
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if updated.Status != enum.OrderStatusDelivered {
		t.Errorf("status: got %s, want %s", updated.Status, enum.OrderStatusDelivered)
	}
	if freedOrder != orderID {
		t.Errorf("tables referencing the order should be freed, got %s", freedOrder)
	}
	if tx.commits != 1 {
		t.Errorf("commits: got %d, want 1", tx.commits)
	}
}

func TestInProgressDoesNotFreeTables(t *testing.T) {
	orderID := uuid.New()
	store := defaultOrderStore(nil)
	store.getOrderFn = func(ctx context.Context, id uuid.UUID) (database.Order, error) {
		return openOrder(orderID), nil
	}
	store.updateOrderStatusFn = func(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error) {
		o := openOrder(orderID)
		o.Status = arg.Status
		return o, nil
	}
	store.freeTablesByOrderFn = func(ctx context.Context, id uuid.UUID) error {
		t.Error("non-terminal transition must not free tables")
		return nil
	}

	svc, _, _ := newTestOrderService(store)
	if _, err := svc.UpdateStatus(context.Background(), orderID, enum.OrderStatusInProgress); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
}

func TestUpdateStatusLostRace(t *testing.T) {
	orderID := uuid.New()
	store := defaultOrderStore(nil)
	store.getOrderFn = func(ctx context.Context, id uuid.UUID) (database.Order, error) {
		return openOrder(orderID), nil
	}
	store.updateOrderStatusFn = func(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error) {
		return database.Order{}, pgx.ErrNoRows
	}

	svc, _, _ := newTestOrderService(store)
	_, err := svc.UpdateStatus(context.Background(), orderID, enum.OrderStatusInProgress)
	if !errors.Is(err, ErrStatusRace) {
		t.Errorf("got %v, want %v", err, ErrStatusRace)
	}
}

// --- Cancel / Delete ---

func TestCancelFreesTables(t *testing.T) {
	orderID := uuid.New()
	store := defaultOrderStore(nil)
	store.cancelOrderFn = func(ctx context.Context, id uuid.UUID) (database.Order, error) {
		o := openOrder(orderID)
		o.Status = enum.OrderStatusCancelled
		return o, nil
	}
	freed := false
	store.freeTablesByOrderFn = func(ctx context.Context, id uuid.UUID) error {
		freed = true
		return nil
	}

	svc, tx, pub := newTestOrderService(store)
	order, err := svc.Cancel(context.Background(), orderID)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if order.Status != enum.OrderStatusCancelled {
		t.Errorf("status: got %s, want %s", order.Status, enum.OrderStatusCancelled)
	}
	if !freed {
		t.Error("tables referencing the order should be freed")
	}
	if tx.commits != 1 {
		t.Errorf("commits: got %d, want 1", tx.commits)
	}
	names := pub.names()
	if len(names) != 1 || names[0] != events.OrderStatusChanged {
		t.Errorf("events: got %v, want [%s]", names, events.OrderStatusChanged)
	}
}

func TestCancelIsIdempotent(t *testing.T) {
	orderID := uuid.New()
	store := defaultOrderStore(nil)
	store.cancelOrderFn = func(ctx context.Context, id uuid.UUID) (database.Order, error) {
		return database.Order{}, pgx.ErrNoRows
	}
	store.getOrderFn = func(ctx context.Context, id uuid.UUID) (database.Order, error) {
		o := openOrder(orderID)
		o.Status = enum.OrderStatusCancelled
		return o, nil
	}

	svc, _, pub := newTestOrderService(store)
	order, err := svc.Cancel(context.Background(), orderID)
	if err != nil {
		t.Fatalf("cancelling a cancelled order should be a no-op: %v", err)
	}
	if order.Status != enum.OrderStatusCancelled {
		t.Errorf("status: got %s, want %s", order.Status, enum.OrderStatusCancelled)
	}
	if len(pub.names()) != 0 {
		t.Errorf("no events expected, got %v", pub.names())
	}
}

func TestCancelDeliveredOrderFails(t *testing.T) {
	orderID := uuid.New()
	store := defaultOrderStore(nil)
	store.cancelOrderFn = func(ctx context.Context, id uuid.UUID) (database.Order, error) {
		return database.Order{}, pgx.ErrNoRows
	}
	store.getOrderFn = func(ctx context.Context, id uuid.UUID) (database.Order, error) {
		o := openOrder(orderID)
		o.Status = enum.OrderStatusDelivered
		return o, nil
	}

	svc, _, _ := newTestOrderService(store)
	_, err := svc.Cancel(context.Background(), orderID)
	if !errors.Is(err, ErrOrderTerminal) {
		t.Errorf("got %v, want %v", err, ErrOrderTerminal)
	}
}

func TestDeleteRemovesOrderAndFreesTables(t *testing.T) {
	orderID := uuid.New()
	store := defaultOrderStore(nil)
	store.getOrderFn = func(ctx context.Context, id uuid.UUID) (database.Order, error) {
		return openOrder(orderID), nil
	}
	var calls []string
	store.freeTablesByOrderFn = func(ctx context.Context, id uuid.UUID) error {
		calls = append(calls, "freeTables")
		return nil
	}
	store.deleteOrderItemsByOrderFn = func(ctx context.Context, id uuid.UUID) error {
		calls = append(calls, "deleteItems")
		return nil
	}
	store.deleteOrderFn = func(ctx context.Context, id uuid.UUID) error {
		calls = append(calls, "deleteOrder")
		return nil
	}

	svc, _, pub := newTestOrderService(store)
	if err := svc.Delete(context.Background(), orderID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	want := []string{"freeTables", "deleteItems", "deleteOrder"}
	if len(calls) != len(want) {
		t.Fatalf("calls: got %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("calls: got %v, want %v", calls, want)
		}
	}
	names := pub.names()
	if len(names) != 1 || names[0] != events.OrderDeleted {
		t.Errorf("events: got %v, want [%s]", names, events.OrderDeleted)
	}
}

func TestDeleteUnknownOrder(t *testing.T) {
	store := defaultOrderStore(nil)
	store.getOrderFn = func(ctx context.Context, id uuid.UUID) (database.Order, error) {
		return database.Order{}, pgx.ErrNoRows
	}

	svc, _, _ := newTestOrderService(store)
	if err := svc.Delete(context.Background(), uuid.New()); !errors.Is(err, ErrOrderNotFound) {
		t.Errorf("got %v, want %v", err, ErrOrderNotFound)
	}
}
