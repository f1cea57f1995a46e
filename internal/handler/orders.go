package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/comanda-pos/api/internal/database"
	"github.com/comanda-pos/api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// OrderServicer defines the service methods needed by order handlers.
// Satisfied by *service.OrderService; narrow interface for testability.
type OrderServicer interface {
	CreateOrder(ctx context.Context, req service.CreateOrderRequest) (*service.OrderDetail, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*service.OrderDetail, error)
	ListOrders(ctx context.Context, req service.ListOrdersRequest) ([]database.Order, error)
	ListActiveOrders(ctx context.Context) ([]database.Order, error)
	AddLine(ctx context.Context, orderID uuid.UUID, req service.OrderLineRequest) (*service.OrderDetail, error)
	RemoveLine(ctx context.Context, orderID, lineID uuid.UUID) (*service.OrderDetail, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, newStatus string) (database.Order, error)
	Cancel(ctx context.Context, id uuid.UUID) (database.Order, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// OrderHandler handles order endpoints.
type OrderHandler struct {
	svc OrderServicer
}

func NewOrderHandler(svc OrderServicer) *OrderHandler {
	return &OrderHandler{svc: svc}
}

// RegisterRoutes registers order endpoints under /orders.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/active", h.ListActive)
	r.Get("/{id}", h.Get)
	r.Post("/{id}/items", h.AddItem)
	r.Delete("/{id}/items/{lineID}", h.RemoveItem)
	r.Patch("/{id}/status", h.UpdateStatus)
	r.Post("/{id}/cancel", h.Cancel)
	r.Delete("/{id}", h.Delete)
}

// --- Request / Response types ---

type orderLineRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int32  `json:"quantity"`
	Notes     string `json:"notes"`
}

type createOrderRequest struct {
	Items          []orderLineRequest `json:"items"`
	Notes          string             `json:"notes"`
	PickupTime     string             `json:"pickup_time"`
	PaymentMethod  string             `json:"payment_method"`
	AmountReceived string             `json:"amount_received"`
	Discount       string             `json:"discount"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type orderResponse struct {
	ID             uuid.UUID `json:"id"`
	OrderNumber    string    `json:"order_number"`
	Status         string    `json:"status"`
	TableNumber    *int32    `json:"table_number"`
	Subtotal       string    `json:"subtotal"`
	TaxAmount      string    `json:"tax_amount"`
	TotalWithTax   string    `json:"total_with_tax"`
	Discount       string    `json:"discount"`
	TotalFinal     string    `json:"total_final"`
	PaymentMethod  *string   `json:"payment_method"`
	AmountReceived *string   `json:"amount_received"`
	ChangeGiven    *string   `json:"change_given"`
	Notes          *string   `json:"notes"`
	PickupTime     *string   `json:"pickup_time"`
	ReceiptPath    *string   `json:"receipt_path"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type orderItemResponse struct {
	ID          uuid.UUID `json:"id"`
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	Quantity    int32     `json:"quantity"`
	UnitPrice   string    `json:"unit_price"`
	Subtotal    string    `json:"subtotal"`
	Notes       *string   `json:"notes"`
}

type orderDetailResponse struct {
	orderResponse
	Items []orderItemResponse `json:"items"`
}

type orderListResponse struct {
	Orders []orderResponse `json:"orders"`
	Limit  int32           `json:"limit"`
	Offset int32           `json:"offset"`
}

func toOrderResponse(o database.Order) orderResponse {
	return orderResponse{
		ID:             o.ID,
		OrderNumber:    o.OrderNumber,
		Status:         o.Status,
		TableNumber:    int4Ptr(o.TableNumber),
		Subtotal:       numericString(o.Subtotal),
		TaxAmount:      numericString(o.TaxAmount),
		TotalWithTax:   numericString(o.TotalWithTax),
		Discount:       numericString(o.Discount),
		TotalFinal:     numericString(o.TotalFinal),
		PaymentMethod:  textPtr(o.PaymentMethod),
		AmountReceived: numericPtr(o.AmountReceived),
		ChangeGiven:    numericPtr(o.ChangeGiven),
		Notes:          textPtr(o.Notes),
		PickupTime:     textPtr(o.PickupTime),
		ReceiptPath:    textPtr(o.ReceiptPath),
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}
}

func toOrderDetailResponse(d *service.OrderDetail) orderDetailResponse {
	items := make([]orderItemResponse, 0, len(d.Items))
	for _, it := range d.Items {
		items = append(items, orderItemResponse{
			ID:          it.ID,
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   numericString(it.UnitPrice),
			Subtotal:    numericString(it.Subtotal),
			Notes:       textPtr(it.Notes),
		})
	}
	return orderDetailResponse{orderResponse: toOrderResponse(d.Order), Items: items}
}

func toServiceLines(items []orderLineRequest) []service.OrderLineRequest {
	lines := make([]service.OrderLineRequest, len(items))
	for i, item := range items {
		lines[i] = service.OrderLineRequest{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Notes:     item.Notes,
		}
	}
	return lines
}

// --- Handlers ---

// Create handles POST /orders.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	detail, err := h.svc.CreateOrder(r.Context(), service.CreateOrderRequest{
		Items:          toServiceLines(req.Items),
		Notes:          req.Notes,
		PickupTime:     req.PickupTime,
		PaymentMethod:  req.PaymentMethod,
		AmountReceived: req.AmountReceived,
		Discount:       req.Discount,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderDetailResponse(detail))
}

// List handles GET /orders?status=&date=&limit=&offset=.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	var limit, offset int32 = 50, 0
	if s := r.URL.Query().Get("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			limit = int32(v)
		}
	}
	if s := r.URL.Query().Get("offset"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v >= 0 {
			offset = int32(v)
		}
	}

	orders, err := h.svc.ListOrders(r.Context(), service.ListOrdersRequest{
		Status: r.URL.Query().Get("status"),
		Day:    r.URL.Query().Get("date"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	resp := orderListResponse{Orders: make([]orderResponse, 0, len(orders)), Limit: limit, Offset: offset}
	for _, o := range orders {
		resp.Orders = append(resp.Orders, toOrderResponse(o))
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListActive handles GET /orders/active (the kitchen feed).
func (h *OrderHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	orders, err := h.svc.ListActiveOrders(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	resp := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		resp = append(resp, toOrderResponse(o))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /orders/{id}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	detail, err := h.svc.GetOrder(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderDetailResponse(detail))
}

// AddItem handles POST /orders/{id}/items.
func (h *OrderHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req orderLineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	detail, err := h.svc.AddLine(r.Context(), id, service.OrderLineRequest{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		Notes:     req.Notes,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderDetailResponse(detail))
}

// RemoveItem handles DELETE /orders/{id}/items/{lineID}.
func (h *OrderHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}
	lineID, err := uuid.Parse(chi.URLParam(r, "lineID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid line ID"})
		return
	}

	detail, err := h.svc.RemoveLine(r.Context(), id, lineID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderDetailResponse(detail))
}

// UpdateStatus handles PATCH /orders/{id}/status.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Status == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "status is required"})
		return
	}

	order, err := h.svc.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

// Cancel handles POST /orders/{id}/cancel.
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	order, err := h.svc.Cancel(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

// Delete handles DELETE /orders/{id} (administrative removal).
func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
