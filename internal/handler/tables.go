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

// TableServicer defines the service methods needed by table handlers.
// Satisfied by *service.TableService.
type TableServicer interface {
	Open(ctx context.Context, number int32, req service.OpenTableRequest) (*service.OpenTableResult, error)
	AddProduct(ctx context.Context, number int32, req service.OrderLineRequest) (*service.OrderDetail, error)
	RemoveProduct(ctx context.Context, number int32, lineID uuid.UUID) (*service.OrderDetail, error)
	Close(ctx context.Context, number int32, req service.CloseTableRequest) (*service.CloseTableResult, error)
	Cancel(ctx context.Context, number int32) error
	Get(ctx context.Context, number int32) (database.Table, error)
	List(ctx context.Context) ([]database.Table, error)
}

// TableHandler handles table session endpoints.
type TableHandler struct {
	svc TableServicer
}

func NewTableHandler(svc TableServicer) *TableHandler {
	return &TableHandler{svc: svc}
}

// RegisterRoutes registers table endpoints under /tables.
func (h *TableHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{number}", h.Get)
	r.Post("/{number}/open", h.Open)
	r.Post("/{number}/items", h.AddProduct)
	r.Delete("/{number}/items/{lineID}", h.RemoveProduct)
	r.Post("/{number}/close", h.Close)
	r.Post("/{number}/cancel", h.Cancel)
}

// --- Request / Response types ---

type openTableRequest struct {
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"`
}

type closeTableRequest struct {
	PaymentMethod  string `json:"payment_method"`
	AmountReceived string `json:"amount_received"`
	Discount       string `json:"discount"`
	Notes          string `json:"notes"`
	PickupTime     string `json:"pickup_time"`
}

type tableResponse struct {
	Number        int32      `json:"number"`
	State         string     `json:"state"`
	OpenOrderID   *uuid.UUID `json:"open_order_id"`
	CustomerName  *string    `json:"customer_name"`
	CustomerPhone *string    `json:"customer_phone"`
	OpenedAt      *time.Time `json:"opened_at"`
	ClosedAt      *time.Time `json:"closed_at"`
}

type openTableResponse struct {
	Table tableResponse `json:"table"`
	Order orderResponse `json:"order"`
}

type closeTableResponse struct {
	Order       orderResponse `json:"order"`
	TotalFinal  string        `json:"total_final"`
	ChangeGiven string        `json:"change_given"`
}

func toTableResponse(t database.Table) tableResponse {
	resp := tableResponse{
		Number:        t.Number,
		State:         t.State,
		CustomerName:  textPtr(t.CustomerName),
		CustomerPhone: textPtr(t.CustomerPhone),
	}
	if t.OpenOrderID.Valid {
		id := uuid.UUID(t.OpenOrderID.Bytes)
		resp.OpenOrderID = &id
	}
	if t.OpenedAt.Valid {
		resp.OpenedAt = &t.OpenedAt.Time
	}
	if t.ClosedAt.Valid {
		resp.ClosedAt = &t.ClosedAt.Time
	}
	return resp
}

// tableNumber parses the {number} URL parameter.
func tableNumber(r *http.Request) (int32, bool) {
	n, err := strconv.ParseInt(chi.URLParam(r, "number"), 10, 32)
	if err != nil {
		return 0, false
	}
	return int32(n), true
}

// --- Handlers ---

// List handles GET /tables.
func (h *TableHandler) List(w http.ResponseWriter, r *http.Request) {
	tables, err := h.svc.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	resp := make([]tableResponse, 0, len(tables))
	for _, t := range tables {
		resp = append(resp, toTableResponse(t))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /tables/{number}.
func (h *TableHandler) Get(w http.ResponseWriter, r *http.Request) {
	number, ok := tableNumber(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table number"})
		return
	}

	table, err := h.svc.Get(r.Context(), number)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTableResponse(table))
}

// Open handles POST /tables/{number}/open.
func (h *TableHandler) Open(w http.ResponseWriter, r *http.Request) {
	number, ok := tableNumber(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table number"})
		return
	}

	var req openTableRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
	}

	result, err := h.svc.Open(r.Context(), number, service.OpenTableRequest{
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, openTableResponse{
		Table: toTableResponse(result.Table),
		Order: toOrderResponse(result.Order),
	})
}

// AddProduct handles POST /tables/{number}/items.
func (h *TableHandler) AddProduct(w http.ResponseWriter, r *http.Request) {
	number, ok := tableNumber(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table number"})
		return
	}

	var req orderLineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	detail, err := h.svc.AddProduct(r.Context(), number, service.OrderLineRequest{
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

// RemoveProduct handles DELETE /tables/{number}/items/{lineID}.
func (h *TableHandler) RemoveProduct(w http.ResponseWriter, r *http.Request) {
	number, ok := tableNumber(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table number"})
		return
	}
	lineID, err := uuid.Parse(chi.URLParam(r, "lineID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid line ID"})
		return
	}

	detail, err := h.svc.RemoveProduct(r.Context(), number, lineID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderDetailResponse(detail))
}

// Close handles POST /tables/{number}/close.
func (h *TableHandler) Close(w http.ResponseWriter, r *http.Request) {
	number, ok := tableNumber(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table number"})
		return
	}

	var req closeTableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	result, err := h.svc.Close(r.Context(), number, service.CloseTableRequest{
		PaymentMethod:  req.PaymentMethod,
		AmountReceived: req.AmountReceived,
		Discount:       req.Discount,
		Notes:          req.Notes,
		PickupTime:     req.PickupTime,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, closeTableResponse{
		Order:       toOrderResponse(result.Order),
		TotalFinal:  result.TotalFinal.StringFixed(2),
		ChangeGiven: result.ChangeGiven.StringFixed(2),
	})
}

// Cancel handles POST /tables/{number}/cancel.
func (h *TableHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	number, ok := tableNumber(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table number"})
		return
	}

	if err := h.svc.Cancel(r.Context(), number); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
