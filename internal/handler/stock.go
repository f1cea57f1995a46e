package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/comanda-pos/api/internal/database"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// StockServicer defines the service methods needed by stock handlers.
// Satisfied by *service.StockService.
type StockServicer interface {
	SetStatus(ctx context.Context, id uuid.UUID, available, lowStock bool) (database.Product, error)
	ListLow(ctx context.Context) ([]database.Product, error)
	ListOut(ctx context.Context) ([]database.Product, error)
	Stats(ctx context.Context) (database.StockStatsRow, error)
}

// StockHandler handles product availability endpoints.
type StockHandler struct {
	svc StockServicer
}

func NewStockHandler(svc StockServicer) *StockHandler {
	return &StockHandler{svc: svc}
}

// RegisterRoutes registers stock endpoints under /stock.
func (h *StockHandler) RegisterRoutes(r chi.Router) {
	r.Get("/low", h.ListLow)
	r.Get("/out", h.ListOut)
	r.Get("/stats", h.Stats)
	r.Put("/{productID}", h.SetStatus)
}

type setStockRequest struct {
	Available *bool `json:"available"`
	LowStock  bool  `json:"low_stock"`
}

type stockStatsResponse struct {
	TotalProducts int64 `json:"total_products"`
	OutOfStock    int64 `json:"out_of_stock"`
	LowStock      int64 `json:"low_stock"`
	StockOK       int64 `json:"stock_ok"`
}

// SetStatus handles PUT /stock/{productID}.
func (h *StockHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	productID, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid product ID"})
		return
	}

	var req setStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Available == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "available is required"})
		return
	}

	product, err := h.svc.SetStatus(r.Context(), productID, *req.Available, req.LowStock)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(product))
}

// ListLow handles GET /stock/low.
func (h *StockHandler) ListLow(w http.ResponseWriter, r *http.Request) {
	h.listProducts(w, r, h.svc.ListLow)
}

// ListOut handles GET /stock/out.
func (h *StockHandler) ListOut(w http.ResponseWriter, r *http.Request) {
	h.listProducts(w, r, h.svc.ListOut)
}

func (h *StockHandler) listProducts(w http.ResponseWriter, r *http.Request, list func(context.Context) ([]database.Product, error)) {
	products, err := list(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	resp := make([]productResponse, 0, len(products))
	for _, p := range products {
		resp = append(resp, toProductResponse(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Stats handles GET /stock/stats.
func (h *StockHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stockStatsResponse{
		TotalProducts: stats.TotalProducts,
		OutOfStock:    stats.OutOfStock,
		LowStock:      stats.LowStock,
		StockOK:       stats.StockOK,
	})
}
