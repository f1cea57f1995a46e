package handler

import (
	"context"
	"net/http"

	"github.com/comanda-pos/api/internal/database"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// MenuStore defines the DB methods the menu handlers need.
// Satisfied by *database.Queries.
type MenuStore interface {
	ListCategories(ctx context.Context) ([]database.Category, error)
	ListActiveProducts(ctx context.Context) ([]database.Product, error)
}

// MenuHandler serves the read-only menu used by the ordering screens.
type MenuHandler struct {
	store MenuStore
}

func NewMenuHandler(store MenuStore) *MenuHandler {
	return &MenuHandler{store: store}
}

// RegisterRoutes registers menu endpoints under /menu.
func (h *MenuHandler) RegisterRoutes(r chi.Router) {
	r.Get("/categories", h.ListCategories)
	r.Get("/products", h.ListProducts)
}

type categoryResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	SortOrder   int32     `json:"sort_order"`
}

type productResponse struct {
	ID          uuid.UUID `json:"id"`
	CategoryID  uuid.UUID `json:"category_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Price       string    `json:"price"`
	Available   bool      `json:"available"`
	LowStock    bool      `json:"low_stock"`
}

func toProductResponse(p database.Product) productResponse {
	return productResponse{
		ID:          p.ID,
		CategoryID:  p.CategoryID,
		Name:        p.Name,
		Description: textPtr(p.Description),
		Price:       numericString(p.Price),
		Available:   p.Available,
		LowStock:    p.LowStock,
	}
}

// ListCategories handles GET /menu/categories.
func (h *MenuHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.store.ListCategories(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	resp := make([]categoryResponse, 0, len(categories))
	for _, c := range categories {
		resp = append(resp, categoryResponse{
			ID:          c.ID,
			Name:        c.Name,
			Description: textPtr(c.Description),
			SortOrder:   c.SortOrder,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListProducts handles GET /menu/products.
func (h *MenuHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.store.ListActiveProducts(r.Context())
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
