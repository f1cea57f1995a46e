package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/comanda-pos/api/internal/database"
	"github.com/comanda-pos/api/internal/service"
	"github.com/go-chi/chi/v5"
)

// SettingsServicer defines the service methods needed by settings handlers.
// Satisfied by *service.SettingsService.
type SettingsServicer interface {
	Get(ctx context.Context) (database.Settings, error)
	Update(ctx context.Context, req service.UpdateSettingsRequest) (database.Settings, error)
}

// SettingsHandler handles the restaurant profile endpoints.
type SettingsHandler struct {
	svc SettingsServicer
}

func NewSettingsHandler(svc SettingsServicer) *SettingsHandler {
	return &SettingsHandler{svc: svc}
}

// RegisterRoutes registers settings endpoints under /settings.
func (h *SettingsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Get)
	r.Put("/", h.Update)
}

type updateSettingsRequest struct {
	RestaurantName string `json:"restaurant_name"`
	TaxRate        string `json:"tax_rate"`
	OpensAt        string `json:"opens_at"`
	ClosesAt       string `json:"closes_at"`
	Phone          string `json:"phone"`
	Address        string `json:"address"`
}

type settingsResponse struct {
	RestaurantName string  `json:"restaurant_name"`
	TaxRate        string  `json:"tax_rate"`
	OpensAt        string  `json:"opens_at"`
	ClosesAt       string  `json:"closes_at"`
	Phone          *string `json:"phone"`
	Address        *string `json:"address"`
}

func toSettingsResponse(s database.Settings) settingsResponse {
	return settingsResponse{
		RestaurantName: s.RestaurantName,
		TaxRate:        numericString(s.TaxRate),
		OpensAt:        s.OpensAt,
		ClosesAt:       s.ClosesAt,
		Phone:          textPtr(s.Phone),
		Address:        textPtr(s.Address),
	}
}

// Get handles GET /settings.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	settings, err := h.svc.Get(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSettingsResponse(settings))
}

// Update handles PUT /settings.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	settings, err := h.svc.Update(r.Context(), service.UpdateSettingsRequest{
		RestaurantName: req.RestaurantName,
		TaxRate:        req.TaxRate,
		OpensAt:        req.OpensAt,
		ClosesAt:       req.ClosesAt,
		Phone:          req.Phone,
		Address:        req.Address,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSettingsResponse(settings))
}
