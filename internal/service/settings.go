package service

import (
	"context"
	"fmt"

	"github.com/comanda-pos/api/internal/database"
	"github.com/shopspring/decimal"
)

// SettingsStore defines the DB methods the settings service needs.
type SettingsStore interface {
	GetSettings(ctx context.Context) (database.Settings, error)
	UpdateSettings(ctx context.Context, arg database.UpdateSettingsParams) (database.Settings, error)
}

// SettingsService reads and writes the restaurant profile, including the
// tax rate every total derives from.
type SettingsService struct {
	store SettingsStore
}

func NewSettingsService(store SettingsStore) *SettingsService {
	return &SettingsService{store: store}
}

func (s *SettingsService) Get(ctx context.Context) (database.Settings, error) {
	return s.store.GetSettings(ctx)
}

// UpdateSettingsRequest carries the editable restaurant profile fields.
type UpdateSettingsRequest struct {
	RestaurantName string
	TaxRate        string
	OpensAt        string
	ClosesAt       string
	Phone          string
	Address        string
}

func (s *SettingsService) Update(ctx context.Context, req UpdateSettingsRequest) (database.Settings, error) {
	rate, err := decimal.NewFromString(req.TaxRate)
	if err != nil {
		return database.Settings{}, ErrInvalidTaxRate
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(100)) {
		return database.Settings{}, ErrInvalidTaxRate
	}

	settings, err := s.store.UpdateSettings(ctx, database.UpdateSettingsParams{
		RestaurantName: req.RestaurantName,
		TaxRate:        decimalToNumeric(rate),
		OpensAt:        req.OpensAt,
		ClosesAt:       req.ClosesAt,
		Phone:          textOrNull(req.Phone),
		Address:        textOrNull(req.Address),
	})
	if err != nil {
		return database.Settings{}, fmt.Errorf("update settings: %w", err)
	}
	return settings, nil
}
