package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/comanda-pos/api/internal/database"
	"github.com/comanda-pos/api/internal/events"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// StockStore defines the DB methods the stock service needs.
// Satisfied by *database.Queries.
type StockStore interface {
	GetProduct(ctx context.Context, id uuid.UUID) (database.Product, error)
	UpdateProductStock(ctx context.Context, arg database.UpdateProductStockParams) (database.Product, error)
	ListLowStockProducts(ctx context.Context) ([]database.Product, error)
	ListOutOfStockProducts(ctx context.Context) ([]database.Product, error)
	GetStockStats(ctx context.Context) (database.StockStatsRow, error)
}

// StockService manages the per-product availability flags. Stock flags gate
// new order lines only; existing lines are never touched when a product
// goes unavailable.
type StockService struct {
	store  StockStore
	events events.Publisher
}

func NewStockService(store StockStore, pub events.Publisher) *StockService {
	return &StockService{store: store, events: pub}
}

// Acceptable reports whether a product may enter a new order line.
// lowStock is advisory and never blocks.
func Acceptable(p database.Product) bool {
	return p.Available && p.Active
}

// SetStatus updates a product's availability flags. An alert fires when
// the product becomes unavailable or runs low.
func (s *StockService) SetStatus(ctx context.Context, id uuid.UUID, available, lowStock bool) (database.Product, error) {
	product, err := s.store.UpdateProductStock(ctx, database.UpdateProductStockParams{
		ID:        id,
		Available: available,
		LowStock:  lowStock,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Product{}, ErrProductNotFound
		}
		return database.Product{}, fmt.Errorf("update product stock: %w", err)
	}

	s.events.Publish(events.StockChanged, product)
	if !available || lowStock {
		s.events.Publish(events.StockAlert, product)
	}
	return product, nil
}

func (s *StockService) ListLow(ctx context.Context) ([]database.Product, error) {
	return s.store.ListLowStockProducts(ctx)
}

func (s *StockService) ListOut(ctx context.Context) ([]database.Product, error) {
	return s.store.ListOutOfStockProducts(ctx)
}

func (s *StockService) Stats(ctx context.Context) (database.StockStatsRow, error) {
	return s.store.GetStockStats(ctx)
}
