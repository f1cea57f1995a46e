package service

import (
	"context"
	"fmt"
	"time"

	"github.com/comanda-pos/api/internal/database"
	"github.com/jackc/pgx/v5/pgtype"
)

// ReportStore defines the DB methods the report service needs.
type ReportStore interface {
	GetSalesSummary(ctx context.Context, arg database.SalesSummaryParams) (database.SalesSummaryRow, error)
	ListSalesByPaymentMethod(ctx context.Context, arg database.SalesSummaryParams) ([]database.SalesByPaymentMethodRow, error)
	ListTopProducts(ctx context.Context, arg database.TopProductsParams) ([]database.TopProductRow, error)
}

// ReportService aggregates sales for the dashboard. Cancelled orders count
// toward volume but never toward revenue.
type ReportService struct {
	store ReportStore
	now   func() time.Time
}

func NewReportService(store ReportStore) *ReportService {
	return &ReportService{store: store, now: time.Now}
}

// SalesReport is the full report payload for one period.
type SalesReport struct {
	Period      string
	From        time.Time
	To          time.Time
	Summary     database.SalesSummaryRow
	ByPayment   []database.SalesByPaymentMethodRow
	TopProducts []database.TopProductRow
}

// Sales builds the report for a named period: today, yesterday, week, or
// month.
func (s *ReportService) Sales(ctx context.Context, period string) (*SalesReport, error) {
	from, to, err := s.periodBounds(period)
	if err != nil {
		return nil, err
	}

	bounds := database.SalesSummaryParams{
		From: pgtype.Timestamptz{Time: from, Valid: true},
		To:   pgtype.Timestamptz{Time: to, Valid: true},
	}

	summary, err := s.store.GetSalesSummary(ctx, bounds)
	if err != nil {
		return nil, fmt.Errorf("sales summary: %w", err)
	}
	byPayment, err := s.store.ListSalesByPaymentMethod(ctx, bounds)
	if err != nil {
		return nil, fmt.Errorf("sales by payment method: %w", err)
	}
	top, err := s.store.ListTopProducts(ctx, database.TopProductsParams{
		From:  bounds.From,
		To:    bounds.To,
		Limit: 10,
	})
	if err != nil {
		return nil, fmt.Errorf("top products: %w", err)
	}

	return &SalesReport{
		Period:      period,
		From:        from,
		To:          to,
		Summary:     summary,
		ByPayment:   byPayment,
		TopProducts: top,
	}, nil
}

func (s *ReportService) periodBounds(period string) (time.Time, time.Time, error) {
	now := s.now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch period {
	case "", "today":
		return midnight, midnight.AddDate(0, 0, 1), nil
	case "yesterday":
		return midnight.AddDate(0, 0, -1), midnight, nil
	case "week":
		// Week starts on Monday.
		offset := (int(midnight.Weekday()) + 6) % 7
		start := midnight.AddDate(0, 0, -offset)
		return start, start.AddDate(0, 0, 7), nil
	case "month":
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return start, start.AddDate(0, 1, 0), nil
	}
	return time.Time{}, time.Time{}, ErrInvalidPeriod
}
