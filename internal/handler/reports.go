package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/comanda-pos/api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// ReportServicer defines the service methods needed by report handlers.
// Satisfied by *service.ReportService.
type ReportServicer interface {
	Sales(ctx context.Context, period string) (*service.SalesReport, error)
}

// ReportHandler serves the sales dashboard endpoints.
type ReportHandler struct {
	svc ReportServicer
}

func NewReportHandler(svc ReportServicer) *ReportHandler {
	return &ReportHandler{svc: svc}
}

// RegisterRoutes registers report endpoints under /reports.
func (h *ReportHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Sales)
}

type salesSummaryResponse struct {
	OrderCount     int64  `json:"order_count"`
	CancelledCount int64  `json:"cancelled_count"`
	GrossSales     string `json:"gross_sales"`
	TaxCollected   string `json:"tax_collected"`
	DiscountsGiven string `json:"discounts_given"`
	NetSales       string `json:"net_sales"`
	AvgTicket      string `json:"avg_ticket"`
}

type paymentMethodSalesResponse struct {
	PaymentMethod string `json:"payment_method"`
	OrderCount    int64  `json:"order_count"`
	Total         string `json:"total"`
}

type topProductResponse struct {
	ProductID   *uuid.UUID `json:"product_id"`
	ProductName string     `json:"product_name"`
	UnitsSold   int64      `json:"units_sold"`
	Revenue     string     `json:"revenue"`
}

type salesReportResponse struct {
	Period      string                       `json:"period"`
	From        time.Time                    `json:"from"`
	To          time.Time                    `json:"to"`
	Summary     salesSummaryResponse         `json:"summary"`
	ByPayment   []paymentMethodSalesResponse `json:"by_payment_method"`
	TopProducts []topProductResponse         `json:"top_products"`
}

// Sales handles GET /reports?period=today|yesterday|week|month.
func (h *ReportHandler) Sales(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.Sales(r.Context(), r.URL.Query().Get("period"))
	if err != nil {
		writeError(w, err)
		return
	}

	resp := salesReportResponse{
		Period: report.Period,
		From:   report.From,
		To:     report.To,
		Summary: salesSummaryResponse{
			OrderCount:     report.Summary.OrderCount,
			CancelledCount: report.Summary.CancelledCount,
			GrossSales:     numericString(report.Summary.GrossSales),
			TaxCollected:   numericString(report.Summary.TaxCollected),
			DiscountsGiven: numericString(report.Summary.DiscountsGiven),
			NetSales:       numericString(report.Summary.NetSales),
			AvgTicket:      numericString(report.Summary.AvgTicket),
		},
		ByPayment:   make([]paymentMethodSalesResponse, 0, len(report.ByPayment)),
		TopProducts: make([]topProductResponse, 0, len(report.TopProducts)),
	}
	if resp.Period == "" {
		resp.Period = "today"
	}
	for _, p := range report.ByPayment {
		resp.ByPayment = append(resp.ByPayment, paymentMethodSalesResponse{
			PaymentMethod: p.PaymentMethod,
			OrderCount:    p.OrderCount,
			Total:         numericString(p.Total),
		})
	}
	for _, p := range report.TopProducts {
		item := topProductResponse{
			ProductName: p.ProductName,
			UnitsSold:   p.UnitsSold,
			Revenue:     numericString(p.Revenue),
		}
		if p.ProductID.Valid {
			id := uuid.UUID(p.ProductID.Bytes)
			item.ProductID = &id
		}
		resp.TopProducts = append(resp.TopProducts, item)
	}
	writeJSON(w, http.StatusOK, resp)
}
