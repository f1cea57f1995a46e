package router

import (
	"net/http"

	"github.com/comanda-pos/api/internal/config"
	"github.com/comanda-pos/api/internal/database"
	"github.com/comanda-pos/api/internal/handler"
	"github.com/comanda-pos/api/internal/receipt"
	"github.com/comanda-pos/api/internal/service"
	"github.com/comanda-pos/api/internal/ws"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
)

// New creates a Chi router with all application routes wired up.
func New(cfg *config.Config, queries *database.Queries, pool *pgxpool.Pool, hub *ws.Hub) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.CORSOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// WebSocket feed for the kitchen and floor screens.
	r.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, w, r)
	})

	newOrderStore := func(db database.DBTX) service.OrderStore {
		return database.New(db)
	}
	newTableStore := func(db database.DBTX) service.TableStore {
		return database.New(db)
	}

	receipts := receipt.NewRenderer(cfg.ReceiptDir)
	orderService := service.NewOrderService(pool, pool, newOrderStore, hub, receipts)
	tableService := service.NewTableService(pool, pool, newTableStore, orderService, hub)
	stockService := service.NewStockService(queries, hub)
	settingsService := service.NewSettingsService(queries)
	reportService := service.NewReportService(queries)

	r.Route("/orders", handler.NewOrderHandler(orderService).RegisterRoutes)
	r.Route("/tables", handler.NewTableHandler(tableService).RegisterRoutes)
	r.Route("/menu", handler.NewMenuHandler(queries).RegisterRoutes)
	r.Route("/stock", handler.NewStockHandler(stockService).RegisterRoutes)
	r.Route("/settings", handler.NewSettingsHandler(settingsService).RegisterRoutes)
	r.Route("/reports", handler.NewReportHandler(reportService).RegisterRoutes)

	return r
}
