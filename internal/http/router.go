package httpapi

import (
	"net/http"

	"opsboard-services/internal/config"
	"opsboard-services/internal/http/handlers"
	"opsboard-services/internal/metrics"
	"opsboard-services/internal/middleware"
	"opsboard-services/internal/realtime"
	"opsboard-services/pkg/response"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

func NewRouter(h *handlers.Handler, logger *zap.Logger, cfg config.Config, m *metrics.Metrics, hub *realtime.Hub) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID())
	r.Use(middleware.Telemetry(logger, m))

	if cfg.Env == "development" || len(cfg.CorsAllowedOrigins) > 0 {
		options := cors.Options{
			AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{
				"Accept",
				"Authorization",
				"Content-Type",
				"X-Requested-With",
				"X-Request-Id",
				"Api-Key",
				"Cache-Control",
			},
			ExposedHeaders:   []string{"X-Request-Id", "Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           300,
		}

		if cfg.Env == "development" {
			options.AllowOriginFunc = func(_ *http.Request, origin string) bool {
				return true
			}
		} else {
			options.AllowedOrigins = cfg.CorsAllowedOrigins
		}

		r.Use(cors.Handler(options))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, http.StatusOK, map[string]any{"status": "ok"})
	})
	r.Handle("/metrics", m.Handler(logger))

	r.Route("/api", func(r chi.Router) {
		r.With(middleware.ServiceKey(cfg.EmailAPIKeyHash, cfg.Env)).Post("/email/send", h.EmailSend)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWTSecret))

			r.Post("/orders", h.OrdersCreate)
			r.Get("/orders", h.OrdersList)
			r.Get("/orders/{id}", h.OrdersGet)
			r.Patch("/orders/{id}", h.OrdersUpdate)
			r.Delete("/orders/{id}", h.OrdersDelete)

			r.Post("/sales", h.SalesCreate)
			r.Get("/sales", h.SalesList)
			r.Get("/sales/summary", h.SalesSummary)
			r.Get("/sales/{id}", h.SalesGet)
			r.Patch("/sales/{id}/status", h.SalesUpdateStatus)

			r.Post("/snooker-coins", h.SnookerCoinsCreate)
			r.Get("/snooker-coins", h.SnookerCoinsList)

			r.Post("/activity", h.ActivityLog)
			r.Get("/activity", h.ActivityList)
			r.Get("/activity/recent", h.ActivityRecent)
			r.Get("/activity/users/{userId}", h.ActivityByUser)

			r.Post("/expenses", h.ExpensesCreate)
			r.Get("/expenses", h.ExpensesList)
			r.Patch("/expenses/{id}", h.ExpensesUpdate)
			r.Delete("/expenses/{id}", h.ExpensesDelete)

			r.Post("/menu-items", h.MenuItemsCreate)
			r.Get("/menu-items", h.MenuItemsList)
			r.Patch("/menu-items/{id}", h.MenuItemsUpdate)
			r.Delete("/menu-items/{id}", h.MenuItemsDelete)
			r.Post("/menu-items/{id}/stock", h.MenuItemsAdjustStock)
			r.Get("/inventory-history", h.InventoryHistory)

			r.Post("/properties", h.PropertiesCreate)
			r.Get("/properties", h.PropertiesList)
			r.Post("/properties/{id}/bookings", h.BookingsCreate)
			r.Get("/bookings", h.BookingsList)

			r.Get("/reports/sales", h.ReportsSales)
			r.Get("/reports/sales/pdf", h.ReportsSalesPDF)
			r.Post("/reports/sales/share", h.ReportsSalesShare)
		})
	})

	if hub != nil {
		r.Get("/ws/changes", hub.ServeChanges)
	}

	return r
}
