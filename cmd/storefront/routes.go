package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/joao-fontenele/storefront/internal/cart"
	"github.com/joao-fontenele/storefront/internal/middleware"
	"github.com/joao-fontenele/storefront/internal/orders"
	"github.com/joao-fontenele/storefront/internal/reservations"
	"github.com/joao-fontenele/storefront/internal/shipping"
	"github.com/joao-fontenele/storefront/internal/telemetry"
)

type routes struct {
	cart         *cart.Handler
	reservations *reservations.Handler
	orders       *orders.Handler
	shipping     *shipping.Handler
	health       http.HandlerFunc
	metrics      http.Handler
}

func registerRoutes(mux *http.ServeMux, r routes) {
	route := func(pattern string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, telemetry.WithHTTPRoute(h))
	}

	route("GET /cart", r.cart.HandleGet)
	route("POST /cart/add", r.cart.HandleAdd)
	route("DELETE /cart/remove", r.cart.HandleRemove)
	route("POST /cart/clear", r.cart.HandleClear)

	route("POST /cart/reserve", r.reservations.HandleReserve)
	route("DELETE /cart/release/{reservation_id}", r.reservations.HandleRelease)
	route("POST /cart/validate-stock", r.reservations.HandleValidateStock)
	route("POST /cart/validate-checkout", r.reservations.HandleValidateCheckout)
	route("POST /cart/cleanup-expired", r.reservations.HandleCleanupExpired)

	route("POST /orders/create", r.orders.HandleCreate)
	route("GET /orders", r.orders.HandleList)
	route("GET /orders/{id}", r.orders.HandleGet)
	route("PATCH /orders/{id}/status", r.orders.HandleUpdateStatus)

	route("GET /shipping/cost", r.shipping.HandleCost)
	route("GET /shipping/governorates", r.shipping.HandleGovernorates)

	route("GET /health", r.health)
	mux.Handle("GET /metrics", r.metrics)
	mux.HandleFunc("/", middleware.NotFound)
}

func healthHandler(db *sql.DB, rdb *redis.Client, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status, code := "ok", http.StatusOK
		checks := map[string]string{"postgres": "ok"}
		if err := db.PingContext(ctx); err != nil {
			logger.Warn("health check failed", "dependency", "postgres", "error", err)
			checks["postgres"] = "unavailable"
			status, code = "degraded", http.StatusServiceUnavailable
		}
		if rdb != nil {
			checks["redis"] = "ok"
			if err := rdb.Ping(ctx).Err(); err != nil {
				logger.Warn("health check failed", "dependency", "redis", "error", err)
				checks["redis"] = "unavailable"
				status, code = "degraded", http.StatusServiceUnavailable
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(map[string]any{"status": status, "checks": checks})
	}
}
