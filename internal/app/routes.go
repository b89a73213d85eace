package app

import (
	"context"
	"net/http"
	"time"

	"busmap.mbtatools.org/internal/middleware"
	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus"
)

// Routes registers the API endpoints and wraps them with the middleware chain:
// request id, Sentry, security headers and CORS, outermost first.
//
//   - GET /v1/healthcheck
//   - GET /v1/routes
//   - GET /v1/routes/:route_id/vehicles[?refresh=true]
//   - GET /metrics (cached for 10 seconds)
//
// ctx bounds the lifetime of the metrics cache refresher.
func (app *Application) Routes(ctx context.Context) http.Handler {
	router := httprouter.New()

	router.HandlerFunc(http.MethodGet, "/v1/healthcheck", app.healthcheckHandler)
	router.HandlerFunc(http.MethodGet, "/v1/routes", app.routesHandler)
	router.HandlerFunc(http.MethodGet, "/v1/routes/:route_id/vehicles", app.vehiclesHandler)
	router.Handler(http.MethodGet, "/metrics", middleware.NewCachedPromHandler(ctx, prometheus.DefaultGatherer, 10*time.Second))

	handler := middleware.CORS(app.AllowedOrigins)(router)
	handler = middleware.SecurityHeaders(handler)
	handler = middleware.SentryMiddleware(handler)
	return middleware.RequestID(handler)
}
