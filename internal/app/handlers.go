package app

import (
	"encoding/json"
	"net/http"
	"strconv"

	"busmap.mbtatools.org/internal/models"
	"busmap.mbtatools.org/internal/report"
	"busmap.mbtatools.org/internal/utils"
	"github.com/getsentry/sentry-go"
	"github.com/julienschmidt/httprouter"
)

// HealthStatus is the body of /v1/healthcheck. Ready is false while no MBTA API
// key is configured; the upstream API still answers without one but throttles it.
type HealthStatus struct {
	Status      string `json:"status"`
	Environment string `json:"environment"`
	Version     string `json:"version"`
	Feed        string `json:"feed"`
	Ready       bool   `json:"ready"`
}

// RouteResponse is one entry of the route picker.
type RouteResponse struct {
	ID           string `json:"id"`
	LongName     string `json:"long_name"`
	DisplayLabel string `json:"display_label"`
}

type errorBody struct {
	Error string `json:"error"`
}

func (app *Application) healthcheckHandler(w http.ResponseWriter, r *http.Request) {
	cfg := app.ConfigService.Config
	ready := cfg.APIKey() != ""

	status := HealthStatus{
		Status:      "available",
		Environment: cfg.Env,
		Version:     app.Version,
		Feed:        cfg.Feed,
		Ready:       ready,
	}

	code := http.StatusOK
	if !ready {
		code = http.StatusInternalServerError
	}
	app.writeJSON(w, code, status)
}

// routesHandler returns the bus route catalog in display order.
func (app *Application) routesHandler(w http.ResponseWriter, r *http.Request) {
	catalog, _, _ := app.sources()

	routes, err := catalog.FetchBusRoutes(r.Context())
	if err != nil {
		app.Logger.Error("Failed to fetch route catalog", "error", err)
		app.writeJSON(w, http.StatusBadGateway, errorBody{Error: err.Error()})
		return
	}

	resp := make([]RouteResponse, 0, len(routes))
	for _, route := range routes {
		resp = append(resp, RouteResponse{
			ID:           route.ID,
			LongName:     route.LongName,
			DisplayLabel: route.DisplayLabel(),
		})
	}
	app.writeJSON(w, http.StatusOK, resp)
}

// vehiclesHandler returns the vehicles of one route with the region to show.
//
// The route may be given by id or by its display label. With ?refresh=true the
// pins are returned without a viewport so the map keeps its position. When the
// upstream fetch fails the fallback region is returned with a 502 and the error.
func (app *Application) vehiclesHandler(w http.ResponseWriter, r *http.Request) {
	params := httprouter.ParamsFromContext(r.Context())
	routeID := models.RouteIDFromLabel(params.ByName("route_id"))
	if routeID == "" {
		app.writeJSON(w, http.StatusBadRequest, errorBody{Error: "route id is required"})
		return
	}

	refresh := false
	if raw := r.URL.Query().Get("refresh"); raw != "" {
		var err error
		if refresh, err = strconv.ParseBool(raw); err != nil {
			app.writeJSON(w, http.StatusBadRequest, errorBody{Error: "refresh must be a boolean"})
			return
		}
	}

	_, feed, settings := app.sources()

	vehicles, err := feed.FetchVehicles(r.Context(), routeID)
	if err != nil {
		if r.Context().Err() != nil {
			app.Logger.Info("Vehicle request cancelled", "route_id", routeID)
			return
		}
		app.Logger.Error("Failed to fetch vehicles", "route_id", routeID, "error", err)
		app.writeJSON(w, http.StatusBadGateway, fallbackVehicleMap(routeID, err))
		return
	}

	vm, err := buildVehicleMap(routeID, vehicles, refresh, settings.FitOptions()...)
	if err != nil {
		report.ReportErrorWithSentryOptions(err, report.SentryReportOptions{
			Tags:  utils.MakeMap("route_id", routeID),
			Level: sentry.LevelError,
		})
		app.Logger.Error("Failed to fit viewport", "route_id", routeID, "error", err)
		app.writeJSON(w, http.StatusInternalServerError, errorBody{Error: "failed to fit viewport"})
		return
	}

	app.Logger.Debug("Served vehicles",
		"route_id", routeID,
		"vehicles", len(vm.Vehicles),
		"fallback", vm.Fallback,
		"refresh", refresh)
	app.writeJSON(w, http.StatusOK, vm)
}

func (app *Application) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		app.Logger.Error("Failed to encode response", "error", err)
	}
}
