package app

import (
	"busmap.mbtatools.org/internal/geo"
	"busmap.mbtatools.org/internal/metrics"
	"busmap.mbtatools.org/internal/models"
)

// Fallback region shown when a route has no vehicles to fit: downtown Boston.
var FallbackCenter = models.Point{Lat: 42.3601, Lng: -71.0589}

const FallbackRadiusMiles = 10.0

// VehicleMap is what the map page needs to draw one route: the pins and, unless
// the request only refreshed pins, the region to show.
type VehicleMap struct {
	RouteID     string           `json:"route_id"`
	Vehicles    []models.Vehicle `json:"vehicles"`
	Viewport    *models.Viewport `json:"viewport,omitempty"`
	RadiusMiles float64          `json:"radius_miles,omitempty"`
	Fallback    bool             `json:"fallback"`
	Recenter    bool             `json:"recenter"`
	Error       string           `json:"error,omitempty"`
}

// FallbackViewport returns the region around FallbackCenter.
func FallbackViewport() models.Viewport {
	return geo.RegionFromCenterAndRadius(FallbackCenter, FallbackRadiusMiles)
}

// buildVehicleMap fits the viewport for a route selection. A refresh keeps the
// current map region and only carries the pins, unless no vehicle is left, in
// which case the map moves back to the fallback region.
func buildVehicleMap(routeID string, vehicles []models.Vehicle, refresh bool, opts ...geo.Option) (VehicleMap, error) {
	if vehicles == nil {
		vehicles = []models.Vehicle{}
	}
	vm := VehicleMap{RouteID: routeID, Vehicles: vehicles}
	if len(vehicles) == 0 {
		vm.Recenter = true
		vm.setFallback()
		return vm, nil
	}
	if refresh {
		return vm, nil
	}

	vm.Recenter = true

	viewport, err := geo.FitViewport(models.VehiclePoints(vehicles), opts...)
	if err != nil {
		return VehicleMap{}, err
	}
	vm.Viewport = &viewport
	vm.RadiusMiles = geo.ViewportRadiusMiles(viewport)
	return vm, nil
}

// fallbackVehicleMap is the response for a route whose vehicles could not be loaded.
func fallbackVehicleMap(routeID string, err error) VehicleMap {
	vm := VehicleMap{
		RouteID:  routeID,
		Vehicles: []models.Vehicle{},
		Recenter: true,
		Error:    err.Error(),
	}
	vm.setFallback()
	return vm
}

func (vm *VehicleMap) setFallback() {
	viewport := FallbackViewport()
	vm.Viewport = &viewport
	vm.RadiusMiles = FallbackRadiusMiles
	vm.Fallback = true
	metrics.FallbackViewports.Inc()
}
