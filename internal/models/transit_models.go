package models

import (
	"fmt"
	"strings"
)

// routeAliases maps route ids to the names riders know them by
// (Silver Line and Crosstown services).
var routeAliases = map[string]string{
	"708": "CT3",
	"747": "CT2",
	"746": "SLW",
	"749": "SL5",
	"751": "SL4",
	"743": "SL3",
	"742": "SL2",
	"741": "SL1",
}

// Route represents a single bus route from the route catalog.
type Route struct {
	ID       string `json:"id"`
	LongName string `json:"long_name"`
}

// DisplayLabel returns the rider-facing label for the route, e.g.
// "1 - Harvard Square - Nubian Station" or "741 - (SL1) - Logan Airport - South Station".
//
// Aliases are looked up on the whole id, so "7410" is never relabeled as "741".
// The route id can always be recovered with RouteIDFromLabel.
func (r Route) DisplayLabel() string {
	if alias, ok := routeAliases[r.ID]; ok {
		return fmt.Sprintf("%s - (%s) - %s", r.ID, alias, r.LongName)
	}
	return fmt.Sprintf("%s - %s", r.ID, r.LongName)
}

// RouteIDFromLabel extracts the route id from a display label by splitting on the
// first " -". A bare id is returned unchanged.
func RouteIDFromLabel(label string) string {
	id, _, _ := strings.Cut(label, " -")
	return strings.TrimSpace(id)
}

// Direction values reported by the upstream feeds.
const (
	DirectionOutbound = 0
	DirectionInbound  = 1
)

// Trip holds the metadata of the run a vehicle is currently serving.
type Trip struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Headsign    string `json:"headsign"`
	DirectionID int    `json:"direction_id"`
}

// Direction returns the human readable direction of the trip.
func (t Trip) Direction() string {
	switch t.DirectionID {
	case DirectionOutbound:
		return "Outbound"
	case DirectionInbound:
		return "Inbound"
	default:
		return "Unknown"
	}
}

// Vehicle is a single display-ready bus position.
// Latitude and Longitude are always valid coordinates; invalid reports never
// become a Vehicle.
type Vehicle struct {
	ID           string  `json:"id"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	Trip         Trip    `json:"trip"`
	DisplayLabel string  `json:"display_label"`
}

// Point returns the vehicle position as a Point.
func (v Vehicle) Point() Point {
	return Point{Lat: v.Latitude, Lng: v.Longitude}
}

// Point is a latitude/longitude pair in degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Viewport is a map region defined by its center and its latitude/longitude spans
// in degrees. Spans are strictly positive.
type Viewport struct {
	CenterLat float64 `json:"center_lat"`
	CenterLng float64 `json:"center_lng"`
	LatSpan   float64 `json:"lat_span"`
	LngSpan   float64 `json:"lng_span"`
}

// Center returns the viewport center as a Point.
func (vp Viewport) Center() Point {
	return Point{Lat: vp.CenterLat, Lng: vp.CenterLng}
}

// Contains reports whether p lies inside the viewport.
func (vp Viewport) Contains(p Point) bool {
	halfLat := vp.LatSpan / 2
	halfLng := vp.LngSpan / 2
	return p.Lat >= vp.CenterLat-halfLat && p.Lat <= vp.CenterLat+halfLat &&
		p.Lng >= vp.CenterLng-halfLng && p.Lng <= vp.CenterLng+halfLng
}

// VehiclePoints returns the positions of the given vehicles in order.
func VehiclePoints(vehicles []Vehicle) []Point {
	points := make([]Point, 0, len(vehicles))
	for _, v := range vehicles {
		points = append(points, v.Point())
	}
	return points
}
