package geo

import (
	"errors"
	"math"

	"busmap.mbtatools.org/internal/models"
	"github.com/golang/geo/s2"
)

// ErrNoPoints is returned when a bounding box or viewport is requested for an empty set of points.
var ErrNoPoints = errors.New("no points to compute bounding box")

// BoundingBox defines the corners of a lat/lon box
type BoundingBox struct {
	MinLat float64
	MaxLat float64
	MinLon float64
	MaxLon float64
}

// Contains checks whether the given latitude and longitude are within the bounding box
func (b *BoundingBox) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}

// ComputeBoundingBox computes the smallest box containing all points.
func ComputeBoundingBox(points []models.Point) (BoundingBox, error) {
	if len(points) == 0 {
		return BoundingBox{}, ErrNoPoints
	}

	bbox := BoundingBox{
		MinLat: math.MaxFloat64,
		MaxLat: -math.MaxFloat64,
		MinLon: math.MaxFloat64,
		MaxLon: -math.MaxFloat64,
	}

	for _, p := range points {
		bbox.MinLat = math.Min(bbox.MinLat, p.Lat)
		bbox.MaxLat = math.Max(bbox.MaxLat, p.Lat)
		bbox.MinLon = math.Min(bbox.MinLon, p.Lng)
		bbox.MaxLon = math.Max(bbox.MaxLon, p.Lng)
	}

	return bbox, nil
}

// IsValidLatLon returns true if the given latitude and longitude values
// fall within the valid geographic coordinate bounds.
//
// Latitude must be between -90 and 90 degrees, and longitude must be
// between -180 and 180 degrees. NaN is never valid.
func IsValidLatLon(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) {
		return false
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return false
	}
	return true
}

// earthRadiusInMiles is the Earth's volumetric mean radius (6,371 km) in statute miles.
//
// Reference: NASA Planetary Fact Sheet – Earth
// https://nssdc.gsfc.nasa.gov/planetary/factsheet/earthfact.html
const earthRadiusInMiles = 3958.8

// DistanceMiles returns the great-circle distance between two points in miles.
func DistanceMiles(a, b models.Point) float64 {
	p1 := s2.LatLngFromDegrees(a.Lat, a.Lng)
	p2 := s2.LatLngFromDegrees(b.Lat, b.Lng)
	return p1.Distance(p2).Radians() * earthRadiusInMiles
}

// ViewportRadiusMiles returns the distance from the viewport center to its
// north-east corner. Map clients that only accept a center and a radius can use it
// to show at least the whole viewport.
func ViewportRadiusMiles(vp models.Viewport) float64 {
	corner := models.Point{
		Lat: vp.CenterLat + vp.LatSpan/2,
		Lng: vp.CenterLng + vp.LngSpan/2,
	}
	return DistanceMiles(vp.Center(), corner)
}
