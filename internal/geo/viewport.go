package geo

import (
	"fmt"
	"math"

	"busmap.mbtatools.org/internal/models"
)

// Flat-earth conversions, valid at the scale of a single metro area.
const (
	feetPerDegreeLat  = 364000.0
	milesPerDegreeLat = 69.0
)

const (
	// DefaultPadding is applied to both spans after the minimum-size floors.
	DefaultPadding = 1.2
	// DefaultMinRadiusMiles is the smallest real-world radius a fitted viewport covers.
	DefaultMinRadiusMiles = 0.5
	// DefaultMinDistanceFeet keeps coincident points from producing a zero-size viewport.
	DefaultMinDistanceFeet = 60.0
)

// minCosLat keeps longitude conversions finite for points at the poles.
const minCosLat = 1e-6

// FitOptions holds the tunables of FitViewport.
type FitOptions struct {
	Padding         float64
	MinRadiusMiles  float64
	MinDistanceFeet float64
}

// DefaultFitOptions returns the options used when FitViewport is called without any.
func DefaultFitOptions() FitOptions {
	return FitOptions{
		Padding:         DefaultPadding,
		MinRadiusMiles:  DefaultMinRadiusMiles,
		MinDistanceFeet: DefaultMinDistanceFeet,
	}
}

// Option customizes FitViewport.
type Option func(*FitOptions)

// WithPadding overrides the padding factor.
func WithPadding(padding float64) Option {
	return func(o *FitOptions) { o.Padding = padding }
}

// WithMinRadiusMiles overrides the minimum radius floor.
func WithMinRadiusMiles(miles float64) Option {
	return func(o *FitOptions) { o.MinRadiusMiles = miles }
}

// WithMinDistanceFeet overrides the minimum distance floor.
func WithMinDistanceFeet(feet float64) Option {
	return func(o *FitOptions) { o.MinDistanceFeet = feet }
}

// WithFitOptions replaces all tunables at once.
func WithFitOptions(opts FitOptions) Option {
	return func(o *FitOptions) { *o = opts }
}

// Validate checks that the options can produce a finite viewport with positive spans.
func (o FitOptions) Validate() error {
	if math.IsNaN(o.Padding) || math.IsInf(o.Padding, 0) || o.Padding < 1 {
		return fmt.Errorf("padding must be a finite value >= 1, got %v", o.Padding)
	}
	if math.IsNaN(o.MinRadiusMiles) || math.IsInf(o.MinRadiusMiles, 0) || o.MinRadiusMiles < 0 {
		return fmt.Errorf("minimum radius must be a finite value >= 0, got %v", o.MinRadiusMiles)
	}
	if math.IsNaN(o.MinDistanceFeet) || math.IsInf(o.MinDistanceFeet, 0) || o.MinDistanceFeet <= 0 {
		return fmt.Errorf("minimum distance must be a finite value > 0, got %v", o.MinDistanceFeet)
	}
	return nil
}

// FitViewport computes a map region that contains every point.
//
// The spans are first raised to two floors, a short ground distance so that
// coincident points never yield an empty region and a minimum radius so that a
// single bus is shown with its surroundings, and then multiplied by the padding
// factor. Longitude floors are divided by cos(latitude) to account for meridian
// convergence. The center is the midpoint of the bounding box.
//
// FitViewport is a pure function of the set of points: the order of points does
// not change the result. It returns ErrNoPoints when points is empty.
func FitViewport(points []models.Point, opts ...Option) (models.Viewport, error) {
	o := DefaultFitOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.Validate(); err != nil {
		return models.Viewport{}, err
	}

	for _, p := range points {
		if !IsValidLatLon(p.Lat, p.Lng) {
			return models.Viewport{}, fmt.Errorf("invalid coordinate (%v, %v)", p.Lat, p.Lng)
		}
	}

	bbox, err := ComputeBoundingBox(points)
	if err != nil {
		return models.Viewport{}, err
	}

	centerLat := (bbox.MinLat + bbox.MaxLat) / 2
	centerLng := (bbox.MinLon + bbox.MaxLon) / 2
	cosLat := latitudeCos(centerLat)

	latSpan := bbox.MaxLat - bbox.MinLat
	lngSpan := bbox.MaxLon - bbox.MinLon

	minDistanceLat := o.MinDistanceFeet / feetPerDegreeLat
	latSpan = math.Max(latSpan, minDistanceLat)
	lngSpan = math.Max(lngSpan, minDistanceLat/cosLat)

	minRadiusLat := 2 * o.MinRadiusMiles / milesPerDegreeLat
	latSpan = math.Max(latSpan, minRadiusLat)
	lngSpan = math.Max(lngSpan, minRadiusLat/cosLat)

	return models.Viewport{
		CenterLat: centerLat,
		CenterLng: centerLng,
		LatSpan:   latSpan * o.Padding,
		LngSpan:   lngSpan * o.Padding,
	}, nil
}

// RegionFromCenterAndRadius returns the viewport of a circle of the given radius
// around center, using the same degree conversions as FitViewport.
func RegionFromCenterAndRadius(center models.Point, radiusMiles float64) models.Viewport {
	latSpan := 2 * radiusMiles / milesPerDegreeLat
	return models.Viewport{
		CenterLat: center.Lat,
		CenterLng: center.Lng,
		LatSpan:   latSpan,
		LngSpan:   latSpan / latitudeCos(center.Lat),
	}
}

func latitudeCos(lat float64) float64 {
	return math.Max(math.Cos(lat*math.Pi/180), minCosLat)
}
