package feed

import (
	"fmt"
	"strings"

	"busmap.mbtatools.org/internal/geo"
	"busmap.mbtatools.org/internal/metrics"
	"busmap.mbtatools.org/internal/models"
)

// UnknownHeadsign is used when a vehicle's trip cannot be found among the included trips.
const UnknownHeadsign = "Unknown"

// vehicleIDFiller is stripped from vehicle ids before they are shown to riders
// (upstream ids look like "y1234").
const vehicleIDFiller = "y"

// RawVehicle is a vehicle position as reported by an upstream feed, before validation.
// TripID is empty when the vehicle carries no trip reference.
type RawVehicle struct {
	ID          string
	Latitude    float64
	Longitude   float64
	DirectionID int
	TripID      string
}

// RawTrip is a trip record included alongside the vehicles of a feed.
type RawTrip struct {
	ID          string
	Name        string
	Headsign    string
	DirectionID int
}

// Stats describes what happened to a batch of raw vehicles during normalization.
type Stats struct {
	Received int
	Dropped  int
	Unjoined int
}

// Record adds the stats of one normalization pass to the per-route vehicle counters.
// Empty passes are not recorded so unknown route ids never create series.
func (s Stats) Record(routeID string) {
	if s.Received == 0 {
		return
	}
	metrics.VehiclesReceived.WithLabelValues(routeID).Add(float64(s.Received))
	metrics.VehiclesDropped.WithLabelValues(routeID).Add(float64(s.Dropped))
	metrics.VehiclesUnjoined.WithLabelValues(routeID).Add(float64(s.Unjoined))
}

// Normalize validates raw vehicles and joins them against the included trips.
//
// Vehicles with NaN or out-of-range coordinates are dropped silently. A vehicle whose
// trip is found takes the trip's id, name and headsign, and the trip's direction wins
// when it differs from the vehicle's. A vehicle without a matching trip keeps its own
// direction and gets the "Unknown" headsign. Output order follows the input.
func Normalize(raw []RawVehicle, trips []RawTrip) []models.Vehicle {
	vehicles, _ := NormalizeWithStats(raw, trips)
	return vehicles
}

// NormalizeWithStats is Normalize that also reports how many vehicles were dropped
// and how many could not be joined to a trip.
func NormalizeWithStats(raw []RawVehicle, trips []RawTrip) ([]models.Vehicle, Stats) {
	tripLookup := make(map[string]RawTrip, len(trips))
	for _, trip := range trips {
		tripLookup[trip.ID] = trip
	}

	stats := Stats{Received: len(raw)}
	vehicles := make([]models.Vehicle, 0, len(raw))

	for _, rv := range raw {
		if !geo.IsValidLatLon(rv.Latitude, rv.Longitude) {
			stats.Dropped++
			continue
		}

		vehicle := models.Vehicle{
			ID:        rv.ID,
			Latitude:  rv.Latitude,
			Longitude: rv.Longitude,
			Trip: models.Trip{
				DirectionID: rv.DirectionID,
			},
		}

		if trip, ok := lookupTrip(tripLookup, rv.TripID); ok {
			vehicle.Trip.ID = trip.ID
			vehicle.Trip.Name = trip.Name
			vehicle.Trip.Headsign = trip.Headsign
			if trip.DirectionID != vehicle.Trip.DirectionID {
				vehicle.Trip.DirectionID = trip.DirectionID
			}
		} else {
			vehicle.Trip.Headsign = UnknownHeadsign
			stats.Unjoined++
		}

		vehicle.DisplayLabel = DisplayLabel(vehicle.ID, vehicle.Trip.Headsign)
		vehicles = append(vehicles, vehicle)
	}

	return vehicles, stats
}

// DisplayLabel builds the two-line pin label of a vehicle, e.g. "# 1234\nto Harvard".
func DisplayLabel(vehicleID, headsign string) string {
	return fmt.Sprintf("# %s\nto %s", strings.ReplaceAll(vehicleID, vehicleIDFiller, ""), headsign)
}

func lookupTrip(tripLookup map[string]RawTrip, tripID string) (RawTrip, bool) {
	if tripID == "" {
		return RawTrip{}, false
	}
	trip, ok := tripLookup[tripID]
	return trip, ok
}
