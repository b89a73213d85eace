package mbta

import (
	"errors"
	"fmt"
	"math"

	"busmap.mbtatools.org/internal/feed"
)

// Payloads of the MBTA v3 JSON:API endpoints. Only the fields this service reads
// are declared.

type routesResponse struct {
	Data *[]routeResource `json:"data"`
}

type routeResource struct {
	ID         string          `json:"id"`
	Attributes routeAttributes `json:"attributes"`
}

type routeAttributes struct {
	LongName string `json:"long_name"`
}

type vehiclesResponse struct {
	Data     *[]vehicleResource `json:"data"`
	Included []tripResource     `json:"included"`
}

type vehicleResource struct {
	ID            string               `json:"id"`
	Attributes    vehicleAttributes    `json:"attributes"`
	Relationships vehicleRelationships `json:"relationships"`
}

type vehicleAttributes struct {
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	DirectionID *int     `json:"direction_id"`
}

type vehicleRelationships struct {
	Trip *relationship `json:"trip"`
}

type relationship struct {
	Data *resourceIdentifier `json:"data"`
}

type resourceIdentifier struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

type tripResource struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Attributes tripAttributes `json:"attributes"`
}

type tripAttributes struct {
	Name        string `json:"name"`
	Headsign    string `json:"headsign"`
	DirectionID *int   `json:"direction_id"`
}

var errMissingData = errors.New(`missing required field "data"`)

// rawRecords converts the decoded payload into normalizer input.
// A missing or null coordinate becomes NaN so that the validity gate drops the vehicle.
func (r vehiclesResponse) rawRecords() ([]feed.RawVehicle, []feed.RawTrip, error) {
	if r.Data == nil {
		return nil, nil, errMissingData
	}

	vehicles := make([]feed.RawVehicle, 0, len(*r.Data))
	for i, v := range *r.Data {
		if v.ID == "" {
			return nil, nil, fmt.Errorf(`vehicle at index %d: missing required field "id"`, i)
		}
		raw := feed.RawVehicle{
			ID:          v.ID,
			Latitude:    floatOrNaN(v.Attributes.Latitude),
			Longitude:   floatOrNaN(v.Attributes.Longitude),
			DirectionID: intOrZero(v.Attributes.DirectionID),
		}
		if v.Relationships.Trip != nil && v.Relationships.Trip.Data != nil {
			raw.TripID = v.Relationships.Trip.Data.ID
		}
		vehicles = append(vehicles, raw)
	}

	trips := make([]feed.RawTrip, 0, len(r.Included))
	for _, t := range r.Included {
		if t.Type != "" && t.Type != "trip" {
			continue
		}
		trips = append(trips, feed.RawTrip{
			ID:          t.ID,
			Name:        t.Attributes.Name,
			Headsign:    t.Attributes.Headsign,
			DirectionID: intOrZero(t.Attributes.DirectionID),
		})
	}

	return vehicles, trips, nil
}

func floatOrNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

func intOrZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
