package feed

import (
	"math"
	"testing"

	"busmap.mbtatools.org/internal/metrics"
	"busmap.mbtatools.org/internal/models"
)

func TestNormalize(t *testing.T) {
	trips := []RawTrip{
		{ID: "trip-1", Name: "", Headsign: "Harvard", DirectionID: 1},
		{ID: "trip-2", Name: "2041", Headsign: "Nubian", DirectionID: 0},
	}

	t.Run("Joins trips and builds labels", func(t *testing.T) {
		raw := []RawVehicle{
			{ID: "y1234", Latitude: 42.35, Longitude: -71.05, DirectionID: 1, TripID: "trip-1"},
			{ID: "y1812", Latitude: 42.33, Longitude: -71.08, DirectionID: 0, TripID: "trip-2"},
		}

		vehicles := Normalize(raw, trips)
		if len(vehicles) != 2 {
			t.Fatalf("expected 2 vehicles, got %d", len(vehicles))
		}

		expected := models.Vehicle{
			ID:           "y1234",
			Latitude:     42.35,
			Longitude:    -71.05,
			Trip:         models.Trip{ID: "trip-1", Headsign: "Harvard", DirectionID: 1},
			DisplayLabel: "# 1234\nto Harvard",
		}
		if vehicles[0] != expected {
			t.Errorf("expected %+v, got %+v", expected, vehicles[0])
		}
		if vehicles[1].Trip.Name != "2041" || vehicles[1].Trip.Direction() != "Outbound" {
			t.Errorf("unexpected trip for second vehicle: %+v", vehicles[1].Trip)
		}
	})

	t.Run("Trip direction wins on mismatch", func(t *testing.T) {
		raw := []RawVehicle{
			{ID: "y1", Latitude: 42.35, Longitude: -71.05, DirectionID: 0, TripID: "trip-1"},
		}
		vehicles := Normalize(raw, trips)
		if len(vehicles) != 1 {
			t.Fatalf("expected 1 vehicle, got %d", len(vehicles))
		}
		if vehicles[0].Trip.DirectionID != 1 {
			t.Errorf("expected trip direction 1, got %d", vehicles[0].Trip.DirectionID)
		}
	})

	t.Run("Missing trip defaults headsign", func(t *testing.T) {
		raw := []RawVehicle{
			{ID: "y2", Latitude: 42.35, Longitude: -71.05, DirectionID: 1, TripID: "dangling"},
			{ID: "y3", Latitude: 42.36, Longitude: -71.05, DirectionID: 0},
		}
		vehicles, stats := NormalizeWithStats(raw, trips)
		if len(vehicles) != 2 {
			t.Fatalf("expected 2 vehicles, got %d", len(vehicles))
		}
		for _, v := range vehicles {
			if v.Trip.Headsign != UnknownHeadsign {
				t.Errorf("expected headsign %q for %s, got %q", UnknownHeadsign, v.ID, v.Trip.Headsign)
			}
			if v.Trip.ID != "" {
				t.Errorf("expected empty trip id for %s, got %q", v.ID, v.Trip.ID)
			}
		}
		if vehicles[0].Trip.DirectionID != 1 || vehicles[1].Trip.DirectionID != 0 {
			t.Errorf("expected vehicle directions to be kept, got %d and %d", vehicles[0].Trip.DirectionID, vehicles[1].Trip.DirectionID)
		}
		if vehicles[0].DisplayLabel != "# 2\nto Unknown" {
			t.Errorf("unexpected label %q", vehicles[0].DisplayLabel)
		}
		if stats.Unjoined != 2 {
			t.Errorf("expected 2 unjoined vehicles, got %d", stats.Unjoined)
		}
	})

	t.Run("Drops invalid coordinates and keeps order", func(t *testing.T) {
		raw := []RawVehicle{
			{ID: "a", Latitude: 42.35, Longitude: -71.05},
			{ID: "b", Latitude: math.NaN(), Longitude: -71.05},
			{ID: "c", Latitude: 91, Longitude: -71.05},
			{ID: "d", Latitude: 42.35, Longitude: math.NaN()},
			{ID: "e", Latitude: 42.35, Longitude: -180.01},
			{ID: "f", Latitude: -90, Longitude: 180},
			{ID: "g", Latitude: 42.30, Longitude: -71.10},
		}

		vehicles, stats := NormalizeWithStats(raw, nil)
		if len(vehicles) > len(raw) {
			t.Fatalf("normalization grew the list: %d > %d", len(vehicles), len(raw))
		}

		var ids []string
		for _, v := range vehicles {
			ids = append(ids, v.ID)
			if math.IsNaN(v.Latitude) || v.Latitude < -90 || v.Latitude > 90 ||
				math.IsNaN(v.Longitude) || v.Longitude < -180 || v.Longitude > 180 {
				t.Errorf("vehicle %s has invalid coordinates (%v, %v)", v.ID, v.Latitude, v.Longitude)
			}
		}

		want := []string{"a", "f", "g"}
		if len(ids) != len(want) {
			t.Fatalf("expected ids %v, got %v", want, ids)
		}
		for i := range want {
			if ids[i] != want[i] {
				t.Errorf("expected ids %v, got %v", want, ids)
				break
			}
		}

		if stats != (Stats{Received: 7, Dropped: 4, Unjoined: 3}) {
			t.Errorf("unexpected stats %+v", stats)
		}
	})

	t.Run("Empty input", func(t *testing.T) {
		vehicles := Normalize(nil, trips)
		if vehicles == nil || len(vehicles) != 0 {
			t.Errorf("expected empty non-nil slice, got %#v", vehicles)
		}
	})

	t.Run("Trips are not shared between vehicles", func(t *testing.T) {
		raw := []RawVehicle{
			{ID: "y1", Latitude: 42.35, Longitude: -71.05, TripID: "trip-1"},
			{ID: "y2", Latitude: 42.36, Longitude: -71.05, TripID: "trip-1"},
		}
		vehicles := Normalize(raw, trips)
		vehicles[0].Trip.Headsign = "Changed"
		if vehicles[1].Trip.Headsign != "Harvard" {
			t.Errorf("expected second vehicle's trip to be independent, got %q", vehicles[1].Trip.Headsign)
		}
	})
}

func TestDisplayLabel(t *testing.T) {
	tests := []struct {
		id       string
		headsign string
		expected string
	}{
		{"y1234", "Harvard", "# 1234\nto Harvard"},
		{"1234", "Harvard", "# 1234\nto Harvard"},
		{"y1y2", "Unknown", "# 12\nto Unknown"},
	}
	for _, tt := range tests {
		if got := DisplayLabel(tt.id, tt.headsign); got != tt.expected {
			t.Errorf("DisplayLabel(%q, %q) = %q, want %q", tt.id, tt.headsign, got, tt.expected)
		}
	}
}

func TestStatsRecord(t *testing.T) {
	t.Run("Empty pass creates no series", func(t *testing.T) {
		Stats{}.Record("no-such-route")
		if metrics.VehiclesReceived.DeleteLabelValues("no-such-route") ||
			metrics.VehiclesDropped.DeleteLabelValues("no-such-route") ||
			metrics.VehiclesUnjoined.DeleteLabelValues("no-such-route") {
			t.Error("expected no series for an empty pass")
		}
	})

	t.Run("Counts vehicles", func(t *testing.T) {
		Stats{Received: 4, Dropped: 1, Unjoined: 2}.Record("stats-route")
		Stats{Received: 1}.Record("stats-route")

		if got, err := metrics.CounterValue(metrics.VehiclesReceived, "stats-route"); err != nil || got != 5 {
			t.Errorf("expected 5 received, got %v (%v)", got, err)
		}
		if got, err := metrics.CounterValue(metrics.VehiclesDropped, "stats-route"); err != nil || got != 1 {
			t.Errorf("expected 1 dropped, got %v (%v)", got, err)
		}
		if got, err := metrics.CounterValue(metrics.VehiclesUnjoined, "stats-route"); err != nil || got != 2 {
			t.Errorf("expected 2 unjoined, got %v (%v)", got, err)
		}
	})
}
