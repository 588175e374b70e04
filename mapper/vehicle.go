package mapper

import (
	"github.com/theoremus-urban-solutions/subway-feeds/feeds"
	"github.com/theoremus-urban-solutions/subway-feeds/gtfsrt"
	"github.com/theoremus-urban-solutions/subway-feeds/stations"
)

// VehiclePosition is one train on the map. A fresh set is produced on every
// fetch cycle and replaces the previous one wholesale.
type VehiclePosition struct {
	ID         string    `json:"id"`
	Line       string    `json:"line"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Bearing    float64   `json:"bearing"`
	Direction  Direction `json:"direction"`
	TripID     string    `json:"tripId,omitempty"`
	StopID     string    `json:"stopId,omitempty"`
	ObservedAt int64     `json:"observedAtMs"`
}

// MapVehicles projects a decoded feed into map-ready vehicle positions. Pure:
// no I/O, no clock. Malformed or unresolvable entities are dropped silently;
// coordinates from the station lookup are a hard requirement.
//
// Heading comes from the great-circle bearing toward the next stop of the
// vehicle's trip update when one can be resolved, otherwise from the coarse
// direction encoded in the stop id or trip id, with a canonical bearing per
// sector so consumers always see a number.
func MapVehicles(feed *gtfsrt.Feed, lookup *stations.Lookup) []VehiclePosition {
	if feed == nil {
		return nil
	}

	// Trip updates indexed by trip id, last write wins on duplicates.
	updates := map[string]*gtfsrt.TripUpdateEntity{}
	for _, e := range feed.Entities {
		if e.TripUpdate != nil && e.TripUpdate.TripID != "" {
			updates[e.TripUpdate.TripID] = e.TripUpdate
		}
	}

	var out []VehiclePosition
	for _, e := range feed.Entities {
		v := e.Vehicle
		if v == nil || v.RouteID == "" || v.StopID == "" {
			continue
		}

		coords, ok := lookup.Coordinates(v.StopID)
		if !ok {
			continue
		}

		bearing, direction, real := bearingToNextStop(v, updates[v.TripID], lookup, coords)
		if !real {
			direction = fallbackDirection(v.StopID, v.TripID)
			bearing = CanonicalBearing(direction)
		}

		observedAt := v.Timestamp
		if observedAt == 0 {
			observedAt = feed.Timestamp
		}

		out = append(out, VehiclePosition{
			ID:         vehicleID(e.ID, v),
			Line:       feeds.NormalizeLine(v.RouteID),
			Latitude:   coords.Latitude,
			Longitude:  coords.Longitude,
			Bearing:    bearing,
			Direction:  direction,
			TripID:     v.TripID,
			StopID:     v.StopID,
			ObservedAt: observedAt * 1000,
		})
	}
	return out
}

// bearingToNextStop finds the vehicle's current stop in its trip update and
// computes the bearing toward the following stop. Returns real=false when the
// vehicle is at the final stop, has no trip update, or the next stop cannot
// be resolved.
func bearingToNextStop(v *gtfsrt.VehicleEntity, update *gtfsrt.TripUpdateEntity, lookup *stations.Lookup, current stations.Coordinates) (float64, Direction, bool) {
	if update == nil {
		return 0, DirectionUnknown, false
	}

	idx := -1
	for i, st := range update.StopTimes {
		if st.StopID == v.StopID {
			idx = i
			break
		}
	}
	if idx < 0 || idx+1 >= len(update.StopTimes) {
		return 0, DirectionUnknown, false
	}

	next, ok := lookup.Coordinates(update.StopTimes[idx+1].StopID)
	if !ok {
		return 0, DirectionUnknown, false
	}

	bearing := InitialBearing(current, next)
	return bearing, CardinalFromBearing(bearing), true
}

// fallbackDirection infers a coarse heading from the feed's own encoding:
// trailing platform letter first, then the trip id token.
func fallbackDirection(stopID, tripID string) Direction {
	if d := DirectionFromStopID(stopID); d != DirectionUnknown {
		return d
	}
	return DirectionFromTripID(tripID)
}

func vehicleID(entityID string, v *gtfsrt.VehicleEntity) string {
	if entityID != "" {
		return entityID
	}
	trip, stop := v.TripID, v.StopID
	if trip == "" {
		trip = "unknown"
	}
	if stop == "" {
		stop = "unknown"
	}
	return trip + "-" + stop
}
