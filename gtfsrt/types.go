package gtfsrt

import "github.com/theoremus-urban-solutions/subway-feeds/feeds"

// Feed is one decoded GTFS-RT message. All wide-integer wrapper values from
// the protobuf schema are already normalized to plain int64 here; the wrapper
// types never leave the decoder.
type Feed struct {
	Endpoint  feeds.Endpoint
	Timestamp int64 // header timestamp, epoch seconds
	Entities  []Entity
}

// Entity is one record within a feed message. Exactly one of Vehicle,
// TripUpdate or Alert is non-nil; entities with no payload are dropped during
// decoding. Consumers switch on the populated payload rather than chaining
// nil checks across all three.
type Entity struct {
	ID         string
	Vehicle    *VehicleEntity
	TripUpdate *TripUpdateEntity
	Alert      *AlertEntity
}

// VehicleEntity is a decoded vehicle-position payload.
type VehicleEntity struct {
	TripID    string
	RouteID   string
	StopID    string // current stop
	Timestamp int64  // epoch seconds, 0 when absent
}

// StopTimeUpdate is one per-stop prediction within a trip update, in stop
// order. Times are epoch seconds, 0 when absent.
type StopTimeUpdate struct {
	StopID    string
	Arrival   int64
	Departure int64
	Delay     int64
}

// TripUpdateEntity is a decoded trip-update payload.
type TripUpdateEntity struct {
	TripID    string
	RouteID   string
	StopTimes []StopTimeUpdate
}

// Translation is one language-tagged text variant from an alert.
type Translation struct {
	Text     string
	Language string
}

// ActivePeriod is one alert validity window. A zero bound means the window is
// open on that side.
type ActivePeriod struct {
	Start int64
	End   int64
}

// AlertEntity is a decoded service-alert payload.
type AlertEntity struct {
	RouteIDs      []string
	ActivePeriods []ActivePeriod
	Header        []Translation
	Description   []Translation
	Cause         string
	Effect        string
}
