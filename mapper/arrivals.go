package mapper

import (
	"sort"
	"time"

	"github.com/theoremus-urban-solutions/subway-feeds/feeds"
	"github.com/theoremus-urban-solutions/subway-feeds/gtfsrt"
	"github.com/theoremus-urban-solutions/subway-feeds/stations"
)

// ArrivalPrediction is one predicted stop visit. Identity is trip + stop.
type ArrivalPrediction struct {
	ID            string    `json:"id"`
	Line          string    `json:"line"`
	TripID        string    `json:"tripId"`
	StopID        string    `json:"stopId"`
	Direction     Direction `json:"direction"`
	ArrivalTime   int64     `json:"arrivalEpochSec"`
	DepartureTime int64     `json:"departureEpochSec"`
	Delay         int64     `json:"delaySec"`
}

// EffectiveTime is the arrival time when present, else the departure time.
func (p ArrivalPrediction) EffectiveTime() int64 {
	if p.ArrivalTime != 0 {
		return p.ArrivalTime
	}
	return p.DepartureTime
}

// MapArrivals projects a decoded feed into arrival predictions. Only
// future-facing predictions survive: entries whose effective time is strictly
// before now are excluded here, not left for callers to filter.
func MapArrivals(feed *gtfsrt.Feed, now time.Time) []ArrivalPrediction {
	if feed == nil {
		return nil
	}
	nowSec := now.Unix()

	var out []ArrivalPrediction
	for _, e := range feed.Entities {
		tu := e.TripUpdate
		if tu == nil || tu.RouteID == "" {
			continue
		}
		direction := DirectionFromTripID(tu.TripID)
		for _, st := range tu.StopTimes {
			if st.StopID == "" {
				continue
			}
			pred := ArrivalPrediction{
				ID:            tu.TripID + "-" + st.StopID,
				Line:          feeds.NormalizeLine(tu.RouteID),
				TripID:        tu.TripID,
				StopID:        st.StopID,
				Direction:     direction,
				ArrivalTime:   st.Arrival,
				DepartureTime: st.Departure,
				Delay:         st.Delay,
			}
			if eff := pred.EffectiveTime(); eff == 0 || eff < nowSec {
				continue
			}
			out = append(out, pred)
		}
	}
	return out
}

// FilterForStation keeps predictions for one station, both directions: the
// trailing platform letter is stripped from the query id and each prediction's
// stop id before comparing. The result is sorted ascending by effective
// arrival time.
func FilterForStation(predictions []ArrivalPrediction, stationID string) []ArrivalPrediction {
	parent := stations.ParentStationID(stationID)

	var out []ArrivalPrediction
	for _, p := range predictions {
		if stations.ParentStationID(p.StopID) == parent {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].EffectiveTime() < out[j].EffectiveTime()
	})
	return out
}
