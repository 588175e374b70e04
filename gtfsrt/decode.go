package gtfsrt

import (
	gtfsrtpb "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"

	"github.com/theoremus-urban-solutions/subway-feeds/feeds"
)

// Decode parses raw protobuf bytes into a Feed. Entities carrying no payload
// are dropped; a payload that does not unmarshal is a DecodeError for the
// whole message, never a partial result.
func Decode(endpoint feeds.Endpoint, payload []byte) (*Feed, error) {
	var fm gtfsrtpb.FeedMessage
	if err := proto.Unmarshal(payload, &fm); err != nil {
		return nil, &DecodeError{Endpoint: endpoint, Err: err}
	}

	feed := &Feed{Endpoint: endpoint}
	if fm.Header != nil && fm.Header.Timestamp != nil {
		feed.Timestamp = int64(*fm.Header.Timestamp)
	}

	for _, e := range fm.Entity {
		ent := Entity{ID: e.GetId()}
		switch {
		case e.Vehicle != nil:
			ent.Vehicle = decodeVehicle(e.Vehicle)
		case e.TripUpdate != nil:
			ent.TripUpdate = decodeTripUpdate(e.TripUpdate)
		case e.Alert != nil:
			ent.Alert = decodeAlert(e.Alert)
		default:
			continue
		}
		feed.Entities = append(feed.Entities, ent)
	}
	return feed, nil
}

func decodeVehicle(vp *gtfsrtpb.VehiclePosition) *VehicleEntity {
	v := &VehicleEntity{}
	if vp.Trip != nil {
		v.TripID = vp.Trip.GetTripId()
		v.RouteID = vp.Trip.GetRouteId()
	}
	v.StopID = vp.GetStopId()
	if vp.Timestamp != nil {
		v.Timestamp = int64(*vp.Timestamp)
	}
	return v
}

func decodeTripUpdate(tu *gtfsrtpb.TripUpdate) *TripUpdateEntity {
	t := &TripUpdateEntity{}
	if tu.Trip != nil {
		t.TripID = tu.Trip.GetTripId()
		t.RouteID = tu.Trip.GetRouteId()
	}
	for _, stu := range tu.StopTimeUpdate {
		st := StopTimeUpdate{StopID: stu.GetStopId()}
		if stu.Arrival != nil {
			if stu.Arrival.Time != nil {
				st.Arrival = *stu.Arrival.Time
			}
			if stu.Arrival.Delay != nil {
				st.Delay = int64(*stu.Arrival.Delay)
			}
		}
		if stu.Departure != nil {
			if stu.Departure.Time != nil {
				st.Departure = *stu.Departure.Time
			}
			if st.Delay == 0 && stu.Departure.Delay != nil {
				st.Delay = int64(*stu.Departure.Delay)
			}
		}
		t.StopTimes = append(t.StopTimes, st)
	}
	return t
}

func decodeAlert(a *gtfsrtpb.Alert) *AlertEntity {
	al := &AlertEntity{}
	for _, ie := range a.InformedEntity {
		if ie.RouteId != nil {
			al.RouteIDs = append(al.RouteIDs, *ie.RouteId)
		}
	}
	for _, ap := range a.ActivePeriod {
		period := ActivePeriod{}
		if ap.Start != nil {
			period.Start = int64(*ap.Start)
		}
		if ap.End != nil {
			period.End = int64(*ap.End)
		}
		al.ActivePeriods = append(al.ActivePeriods, period)
	}
	al.Header = decodeTranslations(a.HeaderText)
	al.Description = decodeTranslations(a.DescriptionText)
	if a.Cause != nil {
		al.Cause = a.Cause.String()
	}
	if a.Effect != nil {
		al.Effect = a.Effect.String()
	}
	return al
}

func decodeTranslations(ts *gtfsrtpb.TranslatedString) []Translation {
	if ts == nil {
		return nil
	}
	out := make([]Translation, 0, len(ts.Translation))
	for _, t := range ts.Translation {
		if t == nil {
			continue
		}
		out = append(out, Translation{Text: t.GetText(), Language: t.GetLanguage()})
	}
	return out
}
