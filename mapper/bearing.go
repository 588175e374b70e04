package mapper

import (
	"math"
	"strings"

	"github.com/theoremus-urban-solutions/subway-feeds/stations"
)

// Direction is a compass direction for map rendering. DirectionUnknown marks
// vehicles with no derivable heading; renderers must not draw a directional
// arrow for it even though the record still carries a numeric bearing.
type Direction string

const (
	DirectionNorth   Direction = "N"
	DirectionSouth   Direction = "S"
	DirectionEast    Direction = "E"
	DirectionWest    Direction = "W"
	DirectionUnknown Direction = "UNK"
)

// InitialBearing computes the great-circle forward azimuth from one point to
// another, in degrees clockwise from true north, normalized to [0,360).
func InitialBearing(from, to stations.Coordinates) float64 {
	phi1 := from.Latitude * math.Pi / 180
	phi2 := to.Latitude * math.Pi / 180
	deltaLambda := (to.Longitude - from.Longitude) * math.Pi / 180

	y := math.Sin(deltaLambda) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(deltaLambda)
	theta := math.Atan2(y, x) * 180 / math.Pi

	return math.Mod(theta+360, 360)
}

// CardinalFromBearing buckets a bearing into one of the four 90-degree
// sectors centered on N, E, S and W.
func CardinalFromBearing(bearing float64) Direction {
	b := math.Mod(bearing+360, 360)
	switch {
	case b >= 45 && b < 135:
		return DirectionEast
	case b >= 135 && b < 225:
		return DirectionSouth
	case b >= 225 && b < 315:
		return DirectionWest
	default:
		return DirectionNorth
	}
}

// CanonicalBearing is the sector-center bearing for a coarse direction.
// DirectionUnknown gets 0 so downstream consumers always have a number; the
// Direction field is what distinguishes it from a genuine northbound heading.
func CanonicalBearing(d Direction) float64 {
	switch d {
	case DirectionEast:
		return 90
	case DirectionSouth:
		return 180
	case DirectionWest:
		return 270
	default:
		return 0
	}
}

// DirectionFromTripID extracts the coarse direction token embedded in subway
// trip ids, e.g. "136100_6..N03R" or "A20111204SAT_021150_2_N". Ids without a
// recognizable token map to DirectionUnknown.
func DirectionFromTripID(tripID string) Direction {
	switch {
	case strings.Contains(tripID, "..N"), strings.HasSuffix(tripID, "_N"):
		return DirectionNorth
	case strings.Contains(tripID, "..S"), strings.HasSuffix(tripID, "_S"):
		return DirectionSouth
	default:
		return DirectionUnknown
	}
}

// DirectionFromStopID reads the trailing platform letter of a stop id.
// Only N and S appear in the feed's encoding.
func DirectionFromStopID(stopID string) Direction {
	if stopID == "" {
		return DirectionUnknown
	}
	switch stopID[len(stopID)-1] {
	case 'N':
		return DirectionNorth
	case 'S':
		return DirectionSouth
	default:
		return DirectionUnknown
	}
}
