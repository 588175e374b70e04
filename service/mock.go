package service

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/theoremus-urban-solutions/subway-feeds/mapper"
)

// mockSeed is one fixed synthetic train. Positions are real station
// locations so the map renders something plausible during a total outage.
type mockSeed struct {
	id      string
	line    string
	lat     float64
	lon     float64
	bearing float64
}

var mockSeeds = []mockSeed{
	{id: "mock-1-times-sq", line: "1", lat: 40.755983, lon: -73.986229, bearing: 20},
	{id: "mock-4-grand-central", line: "4", lat: 40.751776, lon: -73.976848, bearing: 200},
	{id: "mock-7-main-st", line: "7", lat: 40.7596, lon: -73.83003, bearing: 250},
	{id: "mock-a-columbus", line: "A", lat: 40.768296, lon: -73.981736, bearing: 35},
	{id: "mock-l-bedford", line: "L", lat: 40.717304, lon: -73.956872, bearing: 100},
	{id: "mock-n-canal", line: "N", lat: 40.718383, lon: -74.00046, bearing: 180},
	{id: "mock-g-court-sq", line: "G", lat: 40.746554, lon: -73.943832, bearing: 160},
}

// mockVehicles produces the synthetic vehicle set: the fixed seeds with small
// positional jitter and a bearing that drifts slowly over time, so the map
// stays visibly alive while upstream is down.
func (s *Service) mockVehicles(lines []string) []mapper.VehiclePosition {
	now := time.Now()
	drift := float64(now.Unix() / 10 % 360)

	out := make([]mapper.VehiclePosition, 0, len(mockSeeds))
	for _, seed := range mockSeeds {
		bearing := math.Mod(seed.bearing+drift, 360)
		out = append(out, mapper.VehiclePosition{
			ID:         seed.id,
			Line:       seed.line,
			Latitude:   seed.lat + (rand.Float64()-0.5)*0.002,
			Longitude:  seed.lon + (rand.Float64()-0.5)*0.002,
			Bearing:    bearing,
			Direction:  mapper.CardinalFromBearing(bearing),
			ObservedAt: now.UnixMilli(),
		})
	}
	return filterByLines(out, lines)
}
