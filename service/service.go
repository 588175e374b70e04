package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/theoremus-urban-solutions/subway-feeds/feeds"
	"github.com/theoremus-urban-solutions/subway-feeds/gtfsrt"
	"github.com/theoremus-urban-solutions/subway-feeds/mapper"
	"github.com/theoremus-urban-solutions/subway-feeds/stations"
)

// Mode reports where the most recent fetch got its data.
type Mode string

const (
	ModeLive Mode = "live"
	ModeMock Mode = "mock"
)

// Snapshot is the unit returned to the map display: everything it needs to
// render one frame. Immutable once constructed.
type Snapshot struct {
	Vehicles []mapper.VehiclePosition   `json:"vehicles"`
	Arrivals []mapper.ArrivalPrediction `json:"arrivals"`
	Alerts   []mapper.ServiceAlert      `json:"alerts"`
}

// Service orchestrates the registry, fetcher and mappers behind the public
// read API. It never returns errors to callers: a total upstream outage
// degrades to synthetic vehicles and empty lists, visible only through Mode.
type Service struct {
	fetcher  *gtfsrt.Fetcher
	stations *stations.Lookup
	opts     gtfsrt.FetchOptions

	mu         sync.Mutex
	mode       Mode
	latestFeed int64
}

// New builds a Service. opts apply to every upstream fetch the service makes.
func New(fetcher *gtfsrt.Fetcher, lookup *stations.Lookup, opts gtfsrt.FetchOptions) *Service {
	return &Service{fetcher: fetcher, stations: lookup, opts: opts, mode: ModeLive}
}

// Mode reports the outcome of the most recent fetch.
func (s *Service) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// LatestFeedEpoch is the newest feed header timestamp seen, for health
// reporting.
func (s *Service) LatestFeedEpoch() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latestFeed
}

// FetchVehicles returns current train positions, optionally narrowed to a set
// of lines. The registry picks the minimal covering endpoint set for the
// request.
func (s *Service) FetchVehicles(ctx context.Context, lines []string) []mapper.VehiclePosition {
	merged, ok := s.fetchMerged(ctx, feeds.ResolveEndpoints(lines))
	if !ok {
		return s.mockVehicles(lines)
	}
	vehicles := dedupeVehicles(mapper.MapVehicles(merged, s.stations))
	return filterByLines(vehicles, lines)
}

// FetchArrivals returns upcoming predictions for one station, both
// directions, sorted by arrival time. Any endpoint may carry the station's
// trip updates, so the full endpoint set is fetched.
func (s *Service) FetchArrivals(ctx context.Context, stationID string) []mapper.ArrivalPrediction {
	merged, ok := s.fetchMerged(ctx, feeds.AllEndpoints())
	if !ok {
		return []mapper.ArrivalPrediction{}
	}
	predictions := mapper.MapArrivals(merged, time.Now())
	return mapper.FilterForStation(predictions, stationID)
}

// FetchAlerts returns active service alerts, optionally narrowed to lines.
func (s *Service) FetchAlerts(ctx context.Context, lines []string) []mapper.ServiceAlert {
	merged, ok := s.fetchMerged(ctx, feeds.AllEndpoints())
	if !ok {
		return []mapper.ServiceAlert{}
	}
	return mapper.FilterForLines(mapper.MapAlerts(merged), lines)
}

// FetchAll returns one coherent snapshot of vehicles, predictions and alerts
// from a single pass over the full endpoint set.
func (s *Service) FetchAll(ctx context.Context, lines []string) Snapshot {
	merged, ok := s.fetchMerged(ctx, feeds.AllEndpoints())
	if !ok {
		return Snapshot{
			Vehicles: s.mockVehicles(lines),
			Arrivals: []mapper.ArrivalPrediction{},
			Alerts:   []mapper.ServiceAlert{},
		}
	}
	return Snapshot{
		Vehicles: filterByLines(dedupeVehicles(mapper.MapVehicles(merged, s.stations)), lines),
		Arrivals: mapper.MapArrivals(merged, time.Now()),
		Alerts:   mapper.FilterForLines(mapper.MapAlerts(merged), lines),
	}
}

// InvalidateEndpoint forces the next fetch of one endpoint to hit the
// network.
func (s *Service) InvalidateEndpoint(endpoint feeds.Endpoint) {
	s.fetcher.Invalidate(endpoint)
}

// ClearCache drops all cached feeds.
func (s *Service) ClearCache() { s.fetcher.ClearCache() }

// fetchMerged fetches the endpoints concurrently and concatenates the
// successful feeds into one entity stream, in endpoint order. Endpoints never
// conflict: each stop and trip belongs to exactly one feed. Returns false
// only when every endpoint failed.
func (s *Service) fetchMerged(ctx context.Context, endpoints []feeds.Endpoint) (*gtfsrt.Feed, bool) {
	batch := s.fetcher.FetchMany(ctx, endpoints, s.opts)
	if len(batch.Results) == 0 {
		s.noteTotalFailure(batch)
		return nil, false
	}

	merged := &gtfsrt.Feed{}
	for _, endpoint := range endpoints {
		feed, ok := batch.Results[endpoint]
		if !ok {
			continue
		}
		merged.Entities = append(merged.Entities, feed.Entities...)
		if feed.Timestamp > merged.Timestamp {
			merged.Timestamp = feed.Timestamp
		}
	}

	s.mu.Lock()
	s.mode = ModeLive
	if merged.Timestamp > s.latestFeed {
		s.latestFeed = merged.Timestamp
	}
	s.mu.Unlock()
	return merged, true
}

// noteTotalFailure flips to mock mode and logs the aggregated failure for
// operators. Callers of the public API see only the mode change and the
// synthetic data.
func (s *Service) noteTotalFailure(batch gtfsrt.BatchResult) {
	msgs := make([]string, 0, len(batch.Errors))
	for _, err := range batch.Errors {
		msgs = append(msgs, err.Error())
	}
	sort.Strings(msgs)
	log.Error().Strs("errors", msgs).Msg("All feed endpoints failed; serving synthetic data")

	s.mu.Lock()
	s.mode = ModeMock
	s.mu.Unlock()
}

// dedupeVehicles drops duplicate vehicle ids, keeping the last occurrence in
// merge order. Output preserves first-seen position so repeated calls over
// the same stream are stable.
func dedupeVehicles(vehicles []mapper.VehiclePosition) []mapper.VehiclePosition {
	index := map[string]int{}
	out := make([]mapper.VehiclePosition, 0, len(vehicles))
	for _, v := range vehicles {
		if i, ok := index[v.ID]; ok {
			out[i] = v
			continue
		}
		index[v.ID] = len(out)
		out = append(out, v)
	}
	return out
}

// filterByLines narrows vehicles to the requested lines. Empty request means
// no filtering.
func filterByLines(vehicles []mapper.VehiclePosition, lines []string) []mapper.VehiclePosition {
	if len(lines) == 0 {
		return vehicles
	}
	wanted := map[string]struct{}{}
	for _, line := range lines {
		wanted[feeds.NormalizeLine(line)] = struct{}{}
	}
	out := make([]mapper.VehiclePosition, 0, len(vehicles))
	for _, v := range vehicles {
		if _, ok := wanted[v.Line]; ok {
			out = append(out, v)
		}
	}
	return out
}
