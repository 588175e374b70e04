package gtfsrt_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path"
	"sync/atomic"
	"testing"
	"time"

	gtfsrtpb "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"

	"github.com/theoremus-urban-solutions/subway-feeds/config"
	"github.com/theoremus-urban-solutions/subway-feeds/feeds"
	"github.com/theoremus-urban-solutions/subway-feeds/gtfsrt"
)

// vehiclePayload builds a minimal valid feed message with one vehicle entity.
func vehiclePayload(t *testing.T, ts uint64) []byte {
	t.Helper()
	fm := &gtfsrtpb.FeedMessage{
		Header: &gtfsrtpb.FeedHeader{
			GtfsRealtimeVersion: proto.String("2.0"),
			Timestamp:           proto.Uint64(ts),
		},
		Entity: []*gtfsrtpb.FeedEntity{
			{
				Id: proto.String("veh-1"),
				Vehicle: &gtfsrtpb.VehiclePosition{
					Trip: &gtfsrtpb.TripDescriptor{
						TripId:  proto.String("trip-1..N"),
						RouteId: proto.String("A"),
					},
					StopId:    proto.String("A15N"),
					Timestamp: proto.Uint64(ts),
				},
			},
		},
	}
	buf, err := proto.Marshal(fm)
	if err != nil {
		t.Fatalf("Failed to marshal feed: %v", err)
	}
	return buf
}

func newTestFetcher(serverURL string, retries int) *gtfsrt.Fetcher {
	return gtfsrt.NewFetcher(config.UpstreamConfig{
		BaseURL:   serverURL,
		Retries:   retries,
		BackoffMS: 1,
		TimeoutMS: 5000,
	})
}

func TestFetchDecodesFeed(t *testing.T) {
	payload := vehiclePayload(t, 1700000000)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(payload)
	}))
	defer server.Close()

	f := newTestFetcher(server.URL, 0)
	feed, err := f.Fetch(context.Background(), feeds.EndpointACE, gtfsrt.DefaultFetchOptions())
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if feed.Endpoint != feeds.EndpointACE {
		t.Errorf("expected endpoint %s, got %s", feeds.EndpointACE, feed.Endpoint)
	}
	if feed.Timestamp != 1700000000 {
		t.Errorf("expected header timestamp, got %d", feed.Timestamp)
	}
	if len(feed.Entities) != 1 || feed.Entities[0].Vehicle == nil {
		t.Fatalf("expected one vehicle entity, got %+v", feed.Entities)
	}
	if feed.Entities[0].Vehicle.StopID != "A15N" {
		t.Errorf("expected stop A15N, got %q", feed.Entities[0].Vehicle.StopID)
	}
}

func TestFetchSendsAPIKey(t *testing.T) {
	payload := vehiclePayload(t, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "secret" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		_, _ = w.Write(payload)
	}))
	defer server.Close()

	f := gtfsrt.NewFetcher(config.UpstreamConfig{BaseURL: server.URL, APIKey: "secret", TimeoutMS: 5000})
	if _, err := f.Fetch(context.Background(), feeds.EndpointBase, gtfsrt.FetchOptions{NoRetry: true}); err != nil {
		t.Fatalf("Fetch with api key failed: %v", err)
	}
}

func TestFetchCacheHitWithinTTL(t *testing.T) {
	var requests atomic.Int64
	payload := vehiclePayload(t, 2)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		_, _ = w.Write(payload)
	}))
	defer server.Close()

	f := newTestFetcher(server.URL, 0)
	opts := gtfsrt.FetchOptions{CacheTTL: time.Minute}

	for i := 0; i < 3; i++ {
		if _, err := f.Fetch(context.Background(), feeds.EndpointL, opts); err != nil {
			t.Fatalf("Fetch %d failed: %v", i, err)
		}
	}
	if got := requests.Load(); got != 1 {
		t.Errorf("expected exactly 1 upstream request, got %d", got)
	}

	// Zero TTL bypasses the cache.
	if _, err := f.Fetch(context.Background(), feeds.EndpointL, gtfsrt.FetchOptions{}); err != nil {
		t.Fatalf("bypass fetch failed: %v", err)
	}
	if got := requests.Load(); got != 2 {
		t.Errorf("expected bypass to hit upstream, got %d requests", got)
	}

	// Invalidation forces the next fetch through.
	f.Invalidate(feeds.EndpointL)
	if _, err := f.Fetch(context.Background(), feeds.EndpointL, opts); err != nil {
		t.Fatalf("post-invalidate fetch failed: %v", err)
	}
	if got := requests.Load(); got != 3 {
		t.Errorf("expected invalidate to force a request, got %d", got)
	}
}

func TestFetchCacheExpiry(t *testing.T) {
	var requests atomic.Int64
	payload := vehiclePayload(t, 3)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		_, _ = w.Write(payload)
	}))
	defer server.Close()

	f := newTestFetcher(server.URL, 0)
	opts := gtfsrt.FetchOptions{CacheTTL: 30 * time.Millisecond}

	if _, err := f.Fetch(context.Background(), feeds.EndpointG, opts); err != nil {
		t.Fatalf("first fetch failed: %v", err)
	}
	time.Sleep(60 * time.Millisecond)
	if _, err := f.Fetch(context.Background(), feeds.EndpointG, opts); err != nil {
		t.Fatalf("second fetch failed: %v", err)
	}

	if got := requests.Load(); got != 2 {
		t.Errorf("expected 2 upstream requests after TTL expiry, got %d", got)
	}
}

func TestFetchRetriesThenSucceeds(t *testing.T) {
	var requests atomic.Int64
	payload := vehiclePayload(t, 4)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write(payload)
	}))
	defer server.Close()

	f := newTestFetcher(server.URL, 1)
	if _, err := f.Fetch(context.Background(), feeds.EndpointBase, gtfsrt.FetchOptions{}); err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if got := requests.Load(); got != 2 {
		t.Errorf("expected 2 attempts, got %d", got)
	}
}

func TestFetchNoRetry(t *testing.T) {
	var requests atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	f := newTestFetcher(server.URL, 3)
	_, err := f.Fetch(context.Background(), feeds.EndpointBase, gtfsrt.FetchOptions{NoRetry: true})
	if err == nil {
		t.Fatal("expected error")
	}

	var te *gtfsrt.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransportError, got %T: %v", err, err)
	}
	if te.Status != http.StatusBadGateway || te.Endpoint != feeds.EndpointBase {
		t.Errorf("unexpected error detail: %+v", te)
	}
	if got := requests.Load(); got != 1 {
		t.Errorf("expected exactly 1 attempt with NoRetry, got %d", got)
	}
}

func TestFetchDecodeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not a protobuf"))
	}))
	defer server.Close()

	f := newTestFetcher(server.URL, 0)
	_, err := f.Fetch(context.Background(), feeds.EndpointJZ, gtfsrt.FetchOptions{})
	if err == nil {
		t.Fatal("expected error")
	}
	var de *gtfsrt.DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("expected DecodeError, got %T: %v", err, err)
	}
}

func TestFetchCancellation(t *testing.T) {
	var requests atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		select {
		case <-time.After(5 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	f := newTestFetcher(server.URL, 3)
	_, err := f.Fetch(ctx, feeds.EndpointBase, gtfsrt.FetchOptions{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if got := requests.Load(); got != 1 {
		t.Errorf("expected no retry after cancellation, got %d attempts", got)
	}
}

func TestFetchManyPartialFailure(t *testing.T) {
	payload := vehiclePayload(t, 5)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if path.Base(r.URL.Path) != string(feeds.EndpointBase) {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write(payload)
	}))
	defer server.Close()

	f := newTestFetcher(server.URL, 0)
	endpoints := []feeds.Endpoint{feeds.EndpointBase, feeds.EndpointACE, feeds.EndpointL}
	batch := f.FetchMany(context.Background(), endpoints, gtfsrt.FetchOptions{})

	if len(batch.Results) != 1 {
		t.Errorf("expected 1 result, got %d", len(batch.Results))
	}
	if _, ok := batch.Results[feeds.EndpointBase]; !ok {
		t.Error("expected base endpoint in results")
	}
	if len(batch.Errors) != 2 {
		t.Errorf("expected 2 errors, got %d", len(batch.Errors))
	}
	for _, ep := range []feeds.Endpoint{feeds.EndpointACE, feeds.EndpointL} {
		if batch.Errors[ep] == nil {
			t.Errorf("expected error for %s", ep)
		}
	}
}

func TestFetchManyAllFail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	f := newTestFetcher(server.URL, 0)
	endpoints := feeds.AllEndpoints()
	batch := f.FetchMany(context.Background(), endpoints, gtfsrt.FetchOptions{})

	if len(batch.Results) != 0 {
		t.Errorf("expected no results, got %d", len(batch.Results))
	}
	if len(batch.Errors) != len(endpoints) {
		t.Errorf("expected %d errors, got %d", len(endpoints), len(batch.Errors))
	}
}
