package gtfsrt

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"

	"github.com/theoremus-urban-solutions/subway-feeds/config"
	"github.com/theoremus-urban-solutions/subway-feeds/feeds"
)

// DefaultCacheTTL bounds feed staleness when the caller does not choose one.
const DefaultCacheTTL = 10 * time.Second

// FetchOptions control one fetch. A zero CacheTTL bypasses the cache
// entirely; use DefaultFetchOptions for the standard staleness bound.
type FetchOptions struct {
	CacheTTL time.Duration
	NoRetry  bool
}

func DefaultFetchOptions() FetchOptions {
	return FetchOptions{CacheTTL: DefaultCacheTTL}
}

// Fetcher retrieves and decodes GTFS-RT feeds, caching the newest decoded
// message per endpoint. It owns its cache, so independent Fetcher instances
// never share state.
type Fetcher struct {
	client      *http.Client
	cache       *FeedCache
	baseURL     string
	apiKey      string
	retries     uint64
	backoffBase time.Duration
}

// NewFetcher builds a Fetcher from upstream settings.
func NewFetcher(cfg config.UpstreamConfig) *Fetcher {
	timeout := time.Duration(cfg.TimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Fetcher{
		client:      &http.Client{Timeout: timeout},
		cache:       NewFeedCache(),
		baseURL:     cfg.BaseURL,
		apiKey:      cfg.APIKey,
		retries:     uint64(cfg.Retries),
		backoffBase: time.Duration(cfg.BackoffMS) * time.Millisecond,
	}
}

// linearBackOff waits base x attempt between tries.
type linearBackOff struct {
	base    time.Duration
	attempt int
}

func (b *linearBackOff) NextBackOff() time.Duration {
	b.attempt++
	return b.base * time.Duration(b.attempt)
}

func (b *linearBackOff) Reset() { b.attempt = 0 }

// Fetch returns the decoded feed for one endpoint, cache-first. Failed
// attempts are retried with linear backoff unless opts.NoRetry is set;
// cancellation short-circuits the retry loop and surfaces the context error
// unchanged. Successful fetches refresh the cache entry.
func (f *Fetcher) Fetch(ctx context.Context, endpoint feeds.Endpoint, opts FetchOptions) (*Feed, error) {
	if feed, ok := f.cache.Fresh(endpoint, opts.CacheTTL); ok {
		return feed, nil
	}

	var feed *Feed
	op := func() error {
		var err error
		feed, err = f.fetchOnce(ctx, endpoint)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return err
		}
		return nil
	}

	retries := f.retries
	if opts.NoRetry {
		retries = 0
	}
	policy := backoff.WithMaxRetries(&linearBackOff{base: f.backoffBase}, retries)
	if err := backoff.Retry(op, backoff.WithContext(policy, ctx)); err != nil {
		return nil, err
	}

	f.cache.Put(endpoint, feed)
	return feed, nil
}

func (f *Fetcher) fetchOnce(ctx context.Context, endpoint feeds.Endpoint) (*Feed, error) {
	url := f.baseURL + "/" + endpoint.Path()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &TransportError{Endpoint: endpoint, Err: err}
	}
	if f.apiKey != "" {
		req.Header.Set("x-api-key", f.apiKey)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &TransportError{Endpoint: endpoint, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{Endpoint: endpoint, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Endpoint: endpoint, Err: err}
	}
	return Decode(endpoint, body)
}

// BatchResult partitions a multi-endpoint fetch into decoded feeds and
// per-endpoint failures. Every requested endpoint appears in exactly one of
// the two maps.
type BatchResult struct {
	Results map[feeds.Endpoint]*Feed
	Errors  map[feeds.Endpoint]error
}

// FetchMany fetches all endpoints concurrently. Per-endpoint failures do not
// abort sibling fetches and FetchMany itself never fails: policy for partial
// or total failure belongs to the caller.
func (f *Fetcher) FetchMany(ctx context.Context, endpoints []feeds.Endpoint, opts FetchOptions) BatchResult {
	type outcome struct {
		endpoint feeds.Endpoint
		feed     *Feed
		err      error
	}

	p := pool.NewWithResults[outcome]()
	for _, endpoint := range endpoints {
		p.Go(func() outcome {
			feed, err := f.Fetch(ctx, endpoint, opts)
			return outcome{endpoint: endpoint, feed: feed, err: err}
		})
	}

	batch := BatchResult{
		Results: map[feeds.Endpoint]*Feed{},
		Errors:  map[feeds.Endpoint]error{},
	}
	for _, o := range p.Wait() {
		if o.err != nil {
			log.Debug().Err(o.err).Str("endpoint", string(o.endpoint)).Msg("Feed fetch failed")
			batch.Errors[o.endpoint] = o.err
			continue
		}
		batch.Results[o.endpoint] = o.feed
	}
	return batch
}

// Invalidate drops the cached feed for one endpoint, forcing the next fetch
// to hit the network.
func (f *Fetcher) Invalidate(endpoint feeds.Endpoint) { f.cache.Invalidate(endpoint) }

// ClearCache drops every cached feed.
func (f *Fetcher) ClearCache() { f.cache.Clear() }
