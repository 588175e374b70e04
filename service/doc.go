// Package service is the public read API over the feed pipeline: it resolves
// endpoint sets, fetches them, merges partial results and maps them into the
// records the map display consumes, falling back to synthetic data when every
// upstream endpoint fails.
package service
