// Package gtfsrt fetches and decodes GTFS-Realtime protobuf feeds.
//
// A Fetcher retrieves one endpoint at a time cache-first with retry and
// cancellation, or many endpoints concurrently with per-endpoint failure
// isolation. Decoded messages are plain Go values; protobuf wrapper types do
// not leak out of this package.
package gtfsrt
