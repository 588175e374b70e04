// Package feeds maps subway lines to the upstream GTFS-RT feed endpoints that
// carry them and computes minimal covering endpoint sets for line queries.
//
// The registry is a fixed table: the upstream splits its realtime data into a
// handful of feeds, each serving a stable group of lines. It performs no I/O.
package feeds
