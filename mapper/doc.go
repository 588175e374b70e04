// Package mapper turns decoded GTFS-RT entities into the domain records the
// map display consumes: vehicle positions with derived heading, arrival
// predictions, and service alerts.
//
// Mappers are pure functions. They never fail a whole feed: malformed or
// incomplete entities are skipped.
package mapper
