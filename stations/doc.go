// Package stations resolves stop ids to geographic coordinates from a bundled
// read-only stations table.
package stations
