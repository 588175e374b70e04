// Package api exposes the read-only HTTP surface consumed by the map
// display.
package api
