package gtfsrt

import (
	"fmt"

	"github.com/theoremus-urban-solutions/subway-feeds/feeds"
)

// TransportError is a network-level fetch failure: connection error or a
// non-2xx status from the upstream. Status is 0 when the request never got a
// response.
type TransportError struct {
	Endpoint feeds.Endpoint
	Status   int
	Err      error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("feed %s: HTTP %d", e.Endpoint, e.Status)
	}
	return fmt.Sprintf("feed %s: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// DecodeError is a payload that did not parse as a GTFS-RT feed message.
type DecodeError struct {
	Endpoint feeds.Endpoint
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("feed %s: decode: %v", e.Endpoint, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
