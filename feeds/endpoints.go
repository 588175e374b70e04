package feeds

// Endpoint identifies one upstream GTFS-RT feed. The subway realtime data is
// split across several feeds, each covering a fixed group of lines.
type Endpoint string

const (
	EndpointBase Endpoint = "gtfs"      // numbered lines and the 42 St shuttle
	EndpointACE  Endpoint = "gtfs-ace"  // A, C, E and the Rockaway Park shuttle
	EndpointBDFM Endpoint = "gtfs-bdfm" // B, D, F, M and the Franklin Av shuttle
	EndpointG    Endpoint = "gtfs-g"
	EndpointJZ   Endpoint = "gtfs-jz"
	EndpointNQRW Endpoint = "gtfs-nqrw"
	EndpointL    Endpoint = "gtfs-l"
	EndpointSI   Endpoint = "gtfs-si" // Staten Island Railway
)

// DefaultEndpoint is where lookups for unrecognised lines land. The base feed
// is the broadest one, so a bad line id degrades to fetching it rather than
// failing the whole query.
const DefaultEndpoint = EndpointBase

// AllEndpoints returns every known endpoint in a fixed order. Callers rely on
// this order being stable: merge and dedup passes downstream are defined as
// iterating endpoints in AllEndpoints order.
func AllEndpoints() []Endpoint {
	return []Endpoint{
		EndpointBase,
		EndpointACE,
		EndpointBDFM,
		EndpointG,
		EndpointJZ,
		EndpointNQRW,
		EndpointL,
		EndpointSI,
	}
}

// Path returns the URL path suffix for the endpoint under the upstream base URL,
// e.g. "nyct%2Fgtfs-ace".
func (e Endpoint) Path() string {
	return "nyct%2F" + string(e)
}
