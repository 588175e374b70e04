package feeds

import "strings"

// lineEndpoints maps each line to the single feed endpoint that carries it.
// One endpoint serves many lines; a line never appears in more than one feed.
var lineEndpoints = map[string]Endpoint{
	"1":  EndpointBase,
	"2":  EndpointBase,
	"3":  EndpointBase,
	"4":  EndpointBase,
	"5":  EndpointBase,
	"6":  EndpointBase,
	"7":  EndpointBase,
	"S":  EndpointBase, // 42 St shuttle
	"GS": EndpointBase,

	"A":  EndpointACE,
	"C":  EndpointACE,
	"E":  EndpointACE,
	"H":  EndpointACE, // Rockaway Park shuttle
	"SR": EndpointACE,

	"B":  EndpointBDFM,
	"D":  EndpointBDFM,
	"F":  EndpointBDFM,
	"M":  EndpointBDFM,
	"FS": EndpointBDFM, // Franklin Av shuttle

	"G": EndpointG,

	"J": EndpointJZ,
	"Z": EndpointJZ,

	"N": EndpointNQRW,
	"Q": EndpointNQRW,
	"R": EndpointNQRW,
	"W": EndpointNQRW,

	"L": EndpointL,

	"SI":  EndpointSI,
	"SIR": EndpointSI,
}

// NormalizeLine uppercases and trims a line id. Line ids are caller input
// (user-typed or externally sourced) and are normalized at every boundary.
func NormalizeLine(line string) string {
	return strings.ToUpper(strings.TrimSpace(line))
}

// LineEndpoint returns the endpoint carrying the given line. Unknown lines map
// to DefaultEndpoint rather than erroring.
func LineEndpoint(line string) Endpoint {
	if ep, ok := lineEndpoints[NormalizeLine(line)]; ok {
		return ep
	}
	return DefaultEndpoint
}

// ResolveEndpoints computes the minimal covering set of endpoints for the
// requested lines, in AllEndpoints order. With no lines it returns the full
// endpoint set, since any line may then be of interest.
func ResolveEndpoints(lines []string) []Endpoint {
	if len(lines) == 0 {
		return AllEndpoints()
	}

	wanted := map[Endpoint]struct{}{}
	for _, line := range lines {
		wanted[LineEndpoint(line)] = struct{}{}
	}

	out := make([]Endpoint, 0, len(wanted))
	for _, ep := range AllEndpoints() {
		if _, ok := wanted[ep]; ok {
			out = append(out, ep)
		}
	}
	return out
}

// Lines returns the known lines served by an endpoint, unordered.
func Lines(endpoint Endpoint) []string {
	var out []string
	for line, ep := range lineEndpoints {
		if ep == endpoint {
			out = append(out, line)
		}
	}
	return out
}
