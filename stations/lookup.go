package stations

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"

	"github.com/rs/zerolog/log"
)

// Coordinates is a geographic position for one stop.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Lookup resolves stop ids to coordinates. The table is read-only once built;
// it is safe for concurrent use.
type Lookup struct {
	coords map[string]Coordinates
}

// NewLookup builds a Lookup directly from a map. Mostly used by tests.
func NewLookup(coords map[string]Coordinates) *Lookup {
	return &Lookup{coords: coords}
}

// Coordinates resolves a stop id. Platform-level ids carry a trailing
// directional letter (e.g. "A15N" is the northbound platform of station
// "A15"); when the exact id is unknown the parent station id is tried.
func (l *Lookup) Coordinates(stopID string) (Coordinates, bool) {
	if c, ok := l.coords[stopID]; ok {
		return c, true
	}
	if parent := ParentStationID(stopID); parent != stopID {
		if c, ok := l.coords[parent]; ok {
			return c, true
		}
	}
	return Coordinates{}, false
}

// Len returns the number of stops in the table.
func (l *Lookup) Len() int { return len(l.coords) }

// ParentStationID strips the trailing directional suffix letter from a
// platform-level stop id. Ids without such a suffix are returned unchanged.
func ParentStationID(stopID string) string {
	if len(stopID) < 2 {
		return stopID
	}
	last := stopID[len(stopID)-1]
	if last >= 'A' && last <= 'Z' {
		return stopID[:len(stopID)-1]
	}
	return stopID
}

//go:embed stations.csv
var bundledStations []byte

var (
	bundledOnce   sync.Once
	bundledLookup *Lookup
)

// Bundled returns the lookup built from the stations table shipped with the
// binary. The table is parsed once, on first use.
func Bundled() *Lookup {
	bundledOnce.Do(func() {
		l, err := parseCSV(bytes.NewReader(bundledStations))
		if err != nil {
			log.Error().Err(err).Msg("Failed to parse bundled stations table")
			l = NewLookup(map[string]Coordinates{})
		}
		bundledLookup = l
	})
	return bundledLookup
}

// LoadFile builds a Lookup from a stations CSV on disk, for deployments that
// override the bundled table.
func LoadFile(path string) (*Lookup, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open stations file: %w", err)
	}
	defer f.Close()
	return parseCSV(f)
}

// parseCSV reads rows of "stop_id,stop_name,latitude,longitude". The header
// row is detected by a non-numeric latitude column and skipped. Malformed rows
// are skipped rather than failing the whole table.
func parseCSV(r io.Reader) (*Lookup, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	coords := map[string]Coordinates{}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read stations csv: %w", err)
		}
		if len(record) < 4 || record[0] == "" {
			continue
		}
		lat, latErr := strconv.ParseFloat(record[2], 64)
		lon, lonErr := strconv.ParseFloat(record[3], 64)
		if latErr != nil || lonErr != nil {
			continue
		}
		coords[record[0]] = Coordinates{Latitude: lat, Longitude: lon}
	}
	return NewLookup(coords), nil
}
