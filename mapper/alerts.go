package mapper

import (
	"sort"
	"strings"

	"github.com/theoremus-urban-solutions/subway-feeds/feeds"
	"github.com/theoremus-urban-solutions/subway-feeds/gtfsrt"
)

// ActivePeriod is one alert validity window; a zero bound is open-ended.
type ActivePeriod struct {
	Start int64 `json:"startEpochSec,omitempty"`
	End   int64 `json:"endEpochSec,omitempty"`
}

// ServiceAlert is one rider-facing disruption notice.
type ServiceAlert struct {
	ID            string         `json:"id"`
	Lines         []string       `json:"lines"`
	Header        string         `json:"header"`
	Description   string         `json:"description"`
	Cause         string         `json:"cause,omitempty"`
	Effect        string         `json:"effect,omitempty"`
	ActivePeriods []ActivePeriod `json:"activePeriods,omitempty"`
}

// MapAlerts projects a decoded feed into service alerts. Alerts whose header
// and description are both empty after translation selection carry no
// user-facing value and are dropped.
func MapAlerts(feed *gtfsrt.Feed) []ServiceAlert {
	if feed == nil {
		return nil
	}

	var out []ServiceAlert
	for _, e := range feed.Entities {
		a := e.Alert
		if a == nil {
			continue
		}

		header := pickTranslation(a.Header)
		description := pickTranslation(a.Description)
		if header == "" && description == "" {
			continue
		}

		alert := ServiceAlert{
			ID:          e.ID,
			Lines:       lineSet(a.RouteIDs),
			Header:      header,
			Description: description,
			Cause:       a.Cause,
			Effect:      a.Effect,
		}
		for _, ap := range a.ActivePeriods {
			alert.ActivePeriods = append(alert.ActivePeriods, ActivePeriod{Start: ap.Start, End: ap.End})
		}
		out = append(out, alert)
	}
	return out
}

// FilterForLines keeps alerts whose line set intersects the requested lines.
// An empty request means no filtering.
func FilterForLines(alerts []ServiceAlert, lines []string) []ServiceAlert {
	if len(lines) == 0 {
		return alerts
	}
	wanted := map[string]struct{}{}
	for _, line := range lines {
		wanted[feeds.NormalizeLine(line)] = struct{}{}
	}

	var out []ServiceAlert
	for _, alert := range alerts {
		for _, line := range alert.Lines {
			if _, ok := wanted[line]; ok {
				out = append(out, alert)
				break
			}
		}
	}
	return out
}

// pickTranslation selects the English-tagged variant, falling back to the
// first variant, then to empty.
func pickTranslation(translations []gtfsrt.Translation) string {
	for _, t := range translations {
		if strings.HasPrefix(strings.ToLower(t.Language), "en") {
			return t.Text
		}
	}
	if len(translations) > 0 {
		return translations[0].Text
	}
	return ""
}

// lineSet normalizes, deduplicates and sorts route ids into a line set.
func lineSet(routeIDs []string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, id := range routeIDs {
		line := feeds.NormalizeLine(id)
		if line == "" {
			continue
		}
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		out = append(out, line)
	}
	sort.Strings(out)
	return out
}
