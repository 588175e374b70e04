package mapper

import (
	"testing"

	"github.com/theoremus-urban-solutions/subway-feeds/gtfsrt"
)

func TestMapAlerts(t *testing.T) {
	feed := &gtfsrt.Feed{
		Entities: []gtfsrt.Entity{
			{
				ID: "alert-1",
				Alert: &gtfsrt.AlertEntity{
					RouteIDs: []string{"a", "C", "A"},
					ActivePeriods: []gtfsrt.ActivePeriod{
						{Start: 1700000000, End: 1700003600},
						{Start: 1700086400},
					},
					Header: []gtfsrt.Translation{
						{Text: "Retrasos", Language: "es"},
						{Text: "Delays on A trains", Language: "en"},
					},
					Description: []gtfsrt.Translation{
						{Text: "Signal problems at 125 St"},
					},
					Cause:  "TECHNICAL_PROBLEM",
					Effect: "SIGNIFICANT_DELAYS",
				},
			},
		},
	}

	got := MapAlerts(feed)
	if len(got) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(got))
	}

	alert := got[0]
	if alert.ID != "alert-1" {
		t.Errorf("expected id alert-1, got %q", alert.ID)
	}
	if alert.Header != "Delays on A trains" {
		t.Errorf("expected English header, got %q", alert.Header)
	}
	// No English description: the first available translation is used.
	if alert.Description != "Signal problems at 125 St" {
		t.Errorf("expected first-translation description, got %q", alert.Description)
	}
	// Lines are normalized, deduplicated and sorted.
	if len(alert.Lines) != 2 || alert.Lines[0] != "A" || alert.Lines[1] != "C" {
		t.Errorf("expected lines [A C], got %v", alert.Lines)
	}
	if len(alert.ActivePeriods) != 2 || alert.ActivePeriods[1].End != 0 {
		t.Errorf("unexpected active periods: %v", alert.ActivePeriods)
	}
}

func TestMapAlertsDropsEmpty(t *testing.T) {
	feed := &gtfsrt.Feed{
		Entities: []gtfsrt.Entity{
			{ID: "empty", Alert: &gtfsrt.AlertEntity{RouteIDs: []string{"A"}}},
		},
	}
	if got := MapAlerts(feed); len(got) != 0 {
		t.Errorf("expected empty alert to be dropped, got %v", got)
	}
}

func TestMapAlertsHeaderOnlySurvives(t *testing.T) {
	feed := &gtfsrt.Feed{
		Entities: []gtfsrt.Entity{
			{
				ID: "header-only",
				Alert: &gtfsrt.AlertEntity{
					Header: []gtfsrt.Translation{{Text: "Planned work", Language: "en"}},
				},
			},
		},
	}
	got := MapAlerts(feed)
	if len(got) != 1 || got[0].Header != "Planned work" {
		t.Fatalf("expected header-only alert to survive, got %v", got)
	}
}

func TestFilterForLines(t *testing.T) {
	alerts := []ServiceAlert{
		{ID: "a", Lines: []string{"A", "C"}},
		{ID: "b", Lines: []string{"L"}},
		{ID: "c", Lines: nil},
	}

	t.Run("empty filter returns all", func(t *testing.T) {
		if got := FilterForLines(alerts, nil); len(got) != 3 {
			t.Errorf("expected all alerts, got %v", got)
		}
	})

	t.Run("intersecting lines", func(t *testing.T) {
		got := FilterForLines(alerts, []string{"c", "L"})
		if len(got) != 2 || got[0].ID != "a" || got[1].ID != "b" {
			t.Errorf("expected alerts a and b, got %v", got)
		}
	})

	t.Run("no intersection", func(t *testing.T) {
		if got := FilterForLines(alerts, []string{"Q"}); len(got) != 0 {
			t.Errorf("expected no alerts, got %v", got)
		}
	})
}
