package persistence

import (
	"path/filepath"
	"testing"

	"github.com/talgya/mars-colony/internal/colony"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "archive.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRunArchiveRoundTrip(t *testing.T) {
	db := openTestDB(t)

	runID, err := db.BeginRun(42, 0)
	if err != nil {
		t.Fatalf("BeginRun: %v", err)
	}

	reports := []struct {
		hour     int64
		blackout bool
	}{
		{0, false}, {1, true}, {2, false}, {3, true},
	}
	for _, r := range reports {
		rep := colony.PowerReport{ProducedKW: 75, CriticalKW: 15.5, Blackout: r.blackout}
		if err := db.RecordReport(runID, r.hour, rep, 300, 0.75); err != nil {
			t.Fatalf("RecordReport: %v", err)
		}
	}

	hours, err := db.BlackoutHours(runID)
	if err != nil {
		t.Fatalf("BlackoutHours: %v", err)
	}
	if len(hours) != 2 || hours[0] != 1 || hours[1] != 3 {
		t.Errorf("blackout hours = %v, want [1 3]", hours)
	}
}

func TestEventSinkAndRecall(t *testing.T) {
	db := openTestDB(t)
	runID, err := db.BeginRun(7, 12)
	if err != nil {
		t.Fatalf("BeginRun: %v", err)
	}

	sink := db.RecordEvent(runID)
	sink(13, "weather", "Dust storm rolls in")
	sink(20, "supply", "Orbital supply drop delivered")

	events, err := db.RecentEvents(runID, 10)
	if err != nil {
		t.Fatalf("RecentEvents: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}
	// Newest first.
	if events[0].Kind != "supply" || events[1].Kind != "weather" {
		t.Errorf("event order = %s, %s", events[0].Kind, events[1].Kind)
	}
}

func TestMetaRoundTrip(t *testing.T) {
	db := openTestDB(t)
	if err := db.SaveMeta("last_run", "abc"); err != nil {
		t.Fatalf("SaveMeta: %v", err)
	}
	if err := db.SaveMeta("last_run", "def"); err != nil {
		t.Fatalf("SaveMeta overwrite: %v", err)
	}
	got, err := db.GetMeta("last_run")
	if err != nil {
		t.Fatalf("GetMeta: %v", err)
	}
	if got != "def" {
		t.Errorf("meta = %q, want %q", got, "def")
	}
}
