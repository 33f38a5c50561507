package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/talgya/mars-colony/internal/engine"
)

func TestNilManagerDiscards(t *testing.T) {
	var om *OutputManager
	if err := om.WriteStatus(StatusRecord{Hour: 1}); err != nil {
		t.Errorf("nil WriteStatus: %v", err)
	}
	if err := om.WriteForecast(0, nil); err != nil {
		t.Errorf("nil WriteForecast: %v", err)
	}
	if err := om.Close(); err != nil {
		t.Errorf("nil Close: %v", err)
	}
}

func TestEmptyDirDisablesExport(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil {
		t.Fatalf("NewOutputManager: %v", err)
	}
	if om != nil {
		t.Error("empty dir returned an active manager")
	}
}

func TestStatusHeaderWrittenOnce(t *testing.T) {
	dir := t.TempDir()
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatalf("NewOutputManager: %v", err)
	}

	for h := int64(0); h < 3; h++ {
		if err := om.WriteStatus(StatusRecord{Hour: h, Morale: 0.75}); err != nil {
			t.Fatalf("WriteStatus: %v", err)
		}
	}
	if err := om.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "status.csv"))
	if err != nil {
		t.Fatalf("reading status.csv: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 4 {
		t.Fatalf("status.csv has %d lines, want header + 3 rows", len(lines))
	}
	if !strings.Contains(lines[0], "hour") || !strings.Contains(lines[0], "morale") {
		t.Errorf("header = %q", lines[0])
	}
	if strings.Contains(lines[1], "hour") {
		t.Error("header repeated in data rows")
	}
}

func TestWriteForecastCreatesPerCallFile(t *testing.T) {
	dir := t.TempDir()
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatalf("NewOutputManager: %v", err)
	}
	defer om.Close()

	samples := []engine.ForecastSample{
		{Sol: 0, HourOfSol: 1, ProducedKW: 12.5},
		{Sol: 0, HourOfSol: 2, ProducedKW: 30, Blackout: true},
	}
	if err := om.WriteForecast(17, samples); err != nil {
		t.Fatalf("WriteForecast: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "forecast_h17.csv"))
	if err != nil {
		t.Fatalf("reading forecast file: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("forecast file has %d lines, want header + 2 rows", len(lines))
	}
	if !strings.Contains(lines[0], "produced_kw") {
		t.Errorf("header = %q", lines[0])
	}
}
