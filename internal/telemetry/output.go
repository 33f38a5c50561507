// Package telemetry exports simulation series as CSV for offline analysis.
package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/talgya/mars-colony/internal/engine"
)

// OutputManager writes CSV files into an output directory. A nil manager is
// valid and discards everything, so callers never need to branch on whether
// export is enabled.
type OutputManager struct {
	dir string

	statusFile          *os.File
	statusHeaderWritten bool
}

// StatusRecord is one per-hour row of the live run.
type StatusRecord struct {
	Hour              int64   `csv:"hour"`
	Sol               int64   `csv:"sol"`
	ProducedKW        float64 `csv:"produced_kw"`
	CriticalKW        float64 `csv:"critical_kw"`
	NonCriticalKW     float64 `csv:"noncritical_kw"`
	NonCriticalServed float64 `csv:"noncritical_served"`
	BatteryKWh        float64 `csv:"battery_kwh"`
	Water             float64 `csv:"water"`
	Oxygen            float64 `csv:"oxygen"`
	Food              float64 `csv:"food"`
	Morale            float64 `csv:"morale"`
	Blackout          bool    `csv:"blackout"`
}

// NewOutputManager creates the output directory and the status series file.
// Returns nil (export disabled) when dir is empty.
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	f, err := os.Create(filepath.Join(dir, "status.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating status.csv: %w", err)
	}
	return &OutputManager{dir: dir, statusFile: f}, nil
}

// WriteStatus appends one hourly row to status.csv.
func (om *OutputManager) WriteStatus(rec StatusRecord) error {
	if om == nil {
		return nil
	}
	records := []StatusRecord{rec}
	if !om.statusHeaderWritten {
		if err := gocsv.Marshal(records, om.statusFile); err != nil {
			return fmt.Errorf("writing status: %w", err)
		}
		om.statusHeaderWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, om.statusFile); err != nil {
		return fmt.Errorf("writing status: %w", err)
	}
	return nil
}

// WriteForecast writes a forecast series to its own file, one file per
// forecast call, named by the hour it was taken at.
func (om *OutputManager) WriteForecast(atHour int64, samples []engine.ForecastSample) error {
	if om == nil {
		return nil
	}
	path := filepath.Join(om.dir, fmt.Sprintf("forecast_h%d.csv", atHour))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	if err := gocsv.Marshal(samples, f); err != nil {
		return fmt.Errorf("writing forecast: %w", err)
	}
	return nil
}

// Close flushes and closes the status file.
func (om *OutputManager) Close() error {
	if om == nil || om.statusFile == nil {
		return nil
	}
	return om.statusFile.Close()
}
