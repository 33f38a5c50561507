package engine

import (
	"io"
	"fmt"
	"log/slog"
)

// ForecastSample is one simulated hour of the look-ahead series. The csv
// tags drive telemetry export.
type ForecastSample struct {
	Sol               int64   `csv:"sol"`
	HourOfSol         int     `csv:"hour"`
	ProducedKW        float64 `csv:"produced_kw"`
	CriticalKW        float64 `csv:"critical_kw"`
	NonCriticalKW     float64 `csv:"noncritical_kw"`
	NonCriticalServed float64 `csv:"noncritical_served"`
	BatteryStored     float64 `csv:"battery_kwh"`
	Blackout          bool    `csv:"blackout"`
	ChargedWh         float64 `csv:"charged_kwh"`
	DischargedWh      float64 `csv:"discharged_kwh"`
}

// Forecast runs hours of speculative simulation and returns the series. The
// live state and queue are untouched: everything runs against deep clones,
// with event injection disabled and logging discarded. Effects already
// active still tick down inside the speculation.
func (sim *Simulation) Forecast(hours int) ([]ForecastSample, error) {
	if hours < 0 {
		hours = 0
	}
	spec := &Simulation{
		State: sim.State.Clone(),
		Queue: sim.Queue.Clone(),
		cfg:   sim.cfg,
		gen:   sim.gen,
		log:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		hard:  sim.hard,
	}

	samples := make([]ForecastSample, 0, hours)
	for i := 0; i < hours; i++ {
		if err := spec.tick(false); err != nil {
			return nil, fmt.Errorf("forecast hour +%d: %w", i+1, err)
		}
		s := spec.State
		samples = append(samples, ForecastSample{
			Sol:               s.Sol(),
			HourOfSol:         s.HourOfSol(),
			ProducedKW:        s.LastPower.ProducedKW,
			CriticalKW:        s.LastPower.CriticalKW,
			NonCriticalKW:     s.LastPower.NonCriticalKW,
			NonCriticalServed: s.LastPower.NonCriticalServed,
			BatteryStored:     s.Res.PowerStored,
			Blackout:          s.LastPower.Blackout,
			ChargedWh:         spec.lastStep.ChargedWh,
			DischargedWh:      spec.lastStep.DischargedWh,
		})
	}
	return samples, nil
}

// FirstBlackout returns the offset (in hours from now, 1-based like the
// sample series) of the first predicted blackout, or -1 if none.
func FirstBlackout(samples []ForecastSample) int {
	for i, s := range samples {
		if s.Blackout {
			return i + 1
		}
	}
	return -1
}
