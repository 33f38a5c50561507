package engine

import (
	"testing"

	"github.com/talgya/mars-colony/internal/colony"
	"github.com/talgya/mars-colony/internal/command"
	"github.com/talgya/mars-colony/internal/specs"
)

func TestForecastLeavesStateAndQueueUnchanged(t *testing.T) {
	sim := newTestSim(t, 20)
	sim.State.Effects = append(sim.State.Effects, colony.Effect{
		Type: colony.DustStorm, HoursRemaining: 6, SolarMultiplier: 0.4,
	})
	sim.Queue.Submit(command.Command{Hour: 3, Kind: command.Build, Building: specs.SolarArray})

	before := sim.State.Checksum()
	pending := sim.Queue.Pending()

	for _, hours := range []int{0, 1, 24, 72} {
		samples, err := sim.Forecast(hours)
		if err != nil {
			t.Fatalf("Forecast(%d): %v", hours, err)
		}
		if len(samples) != hours {
			t.Errorf("Forecast(%d) returned %d samples", hours, len(samples))
		}
		if sim.State.Checksum() != before {
			t.Fatalf("Forecast(%d) mutated live state", hours)
		}
		got := sim.Queue.Pending()
		if len(got) != len(pending) {
			t.Fatalf("Forecast(%d) changed pending commands: %v", hours, got)
		}
	}
}

func TestForecastAppliesPendingCommandsSpeculatively(t *testing.T) {
	sim := newTestSim(t, 21)
	// Extra generation scheduled inside the horizon should lift forecast
	// production without ever touching the live colony.
	sim.Queue.Submit(command.Command{Hour: 1, Kind: command.Build, Building: specs.SolarArray})

	samples, err := sim.Forecast(24)
	if err != nil {
		t.Fatalf("Forecast: %v", err)
	}
	noon := samples[11] // hour 12, full daylight
	// 4 solar arrays at 25 kW against the starter colony's 3.
	if noon.ProducedKW <= 75 {
		t.Errorf("noon production = %v, want > 75 with the speculative array", noon.ProducedKW)
	}
	if len(sim.State.Buildings) != 8 {
		t.Error("speculative build leaked into live state")
	}
}

func TestForecastNegativeHours(t *testing.T) {
	sim := newTestSim(t, 22)
	samples, err := sim.Forecast(-4)
	if err != nil {
		t.Fatalf("Forecast: %v", err)
	}
	if len(samples) != 0 {
		t.Errorf("Forecast(-4) returned %d samples", len(samples))
	}
}

func TestForecastEffectsStillTickDown(t *testing.T) {
	sim := newTestSim(t, 23)
	sim.State.Effects = append(sim.State.Effects, colony.Effect{
		Type: colony.DustStorm, HoursRemaining: 2, SolarMultiplier: 0.0,
	})

	samples, err := sim.Forecast(24)
	if err != nil {
		t.Fatalf("Forecast: %v", err)
	}
	// Hours 11 and 12 of the sol are full daylight; the storm is long gone
	// by then, so production must have recovered inside the speculation.
	if samples[11].ProducedKW <= 0 {
		t.Errorf("production %v at noon, want recovery after storm expiry", samples[11].ProducedKW)
	}
	// The live effect list is untouched.
	if len(sim.State.Effects) != 1 || sim.State.Effects[0].HoursRemaining != 2 {
		t.Errorf("live effects changed: %v", sim.State.Effects)
	}
}

func TestFirstBlackout(t *testing.T) {
	samples := []ForecastSample{{}, {Blackout: true}, {}}
	if got := FirstBlackout(samples); got != 2 {
		t.Errorf("FirstBlackout = %d, want 2", got)
	}
	if got := FirstBlackout(samples[:1]); got != -1 {
		t.Errorf("FirstBlackout with none = %d, want -1", got)
	}
}
