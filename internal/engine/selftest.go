package engine

import (
	"io"
	"fmt"
	"log/slog"

	"github.com/talgya/mars-colony/internal/colony"
	"github.com/talgya/mars-colony/internal/command"
	"github.com/talgya/mars-colony/internal/config"
	"github.com/talgya/mars-colony/internal/dispatch"
	"github.com/talgya/mars-colony/internal/power"
	"github.com/talgya/mars-colony/internal/specs"
)

// SelfTest runs the built-in determinism and sanity checks used for CI-style
// validation of a deployment. It returns the first failure.
func SelfTest(cfg *config.Config) error {
	if err := selfTestDeterminism(cfg); err != nil {
		return fmt.Errorf("determinism: %w", err)
	}
	if err := selfTestForecastInvariance(cfg); err != nil {
		return fmt.Errorf("forecast invariance: %w", err)
	}
	if err := selfTestDispatch(cfg); err != nil {
		return fmt.Errorf("dispatch: %w", err)
	}
	if err := selfTestBattery(); err != nil {
		return fmt.Errorf("battery: %w", err)
	}
	return nil
}

// selfTestDeterminism runs the same seeded scenario twice, with identical
// build orders, and requires bit-identical final checksums.
func selfTestDeterminism(cfg *config.Config) error {
	run := func() [32]byte {
		sim := New(colony.New(0xC0FFEE, cfg), command.NewQueue(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
		sim.SetHardInvariants(true)
		sim.Queue.Submit(command.Command{Hour: 6, Kind: command.Build, Building: specs.SolarArray})
		sim.Queue.Submit(command.Command{Hour: 30, Kind: command.Build, Building: specs.Greenhouse})
		if err := sim.Advance(72); err != nil {
			return [32]byte{}
		}
		return sim.State.Checksum()
	}
	a, b := run(), run()
	if a != b {
		return fmt.Errorf("two identical runs diverged: %x vs %x", a[:8], b[:8])
	}
	if a == ([32]byte{}) {
		return fmt.Errorf("run aborted on invariant violation")
	}
	return nil
}

// selfTestForecastInvariance requires that a forecast leaves the live state
// and queue structurally unchanged.
func selfTestForecastInvariance(cfg *config.Config) error {
	sim := New(colony.New(0xBEEF, cfg), command.NewQueue(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	sim.Queue.Submit(command.Command{Hour: 10, Kind: command.Build, Building: specs.RTG})

	before := sim.State.Checksum()
	pendingBefore := sim.Queue.Len()
	if _, err := sim.Forecast(48); err != nil {
		return err
	}
	if sim.State.Checksum() != before {
		return fmt.Errorf("forecast mutated live state")
	}
	if sim.Queue.Len() != pendingBefore {
		return fmt.Errorf("forecast drained live queue")
	}
	return nil
}

func selfTestDispatch(cfg *config.Config) error {
	opts := dispatch.Options{
		GranularityKW:     cfg.Dispatch.GranularityKW,
		EfficiencyPenalty: cfg.Dispatch.EfficiencyPenalty,
	}
	loads := []dispatch.Load{
		{Index: 0, DrawKW: 8, Utility: 5},
		{Index: 1, DrawKW: 12, Utility: 6},
	}
	if chosen := dispatch.Choose(0, loads, opts); len(chosen) != 0 {
		return fmt.Errorf("zero budget selected %v", chosen)
	}
	chosen := dispatch.Choose(10, loads, opts)
	for _, i := range chosen {
		if loads[i].DrawKW > 10+opts.GranularityKW {
			return fmt.Errorf("selection exceeds budget")
		}
	}
	return nil
}

func selfTestBattery() error {
	pcfg := power.DefaultConfig()
	s := power.State{StoredWh: 0, CapacityWh: 1000}

	s, _ = power.Step(s, power.Inputs{ProducedKW: 100, DtHours: 1}, pcfg)
	s, res := power.Step(s, power.Inputs{CriticalKW: s.StoredWh * pcfg.EtaOut, DtHours: 1}, pcfg)
	delivered := res.DischargedWh * pcfg.EtaOut
	if delivered >= 100 {
		return fmt.Errorf("round trip delivered %v of 100, expected a loss", delivered)
	}
	if res.Blackout {
		return fmt.Errorf("unexpected blackout during round trip")
	}
	return nil
}
