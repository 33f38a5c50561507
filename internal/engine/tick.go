// Package engine orchestrates the hourly tick: command application, event
// injection, the coupled battery and dispatch step, resource flows, morale,
// and telemetry. The step order inside a tick is fixed; reordering changes
// outcomes and breaks replay compatibility.
package engine

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/talgya/mars-colony/internal/colony"
	"github.com/talgya/mars-colony/internal/command"
	"github.com/talgya/mars-colony/internal/config"
	"github.com/talgya/mars-colony/internal/dispatch"
	"github.com/talgya/mars-colony/internal/events"
	"github.com/talgya/mars-colony/internal/power"
	"github.com/talgya/mars-colony/internal/specs"
)

// Simulation drives one colony. State and Queue are owned by the simulation
// for the duration of a run; the forecast engine works on clones.
type Simulation struct {
	State *colony.State
	Queue *command.Queue

	cfg  *config.Config
	gen  *events.Generator
	log  *slog.Logger
	hard bool

	recorder *command.Recorder
	lastStep power.Result
}

// New wires a simulation around existing state and queue.
func New(state *colony.State, queue *command.Queue, cfg *config.Config, logger *slog.Logger) *Simulation {
	return &Simulation{
		State: state,
		Queue: queue,
		cfg:   cfg,
		gen:   events.New(cfg, logger),
		log:   logger,
	}
}

// SetHardInvariants switches the post-tick invariant checker from logging
// violations to failing the tick.
func (sim *Simulation) SetHardInvariants(on bool) { sim.hard = on }

// SetEventSink forwards fired events to an archive sink.
func (sim *Simulation) SetEventSink(s events.Sink) { sim.gen.SetSink(s) }

// SetRecorder mirrors every submitted command into a replay log.
func (sim *Simulation) SetRecorder(r *command.Recorder) { sim.recorder = r }

// Submit schedules a build order and records it when a recorder is attached.
func (sim *Simulation) Submit(c command.Command) error {
	if sim.recorder != nil {
		if err := sim.recorder.Record(c); err != nil {
			return err
		}
	}
	sim.Queue.Submit(c)
	return nil
}

// LastStep returns the battery result from the most recent tick.
func (sim *Simulation) LastStep() power.Result { return sim.lastStep }

// Tick advances the simulation by exactly one hour, events enabled.
func (sim *Simulation) Tick() error { return sim.tick(true) }

// Advance runs n ticks, stopping at the first hard invariant failure.
func (sim *Simulation) Advance(n int) error {
	for i := 0; i < n; i++ {
		if err := sim.Tick(); err != nil {
			return err
		}
	}
	return nil
}

func (sim *Simulation) tick(spawnEvents bool) error {
	s := sim.State

	// 1) Apply build orders scheduled for this hour. Failed preconditions
	// drop the order; nothing is requeued.
	for _, c := range sim.Queue.DrainForHour(s.Hour) {
		if err := s.TryBuild(c.Building); err != nil {
			sim.log.Warn("build order dropped", "hour", s.Hour, "building", c.Building.String(), "error", err)
			continue
		}
		sim.log.Info("built", "hour", s.Hour, "building", c.Building.String())
	}

	// 2) Stochastic events. Forecast ticks skip this step entirely; the
	// clone's RNG is discarded so the live stream is unaffected either way.
	if spawnEvents {
		sim.gen.Spawn(s)
	}

	// 3) Production and demand from active buildings.
	daylight := DaylightFactor(s.HourOfSol())
	stormMult := s.SolarMultiplier()

	producedKW := 0.0
	criticalKW := float64(s.Population) * sim.cfg.Colonist.PowerKW
	nonCritPotentialKW := 0.0
	var loads []dispatch.Load

	wWater := dispatch.ScarcityWeight(
		colony.HoursOfSupply(s.Res.Water, float64(s.Population)*sim.cfg.Colonist.Water),
		sim.cfg.Dispatch.ScarcityHorizon)
	wOxygen := dispatch.ScarcityWeight(
		colony.HoursOfSupply(s.Res.Oxygen, float64(s.Population)*sim.cfg.Colonist.Oxygen),
		sim.cfg.Dispatch.ScarcityHorizon)
	wFood := dispatch.ScarcityWeight(
		colony.HoursOfSupply(s.Res.Food, float64(s.Population)*sim.cfg.Colonist.Food),
		sim.cfg.Dispatch.ScarcityHorizon)

	for i, b := range s.Buildings {
		if !b.Active {
			continue
		}
		sp := specs.Get(b.Type)
		producedKW += sp.ConstantKW
		producedKW += sp.SolarKW * daylight * stormMult

		if !sp.NeedsPower || sp.DrawKW <= 0 {
			continue
		}
		if sp.Critical {
			criticalKW += sp.DrawKW
			continue
		}
		nonCritPotentialKW += sp.DrawKW

		util := 0.0
		if sp.WaterFlow > 0 {
			util += wWater * sp.WaterFlow
		}
		if sp.OxygenFlow > 0 {
			util += wOxygen * sp.OxygenFlow
		}
		if sp.FoodFlow > 0 {
			util += wFood * sp.FoodFlow
		}
		loads = append(loads, dispatch.Load{Index: i, DrawKW: sp.DrawKW, Utility: util})
	}

	// 4) Coupled battery and dispatch. The pack's deliverable energy is
	// reserved for critical shortfall first; the remainder plus any
	// production surplus is the budget offered to the optimizer.
	batt := power.State{StoredWh: s.Res.PowerStored, CapacityWh: s.Res.BatteryCapacity}
	deliverable := power.Deliverable(batt, s.Battery, 1)
	shortfall := math.Max(0, criticalKW-producedKW)
	reserved := math.Min(deliverable, shortfall)
	budget := math.Max(0, producedKW-criticalKW) + (deliverable - reserved)

	chosen := dispatch.Choose(budget, loads, dispatch.Options{
		GranularityKW:     sim.cfg.Dispatch.GranularityKW,
		EfficiencyPenalty: sim.cfg.Dispatch.EfficiencyPenalty,
	})
	running := make(map[int]bool, len(chosen))
	nonCritChosenKW := 0.0
	for _, i := range chosen {
		running[i] = true
		nonCritChosenKW += specs.Get(s.Buildings[i].Type).DrawKW
	}

	batt, step := power.Step(batt, power.Inputs{
		ProducedKW:    producedKW,
		CriticalKW:    criticalKW,
		NonCriticalKW: nonCritChosenKW,
		DtHours:       1,
	}, s.Battery)
	s.Res.PowerStored = batt.StoredWh
	sim.lastStep = step

	if step.Blackout {
		sim.log.Warn("blackout", "hour", s.Hour, "unmet_kwh", step.UnmetCriticalWh)
	}

	// 5) Resource flows, gated by power. Critical consumers stall in a
	// blackout; non-critical ones run only if dispatched on.
	var dWater, dOxygen, dFood float64
	for i, b := range s.Buildings {
		if !b.Active {
			continue
		}
		sp := specs.Get(b.Type)
		if sp.WaterFlow == 0 && sp.OxygenFlow == 0 && sp.FoodFlow == 0 {
			continue
		}
		eff := 1.0
		if sp.NeedsPower {
			switch {
			case sp.Critical && step.Blackout:
				eff = 0
			case !sp.Critical && !running[i]:
				eff = 0
			}
		}
		dWater += sp.WaterFlow * eff
		dOxygen += sp.OxygenFlow * eff
		dFood += sp.FoodFlow * eff
	}

	// 6) Population consumption.
	dWater -= float64(s.Population) * sim.cfg.Colonist.Water
	dOxygen -= float64(s.Population) * sim.cfg.Colonist.Oxygen
	dFood -= float64(s.Population) * sim.cfg.Colonist.Food

	s.Res.Water = math.Max(0, s.Res.Water+dWater)
	s.Res.Oxygen = math.Max(0, s.Res.Oxygen+dOxygen)
	s.Res.Food = math.Max(0, s.Res.Food+dFood)

	// 7) Morale.
	sim.updateMorale(step.Blackout)

	// 8) Telemetry.
	served := 0.0
	if nonCritPotentialKW > 0 {
		served = nonCritChosenKW / nonCritPotentialKW
	}
	s.LastPower = colony.PowerReport{
		ProducedKW:        producedKW,
		CriticalKW:        criticalKW,
		NonCriticalKW:     nonCritPotentialKW,
		NonCriticalServed: served,
		Blackout:          step.Blackout,
	}

	// 9) Effects tick down; nothing with non-positive remaining hours
	// survives into the next hour.
	kept := s.Effects[:0]
	for _, e := range s.Effects {
		e.HoursRemaining--
		if e.HoursRemaining > 0 {
			kept = append(kept, e)
		} else {
			sim.log.Info("effect cleared", "hour", s.Hour, "effect", e.Type.String())
		}
	}
	s.Effects = kept

	s.Hour++

	return sim.checkInvariants()
}

func (sim *Simulation) updateMorale(blackout bool) {
	s := sim.State
	m := sim.cfg.Morale
	delta := 0.0

	hWater := colony.HoursOfSupply(s.Res.Water, float64(s.Population)*sim.cfg.Colonist.Water)
	hOxygen := colony.HoursOfSupply(s.Res.Oxygen, float64(s.Population)*sim.cfg.Colonist.Oxygen)
	hFood := colony.HoursOfSupply(s.Res.Food, float64(s.Population)*sim.cfg.Colonist.Food)

	if blackout {
		delta -= m.BlackoutPenalty
	}
	if hFood < m.ShortageHorizonHr {
		delta -= m.FoodPenalty
	}
	if hWater < m.ShortageHorizonHr {
		delta -= m.WaterPenalty
	}
	if hOxygen < m.ShortageHorizonHr {
		delta -= m.OxygenPenalty
	}
	if !blackout &&
		hFood > m.ComfortHorizonHr && hWater > m.ComfortHorizonHr && hOxygen > m.ComfortHorizonHr &&
		s.Res.PowerStored > s.Res.BatteryCapacity*m.ComfortChargeFloor {
		delta += m.ComfortBonus
	}
	if s.Population > s.HousingCapacity {
		delta -= m.OvercrowdPenalty
	}

	s.Morale += delta
	if s.Morale < 0 {
		s.Morale = 0
	} else if s.Morale > 1 {
		s.Morale = 1
	}
}

func (sim *Simulation) checkInvariants() error {
	violations := Check(sim.State)
	if len(violations) == 0 {
		return nil
	}
	for _, v := range violations {
		sim.log.Error("invariant violated", "hour", sim.State.Hour, "field", v.Field, "detail", v.Detail)
	}
	if sim.hard {
		return fmt.Errorf("hour %d: %d invariant violation(s), first: %s %s",
			sim.State.Hour, len(violations), violations[0].Field, violations[0].Detail)
	}
	return nil
}
