// Package events injects stochastic weather, hazard, and resupply effects
// into the colony. Checks run once per simulated hour against small
// per-hour probabilities, consuming the shared RNG in a fixed order
// (storm, meteoroid, supply) so runs replay bit-identically from a seed.
// The three triggers are independent: all of them may fire in one hour.
package events

import (
	"fmt"
	"log/slog"

	"github.com/talgya/mars-colony/internal/colony"
	"github.com/talgya/mars-colony/internal/config"
	"github.com/talgya/mars-colony/internal/specs"
)

// Sink receives a human-readable record of each event that fires, for the
// run archive. Nil disables archiving.
type Sink func(hour int64, kind, description string)

// Generator rolls for and applies random events.
type Generator struct {
	cfg    config.EventsConfig
	morale config.MoraleConfig
	log    *slog.Logger
	sink   Sink
}

// New creates a Generator. logger must not be nil; pass a discard logger to
// silence it.
func New(cfg *config.Config, logger *slog.Logger) *Generator {
	return &Generator{cfg: cfg.Events, morale: cfg.Morale, log: logger}
}

// SetSink installs an event archive sink.
func (g *Generator) SetSink(s Sink) { g.sink = s }

func (g *Generator) emit(hour int64, kind, description string) {
	g.log.Info("event", "kind", kind, "description", description, "hour", hour)
	if g.sink != nil {
		g.sink(hour, kind, description)
	}
}

// Spawn evaluates all event triggers for the current hour. The RNG draw
// sequence is identical regardless of outcome or storm policy: the trigger
// roll always happens, and a triggered storm always draws its duration and
// multiplier even when the reject policy then discards it.
func (g *Generator) Spawn(s *colony.State) {
	g.rollStorm(s)
	g.rollMeteoroid(s)
	g.rollSupply(s)
}

func (g *Generator) rollStorm(s *colony.State) {
	if s.RNG.Float64() >= g.cfg.StormChance {
		return
	}
	hours := s.RNG.IntRange(g.cfg.StormMinHours, g.cfg.StormMaxHours)
	mult := s.RNG.FloatRange(g.cfg.StormMinSolar, g.cfg.StormMaxSolar)

	if s.HasStorm() && g.cfg.StormPolicy == config.StormReject {
		// One storm at a time: re-triggering while active is a no-op.
		return
	}
	s.Effects = append(s.Effects, colony.Effect{
		Type:            colony.DustStorm,
		HoursRemaining:  hours,
		SolarMultiplier: mult,
	})
	g.emit(s.Hour, "weather",
		fmt.Sprintf("Dust storm rolls in: solar at %d%% for %dh", int(mult*100), hours))
}

func (g *Generator) rollMeteoroid(s *colony.State) {
	if s.RNG.Float64() >= g.cfg.MeteoroidChance {
		return
	}
	// Storage is never destructible; everything else is fair game.
	var candidates []int
	for i, b := range s.Buildings {
		if b.Type != specs.BatteryBank {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return
	}
	idx := candidates[s.RNG.IntN(len(candidates))]
	destroyed := s.Buildings[idx].Type
	s.RemoveBuilding(idx)

	s.Morale -= g.morale.MeteoroidPenalty
	if s.Morale < 0 {
		s.Morale = 0
	}
	g.emit(s.Hour, "hazard", fmt.Sprintf("Meteoroid strike: %s destroyed", destroyed))
}

func (g *Generator) rollSupply(s *colony.State) {
	if s.RNG.Float64() >= g.cfg.SupplyChance {
		return
	}
	s.Res.Water += g.cfg.SupplyWater
	s.Res.Oxygen += g.cfg.SupplyOxygen
	s.Res.Food += g.cfg.SupplyFood
	s.Res.Metals += g.cfg.SupplyMetals
	s.Res.Credits += g.cfg.SupplyCredits
	g.emit(s.Hour, "supply", "Orbital supply drop delivered")
}
