// Package colony holds the aggregate mutable state of the settlement. State
// has exactly one logical owner at a time: it is mutated only by the hourly
// tick and by build-order application, and the forecast engine works on a
// deep clone.
package colony

import (
	"errors"
	"fmt"

	"github.com/talgya/mars-colony/internal/config"
	"github.com/talgya/mars-colony/internal/entropy"
	"github.com/talgya/mars-colony/internal/power"
	"github.com/talgya/mars-colony/internal/specs"
)

// SolHours is the length of one simulated day.
const SolHours = 24

// Resources are the colony stores. Consumable floats never go negative;
// PowerStored never exceeds BatteryCapacity.
type Resources struct {
	PowerStored     float64 // kWh
	BatteryCapacity float64 // kWh
	Water           float64
	Oxygen          float64
	Food            float64
	Metals          int
	Credits         int
}

// Building is one constructed structure.
type Building struct {
	Type   specs.BuildingType
	Active bool
}

// EffectType identifies an environmental effect. Values are wire format.
type EffectType uint8

const (
	DustStorm EffectType = iota
)

func (t EffectType) String() string {
	if t == DustStorm {
		return "Dust Storm"
	}
	return "Unknown"
}

// Effect is an active environmental condition. Anything that survives a tick
// has HoursRemaining > 0.
type Effect struct {
	Type            EffectType
	HoursRemaining  int
	SolarMultiplier float64
}

// PowerReport is the telemetry from the most recent tick.
type PowerReport struct {
	ProducedKW        float64
	CriticalKW        float64
	NonCriticalKW     float64 // total discretionary potential
	NonCriticalServed float64 // fraction of that potential actually run, 0..1
	Blackout          bool
}

// State is the full colony model.
type State struct {
	Hour            int64
	Population      int
	HousingCapacity int
	Morale          float64 // 0..1

	Res       Resources
	Buildings []Building
	Effects   []Effect
	LastPower PowerReport

	Battery power.Config

	Seed uint64
	RNG  *entropy.Source
}

// New creates the starter colony: a handful of colonists, a habitat, three
// solar arrays, a battery bank, and the basic life-support chain.
func New(seed uint64, cfg *config.Config) *State {
	s := &State{
		Hour:       0,
		Population: 5,
		Morale:     0.75,
		Res: Resources{
			PowerStored:     300,
			BatteryCapacity: 600,
			Water:           100,
			Oxygen:          200,
			Food:            100,
			Metals:          200,
			Credits:         1000,
		},
		Battery: power.Config{
			CRate:  cfg.Battery.CRate,
			EtaIn:  cfg.Battery.EtaIn,
			EtaOut: cfg.Battery.EtaOut,
		},
		Seed: seed,
		RNG:  entropy.New(seed),
	}

	starter := []specs.BuildingType{
		specs.Habitat,
		specs.SolarArray,
		specs.SolarArray,
		specs.SolarArray,
		specs.BatteryBank,
		specs.WaterExtractor,
		specs.Greenhouse,
		specs.Electrolyzer,
	}
	for _, t := range starter {
		s.AddBuilding(t)
	}
	return s
}

// Sol returns the current sol index.
func (s *State) Sol() int64 { return s.Hour / SolHours }

// HourOfSol returns the hour within the current sol, 0..23.
func (s *State) HourOfSol() int { return int(s.Hour % SolHours) }

// SolarMultiplier returns the combined attenuation of all active effects.
func (s *State) SolarMultiplier() float64 {
	mult := 1.0
	for _, e := range s.Effects {
		if e.Type == DustStorm {
			mult *= e.SolarMultiplier
		}
	}
	return mult
}

// HasStorm reports whether any dust storm is active.
func (s *State) HasStorm() bool {
	for _, e := range s.Effects {
		if e.Type == DustStorm {
			return true
		}
	}
	return false
}

// AddBuilding appends a structure and applies its passive effects (housing,
// battery capacity). Build costs are the caller's concern; see TryBuild.
func (s *State) AddBuilding(t specs.BuildingType) {
	sp := specs.Get(t)
	s.Buildings = append(s.Buildings, Building{Type: t, Active: true})
	s.HousingCapacity += sp.Housing
	s.Res.BatteryCapacity += sp.BatteryCapKWh
	if s.Res.PowerStored > s.Res.BatteryCapacity {
		s.Res.PowerStored = s.Res.BatteryCapacity
	}
}

// RemoveBuilding destroys the building at index i, reversing its housing
// contribution. Battery capacity is untouched because storage structures are
// never destructible.
func (s *State) RemoveBuilding(i int) {
	sp := specs.Get(s.Buildings[i].Type)
	s.HousingCapacity -= sp.Housing
	if s.HousingCapacity < 0 {
		s.HousingCapacity = 0
	}
	s.Buildings = append(s.Buildings[:i], s.Buildings[i+1:]...)
}

// ErrInsufficientResources reports a build order whose costs cannot be paid.
var ErrInsufficientResources = errors.New("insufficient resources")

// TryBuild pays for and constructs a building, or returns an error wrapping
// ErrInsufficientResources. Failed orders are never retried.
func (s *State) TryBuild(t specs.BuildingType) error {
	if !t.Valid() {
		return fmt.Errorf("unknown building type %d", t)
	}
	sp := specs.Get(t)
	if s.Res.Metals < sp.MetalsCost || s.Res.Credits < sp.CreditsCost {
		return fmt.Errorf("build %s (need %d metals, %d credits): %w",
			t, sp.MetalsCost, sp.CreditsCost, ErrInsufficientResources)
	}
	s.Res.Metals -= sp.MetalsCost
	s.Res.Credits -= sp.CreditsCost
	s.AddBuilding(t)
	return nil
}

// Clone returns a deep copy sharing nothing with the original, including an
// independent RNG stream. The forecast engine depends on this isolation.
func (s *State) Clone() *State {
	cp := *s
	cp.Buildings = append([]Building(nil), s.Buildings...)
	cp.Effects = append([]Effect(nil), s.Effects...)
	cp.RNG = s.RNG.Clone()
	return &cp
}

// HoursOfSupply returns how long a store lasts at the given drain rate.
// A non-positive rate means the store is effectively inexhaustible.
func HoursOfSupply(store, ratePerHour float64) float64 {
	if ratePerHour <= 0 {
		return 9999
	}
	return store / ratePerHour
}
