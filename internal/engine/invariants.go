package engine

import (
	"fmt"
	"math"

	"github.com/talgya/mars-colony/internal/colony"
)

// Violation is one failed post-tick bound.
type Violation struct {
	Field  string
	Detail string
}

// Check validates a state against the numeric and logical bounds every tick
// must preserve. It is read-only and returns every violation found, not just
// the first; non-finite floats are violations regardless of range.
func Check(s *colony.State) []Violation {
	var out []Violation
	add := func(field, format string, args ...any) {
		out = append(out, Violation{Field: field, Detail: fmt.Sprintf(format, args...)})
	}
	finite := func(field string, v float64) bool {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			add(field, "non-finite value %v", v)
			return false
		}
		return true
	}

	if s.Hour < 0 {
		add("hour", "negative hour %d", s.Hour)
	}
	if s.Population < 0 {
		add("population", "negative population %d", s.Population)
	}
	if s.HousingCapacity < 0 {
		add("housing", "negative housing %d", s.HousingCapacity)
	}
	if finite("morale", s.Morale) && (s.Morale < 0 || s.Morale > 1) {
		add("morale", "%v outside [0,1]", s.Morale)
	}

	if finite("powerStored", s.Res.PowerStored) && finite("batteryCapacity", s.Res.BatteryCapacity) {
		if s.Res.PowerStored < 0 || s.Res.PowerStored > s.Res.BatteryCapacity {
			add("powerStored", "%v outside [0, %v]", s.Res.PowerStored, s.Res.BatteryCapacity)
		}
	}
	for _, store := range []struct {
		name string
		v    float64
	}{
		{"water", s.Res.Water},
		{"oxygen", s.Res.Oxygen},
		{"food", s.Res.Food},
	} {
		if finite(store.name, store.v) && store.v < 0 {
			add(store.name, "negative store %v", store.v)
		}
	}
	if s.Res.Metals < 0 {
		add("metals", "negative store %d", s.Res.Metals)
	}
	if s.Res.Credits < 0 {
		add("credits", "negative store %d", s.Res.Credits)
	}

	if finite("battery.etaIn", s.Battery.EtaIn) && (s.Battery.EtaIn <= 0 || s.Battery.EtaIn > 1) {
		add("battery.etaIn", "%v outside (0,1]", s.Battery.EtaIn)
	}
	if finite("battery.etaOut", s.Battery.EtaOut) && (s.Battery.EtaOut <= 0 || s.Battery.EtaOut > 1) {
		add("battery.etaOut", "%v outside (0,1]", s.Battery.EtaOut)
	}
	if finite("battery.cRate", s.Battery.CRate) && s.Battery.CRate < 0 {
		add("battery.cRate", "negative C-rate %v", s.Battery.CRate)
	}

	if finite("lastpower.served", s.LastPower.NonCriticalServed) &&
		(s.LastPower.NonCriticalServed < 0 || s.LastPower.NonCriticalServed > 1) {
		add("lastpower.served", "%v outside [0,1]", s.LastPower.NonCriticalServed)
	}
	finite("lastpower.produced", s.LastPower.ProducedKW)
	finite("lastpower.critical", s.LastPower.CriticalKW)
	finite("lastpower.noncritical", s.LastPower.NonCriticalKW)

	for i, e := range s.Effects {
		if e.HoursRemaining <= 0 {
			add("effects", "effect %d survived with %d hours remaining", i, e.HoursRemaining)
		}
		finite("effects.multiplier", e.SolarMultiplier)
	}
	return out
}
