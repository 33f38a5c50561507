// Package power models the colony battery as a pure step function. All math
// is in Wh-per-step (kW rates times dtHours); the function has no side
// effects beyond the state value it returns, which keeps it trivially usable
// from both the live tick and the forecast engine.
package power

import "math"

// Config holds the battery pack parameters.
type Config struct {
	CRate  float64 // max fraction of capacity chargeable/dischargeable per hour
	EtaIn  float64 // charge efficiency, (0,1]
	EtaOut float64 // discharge efficiency, (0,1]
}

// DefaultConfig returns the pack parameters assumed for saves that predate
// the battery line in the save format.
func DefaultConfig() Config {
	return Config{CRate: 0.5, EtaIn: 0.95, EtaOut: 0.95}
}

// State is the battery charge state.
type State struct {
	StoredWh   float64
	CapacityWh float64
}

// Inputs are the power conditions for one step.
type Inputs struct {
	ProducedKW    float64 // instantaneous generation
	CriticalKW    float64 // must-serve demand
	NonCriticalKW float64 // demand selected by the dispatcher for this step
	DtHours       float64 // step length, normally 1.0
}

// Result records what the step actually did.
type Result struct {
	ChargedWh           float64 // energy added to storage
	DischargedWh        float64 // energy removed from storage
	UnmetCriticalWh     float64 // critical energy left unserved after max discharge
	NonCriticalServedWh float64 // non-critical energy actually delivered
	Blackout            bool    // unmet critical energy above epsilon

	// Which bound limited the battery this step, for diagnostics. A step can
	// be rate-limited without being SoC-limited and vice versa.
	ChargeRateLimited    bool
	DischargeRateLimited bool
}

const epsilon = 1e-9

// Deliverable returns the energy the pack could deliver to loads this step
// after discharge losses, bounded by C-rate and state of charge.
func Deliverable(s State, cfg Config, dtHours float64) float64 {
	return math.Min(cfg.CRate*s.CapacityWh*dtHours, s.StoredWh) * cfg.EtaOut
}

// Step advances the battery by one interval. Critical demand is served first
// from production, then from storage; selected non-critical demand is served
// from what remains; spare production charges the pack. The returned state
// never leaves [0, capacity].
func Step(s State, in Inputs, cfg Config) (State, Result) {
	var res Result

	prodWh := in.ProducedKW * in.DtHours
	critWh := in.CriticalKW * in.DtHours
	nonCritWh := in.NonCriticalKW * in.DtHours

	maxRateWh := cfg.CRate * s.CapacityWh * in.DtHours
	outBudgetWh := maxRateWh // discharge budget shared by critical and non-critical

	// Serve critical from production, then discharge.
	availWh := prodWh
	if availWh >= critWh {
		availWh -= critWh
	} else {
		needWh := critWh - availWh
		drawWh := math.Min(needWh/cfg.EtaOut, math.Min(outBudgetWh, s.StoredWh))
		if drawWh >= outBudgetWh-epsilon && needWh/cfg.EtaOut > outBudgetWh {
			res.DischargeRateLimited = true
		}
		s.StoredWh -= drawWh
		outBudgetWh -= drawWh
		res.DischargedWh += drawWh

		availWh += drawWh * cfg.EtaOut
		if availWh >= critWh {
			availWh -= critWh
		} else {
			res.UnmetCriticalWh = critWh - availWh
			availWh = 0
		}
	}
	res.Blackout = res.UnmetCriticalWh > epsilon

	// Serve selected non-critical demand: remaining production first, then
	// whatever discharge headroom the pack still has.
	if nonCritWh > 0 {
		served := math.Min(availWh, nonCritWh)
		availWh -= served

		if served < nonCritWh {
			needWh := nonCritWh - served
			drawWh := math.Min(needWh/cfg.EtaOut, math.Min(outBudgetWh, s.StoredWh))
			if drawWh >= outBudgetWh-epsilon && needWh/cfg.EtaOut > outBudgetWh {
				res.DischargeRateLimited = true
			}
			s.StoredWh -= drawWh
			outBudgetWh -= drawWh
			res.DischargedWh += drawWh
			served += drawWh * cfg.EtaOut
			if served > nonCritWh {
				served = nonCritWh
			}
		}
		res.NonCriticalServedWh = served
	}

	// Spare production charges the pack.
	if availWh > epsilon {
		roomWh := math.Max(0, s.CapacityWh-s.StoredWh)
		rateCapWh := maxRateWh * cfg.EtaIn
		storeWh := math.Min(availWh*cfg.EtaIn, math.Min(roomWh, rateCapWh))
		if storeWh >= rateCapWh-epsilon && availWh*cfg.EtaIn > rateCapWh && roomWh > rateCapWh {
			res.ChargeRateLimited = true
		}
		if storeWh > 0 {
			s.StoredWh += storeWh
			res.ChargedWh = storeWh
		}
	}

	// Saturate against float dust.
	if s.StoredWh < 0 {
		s.StoredWh = 0
	}
	if s.StoredWh > s.CapacityWh {
		s.StoredWh = s.CapacityWh
	}
	return s, res
}
