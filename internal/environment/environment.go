// Package environment derives ambient surface conditions from the run seed.
// Readouts are informational flavor for the status display; they never feed
// power or resource math, so they sit outside the determinism contract of
// the simulation core.
package environment

import (
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// Conditions is the ambient readout for one hour.
type Conditions struct {
	TemperatureC float64 // surface air temperature
	DustHaze     float64 // optical haze fraction, 0 clear .. 1 opaque
	WindKPH      float64
}

// Model samples seed-derived noise fields. A Model is immutable after
// construction; Sample is a pure function of the hour.
type Model struct {
	temp opensimplex.Noise
	dust opensimplex.Noise
	wind opensimplex.Noise
}

// New creates the noise layers for a run seed.
func New(seed uint64) *Model {
	s := int64(seed)
	return &Model{
		temp: opensimplex.NewNormalized(s),
		dust: opensimplex.NewNormalized(s + 1),
		wind: opensimplex.NewNormalized(s + 2),
	}
}

// Sample returns the conditions at an absolute simulation hour. The daily
// temperature swing rides on a slow noise drift; haze and wind are pure
// noise at different time scales.
func (m *Model) Sample(hour int64) Conditions {
	h := float64(hour)

	// Diurnal swing around a noise-drifting mean: Mars-ish surface range,
	// coldest before dawn, warmest mid-afternoon.
	mean := -60 + 30*octave(m.temp, h/240, 3)
	swing := 35 * math.Sin((h-9)/24*2*math.Pi)

	return Conditions{
		TemperatureC: mean + swing,
		DustHaze:     octave(m.dust, h/96, 2),
		WindKPH:      10 + 70*octave(m.wind, h/48, 3),
	}
}

// octave layers noise frequencies the same way terrain generators do.
func octave(n opensimplex.Noise, x float64, octaves int) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0
	freq := 1.0
	for i := 0; i < octaves; i++ {
		total += n.Eval2(x*freq, 0.5) * amplitude
		maxVal += amplitude
		amplitude *= 0.5
		freq *= 2
	}
	return total / maxVal
}
