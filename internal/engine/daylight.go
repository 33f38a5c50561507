package engine

import "math"

// Daylight window within a sol, with cosine twilight ramps on both ends.
const (
	daylightStart = 6.0
	daylightEnd   = 18.0
	twilightHours = 1.5
)

// DaylightFactor returns the solar output fraction for an hour of the sol:
// 0 at night, 1 in full daylight, eased through twilight. Solar production
// scales by this factor before storm attenuation.
func DaylightFactor(hourOfSol int) float64 {
	h := float64(hourOfSol)
	a := daylightStart - twilightHours
	b := daylightStart + twilightHours
	c := daylightEnd - twilightHours
	d := daylightEnd + twilightHours

	ease := func(t float64) float64 {
		if t < 0 {
			t = 0
		} else if t > 1 {
			t = 1
		}
		return 0.5 - 0.5*math.Cos(t*math.Pi)
	}

	switch {
	case h <= a || h >= d:
		return 0
	case h >= b && h <= c:
		return 1
	case h < b:
		return ease((h - a) / (b - a))
	default:
		return ease((d - h) / (d - c))
	}
}
