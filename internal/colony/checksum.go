package colony

import (
	"encoding/binary"
	"math"

	"lukechampine.com/blake3"
)

// Checksum returns a BLAKE3 digest over a canonical little-endian
// serialization of the state. Two states with equal checksums are
// behaviorally identical: every field that influences future simulation,
// including the RNG internals, is folded in. This is the primitive behind
// the determinism self-test and the forecast no-mutation guarantee.
func (s *State) Checksum() [32]byte {
	h := blake3.New(32, nil)

	var buf [8]byte
	u64 := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		h.Write(buf[:])
	}
	i64 := func(v int64) { u64(uint64(v)) }
	f64 := func(v float64) { u64(math.Float64bits(v)) }

	i64(s.Hour)
	i64(int64(s.Population))
	i64(int64(s.HousingCapacity))
	f64(s.Morale)

	f64(s.Res.PowerStored)
	f64(s.Res.BatteryCapacity)
	f64(s.Res.Water)
	f64(s.Res.Oxygen)
	f64(s.Res.Food)
	i64(int64(s.Res.Metals))
	i64(int64(s.Res.Credits))

	i64(int64(len(s.Buildings)))
	for _, b := range s.Buildings {
		u64(uint64(b.Type))
		if b.Active {
			u64(1)
		} else {
			u64(0)
		}
	}

	i64(int64(len(s.Effects)))
	for _, e := range s.Effects {
		u64(uint64(e.Type))
		i64(int64(e.HoursRemaining))
		f64(e.SolarMultiplier)
	}

	f64(s.LastPower.ProducedKW)
	f64(s.LastPower.CriticalKW)
	f64(s.LastPower.NonCriticalKW)
	f64(s.LastPower.NonCriticalServed)
	if s.LastPower.Blackout {
		u64(1)
	} else {
		u64(0)
	}

	f64(s.Battery.CRate)
	f64(s.Battery.EtaIn)
	f64(s.Battery.EtaOut)

	u64(s.Seed)
	state, inc := s.RNG.Words()
	u64(state)
	u64(inc)

	var sum [32]byte
	h.Sum(sum[:0])
	return sum
}
