package colony

import (
	"errors"
	"testing"

	"github.com/talgya/mars-colony/internal/config"
	"github.com/talgya/mars-colony/internal/specs"
)

func newTestState(t *testing.T) *State {
	t.Helper()
	return New(42, config.Default())
}

func TestStarterColony(t *testing.T) {
	s := newTestState(t)

	if s.Population != 5 || s.HousingCapacity != 5 {
		t.Errorf("population/housing = %d/%d, want 5/5", s.Population, s.HousingCapacity)
	}
	if len(s.Buildings) != 8 {
		t.Errorf("starter buildings = %d, want 8", len(s.Buildings))
	}
	// 600 base + 200 from the starter battery bank.
	if s.Res.BatteryCapacity != 800 {
		t.Errorf("battery capacity = %v, want 800", s.Res.BatteryCapacity)
	}
	if s.Res.PowerStored > s.Res.BatteryCapacity {
		t.Error("stored power exceeds capacity")
	}
}

func TestTryBuildPaysCosts(t *testing.T) {
	s := newTestState(t)
	metals, credits := s.Res.Metals, s.Res.Credits

	if err := s.TryBuild(specs.SolarArray); err != nil {
		t.Fatalf("TryBuild: %v", err)
	}
	sp := specs.Get(specs.SolarArray)
	if s.Res.Metals != metals-sp.MetalsCost {
		t.Errorf("metals = %d, want %d", s.Res.Metals, metals-sp.MetalsCost)
	}
	if s.Res.Credits != credits-sp.CreditsCost {
		t.Errorf("credits = %d, want %d", s.Res.Credits, credits-sp.CreditsCost)
	}
}

func TestTryBuildInsufficientResources(t *testing.T) {
	s := newTestState(t)
	s.Res.Metals = 0
	before := len(s.Buildings)

	err := s.TryBuild(specs.RTG)
	if !errors.Is(err, ErrInsufficientResources) {
		t.Fatalf("err = %v, want ErrInsufficientResources", err)
	}
	if len(s.Buildings) != before {
		t.Error("failed build still added a building")
	}
	if s.Res.Credits != 1000 {
		t.Error("failed build spent credits")
	}
}

func TestBatteryBankRaisesCapacity(t *testing.T) {
	s := newTestState(t)
	before := s.Res.BatteryCapacity
	s.AddBuilding(specs.BatteryBank)
	if s.Res.BatteryCapacity != before+200 {
		t.Errorf("capacity = %v, want %v", s.Res.BatteryCapacity, before+200)
	}
}

func TestRemoveBuildingReversesHousing(t *testing.T) {
	s := newTestState(t)
	// Starter habitat is at index 0.
	s.RemoveBuilding(0)
	if s.HousingCapacity != 0 {
		t.Errorf("housing = %d, want 0", s.HousingCapacity)
	}
	if len(s.Buildings) != 7 {
		t.Errorf("buildings = %d, want 7", len(s.Buildings))
	}
}

func TestSolarMultiplierCompounds(t *testing.T) {
	s := newTestState(t)
	if got := s.SolarMultiplier(); got != 1.0 {
		t.Fatalf("clear-sky multiplier = %v, want 1", got)
	}
	s.Effects = append(s.Effects,
		Effect{Type: DustStorm, HoursRemaining: 10, SolarMultiplier: 0.5},
		Effect{Type: DustStorm, HoursRemaining: 5, SolarMultiplier: 0.4},
	)
	if got := s.SolarMultiplier(); got != 0.2 {
		t.Errorf("stacked multiplier = %v, want 0.2", got)
	}
}

func TestCloneIsDeep(t *testing.T) {
	s := newTestState(t)
	s.Effects = append(s.Effects, Effect{Type: DustStorm, HoursRemaining: 3, SolarMultiplier: 0.3})
	cp := s.Clone()

	if s.Checksum() != cp.Checksum() {
		t.Fatal("clone checksum differs from original")
	}

	// Mutating the clone must not leak into the original.
	cp.Buildings[0].Active = false
	cp.Effects[0].HoursRemaining = 1
	cp.RNG.Uint32()
	cp.Res.Water = 0

	if !s.Buildings[0].Active {
		t.Error("building mutation leaked through clone")
	}
	if s.Effects[0].HoursRemaining != 3 {
		t.Error("effect mutation leaked through clone")
	}
	if s.Res.Water == 0 {
		t.Error("resource mutation leaked through clone")
	}
	state, _ := s.RNG.Words()
	cloneState, _ := cp.RNG.Words()
	if state == cloneState {
		t.Error("clone RNG still coupled to original")
	}
}

func TestChecksumSensitivity(t *testing.T) {
	base := newTestState(t)
	mutations := map[string]func(*State){
		"hour":      func(s *State) { s.Hour++ },
		"morale":    func(s *State) { s.Morale = 0.5 },
		"water":     func(s *State) { s.Res.Water += 1 },
		"building":  func(s *State) { s.Buildings[1].Active = false },
		"effect":    func(s *State) { s.Effects = append(s.Effects, Effect{Type: DustStorm, HoursRemaining: 1, SolarMultiplier: 0.5}) },
		"rng":       func(s *State) { s.RNG.Uint32() },
		"battery":   func(s *State) { s.Battery.CRate = 0.1 },
		"lastpower": func(s *State) { s.LastPower.Blackout = true },
	}
	want := base.Checksum()
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			s := New(42, config.Default())
			mutate(s)
			if s.Checksum() == want {
				t.Error("checksum unchanged after mutation")
			}
		})
	}
}

func TestHoursOfSupply(t *testing.T) {
	if got := HoursOfSupply(100, 4); got != 25 {
		t.Errorf("HoursOfSupply(100, 4) = %v, want 25", got)
	}
	if got := HoursOfSupply(100, 0); got != 9999 {
		t.Errorf("zero drain = %v, want 9999", got)
	}
}
