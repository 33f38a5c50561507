// Package specs holds the immutable building specification table. The table
// is pure data keyed by a closed enumeration; components receive it through
// Get rather than reading shared mutable state, and nothing mutates it at
// runtime.
package specs

import "strings"

// BuildingType identifies a kind of structure. The numeric values are part
// of the save and replay wire formats and must never be reordered.
type BuildingType uint8

const (
	SolarArray BuildingType = iota
	BatteryBank
	Habitat
	Greenhouse
	WaterExtractor
	Electrolyzer
	RTG

	buildingTypeCount
)

// Valid reports whether t names a known building type.
func (t BuildingType) Valid() bool {
	return t < buildingTypeCount
}

func (t BuildingType) String() string {
	switch t {
	case SolarArray:
		return "Solar Array"
	case BatteryBank:
		return "Battery Bank"
	case Habitat:
		return "Habitat"
	case Greenhouse:
		return "Greenhouse"
	case WaterExtractor:
		return "Water Extractor"
	case Electrolyzer:
		return "Electrolyzer"
	case RTG:
		return "RTG"
	}
	return "Unknown"
}

// Spec describes the static behavior of one building type.
// Flows are per hour; positive values produce, negative values consume.
type Spec struct {
	// Power characteristics (kW).
	SolarKW    float64 // daylight-scaled generation
	ConstantKW float64 // constant generation (RTG)
	DrawKW     float64 // consumption when running

	// Resource flows per hour when running.
	WaterFlow  float64
	OxygenFlow float64
	FoodFlow   float64

	// Other effects of existing.
	Housing       int
	BatteryCapKWh float64

	// Build costs.
	MetalsCost  int
	CreditsCost int

	NeedsPower bool
	Critical   bool // must be served every hour; unmet critical demand is a blackout
}

var table = [buildingTypeCount]Spec{
	SolarArray:     {SolarKW: 25, MetalsCost: 50, CreditsCost: 100},
	BatteryBank:    {BatteryCapKWh: 200, MetalsCost: 40, CreditsCost: 50},
	Habitat:        {DrawKW: 2, Housing: 5, MetalsCost: 100, CreditsCost: 500, NeedsPower: true, Critical: true},
	Greenhouse:     {DrawKW: 12, WaterFlow: -2, OxygenFlow: 1, FoodFlow: 2, MetalsCost: 80, CreditsCost: 400, NeedsPower: true},
	WaterExtractor: {DrawKW: 8, WaterFlow: 3, MetalsCost: 60, CreditsCost: 300, NeedsPower: true},
	Electrolyzer:   {DrawKW: 10, WaterFlow: -1, OxygenFlow: 1.5, MetalsCost: 50, CreditsCost: 350, NeedsPower: true},
	RTG:            {ConstantKW: 30, MetalsCost: 200, CreditsCost: 2000},
}

// Get returns the spec for a building type.
func Get(t BuildingType) Spec {
	return table[t]
}

// All returns every building type in declaration order. The order is stable
// and doubles as the dispatch tie-break order.
func All() []BuildingType {
	out := make([]BuildingType, 0, buildingTypeCount)
	for t := BuildingType(0); t < buildingTypeCount; t++ {
		out = append(out, t)
	}
	return out
}

// ByName resolves a human-entered type name, tolerating case and spacing
// ("SolarArray", "solar array").
func ByName(name string) (BuildingType, bool) {
	canon := func(s string) string {
		return strings.ToLower(strings.ReplaceAll(s, " ", ""))
	}
	want := canon(name)
	for t := BuildingType(0); t < buildingTypeCount; t++ {
		if canon(t.String()) == want {
			return t, true
		}
	}
	return 0, false
}
