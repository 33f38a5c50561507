// Package config provides tunable simulation parameters, loaded from YAML
// and merged over embedded defaults. The loaded Config is injected into the
// systems that need it; there is no global configuration state.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// StormPolicy decides what happens when a dust storm triggers while one is
// already active.
type StormPolicy string

const (
	// StormReject discards the new storm. The trigger still consumes its
	// RNG draws so both policies see an identical random stream.
	StormReject StormPolicy = "reject"
	// StormStack appends the new storm; multipliers compound.
	StormStack StormPolicy = "stack"
)

// Config holds all simulation tuning parameters.
type Config struct {
	Events   EventsConfig   `yaml:"events"`
	Battery  BatteryConfig  `yaml:"battery"`
	Dispatch DispatchConfig `yaml:"dispatch"`
	Morale   MoraleConfig   `yaml:"morale"`
	Colonist ColonistConfig `yaml:"colonist"`
}

// EventsConfig holds per-hour event probabilities and effect magnitudes.
type EventsConfig struct {
	StormChance     float64     `yaml:"storm_chance"`
	MeteoroidChance float64     `yaml:"meteoroid_chance"`
	SupplyChance    float64     `yaml:"supply_chance"`
	StormMinHours   int         `yaml:"storm_min_hours"`
	StormMaxHours   int         `yaml:"storm_max_hours"`
	StormMinSolar   float64     `yaml:"storm_min_solar"`
	StormMaxSolar   float64     `yaml:"storm_max_solar"`
	StormPolicy     StormPolicy `yaml:"storm_policy"`

	SupplyWater   float64 `yaml:"supply_water"`
	SupplyOxygen  float64 `yaml:"supply_oxygen"`
	SupplyFood    float64 `yaml:"supply_food"`
	SupplyMetals  int     `yaml:"supply_metals"`
	SupplyCredits int     `yaml:"supply_credits"`
}

// BatteryConfig holds the default pack parameters for new colonies.
type BatteryConfig struct {
	CRate  float64 `yaml:"c_rate"`  // max fraction of capacity in/out per hour
	EtaIn  float64 `yaml:"eta_in"`  // charge efficiency (0,1]
	EtaOut float64 `yaml:"eta_out"` // discharge efficiency (0,1]
}

// DispatchConfig holds knapsack dispatch tuning.
type DispatchConfig struct {
	GranularityKW     float64 `yaml:"granularity_kw"`      // weight discretization step
	EfficiencyPenalty float64 `yaml:"efficiency_penalty"`  // value /= 1 + k*drawKW
	ScarcityHorizon   float64 `yaml:"scarcity_horizon_hr"` // weight = 1 + horizon/(hours+1)
}

// MoraleConfig holds per-hour morale deltas and their trigger thresholds.
type MoraleConfig struct {
	BlackoutPenalty    float64 `yaml:"blackout_penalty"`
	FoodPenalty        float64 `yaml:"food_penalty"`
	WaterPenalty       float64 `yaml:"water_penalty"`
	OxygenPenalty      float64 `yaml:"oxygen_penalty"`
	OvercrowdPenalty   float64 `yaml:"overcrowd_penalty"`
	MeteoroidPenalty   float64 `yaml:"meteoroid_penalty"`
	ComfortBonus       float64 `yaml:"comfort_bonus"`
	ShortageHorizonHr  float64 `yaml:"shortage_horizon_hr"` // below this supply runway, penalize
	ComfortHorizonHr   float64 `yaml:"comfort_horizon_hr"`  // above this runway (all stores), reward
	ComfortChargeFloor float64 `yaml:"comfort_charge_floor"` // min SoC fraction for the bonus
}

// ColonistConfig holds per-colonist hourly draws.
type ColonistConfig struct {
	PowerKW float64 `yaml:"power_kw"`
	Water   float64 `yaml:"water"`
	Oxygen  float64 `yaml:"oxygen"`
	Food    float64 `yaml:"food"`
}

// Default returns the embedded default configuration.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		// The embedded defaults are compiled in; failing to parse them is a
		// build defect, not a runtime condition.
		panic(fmt.Sprintf("config: embedded defaults invalid: %v", err))
	}
	return cfg
}

// Load parses the embedded defaults and, if path is non-empty, merges the
// file on top. Fields absent from the file keep their default values.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Events.StormPolicy {
	case StormReject, StormStack:
	default:
		return fmt.Errorf("config: unknown storm_policy %q", c.Events.StormPolicy)
	}
	if c.Battery.EtaIn <= 0 || c.Battery.EtaIn > 1 {
		return fmt.Errorf("config: eta_in %v outside (0,1]", c.Battery.EtaIn)
	}
	if c.Battery.EtaOut <= 0 || c.Battery.EtaOut > 1 {
		return fmt.Errorf("config: eta_out %v outside (0,1]", c.Battery.EtaOut)
	}
	if c.Battery.CRate < 0 {
		return fmt.Errorf("config: c_rate %v negative", c.Battery.CRate)
	}
	if c.Dispatch.GranularityKW <= 0 {
		return fmt.Errorf("config: granularity_kw must be positive")
	}
	if c.Events.StormMinHours < 1 || c.Events.StormMaxHours < c.Events.StormMinHours {
		return fmt.Errorf("config: storm duration range [%d, %d] invalid",
			c.Events.StormMinHours, c.Events.StormMaxHours)
	}
	return nil
}
