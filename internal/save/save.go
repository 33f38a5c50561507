// Package save reads and writes colony snapshots as line-oriented text.
// Loads parse into a fresh state and only replace the caller's state when
// the whole record parses; a truncated or malformed file never leaves a
// partially overwritten colony behind.
package save

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/talgya/mars-colony/internal/colony"
	"github.com/talgya/mars-colony/internal/entropy"
	"github.com/talgya/mars-colony/internal/power"
	"github.com/talgya/mars-colony/internal/specs"
)

const (
	header  = "MARS_SAVE"
	version = 2
)

// Write serializes the state. The format is versioned: version 2 added the
// battery line.
func Write(w io.Writer, s *colony.State) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "%s %d\n", header, version)
	fmt.Fprintf(bw, "hour %d\n", s.Hour)
	fmt.Fprintf(bw, "population %d\n", s.Population)
	fmt.Fprintf(bw, "housing %d\n", s.HousingCapacity)
	fmt.Fprintf(bw, "morale %g\n", s.Morale)
	fmt.Fprintf(bw, "res %g %g %g %g %g %d %d\n",
		s.Res.PowerStored, s.Res.BatteryCapacity,
		s.Res.Water, s.Res.Oxygen, s.Res.Food,
		s.Res.Metals, s.Res.Credits)

	fmt.Fprintf(bw, "buildings %d\n", len(s.Buildings))
	for _, b := range s.Buildings {
		active := 0
		if b.Active {
			active = 1
		}
		fmt.Fprintf(bw, "b %d %d\n", b.Type, active)
	}

	fmt.Fprintf(bw, "effects %d\n", len(s.Effects))
	for _, e := range s.Effects {
		fmt.Fprintf(bw, "e %d %d %g\n", e.Type, e.HoursRemaining, e.SolarMultiplier)
	}

	blackout := 0
	if s.LastPower.Blackout {
		blackout = 1
	}
	fmt.Fprintf(bw, "lastpower %g %g %g %g %d\n",
		s.LastPower.ProducedKW, s.LastPower.CriticalKW,
		s.LastPower.NonCriticalKW, s.LastPower.NonCriticalServed, blackout)

	fmt.Fprintf(bw, "battery %g %g %g\n", s.Battery.CRate, s.Battery.EtaIn, s.Battery.EtaOut)
	fmt.Fprintf(bw, "rngseed %d\n", s.Seed)

	rngText, err := s.RNG.MarshalText()
	if err != nil {
		return fmt.Errorf("serializing rng: %w", err)
	}
	fmt.Fprintf(bw, "rngstate %s\n", rngText)
	fmt.Fprintln(bw, "end")

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("writing save: %w", err)
	}
	return nil
}

// Read parses a snapshot. Version 1 saves predate the battery line and get
// the default pack parameters. Unknown keys are skipped for forward
// compatibility; a missing "end" terminator is a truncation failure.
func Read(r io.Reader) (*colony.State, error) {
	sc := bufio.NewScanner(r)

	if !sc.Scan() {
		return nil, fmt.Errorf("loading save: empty input")
	}
	var tag string
	var ver int
	if _, err := fmt.Sscanf(sc.Text(), "%s %d", &tag, &ver); err != nil || tag != header {
		return nil, fmt.Errorf("loading save: bad header %q", sc.Text())
	}
	if ver != 1 && ver != version {
		return nil, fmt.Errorf("loading save: unsupported version %d", ver)
	}

	s := &colony.State{Battery: power.DefaultConfig()}
	var pendingB, pendingE int
	sawEnd := false

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		key := fields[0]

		var err error
		switch key {
		case "end":
			sawEnd = true
		case "hour":
			_, err = fmt.Sscanf(line, "hour %d", &s.Hour)
		case "population":
			_, err = fmt.Sscanf(line, "population %d", &s.Population)
		case "housing":
			_, err = fmt.Sscanf(line, "housing %d", &s.HousingCapacity)
		case "morale":
			_, err = fmt.Sscanf(line, "morale %g", &s.Morale)
		case "res":
			_, err = fmt.Sscanf(line, "res %g %g %g %g %g %d %d",
				&s.Res.PowerStored, &s.Res.BatteryCapacity,
				&s.Res.Water, &s.Res.Oxygen, &s.Res.Food,
				&s.Res.Metals, &s.Res.Credits)
		case "buildings":
			_, err = fmt.Sscanf(line, "buildings %d", &pendingB)
		case "b":
			if pendingB <= 0 {
				return nil, fmt.Errorf("loading save: unexpected building line %q", line)
			}
			pendingB--
			var typeID, active int
			if _, err = fmt.Sscanf(line, "b %d %d", &typeID, &active); err == nil {
				bt := specs.BuildingType(typeID)
				if !bt.Valid() {
					return nil, fmt.Errorf("loading save: unknown building type %d", typeID)
				}
				s.Buildings = append(s.Buildings, colony.Building{Type: bt, Active: active != 0})
			}
		case "effects":
			_, err = fmt.Sscanf(line, "effects %d", &pendingE)
		case "e":
			if pendingE <= 0 {
				return nil, fmt.Errorf("loading save: unexpected effect line %q", line)
			}
			pendingE--
			var typeID, hours int
			var mult float64
			if _, err = fmt.Sscanf(line, "e %d %d %g", &typeID, &hours, &mult); err == nil {
				s.Effects = append(s.Effects, colony.Effect{
					Type:            colony.EffectType(typeID),
					HoursRemaining:  hours,
					SolarMultiplier: mult,
				})
			}
		case "lastpower":
			var blackout int
			if _, err = fmt.Sscanf(line, "lastpower %g %g %g %g %d",
				&s.LastPower.ProducedKW, &s.LastPower.CriticalKW,
				&s.LastPower.NonCriticalKW, &s.LastPower.NonCriticalServed, &blackout); err == nil {
				s.LastPower.Blackout = blackout != 0
			}
		case "battery":
			_, err = fmt.Sscanf(line, "battery %g %g %g",
				&s.Battery.CRate, &s.Battery.EtaIn, &s.Battery.EtaOut)
		case "rngseed":
			_, err = fmt.Sscanf(line, "rngseed %d", &s.Seed)
		case "rngstate":
			src := &entropy.Source{}
			if err = src.UnmarshalText([]byte(strings.TrimPrefix(line, "rngstate "))); err == nil {
				s.RNG = src
			}
		default:
			// Unknown key: skip the line, newer writers may add fields.
		}
		if err != nil {
			return nil, fmt.Errorf("loading save: parsing %q: %w", line, err)
		}
		if sawEnd {
			break
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("loading save: %w", err)
	}
	if !sawEnd {
		return nil, fmt.Errorf("loading save: truncated record, no end marker")
	}
	if pendingB != 0 || pendingE != 0 {
		return nil, fmt.Errorf("loading save: entry count mismatch (%d buildings, %d effects short)",
			pendingB, pendingE)
	}
	if s.RNG == nil {
		return nil, fmt.Errorf("loading save: missing rng state")
	}
	return s, nil
}
