package save

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/talgya/mars-colony/internal/colony"
	"github.com/talgya/mars-colony/internal/command"
	"github.com/talgya/mars-colony/internal/config"
	"github.com/talgya/mars-colony/internal/engine"
)

func midRunState(t *testing.T, seed uint64, hours int) *colony.State {
	t.Helper()
	cfg := config.Default()
	sim := engine.New(colony.New(seed, cfg), command.NewQueue(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err := sim.Advance(hours); err != nil {
		t.Fatalf("advance: %v", err)
	}
	return sim.State
}

func TestRoundTripPreservesChecksum(t *testing.T) {
	s := midRunState(t, 31, 30)
	s.Effects = append(s.Effects, colony.Effect{
		Type: colony.DustStorm, HoursRemaining: 7, SolarMultiplier: 0.45,
	})

	var buf strings.Builder
	if err := Write(&buf, s); err != nil {
		t.Fatalf("Write: %v", err)
	}
	loaded, err := Read(strings.NewReader(buf.String()))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if loaded.Checksum() != s.Checksum() {
		t.Error("round trip changed the state checksum")
	}
}

func TestSaveLoadContinuationMatchesUninterruptedRun(t *testing.T) {
	cfg := config.Default()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	// Uninterrupted: 30 + 24 hours straight through.
	straight := engine.New(colony.New(77, cfg), command.NewQueue(), cfg, logger)
	if err := straight.Advance(30); err != nil {
		t.Fatal(err)
	}

	// Interrupted: snapshot at hour 30, reload, continue.
	var buf strings.Builder
	if err := Write(&buf, straight.State); err != nil {
		t.Fatalf("Write: %v", err)
	}
	loaded, err := Read(strings.NewReader(buf.String()))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	resumed := engine.New(loaded, command.NewQueue(), cfg, logger)

	if err := straight.Advance(24); err != nil {
		t.Fatal(err)
	}
	if err := resumed.Advance(24); err != nil {
		t.Fatal(err)
	}
	if straight.State.Checksum() != resumed.State.Checksum() {
		t.Error("resumed run diverged from uninterrupted run")
	}
}

func TestVersionOneGetsDefaultBattery(t *testing.T) {
	s := midRunState(t, 5, 3)
	var buf strings.Builder
	if err := Write(&buf, s); err != nil {
		t.Fatalf("Write: %v", err)
	}

	// Rewrite as a version 1 record: old header, no battery line.
	var v1 []string
	for _, line := range strings.Split(buf.String(), "\n") {
		switch {
		case strings.HasPrefix(line, "MARS_SAVE"):
			v1 = append(v1, "MARS_SAVE 1")
		case strings.HasPrefix(line, "battery "):
		default:
			v1 = append(v1, line)
		}
	}

	loaded, err := Read(strings.NewReader(strings.Join(v1, "\n")))
	if err != nil {
		t.Fatalf("Read v1: %v", err)
	}
	want := config.Default().Battery
	if loaded.Battery.CRate != want.CRate ||
		loaded.Battery.EtaIn != want.EtaIn ||
		loaded.Battery.EtaOut != want.EtaOut {
		t.Errorf("v1 battery = %+v, want defaults %+v", loaded.Battery, want)
	}
}

func TestUnknownKeysSkipped(t *testing.T) {
	s := midRunState(t, 6, 2)
	var buf strings.Builder
	if err := Write(&buf, s); err != nil {
		t.Fatalf("Write: %v", err)
	}
	withExtra := strings.Replace(buf.String(), "end\n",
		"future_field 1 2 3\nend\n", 1)

	loaded, err := Read(strings.NewReader(withExtra))
	if err != nil {
		t.Fatalf("Read with unknown key: %v", err)
	}
	if loaded.Checksum() != s.Checksum() {
		t.Error("unknown key changed the loaded state")
	}
}

func TestReadRejectsMalformedInput(t *testing.T) {
	s := midRunState(t, 8, 2)
	var buf strings.Builder
	if err := Write(&buf, s); err != nil {
		t.Fatalf("Write: %v", err)
	}
	good := buf.String()

	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"bad header", strings.Replace(good, "MARS_SAVE 2", "MOON_SAVE 2", 1)},
		{"future version", strings.Replace(good, "MARS_SAVE 2", "MARS_SAVE 9", 1)},
		{"truncated", strings.TrimSuffix(good, "end\n")},
		{"garbage hour", strings.Replace(good, "hour ", "hour x", 1)},
		{"unknown building", strings.Replace(good, "b 0 ", "b 99 ", 1)},
		{"missing rng", strings.Replace(good, "rngstate pcg32", "rngstate nope", 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Read(strings.NewReader(tt.input)); err == nil {
				t.Error("Read accepted malformed input")
			}
		})
	}
}
