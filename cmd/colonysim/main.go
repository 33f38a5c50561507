// Command colonysim runs the Mars colony survival simulation.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/talgya/mars-colony/internal/colony"
	"github.com/talgya/mars-colony/internal/command"
	"github.com/talgya/mars-colony/internal/config"
	"github.com/talgya/mars-colony/internal/engine"
	"github.com/talgya/mars-colony/internal/environment"
	"github.com/talgya/mars-colony/internal/persistence"
	"github.com/talgya/mars-colony/internal/save"
	"github.com/talgya/mars-colony/internal/specs"
	"github.com/talgya/mars-colony/internal/telemetry"
)

type options struct {
	seed      uint64
	seedSet   bool
	advance   int
	forecast  int
	loadPath  string
	savePath  string
	recordTo  string
	replayOf  string
	dbPath    string
	csvDir    string
	cfgPath   string
	hardCheck bool
	selftest  bool
}

func main() {
	var opt options
	flag.Uint64Var(&opt.seed, "seed", 42, "simulation seed")
	flag.IntVar(&opt.advance, "advance", 0, "advance N hours, then exit")
	flag.IntVar(&opt.forecast, "forecast", 0, "forecast N hours, then exit")
	flag.StringVar(&opt.loadPath, "load", "", "load a saved colony before running")
	flag.StringVar(&opt.savePath, "save", "", "save the colony after running")
	flag.StringVar(&opt.recordTo, "record", "", "record submitted commands to a replay log")
	flag.StringVar(&opt.replayOf, "replay", "", "re-run commands from a replay log")
	flag.StringVar(&opt.dbPath, "db", "", "archive the run to a SQLite database")
	flag.StringVar(&opt.csvDir, "csv", "", "export hourly telemetry as CSV into this directory")
	flag.StringVar(&opt.cfgPath, "config", "", "YAML config overriding built-in defaults")
	flag.BoolVar(&opt.hardCheck, "hard-invariants", false, "abort on any invariant violation")
	flag.BoolVar(&opt.selftest, "selftest", false, "run the built-in self-test, then exit")
	flag.Parse()
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "seed" {
			opt.seedSet = true
		}
	})

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(opt, logger); err != nil {
		slog.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func run(opt options, logger *slog.Logger) error {
	cfg, err := config.Load(opt.cfgPath)
	if err != nil {
		return err
	}

	if opt.selftest {
		if err := engine.SelfTest(cfg); err != nil {
			return fmt.Errorf("self-test: %w", err)
		}
		slog.Info("self-test passed")
		return nil
	}

	var replay *command.Replay
	if opt.replayOf != "" {
		f, err := os.Open(opt.replayOf)
		if err != nil {
			return fmt.Errorf("opening replay: %w", err)
		}
		replay, err = command.LoadReplay(f)
		f.Close()
		if err != nil {
			return err
		}
	}

	state, err := initialState(opt, cfg, replay)
	if err != nil {
		return err
	}

	sim := engine.New(state, command.NewQueue(), cfg, logger)
	sim.SetHardInvariants(opt.hardCheck)
	if replay != nil {
		replay.SubmitAll(sim.Queue)
	}

	var archive *persistence.DB
	runID := ""
	if opt.dbPath != "" {
		archive, err = persistence.Open(opt.dbPath)
		if err != nil {
			return err
		}
		defer archive.Close()
		runID, err = archive.BeginRun(state.Seed, state.Hour)
		if err != nil {
			return err
		}
		sim.SetEventSink(archive.RecordEvent(runID))
		slog.Info("archiving run", "db", opt.dbPath, "run", runID)
	}

	output, err := telemetry.NewOutputManager(opt.csvDir)
	if err != nil {
		return err
	}
	defer output.Close()

	if opt.recordTo != "" {
		f, err := os.Create(opt.recordTo)
		if err != nil {
			return fmt.Errorf("creating replay log: %w", err)
		}
		defer f.Close()
		rec, err := command.NewRecorder(f, state.Seed, state.Hour)
		if err != nil {
			return err
		}
		sim.SetRecorder(rec)
	}

	env := environment.New(state.Seed)

	batch := opt.advance > 0 || opt.forecast > 0 || opt.replayOf != "" || opt.savePath != ""
	if batch {
		if err := runBatch(opt, sim, archive, runID, output); err != nil {
			return err
		}
	} else {
		if err := runInteractive(sim, env, output); err != nil {
			return err
		}
	}

	if opt.savePath != "" {
		if err := writeSave(opt.savePath, sim.State); err != nil {
			return err
		}
		slog.Info("saved", "path", opt.savePath, "hour", sim.State.Hour)
	}
	return nil
}

// initialState builds the starting colony. Seed precedence: an explicit
// -seed flag wins, then a loaded save's recorded seed, then a replay
// header's seed, then the default.
func initialState(opt options, cfg *config.Config, replay *command.Replay) (*colony.State, error) {
	if opt.loadPath != "" {
		f, err := os.Open(opt.loadPath)
		if err != nil {
			return nil, fmt.Errorf("opening save: %w", err)
		}
		defer f.Close()
		s, err := save.Read(f)
		if err != nil {
			return nil, err
		}
		slog.Info("loaded", "path", opt.loadPath, "hour", s.Hour, "seed", s.Seed)
		return s, nil
	}
	seed := opt.seed
	if !opt.seedSet && replay != nil {
		seed = replay.Seed
	}
	return colony.New(seed, cfg), nil
}

func runBatch(opt options, sim *engine.Simulation, archive *persistence.DB, runID string, output *telemetry.OutputManager) error {
	hours := opt.advance
	if opt.replayOf != "" && hours == 0 {
		// Replays with no explicit horizon run through their last command.
		for _, c := range sim.Queue.Pending() {
			if n := int(c.Hour - sim.State.Hour + 1); n > hours {
				hours = n
			}
		}
	}
	for i := 0; i < hours; i++ {
		if err := advanceOne(sim, archive, runID, output); err != nil {
			return err
		}
	}

	if opt.forecast > 0 {
		samples, err := sim.Forecast(opt.forecast)
		if err != nil {
			return err
		}
		printForecast(sim.State, samples)
		if err := output.WriteForecast(sim.State.Hour, samples); err != nil {
			return err
		}
	}
	return nil
}

func advanceOne(sim *engine.Simulation, archive *persistence.DB, runID string, output *telemetry.OutputManager) error {
	if err := sim.Tick(); err != nil {
		return err
	}
	s := sim.State
	if archive != nil {
		if err := archive.RecordReport(runID, s.Hour, s.LastPower, s.Res.PowerStored, s.Morale); err != nil {
			return err
		}
	}
	return output.WriteStatus(telemetry.StatusRecord{
		Hour:              s.Hour,
		Sol:               s.Sol(),
		ProducedKW:        s.LastPower.ProducedKW,
		CriticalKW:        s.LastPower.CriticalKW,
		NonCriticalKW:     s.LastPower.NonCriticalKW,
		NonCriticalServed: s.LastPower.NonCriticalServed,
		BatteryKWh:        s.Res.PowerStored,
		Water:             s.Res.Water,
		Oxygen:            s.Res.Oxygen,
		Food:              s.Res.Food,
		Morale:            s.Morale,
		Blackout:          s.LastPower.Blackout,
	})
}

func runInteractive(sim *engine.Simulation, env *environment.Model, output *telemetry.OutputManager) error {
	in := bufio.NewScanner(os.Stdin)
	printStatus(sim.State, env)
	for {
		fmt.Print("\n[s]tatus  [a]dvance N  [b]uild TYPE  [f]orecast N  [w]rite FILE  [q]uit > ")
		if !in.Scan() {
			return in.Err()
		}
		fields := strings.Fields(in.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "s", "status":
			printStatus(sim.State, env)
		case "a", "advance":
			n := 1
			if len(fields) > 1 {
				if v, err := strconv.Atoi(fields[1]); err == nil && v > 0 {
					n = v
				}
			}
			for i := 0; i < n; i++ {
				if err := advanceOne(sim, nil, "", output); err != nil {
					return err
				}
			}
			printStatus(sim.State, env)
		case "b", "build":
			if len(fields) < 2 {
				fmt.Println("usage: build TYPE (e.g. build SolarArray)")
				continue
			}
			bt, ok := specs.ByName(fields[1])
			if !ok {
				fmt.Printf("unknown building %q; one of:", fields[1])
				for _, t := range specs.All() {
					fmt.Printf(" %s", t)
				}
				fmt.Println()
				continue
			}
			c := command.Command{Hour: sim.State.Hour, Kind: command.Build, Building: bt}
			if err := sim.Submit(c); err != nil {
				return err
			}
			fmt.Printf("queued %s for hour %d\n", bt, c.Hour)
		case "f", "forecast":
			n := 24
			if len(fields) > 1 {
				if v, err := strconv.Atoi(fields[1]); err == nil && v > 0 {
					n = v
				}
			}
			samples, err := sim.Forecast(n)
			if err != nil {
				return err
			}
			printForecast(sim.State, samples)
			if err := output.WriteForecast(sim.State.Hour, samples); err != nil {
				return err
			}
		case "w", "write":
			if len(fields) < 2 {
				fmt.Println("usage: write FILE")
				continue
			}
			if err := writeSave(fields[1], sim.State); err != nil {
				fmt.Printf("save failed: %v\n", err)
				continue
			}
			fmt.Printf("saved to %s\n", fields[1])
		case "q", "quit":
			return nil
		default:
			fmt.Printf("unknown command %q\n", fields[0])
		}
	}
}

func printStatus(s *colony.State, env *environment.Model) {
	cond := env.Sample(s.Hour)
	fmt.Printf("\n=== Sol %d, Hour %02d ===\n", s.Sol(), s.HourOfSol())
	fmt.Printf("Outside: %.0f°C, haze %.0f%%, wind %.0f kph\n",
		cond.TemperatureC, cond.DustHaze*100, cond.WindKPH)

	fmt.Printf("Power: %s / %s kWh | prod %.1f kW | crit %.1f kW | noncrit %.1f kW @ %.0f%%",
		humanize.CommafWithDigits(s.Res.PowerStored, 1),
		humanize.CommafWithDigits(s.Res.BatteryCapacity, 1),
		s.LastPower.ProducedKW, s.LastPower.CriticalKW,
		s.LastPower.NonCriticalKW, s.LastPower.NonCriticalServed*100)
	if s.LastPower.Blackout {
		fmt.Print("  [BLACKOUT]")
	}
	fmt.Println()

	fmt.Printf("Water %.1f  Oxygen %.1f  Food %.1f\n", s.Res.Water, s.Res.Oxygen, s.Res.Food)
	fmt.Printf("Metals %s  Credits %s\n",
		humanize.Comma(int64(s.Res.Metals)), humanize.Comma(int64(s.Res.Credits)))
	fmt.Printf("Population %d / Housing %d | Morale %.2f\n",
		s.Population, s.HousingCapacity, s.Morale)

	counts := map[specs.BuildingType]int{}
	for _, b := range s.Buildings {
		counts[b.Type]++
	}
	fmt.Print("Buildings:")
	for _, t := range specs.All() {
		if counts[t] > 0 {
			fmt.Printf(" %s×%d", t, counts[t])
		}
	}
	fmt.Println()
	for _, e := range s.Effects {
		fmt.Printf("Effect: %s, %dh remaining, solar ×%.2f\n",
			e.Type, e.HoursRemaining, e.SolarMultiplier)
	}
}

func printForecast(s *colony.State, samples []engine.ForecastSample) {
	fmt.Printf("\n=== Power Forecast (%dh) ===\n", len(samples))
	if len(samples) == 0 {
		return
	}
	minBat, maxBat := samples[0].BatteryStored, samples[0].BatteryStored
	for _, smp := range samples {
		if smp.BatteryStored < minBat {
			minBat = smp.BatteryStored
		}
		if smp.BatteryStored > maxBat {
			maxBat = smp.BatteryStored
		}
	}
	fmt.Printf("Battery range: %.1f .. %.1f (cap %.0f)\n", minBat, maxBat, s.Res.BatteryCapacity)
	if at := engine.FirstBlackout(samples); at >= 0 {
		fmt.Printf("BLACKOUT predicted at +%dh (Sol %d, Hour %d)\n",
			at, samples[at-1].Sol, samples[at-1].HourOfSol)
	} else {
		fmt.Println("No blackout predicted.")
	}

	fmt.Println("\n +h  sol:hr   prod   crit  served   batt")
	for i := 0; i < len(samples); i += 6 {
		smp := samples[i]
		note := ""
		if smp.Blackout {
			note = "  *BLACKOUT*"
		}
		fmt.Printf(" %3d  %3d:%02d  %5.1f  %5.1f  %5.0f%%  %6.1f%s\n",
			i+1, smp.Sol, smp.HourOfSol, smp.ProducedKW, smp.CriticalKW,
			smp.NonCriticalServed*100, smp.BatteryStored, note)
	}
}

func writeSave(path string, s *colony.State) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating save: %w", err)
	}
	defer f.Close()
	return save.Write(f, s)
}
