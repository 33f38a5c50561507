package command

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/talgya/mars-colony/internal/specs"
)

// Recorder appends submitted commands to a replay log. The log is plain
// text: a header naming the seed and start hour, then one line per command.
//
//	seed 12345
//	start_hour 0
//	endheader
//	h 6 build 0
type Recorder struct {
	w io.Writer
}

// NewRecorder writes the replay header and returns a recorder for the run.
func NewRecorder(w io.Writer, seed uint64, startHour int64) (*Recorder, error) {
	if _, err := fmt.Fprintf(w, "seed %d\nstart_hour %d\nendheader\n", seed, startHour); err != nil {
		return nil, fmt.Errorf("writing replay header: %w", err)
	}
	return &Recorder{w: w}, nil
}

// Record appends one command line.
func (r *Recorder) Record(c Command) error {
	if c.Kind != Build {
		return fmt.Errorf("recording command: unknown kind %d", c.Kind)
	}
	if _, err := fmt.Fprintf(r.w, "h %d build %d\n", c.Hour, c.Building); err != nil {
		return fmt.Errorf("writing replay command: %w", err)
	}
	return nil
}

// Replay is a parsed command log.
type Replay struct {
	Seed      uint64
	StartHour int64
	Commands  []Command
}

// LoadReplay parses a replay log. The seed in the header is advisory: the
// caller adopts it only when no seed was supplied explicitly.
func LoadReplay(r io.Reader) (*Replay, error) {
	sc := bufio.NewScanner(r)
	rep := &Replay{}

	sawSeed, sawStart, sawEnd := false, false, false
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if line == "endheader" {
			sawEnd = true
			break
		}
		var key string
		if _, err := fmt.Sscanf(line, "%s", &key); err != nil {
			return nil, fmt.Errorf("parsing replay header: %w", err)
		}
		switch key {
		case "seed":
			if _, err := fmt.Sscanf(line, "seed %d", &rep.Seed); err != nil {
				return nil, fmt.Errorf("parsing replay seed: %w", err)
			}
			sawSeed = true
		case "start_hour":
			if _, err := fmt.Sscanf(line, "start_hour %d", &rep.StartHour); err != nil {
				return nil, fmt.Errorf("parsing replay start hour: %w", err)
			}
			sawStart = true
		default:
			return nil, fmt.Errorf("parsing replay header: unknown key %q", key)
		}
	}
	if !sawSeed || !sawStart || !sawEnd {
		return nil, fmt.Errorf("parsing replay: incomplete header")
	}

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var hour int64
		var typeID int
		if _, err := fmt.Sscanf(line, "h %d build %d", &hour, &typeID); err != nil {
			return nil, fmt.Errorf("parsing replay command %q: %w", line, err)
		}
		bt := specs.BuildingType(typeID)
		if !bt.Valid() {
			return nil, fmt.Errorf("parsing replay command %q: unknown building type %d", line, typeID)
		}
		rep.Commands = append(rep.Commands, Command{Hour: hour, Kind: Build, Building: bt})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading replay: %w", err)
	}
	return rep, nil
}

// SubmitAll loads every replayed command into the queue at its original hour.
func (rep *Replay) SubmitAll(q *Queue) {
	for _, c := range rep.Commands {
		q.Submit(c)
	}
}
