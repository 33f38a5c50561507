package command

import (
	"reflect"
	"strings"
	"testing"

	"github.com/talgya/mars-colony/internal/specs"
)

func TestDrainIsAtomic(t *testing.T) {
	q := NewQueue()
	q.Submit(Command{Hour: 5, Kind: Build, Building: specs.SolarArray})
	q.Submit(Command{Hour: 5, Kind: Build, Building: specs.Greenhouse})
	q.Submit(Command{Hour: 9, Kind: Build, Building: specs.RTG})

	got := q.DrainForHour(5)
	want := []Command{
		{Hour: 5, Kind: Build, Building: specs.SolarArray},
		{Hour: 5, Kind: Build, Building: specs.Greenhouse},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("drained %v, want %v", got, want)
	}
	if again := q.DrainForHour(5); again != nil {
		t.Errorf("second drain returned %v, want nil", again)
	}
	if q.Len() != 1 {
		t.Errorf("pending = %d, want 1", q.Len())
	}
}

func TestDrainEmptyHour(t *testing.T) {
	q := NewQueue()
	if got := q.DrainForHour(3); got != nil {
		t.Errorf("drain of empty hour = %v, want nil", got)
	}
}

func TestPendingSortedByHour(t *testing.T) {
	q := NewQueue()
	q.Submit(Command{Hour: 20, Kind: Build, Building: specs.RTG})
	q.Submit(Command{Hour: 3, Kind: Build, Building: specs.Habitat})
	q.Submit(Command{Hour: 3, Kind: Build, Building: specs.SolarArray})

	got := q.Pending()
	want := []Command{
		{Hour: 3, Kind: Build, Building: specs.Habitat},
		{Hour: 3, Kind: Build, Building: specs.SolarArray},
		{Hour: 20, Kind: Build, Building: specs.RTG},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("pending = %v, want %v", got, want)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	q := NewQueue()
	q.Submit(Command{Hour: 7, Kind: Build, Building: specs.Electrolyzer})
	cp := q.Clone()

	cp.DrainForHour(7)
	if q.Len() != 1 {
		t.Error("draining the clone emptied the original")
	}
	cp.Submit(Command{Hour: 8, Kind: Build, Building: specs.RTG})
	if q.Len() != 1 {
		t.Error("submitting to the clone grew the original")
	}
}

func TestReplayRoundTrip(t *testing.T) {
	var buf strings.Builder
	rec, err := NewRecorder(&buf, 777, 12)
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}
	cmds := []Command{
		{Hour: 12, Kind: Build, Building: specs.SolarArray},
		{Hour: 30, Kind: Build, Building: specs.BatteryBank},
	}
	for _, c := range cmds {
		if err := rec.Record(c); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	rep, err := LoadReplay(strings.NewReader(buf.String()))
	if err != nil {
		t.Fatalf("LoadReplay: %v", err)
	}
	if rep.Seed != 777 || rep.StartHour != 12 {
		t.Errorf("header = seed %d start %d, want 777/12", rep.Seed, rep.StartHour)
	}
	if !reflect.DeepEqual(rep.Commands, cmds) {
		t.Errorf("commands = %v, want %v", rep.Commands, cmds)
	}

	q := NewQueue()
	rep.SubmitAll(q)
	if !reflect.DeepEqual(q.DrainForHour(12), cmds[:1]) {
		t.Error("replayed command not queued at its original hour")
	}
}

func TestLoadReplayRejectsMalformedInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"missing endheader", "seed 1\nstart_hour 0\n"},
		{"missing seed", "start_hour 0\nendheader\n"},
		{"unknown header key", "seed 1\nversion 9\nstart_hour 0\nendheader\n"},
		{"garbage command", "seed 1\nstart_hour 0\nendheader\nbuild now please\n"},
		{"unknown building", "seed 1\nstart_hour 0\nendheader\nh 4 build 250\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadReplay(strings.NewReader(tt.input)); err == nil {
				t.Error("LoadReplay accepted malformed input")
			}
		})
	}
}
