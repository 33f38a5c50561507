// Package command holds scheduled build orders and their replay log format.
// The queue exclusively owns pending commands until the tick drains them.
package command

import (
	"sort"

	"github.com/talgya/mars-colony/internal/specs"
)

// Kind discriminates command payloads. Build is the only kind today; the
// replay format leaves room for more.
type Kind uint8

const (
	Build Kind = iota
)

// Command is a scheduled intent, applied when the simulation reaches Hour.
type Command struct {
	Hour     int64
	Kind     Kind
	Building specs.BuildingType
}

// Queue is an hour-keyed multimap of pending commands. Within an hour,
// commands apply in submission order.
type Queue struct {
	byHour map[int64][]Command
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{byHour: make(map[int64][]Command)}
}

// Submit schedules a command.
func (q *Queue) Submit(c Command) {
	q.byHour[c.Hour] = append(q.byHour[c.Hour], c)
}

// DrainForHour removes and returns all commands scheduled for hour h, in
// submission order. The removal and return are a single operation; a drained
// command can never be drained again.
func (q *Queue) DrainForHour(h int64) []Command {
	cmds := q.byHour[h]
	delete(q.byHour, h)
	return cmds
}

// Len returns the number of pending commands.
func (q *Queue) Len() int {
	n := 0
	for _, cmds := range q.byHour {
		n += len(cmds)
	}
	return n
}

// Pending returns all pending commands ordered by hour, submission order
// within an hour. The queue is unchanged.
func (q *Queue) Pending() []Command {
	hours := make([]int64, 0, len(q.byHour))
	for h := range q.byHour {
		hours = append(hours, h)
	}
	sort.Slice(hours, func(i, j int) bool { return hours[i] < hours[j] })

	var out []Command
	for _, h := range hours {
		out = append(out, q.byHour[h]...)
	}
	return out
}

// Clone returns an independent copy. The forecast engine drains the clone
// while the caller's queue stays intact.
func (q *Queue) Clone() *Queue {
	cp := NewQueue()
	for h, cmds := range q.byHour {
		cp.byHour[h] = append([]Command(nil), cmds...)
	}
	return cp
}
