package cadence

import "fmt"

// Phase identifies one of the ordered notifications a Scheduler broadcasts.
// Within one tick, phases are broadcast in this order:
// PhaseVariable, then N times PhaseFixed followed by PhaseLateFixed, then PhaseEndOfTick.
// PhaseDraw is broadcast by Scheduler.Draw.
type Phase uint8

const (
	PhaseVariable Phase = iota
	PhaseFixed
	PhaseLateFixed
	PhaseEndOfTick
	PhaseDraw

	phaseCount
)

func (p Phase) String() string {
	switch p {
	case PhaseVariable:
		return "Variable"
	case PhaseFixed:
		return "Fixed"
	case PhaseLateFixed:
		return "LateFixed"
	case PhaseEndOfTick:
		return "EndOfTick"
	case PhaseDraw:
		return "Draw"
	default:
		return fmt.Sprintf("Phase(%d)", uint8(p))
	}
}

// PhaseFunc receives the delta of a phase in seconds.
type PhaseFunc func(dt float64)

// Subscription is returned when registering a listener. Cancel it to stop receiving notifications.
type Subscription struct {
	cancel func()
	active bool
}

func newSubscription(cancel func()) *Subscription {
	return &Subscription{cancel: cancel, active: true}
}

// Cancel removes the listener and reports whether it was still registered.
// A listener cancelled during a broadcast still receives that broadcast.
func (s *Subscription) Cancel() bool {
	if s == nil || !s.active {
		return false
	}

	s.active = false
	s.cancel()
	s.cancel = nil

	return true
}

func (s *Subscription) Active() bool {
	return s != nil && s.active
}

type listener struct {
	id uint64
	fn PhaseFunc
}

// listeners is an ordered list of listeners. A broadcast works on a snapshot of
// the list, so listeners added or removed during a broadcast take effect at the next one.
type listeners struct {
	entries []listener
	scratch []listener
	nextId  uint64

	broadcasting bool
}

func (l *listeners) Add(fn PhaseFunc) *Subscription {
	l.nextId++
	id := l.nextId

	l.entries = append(l.entries, listener{id: id, fn: fn})

	return newSubscription(func() { l.remove(id) })
}

func (l *listeners) remove(id uint64) {
	for idx := range l.entries {
		if l.entries[idx].id == id {
			l.entries = append(l.entries[:idx], l.entries[idx+1:]...)
			return
		}
	}
}

func (l *listeners) Len() int {
	return len(l.entries)
}

func (l *listeners) Broadcast(dt float64) {
	var snapshot []listener

	if l.broadcasting {
		// nested broadcast, the scratch buffer is in use
		snapshot = append(snapshot, l.entries...)
	} else {
		l.broadcasting = true
		defer func() { l.broadcasting = false }()

		l.scratch = append(l.scratch[:0], l.entries...)
		snapshot = l.scratch
	}

	for _, entry := range snapshot {
		entry.fn(dt)
	}

	// do not keep closures alive through the scratch buffer
	clear(snapshot)
}
