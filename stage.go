package cadence

import (
	"reflect"
	"slices"

	"github.com/TheBitDrifter/mask"
	"github.com/oliverbestmann/cadence/internal/set"
	"github.com/oliverbestmann/cadence/spoke"
	"go.uber.org/zap"
)

// accessBits is the number of component type ids that can be tracked by Reads and Writes.
const accessBits = 256

// Constraint configures a listener registered with World.On.
type Constraint func(entry *stageEntry)

// Before runs the listener before all listeners owned by system S.
func Before[S any]() Constraint {
	ty := reflect.TypeFor[S]()
	return func(entry *stageEntry) {
		entry.before = append(entry.before, ty)
	}
}

// After runs the listener after all listeners owned by system S.
func After[S any]() Constraint {
	ty := reflect.TypeFor[S]()
	return func(entry *stageEntry) {
		entry.after = append(entry.after, ty)
	}
}

// Reads declares that the listener reads components of type C.
func Reads[C any]() Constraint {
	typeId := spoke.TypeIdOf[C]()
	return func(entry *stageEntry) {
		markAccess(&entry.reads, typeId)
	}
}

// Writes declares that the listener modifies components of type C.
func Writes[C any]() Constraint {
	typeId := spoke.TypeIdOf[C]()
	return func(entry *stageEntry) {
		markAccess(&entry.writes, typeId)
	}
}

func markAccess(m *mask.Mask, typeId spoke.TypeId) {
	if typeId < accessBits {
		m.Mark(uint32(typeId))
	}
}

type stageEntry struct {
	seq   uint64
	owner reflect.Type
	fn    PhaseFunc

	before []reflect.Type
	after  []reflect.Type

	reads  mask.Mask
	writes mask.Mask

	subscription *Subscription
}

// precedes reports whether an ordering constraint puts e directly before other.
func (e *stageEntry) precedes(other *stageEntry) bool {
	if other.owner != nil && slices.Contains(e.before, other.owner) {
		return true
	}

	return e.owner != nil && slices.Contains(other.after, e.owner)
}

func (e *stageEntry) conflictsWith(other *stageEntry) bool {
	return e.writes.ContainsAny(other.reads) ||
		e.writes.ContainsAny(other.writes) ||
		other.writes.ContainsAny(e.reads)
}

// stage runs the listeners of one phase of a world in dependency order.
// Entries with no ordering constraint between them run in registration order.
type stage struct {
	phase Phase
	log   *zap.Logger

	entries []*stageEntry
	nextSeq uint64

	// ordered is replaced on every change and never modified in place,
	// so a running broadcast keeps iterating its own snapshot.
	ordered []*stageEntry

	subscription *Subscription
}

func newStage(scheduler *Scheduler, phase Phase, log *zap.Logger) *stage {
	s := &stage{phase: phase, log: log}
	s.subscription = scheduler.Subscribe(phase, s.run)
	return s
}

func (s *stage) run(dt float64) {
	for _, entry := range s.ordered {
		entry.fn(dt)
	}
}

func (s *stage) Add(owner reflect.Type, fn PhaseFunc, constraints []Constraint) *Subscription {
	s.nextSeq++

	entry := &stageEntry{seq: s.nextSeq, owner: owner, fn: fn}
	for _, constraint := range constraints {
		constraint(entry)
	}

	entries := append(slices.Clone(s.entries), entry)

	ordered, err := s.order(entries)
	if err != nil {
		panic(err)
	}

	s.entries = entries
	s.ordered = ordered
	s.warnConflicts()

	entry.subscription = newSubscription(func() { s.remove(entry) })
	return entry.subscription
}

func (s *stage) remove(entry *stageEntry) {
	idx := slices.Index(s.entries, entry)
	if idx < 0 {
		return
	}

	s.entries = slices.Delete(slices.Clone(s.entries), idx, idx+1)

	// removing an entry can not introduce a cycle
	s.ordered, _ = s.order(s.entries)
}

// RemoveOwner cancels all entries owned by the given system type.
func (s *stage) RemoveOwner(owner reflect.Type) {
	for _, entry := range slices.Clone(s.entries) {
		if entry.owner == owner {
			entry.subscription.Cancel()
		}
	}
}

func (s *stage) Len() int {
	return len(s.entries)
}

// Close cancels every entry and the subscription to the scheduler.
func (s *stage) Close() {
	for _, entry := range slices.Clone(s.entries) {
		entry.subscription.Cancel()
	}

	s.subscription.Cancel()
}

// order sorts the entries topologically using Kahn's algorithm. If more than one
// entry is ready, the one registered first is taken.
func (s *stage) order(entries []*stageEntry) ([]*stageEntry, error) {
	successors := make([][]int, len(entries))
	inDegree := make([]int, len(entries))

	for a, entryA := range entries {
		for b, entryB := range entries {
			if a != b && entryA.precedes(entryB) {
				successors[a] = append(successors[a], b)
				inDegree[b]++
			}
		}
	}

	// entries are kept in registration order, so the lowest index is the oldest entry
	var ready set.Set[int]
	for idx, degree := range inDegree {
		if degree == 0 {
			ready.Insert(idx)
		}
	}

	result := make([]*stageEntry, 0, len(entries))
	for ready.Len() > 0 {
		curr := ready.TakeLowest(1)[0]
		result = append(result, entries[curr])

		for _, next := range successors[curr] {
			inDegree[next]--

			if inDegree[next] == 0 {
				ready.Insert(next)
			}
		}
	}

	// check for cycles
	if len(result) != len(entries) {
		var owners set.Set[string]
		for idx, degree := range inDegree {
			if degree > 0 {
				owners.Insert(systemName(entries[idx].owner))
			}
		}

		return nil, &OrderingError{Phase: s.phase, Owners: owners.Sorted()}
	}

	return result, nil
}

// warnConflicts logs pairs of entries that access the same component type, at least
// one of them writing, without an ordering constraint between them.
func (s *stage) warnConflicts() {
	ordered := s.ordered

	// reachable[a][b] is true if a is ordered before b by a chain of constraints.
	reachable := make([][]bool, len(ordered))
	for idx := len(ordered) - 1; idx >= 0; idx-- {
		reachable[idx] = make([]bool, len(ordered))

		for next := idx + 1; next < len(ordered); next++ {
			if !ordered[idx].precedes(ordered[next]) {
				continue
			}

			reachable[idx][next] = true
			for transitive, ok := range reachable[next] {
				if ok {
					reachable[idx][transitive] = true
				}
			}
		}
	}

	for a := range ordered {
		for b := a + 1; b < len(ordered); b++ {
			if reachable[a][b] || !ordered[a].conflictsWith(ordered[b]) {
				continue
			}

			s.log.Warn("Unordered listeners access the same component",
				zap.Stringer("phase", s.phase),
				zap.String("first", systemName(ordered[a].owner)),
				zap.String("second", systemName(ordered[b].owner)),
			)
		}
	}
}
