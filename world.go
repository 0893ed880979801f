package cadence

import (
	"cmp"
	"fmt"
	"reflect"
	"slices"

	"github.com/oliverbestmann/cadence/components"
	"github.com/oliverbestmann/cadence/internal/assert"
	"github.com/oliverbestmann/cadence/internal/set"
	"github.com/oliverbestmann/cadence/spoke"
	"go.uber.org/zap"
)

// World owns a set of entities, the components attached to them and the systems
// operating on them. Worlds are created using EntityPool.NewWorld.
//
// A World is not safe for concurrent use.
type World struct {
	name      string
	pool      *EntityPool
	scheduler *Scheduler
	log       *zap.Logger

	entities   set.Set[spoke.EntityId]
	components *spoke.Manager

	systems       map[reflect.Type]*systemEntry
	activationSeq uint64

	stages [phaseCount]*stage

	closed bool
}

func newWorld(name string, pool *EntityPool, scheduler *Scheduler) *World {
	return &World{
		name:       name,
		pool:       pool,
		scheduler:  scheduler,
		log:        pool.log.With(zap.String("world", name)),
		components: spoke.NewManager(),
		systems:    map[reflect.Type]*systemEntry{},
	}
}

// ReceiveEntities adds the entities to the world and attaches the default
// components.EntityName to each of them. It is called by EntityPool.RequestEntities.
// Only ids the pool handed out for this transfer are accepted. Ids that are still in
// the reservoir, never issued or owned by a world panic with an OwnershipError, and
// the batch is rejected as a whole.
func (w *World) ReceiveEntities(batch []spoke.EntityId) {
	w.ensureOpen()
	w.pool.validateTransfer(batch)

	w.entities.InsertAll(batch)

	spoke.AttachRange(w.components, batch, components.EntityName{Name: components.DefaultEntityName})
}

// RequestEntities requests count new entities from the pool of this world.
func (w *World) RequestEntities(count int) []spoke.EntityId {
	return w.pool.RequestEntities(w, count)
}

// ReleaseEntities detaches all components of the entities and returns them to the pool.
func (w *World) ReleaseEntities(batch []spoke.EntityId) {
	w.ensureOpen()

	var seen set.Set[spoke.EntityId]
	for _, entity := range batch {
		if !w.entities.Has(entity) {
			panic(&OwnershipError{Entity: entity, Reason: fmt.Sprintf("is not owned by world %q", w.name)})
		}

		if !seen.Insert(entity) {
			panic(&OwnershipError{Entity: entity, Reason: "is released twice in the same batch"})
		}
	}

	w.components.ClearRange(batch)

	for _, entity := range batch {
		w.entities.Remove(entity)
	}

	w.pool.ReturnEntities(batch)
}

// On registers fn as a listener of the phase. Listeners of the same phase run in the
// order defined by their constraints, otherwise in registration order. The owner may
// be nil. Listeners owned by a system are cancelled when the system is retired.
//
// On panics with an OrderingError if the constraints form a cycle.
func (w *World) On(phase Phase, owner System, fn PhaseFunc, constraints ...Constraint) *Subscription {
	w.ensureOpen()
	assert.That(phase < phaseCount, "unknown phase %s", phase)

	if w.stages[phase] == nil {
		w.stages[phase] = newStage(w.scheduler, phase, w.log)
	}

	var ownerKey reflect.Type
	if owner != nil {
		ownerKey = systemKeyOf(owner)
	}

	return w.stages[phase].Add(ownerKey, fn, constraints)
}

// Close retires all active systems in reverse activation order, drops all components
// and returns the entities of the world to the pool. Closing twice does nothing.
func (w *World) Close() {
	if w.closed {
		return
	}

	type activeSystem struct {
		key   reflect.Type
		entry *systemEntry
	}

	var active []activeSystem
	for key, entry := range w.systems {
		if entry.state == SystemActive {
			active = append(active, activeSystem{key, entry})
		}
	}

	slices.SortFunc(active, func(a, b activeSystem) int {
		return cmp.Compare(b.entry.activation, a.entry.activation)
	})

	for _, system := range active {
		w.retireSystem(system.key, system.entry)
	}

	for idx, stage := range w.stages {
		if stage != nil {
			stage.Close()
			w.stages[idx] = nil
		}
	}

	w.closed = true

	w.components.Close()

	entities := w.entities.Sorted()
	w.entities.Clear()

	w.pool.ReturnEntities(entities)
	w.pool.unregister(w)

	w.log.Debug("World closed", zap.Int("returned", len(entities)))
}

func (w *World) Name() string {
	return w.name
}

func (w *World) Pool() *EntityPool {
	return w.pool
}

func (w *World) Components() *spoke.Manager {
	return w.components
}

func (w *World) Scheduler() *Scheduler {
	return w.scheduler
}

func (w *World) Callbacks() *Callbacks {
	return w.scheduler.Callbacks()
}

func (w *World) Logger() *zap.Logger {
	return w.log
}

// Len returns the number of entities owned by the world.
func (w *World) Len() int {
	return w.entities.Len()
}

func (w *World) Owns(entity spoke.EntityId) bool {
	return w.entities.Has(entity)
}

// Entities returns the entities owned by the world in ascending order.
func (w *World) Entities() []spoke.EntityId {
	return w.entities.Sorted()
}

func (w *World) Closed() bool {
	return w.closed
}

func (w *World) ensureOpen() {
	if w.closed {
		panic(ErrWorldClosed)
	}
}
