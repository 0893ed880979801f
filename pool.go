package cadence

import (
	"fmt"
	"slices"

	"github.com/oliverbestmann/cadence/internal/assert"
	"github.com/oliverbestmann/cadence/internal/set"
	"github.com/oliverbestmann/cadence/spoke"
	"go.uber.org/zap"
)

const (
	DefaultInitialEntities = 256
	DefaultEntitySlack     = 128
)

type PoolOptions struct {
	// Initial is the number of entity ids issued when the pool is created.
	Initial int

	// Slack is the number of additional ids issued whenever the pool has to grow.
	Slack int

	Logger *zap.Logger
}

func (o PoolOptions) withDefaults() PoolOptions {
	if o.Initial == 0 {
		o.Initial = DefaultInitialEntities
	}

	if o.Slack == 0 {
		o.Slack = DefaultEntitySlack
	}

	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}

	return o
}

// EntityPool issues entity ids to worlds. Every id the pool ever issued is
// either held in the reservoir of the pool or owned by exactly one World.
// The pool grows on demand and never shrinks.
type EntityPool struct {
	reservoir set.Set[spoke.EntityId]

	// ids 1 to lastIssued have been issued
	lastIssued spoke.EntityId

	slack  int
	worlds []*World
	log    *zap.Logger
}

func NewEntityPool(opts PoolOptions) *EntityPool {
	opts = opts.withDefaults()

	assert.NonNegative("initial entities", opts.Initial)
	assert.NonNegative("entity slack", opts.Slack)

	p := &EntityPool{slack: opts.Slack, log: opts.Logger}
	p.grow(opts.Initial)

	return p
}

// NewWorld creates a new World that receives its entities from this pool and is
// driven by the given scheduler.
func (p *EntityPool) NewWorld(name string, scheduler *Scheduler) *World {
	assert.That(scheduler != nil, "scheduler must not be nil")

	world := newWorld(name, p, scheduler)
	p.worlds = append(p.worlds, world)

	return world
}

// RequestEntities transfers count ids from the reservoir to the world.
// If the reservoir holds less than count ids, it grows first.
// The ids are returned in ascending order.
func (p *EntityPool) RequestEntities(world *World, count int) []spoke.EntityId {
	assert.NonNegative("entity count", count)
	assert.That(world.pool == p, "world %q does not belong to this pool", world.name)
	world.ensureOpen()

	if available := p.reservoir.Len(); available < count {
		p.grow(count - available + p.slack)
	}

	batch := p.reservoir.TakeLowest(count)
	world.ReceiveEntities(batch)

	return batch
}

// ReturnEntities puts the ids back into the reservoir. None of the ids may be
// owned by a world at this time.
func (p *EntityPool) ReturnEntities(batch []spoke.EntityId) {
	var seen set.Set[spoke.EntityId]

	// validate the full batch first, so a failed return does not leave it half merged
	for _, entity := range batch {
		switch {
		case entity == spoke.NoEntity || entity > p.lastIssued:
			panic(&OwnershipError{Entity: entity, Reason: "was never issued by the pool"})

		case p.reservoir.Has(entity) || !seen.Insert(entity):
			panic(&OwnershipError{Entity: entity, Reason: "was already returned to the pool"})
		}

		if owner := p.ownerOf(entity); owner != nil {
			panic(&OwnershipError{Entity: entity, Reason: fmt.Sprintf("is still owned by world %q", owner.name)})
		}
	}

	p.reservoir.InsertAll(batch)
}

// validateTransfer checks that every id of the batch was issued and is neither
// held by the reservoir nor owned by a world, which is only true for a batch
// taken from the reservoir by RequestEntities.
func (p *EntityPool) validateTransfer(batch []spoke.EntityId) {
	var seen set.Set[spoke.EntityId]

	for _, entity := range batch {
		switch {
		case entity == spoke.NoEntity || entity > p.lastIssued:
			panic(&OwnershipError{Entity: entity, Reason: "was never issued by the pool"})

		case p.reservoir.Has(entity):
			panic(&OwnershipError{Entity: entity, Reason: "was not requested from the pool"})

		case !seen.Insert(entity):
			panic(&OwnershipError{Entity: entity, Reason: "is received twice in the same batch"})
		}

		if owner := p.ownerOf(entity); owner != nil {
			panic(&OwnershipError{Entity: entity, Reason: fmt.Sprintf("is already owned by world %q", owner.name)})
		}
	}
}

// Available returns the number of ids in the reservoir.
func (p *EntityPool) Available() int {
	return p.reservoir.Len()
}

// Issued returns the number of ids ever issued by the pool.
func (p *EntityPool) Issued() int {
	return int(p.lastIssued)
}

func (p *EntityPool) Worlds() []*World {
	return slices.Clone(p.worlds)
}

// Close closes all worlds created by this pool, returning their entities.
func (p *EntityPool) Close() {
	for _, world := range slices.Clone(p.worlds) {
		world.Close()
	}
}

func (p *EntityPool) grow(count int) {
	for range count {
		p.lastIssued++
		p.reservoir.Insert(p.lastIssued)
	}

	p.log.Debug("Entity pool grown",
		zap.Int("added", count),
		zap.Int("issued", p.Issued()),
		zap.Int("available", p.Available()),
	)
}

func (p *EntityPool) ownerOf(entity spoke.EntityId) *World {
	for _, world := range p.worlds {
		if world.Owns(entity) {
			return world
		}
	}

	return nil
}

func (p *EntityPool) unregister(world *World) {
	p.worlds = slices.DeleteFunc(p.worlds, func(w *World) bool { return w == world })
}
