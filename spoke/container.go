package spoke

import (
	"iter"
	"maps"
	"slices"
)

// AnyContainer provides the type erased view on a Container that the Manager
// uses for operations spanning all component types.
type AnyContainer interface {
	ComponentType() *ComponentType

	Has(entity EntityId) bool

	// Remove detaches the component of the entity if one is attached
	// and reports whether it did so.
	Remove(entity EntityId) bool

	DetachAll()

	Len() int
	Free() int
	Allocated() int

	// Entities returns the mapped entities in ascending order.
	Entities() []EntityId

	// Version changes whenever the set of mapped entities changes.
	Version() uint64

	keys() iter.Seq[EntityId]
}

// Container stores the values of one component type in a dense slice.
// Each entity maps to one slot of the slice. Slots of detached entities
// are kept on a free list and are reused by later attaches, lowest index first.
//
// A Container is not safe for concurrent use.
type Container[T any] struct {
	componentType *ComponentType

	values  []T
	index   map[EntityId]int32
	free    freeList
	version uint64
}

var _ AnyContainer = (*Container[struct{}])(nil)

func NewContainer[T any]() *Container[T] {
	return &Container[T]{
		componentType: ComponentTypeOf[T](),
		index:         map[EntityId]int32{},
	}
}

func (c *Container[T]) ComponentType() *ComponentType {
	return c.componentType
}

// Attach maps the entity to a slot holding value. If the entity already has a
// value attached, the call is a no-op: the existing value is kept and returned.
func (c *Container[T]) Attach(entity EntityId, value T) T {
	if slot, ok := c.index[entity]; ok {
		return c.values[slot]
	}

	slot, ok := c.free.Pop()
	if ok {
		c.values[slot] = value
	} else {
		slot = int32(len(c.values))
		c.values = append(c.values, value)
	}

	c.index[entity] = slot
	c.version++

	return value
}

// AttachRange attaches the same value to all entities.
// Entities that already have a value keep their value.
func (c *Container[T]) AttachRange(entities []EntityId, value T) {
	for _, entity := range entities {
		c.Attach(entity, value)
	}
}

// AttachPairs attaches each value to its entity.
// Entities that already have a value keep their value.
func (c *Container[T]) AttachPairs(pairs map[EntityId]T) {
	// attach in entity order so slot assignment does not depend on map iteration
	for _, entity := range slices.Sorted(maps.Keys(pairs)) {
		c.Attach(entity, pairs[entity])
	}
}

// Set overwrites the value of an entity in place.
func (c *Container[T]) Set(entity EntityId, value T) {
	c.values[c.slotOf(entity)] = value
}

// SetPairs overwrites the value of each entity in the map.
func (c *Container[T]) SetPairs(pairs map[EntityId]T) {
	for entity, value := range pairs {
		c.Set(entity, value)
	}
}

// Get returns the value of an entity.
func (c *Container[T]) Get(entity EntityId) T {
	return c.values[c.slotOf(entity)]
}

// Ref returns a pointer into the dense storage. The pointer is only valid until
// the next attach to this container.
func (c *Container[T]) Ref(entity EntityId) *T {
	return &c.values[c.slotOf(entity)]
}

// Lookup returns the value of an entity, if any is attached.
func (c *Container[T]) Lookup(entity EntityId) (T, bool) {
	slot, ok := c.index[entity]
	if !ok {
		var tNil T
		return tNil, false
	}

	return c.values[slot], true
}

func (c *Container[T]) Has(entity EntityId) bool {
	_, ok := c.index[entity]
	return ok
}

// Detach releases the slot of the entity.
func (c *Container[T]) Detach(entity EntityId) {
	slot := c.slotOf(entity)

	delete(c.index, entity)
	c.free.Push(slot)
	c.version++
}

// DetachRange detaches every given entity. Each entity must have a value attached.
func (c *Container[T]) DetachRange(entities []EntityId) {
	for _, entity := range entities {
		c.Detach(entity)
	}
}

func (c *Container[T]) Remove(entity EntityId) bool {
	if !c.Has(entity) {
		return false
	}

	c.Detach(entity)
	return true
}

// DetachAll releases every slot. The dense storage keeps its capacity and its
// now stale values until the slots are reused.
func (c *Container[T]) DetachAll() {
	if len(c.index) == 0 {
		return
	}

	for _, slot := range c.index {
		c.free.Push(slot)
	}

	clear(c.index)
	c.version++
}

// Len returns the number of entities with a value attached.
func (c *Container[T]) Len() int {
	return len(c.index)
}

// Free returns the number of slots waiting for reuse.
func (c *Container[T]) Free() int {
	return c.free.Len()
}

// Allocated returns the number of slots in the dense storage.
func (c *Container[T]) Allocated() int {
	return len(c.values)
}

func (c *Container[T]) Entities() []EntityId {
	return slices.Sorted(maps.Keys(c.index))
}

func (c *Container[T]) Version() uint64 {
	return c.version
}

func (c *Container[T]) keys() iter.Seq[EntityId] {
	return maps.Keys(c.index)
}

func (c *Container[T]) slotOf(entity EntityId) int32 {
	slot, ok := c.index[entity]
	if !ok {
		panic(&ComponentNotFoundError{Entity: entity, Type: c.componentType})
	}

	return slot
}
