package spoke

import (
	"slices"
)

// Entities returns the entities that have a component of every given type, in
// ascending order. The result is empty if any of the types has no container.
//
// The intersection walks the smallest container and probes the others,
// so the cost is bound by the size of the smallest container.
func (m *Manager) Entities(typeIds ...TypeId) []EntityId {
	m.ensureOpen()

	if len(typeIds) == 0 {
		return nil
	}

	if cached, ok := m.cache.Lookup(m, typeIds); ok {
		return slices.Clone(cached)
	}

	containers := make([]AnyContainer, 0, len(typeIds))
	for _, typeId := range typeIds {
		container := m.lookup(typeId)
		if container == nil {
			return nil
		}

		containers = append(containers, container)
	}

	// probe the larger containers with the entities of the smallest one
	slices.SortStableFunc(containers, func(a, b AnyContainer) int {
		return a.Len() - b.Len()
	})

	smallest, others := containers[0], containers[1:]

	entities := make([]EntityId, 0, smallest.Len())

outer:
	for entity := range smallest.keys() {
		for _, other := range others {
			if !other.Has(entity) {
				continue outer
			}
		}

		entities = append(entities, entity)
	}

	slices.Sort(entities)

	m.cache.Store(m, typeIds, entities)

	return slices.Clone(entities)
}

// CacheStats returns the number of cache hits and misses of Entities.
func (m *Manager) CacheStats() (hits, misses int) {
	return m.cache.Hits, m.cache.Misses
}

// Result1 is the result of Query1. The value slices are index aligned with Entities.
// Results are snapshots and must not be kept across attaches or detaches.
type Result1[A any] struct {
	Count    int
	Entities []EntityId
	A        []A
}

type Result2[A, B any] struct {
	Count    int
	Entities []EntityId
	A        []A
	B        []B
}

type Result3[A, B, C any] struct {
	Count    int
	Entities []EntityId
	A        []A
	B        []B
	C        []C
}

type Result4[A, B, C, D any] struct {
	Count    int
	Entities []EntityId
	A        []A
	B        []B
	C        []C
	D        []D
}

func Query1[A any](m *Manager) Result1[A] {
	entities := m.Entities(TypeIdOf[A]())

	return Result1[A]{
		Count:    len(entities),
		Entities: entities,
		A:        gather[A](m, entities),
	}
}

func Query2[A, B any](m *Manager) Result2[A, B] {
	entities := m.Entities(TypeIdOf[A](), TypeIdOf[B]())

	return Result2[A, B]{
		Count:    len(entities),
		Entities: entities,
		A:        gather[A](m, entities),
		B:        gather[B](m, entities),
	}
}

func Query3[A, B, C any](m *Manager) Result3[A, B, C] {
	entities := m.Entities(TypeIdOf[A](), TypeIdOf[B](), TypeIdOf[C]())

	return Result3[A, B, C]{
		Count:    len(entities),
		Entities: entities,
		A:        gather[A](m, entities),
		B:        gather[B](m, entities),
		C:        gather[C](m, entities),
	}
}

func Query4[A, B, C, D any](m *Manager) Result4[A, B, C, D] {
	entities := m.Entities(TypeIdOf[A](), TypeIdOf[B](), TypeIdOf[C](), TypeIdOf[D]())

	return Result4[A, B, C, D]{
		Count:    len(entities),
		Entities: entities,
		A:        gather[A](m, entities),
		B:        gather[B](m, entities),
		C:        gather[C](m, entities),
		D:        gather[D](m, entities),
	}
}

func gather[C any](m *Manager, entities []EntityId) []C {
	if len(entities) == 0 {
		return nil
	}

	container := existingContainerOf[C](m)

	values := make([]C, len(entities))
	for idx, entity := range entities {
		values[idx] = container.Get(entity)
	}

	return values
}
