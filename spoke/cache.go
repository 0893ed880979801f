package spoke

import (
	"slices"

	"github.com/TheBitDrifter/mask"
)

// maskBits is the number of component type ids a mask.Mask can represent.
const maskBits = 256

type cachedIntersection struct {
	typeIds  []TypeId
	versions []uint64
	entities []EntityId
}

// queryCache remembers the entity intersection of recently executed queries.
// An entry stays valid as long as none of its containers changed membership.
type queryCache struct {
	entries map[mask.Mask]*cachedIntersection

	Hits, Misses int
}

func (qc *queryCache) Reset() {
	clear(qc.entries)
}

func (qc *queryCache) Lookup(m *Manager, typeIds []TypeId) ([]EntityId, bool) {
	key, ok := maskOf(typeIds)
	if !ok {
		return nil, false
	}

	cached, ok := qc.entries[key]
	if !ok {
		qc.Misses++
		return nil, false
	}

	for idx, typeId := range cached.typeIds {
		container := m.lookup(typeId)
		if container == nil || container.Version() != cached.versions[idx] {
			qc.Misses++
			return nil, false
		}
	}

	qc.Hits++

	return cached.entities, true
}

func (qc *queryCache) Store(m *Manager, typeIds []TypeId, entities []EntityId) {
	key, ok := maskOf(typeIds)
	if !ok {
		return
	}

	unique := slices.Compact(slices.Sorted(slices.Values(typeIds)))

	versions := make([]uint64, len(unique))
	for idx, typeId := range unique {
		versions[idx] = m.lookup(typeId).Version()
	}

	if qc.entries == nil {
		qc.entries = map[mask.Mask]*cachedIntersection{}
	}

	qc.entries[key] = &cachedIntersection{
		typeIds:  unique,
		versions: versions,
		entities: entities,
	}
}

func maskOf(typeIds []TypeId) (mask.Mask, bool) {
	var key mask.Mask

	for _, typeId := range typeIds {
		if typeId >= maskBits {
			return key, false
		}

		key.Mark(uint32(typeId))
	}

	return key, true
}
