package spoke

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQuery_Intersection(t *testing.T) {
	m := NewManager()

	const a, b, c EntityId = 1, 2, 3

	Attach(m, a, Position{X: 1})
	Attach(m, a, Velocity{X: 10})
	Attach(m, b, Position{X: 2})
	Attach(m, c, Velocity{X: 30})

	result := Query2[Position, Velocity](m)

	require.Equal(t, 1, result.Count)
	require.Equal(t, []EntityId{a}, result.Entities)
	require.Equal(t, []Position{{X: 1}}, result.A)
	require.Equal(t, []Velocity{{X: 10}}, result.B)
}

func TestQuery_AlignedAndAscending(t *testing.T) {
	m := NewManager()

	// attach in an order that differs from entity order and slot order
	for _, entity := range []EntityId{9, 3, 7, 1, 5} {
		Attach(m, entity, Health{Value: int(entity)})
	}

	for _, entity := range []EntityId{5, 1, 9, 2} {
		Attach(m, entity, Position{X: float64(entity)})
	}

	result := Query2[Position, Health](m)

	require.Equal(t, []EntityId{1, 5, 9}, result.Entities)
	for idx, entity := range result.Entities {
		require.Equal(t, float64(entity), result.A[idx].X)
		require.Equal(t, int(entity), result.B[idx].Value)
	}
}

func TestQuery_MissingContainer(t *testing.T) {
	m := NewManager()
	Attach(m, 1, Position{})

	result := Query2[Position, Velocity](m)
	require.Equal(t, 0, result.Count)
	require.Empty(t, result.Entities)

	// querying must not create containers
	require.Nil(t, m.Container(TypeIdOf[Velocity]()))
}

func TestQuery_ThreeAndFourTypes(t *testing.T) {
	m := NewManager()

	type Tag struct{}

	for entity := EntityId(1); entity <= 6; entity++ {
		Attach(m, entity, Position{X: float64(entity)})

		if entity%2 == 0 {
			Attach(m, entity, Velocity{})
		}

		if entity%3 == 0 {
			Attach(m, entity, Health{})
		}

		if entity > 5 {
			Attach(m, entity, Tag{})
		}
	}

	require.Equal(t, []EntityId{6}, Query3[Position, Velocity, Health](m).Entities)
	require.Equal(t, 1, Query4[Tag, Position, Velocity, Health](m).Count)
	require.Equal(t, 6, Query1[Position](m).Count)
}

func TestQuery_CacheInvalidation(t *testing.T) {
	m := NewManager()

	Attach(m, 1, Position{})
	Attach(m, 1, Velocity{})

	require.Equal(t, 1, Query2[Position, Velocity](m).Count)
	require.Equal(t, 1, Query2[Velocity, Position](m).Count)

	hits, _ := m.CacheStats()
	require.Equal(t, 1, hits)

	// values are read fresh even if the entity set is cached
	Set(m, 1, Position{X: 4})
	require.Equal(t, 4.0, Query2[Position, Velocity](m).A[0].X)

	Attach(m, 2, Position{})
	Attach(m, 2, Velocity{})
	require.Equal(t, []EntityId{1, 2}, Query2[Position, Velocity](m).Entities)

	Detach[Velocity](m, 1)
	require.Equal(t, []EntityId{2}, Query2[Position, Velocity](m).Entities)
}

func TestQuery_ResultIsSnapshot(t *testing.T) {
	m := NewManager()
	Attach(m, 1, Position{X: 1})

	result := Query1[Position](m)
	result.Entities[0] = 99
	result.A[0].X = 99

	require.Equal(t, []EntityId{1}, Query1[Position](m).Entities)
	require.Equal(t, 1.0, Get[Position](m, 1).X)
}
