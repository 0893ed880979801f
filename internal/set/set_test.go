package set

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSet_TakeLowest(t *testing.T) {
	s := Of(5, 3, 9, 1, 7)

	require.Equal(t, []int{1, 3}, s.TakeLowest(2))
	require.Equal(t, 3, s.Len())
	require.False(t, s.Has(1))

	require.Equal(t, []int{5, 7, 9}, s.TakeLowest(10))
	require.Equal(t, 0, s.Len())
	require.Empty(t, s.TakeLowest(1))
}

func TestSet_TakeLowestSkipsRemoved(t *testing.T) {
	s := Of(1, 2, 3, 4)

	require.True(t, s.Remove(1))
	require.True(t, s.Remove(3))

	// inserted again after being removed
	require.True(t, s.Insert(1))

	require.Equal(t, []int{1, 2, 4}, s.TakeLowest(5))
	require.Equal(t, 0, s.Len())

	s.Insert(8)
	require.Equal(t, []int{8}, s.TakeLowest(1))
}

func TestSet_Compact(t *testing.T) {
	var s Set[int]
	for value := range 1000 {
		s.Insert(value)
	}

	for value := range 990 {
		s.Remove(value)
	}

	require.LessOrEqual(t, len(s.lowest), 2*s.Len()+32)
	require.Equal(t, []int{990, 991, 992}, s.TakeLowest(3))
	require.Equal(t, 7, s.Len())
}

func TestSet_Clear(t *testing.T) {
	s := Of("b", "a")
	s.Clear()

	require.Equal(t, 0, s.Len())
	require.Empty(t, s.TakeLowest(1))

	s.Insert("c")
	require.Equal(t, []string{"c"}, s.Sorted())
}
