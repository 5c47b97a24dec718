package set

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetBasics(t *testing.T) {
	s := New[string](8)

	assert.True(t, s.Add("alpha"))
	assert.False(t, s.Add("alpha"))
	assert.Equal(t, 2, s.AddAll("beta", "gamma", "alpha"))
	assert.Equal(t, 3, s.Len())
	assert.True(t, s.Contains("beta"))

	s.Remove("beta")
	assert.False(t, s.Contains("beta"))
	assert.Equal(t, 2, s.Len())
}

func TestSetOrdinalComparison(t *testing.T) {
	s := New[string](4)
	s.Add("Panel")

	assert.False(t, s.Contains("panel"))
	// precomposed vs decomposed e-acute are distinct byte sequences
	s.Add("\u00e9")
	assert.False(t, s.Contains("e\u0301"))
}

func TestSetClearKeepsCapacity(t *testing.T) {
	s := New[int](64)
	for i := 0; i < 10; i++ {
		s.Add(i)
	}

	s.Clear()

	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 64, s.Cap())
}

func TestSetGrow(t *testing.T) {
	s := New[string](2)
	s.AddAll("a", "b")

	s.Grow(1)
	assert.Equal(t, 2, s.Cap())

	s.Grow(100)
	assert.Equal(t, 100, s.Cap())
	assert.Equal(t, 2, s.Len())
	assert.True(t, s.Contains("a"))
	assert.True(t, s.Contains("b"))
}

func TestSetCapReflectsOverflow(t *testing.T) {
	s := New[int](2)
	s.AddAll(1, 2, 3, 4)
	assert.Equal(t, 4, s.Cap())
}

func TestSetEachStopsEarly(t *testing.T) {
	s := New[int](8)
	s.AddAll(1, 2, 3, 4, 5)

	visited := 0
	s.Each(func(int) bool {
		visited++
		return visited < 2
	})
	assert.Equal(t, 2, visited)
}

func TestSetToSliceAndClone(t *testing.T) {
	s := New[string](4)
	s.AddAll("x", "y")

	c := s.Clone()
	s.Clear()

	got := c.ToSlice()
	sort.Strings(got)
	require.Equal(t, []string{"x", "y"}, got)
	assert.Equal(t, 0, s.Len())
}

type dockable struct {
	id    string
	group int
}

func TestSetOfStructs(t *testing.T) {
	s := New[dockable](4)
	s.Add(dockable{id: "explorer", group: 1})

	assert.True(t, s.Contains(dockable{id: "explorer", group: 1}))
	assert.False(t, s.Contains(dockable{id: "explorer", group: 2}))
}
