package unionfind

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStartsWithNSingletons(t *testing.T) {
	uf := New(5)
	assert.Equal(t, 5, uf.NumComponents())
	assert.Equal(t, 5, len(uf.Components()))
}

func TestUnionDecreasesComponentsMonotonically(t *testing.T) {
	uf := New(6)
	prev := uf.NumComponents()
	for _, pair := range [][2]int{{0, 1}, {1, 2}, {3, 4}, {0, 2}} {
		uf.Union(pair[0], pair[1])
		require.LessOrEqual(t, uf.NumComponents(), prev)
		prev = uf.NumComponents()
	}
	assert.True(t, uf.Connected(0, 2))
	assert.False(t, uf.Connected(0, 5))
}

func TestComponentsPartitionElements(t *testing.T) {
	uf := New(10)
	uf.Union(0, 1)
	uf.Union(1, 2)
	uf.Union(5, 6)

	comps := uf.Components()
	assert.Equal(t, uf.NumComponents(), len(comps))

	seen := make(map[int]bool)
	total := 0
	for _, c := range comps {
		for _, e := range c {
			assert.False(t, seen[e], "element %d appeared in more than one component", e)
			seen[e] = true
			total++
		}
	}
	assert.Equal(t, 10, total)
}

func TestConnectedReflectsUnionPath(t *testing.T) {
	uf := New(5)
	uf.Union(0, 1)
	uf.Union(1, 2)
	assert.True(t, uf.Connected(0, 2))
	assert.False(t, uf.Connected(2, 3))
	uf.Union(2, 3)
	assert.True(t, uf.Connected(0, 3))
}

func TestComponentMappingSharesSliceAcrossMembers(t *testing.T) {
	uf := New(4)
	uf.Union(0, 1)
	uf.Union(2, 3)
	mapping := uf.ComponentMapping()

	c0 := append([]int{}, mapping[0]...)
	c1 := append([]int{}, mapping[1]...)
	sort.Ints(c0)
	sort.Ints(c1)
	assert.Equal(t, c0, c1)
}

func TestAddGrowsTrackedRange(t *testing.T) {
	uf := New(2)
	assert.False(t, uf.Contains(5))
	uf.Add(5)
	assert.True(t, uf.Contains(5))
	assert.Equal(t, 6, uf.Len())
}
