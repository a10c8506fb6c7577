package cache

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNilCache(t *testing.T) {
	c, err := New[[]int](0, cloneInts)
	require.NoError(t, err)
	require.Nil(t, c)

	c.Put(1, []int{1})
	c.Add(1, []int{1})
	c.Del(1)
	c.Clear()
	c.Close()
	_, ok := c.Get(1)
	require.False(t, ok)
}

func TestPutGetClones(t *testing.T) {
	c, err := New[[]int](16, cloneInts)
	require.NoError(t, err)
	defer c.Close()

	v := []int{1, 2, 3}
	c.Put(7, v)
	v[0] = 100

	got, ok := c.Get(7)
	require.True(t, ok)
	require.Equal(t, []int{1, 2, 3}, got)

	got[1] = 200
	again, ok := c.Get(7)
	require.True(t, ok)
	require.Equal(t, []int{1, 2, 3}, again)
}

func TestPutReplacesAndDel(t *testing.T) {
	c, err := New[[]int](16, cloneInts)
	require.NoError(t, err)
	defer c.Close()

	c.Put(1, []int{1})
	c.Put(1, []int{2})
	got, ok := c.Get(1)
	require.True(t, ok)
	require.Equal(t, []int{2}, got)

	c.Del(1)
	_, ok = c.Get(1)
	require.False(t, ok)
}

func TestPutAfterPendingAdd(t *testing.T) {
	c, err := New[[]int](64, cloneInts)
	require.NoError(t, err)
	defer c.Close()

	for id := uint32(0); id < 200; id++ {
		c.Add(id, []int{int(id)})
		c.Put(id, []int{int(id) + 1000})

		got, ok := c.Get(id)
		if ok {
			require.Equal(t, []int{int(id) + 1000}, got, "id %d", id)
		}
	}
}

func TestPutAfterAddIsVisible(t *testing.T) {
	c, err := New[[]int](16, cloneInts)
	require.NoError(t, err)
	defer c.Close()

	c.Add(3, []int{1})
	c.Put(3, []int{2})

	got, ok := c.Get(3)
	require.True(t, ok)
	require.Equal(t, []int{2}, got)
}

func cloneInts(v []int) []int { return slices.Clone(v) }
