package cache

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetAndAdd(t *testing.T) {
	c, err := New[string, int](2, nil)
	require.NoError(t, err)

	_, ok := c.Get("a")
	assert.False(t, ok)

	c.Add("a", 1)
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestEvictionAtCapacity(t *testing.T) {
	var evicted []string
	c, err := New[string, int](2, func(key string, value int) {
		evicted = append(evicted, key)
	})
	require.NoError(t, err)

	c.Add("a", 1)
	c.Add("b", 2)
	c.Add("c", 3)

	assert.Equal(t, []string{"a"}, evicted)
	assert.Equal(t, 2, c.Len())

	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestRemoveRunsEvictListener(t *testing.T) {
	var evicted []string
	c, err := New[string, int](4, func(key string, value int) {
		evicted = append(evicted, key)
	})
	require.NoError(t, err)

	c.Add("a", 1)
	c.Remove("a")
	assert.Equal(t, []string{"a"}, evicted)
	assert.Equal(t, 0, c.Len())
}

func TestPurge(t *testing.T) {
	c, err := New[string, int](4, nil)
	require.NoError(t, err)
	c.Add("a", 1)
	c.Add("b", 2)
	c.Purge()
	assert.Equal(t, 0, c.Len())
}

func TestGetOrCreate(t *testing.T) {
	c, err := New[string, int](4, nil)
	require.NoError(t, err)

	calls := 0
	factory := func() (int, error) {
		calls++
		return 42, nil
	}

	v, err := c.GetOrCreate("a", factory)
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	v, err = c.GetOrCreate("a", factory)
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, 1, calls)
}

func TestGetOrCreateDoesNotCacheError(t *testing.T) {
	c, err := New[string, int](4, nil)
	require.NoError(t, err)

	boom := errors.New("boom")
	_, err = c.GetOrCreate("a", func() (int, error) { return 0, boom })
	require.ErrorIs(t, err, boom)

	_, ok := c.Get("a")
	assert.False(t, ok)
}
