package cache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryCache_GetOrCompute(t *testing.T) {
	c := NewQueryCache(10, time.Minute)
	calls := 0
	compute := func() ([]string, error) {
		calls++
		return []string{"a", "b"}, nil
	}

	v, hit, err := GetOrCompute(c, "k", compute)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, []string{"a", "b"}, v)

	v, hit, err = GetOrCompute(c, "k", compute)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []string{"a", "b"}, v)
	assert.Equal(t, 1, calls)
}

func TestQueryCache_Invalidate(t *testing.T) {
	c := NewQueryCache(10, time.Minute)
	calls := 0
	compute := func() (int, error) {
		calls++
		return calls, nil
	}

	v, _, _ := GetOrCompute(c, "k", compute)
	assert.Equal(t, 1, v)

	c.Invalidate()
	assert.Equal(t, 0, c.Size())

	v, hit, _ := GetOrCompute(c, "k", compute)
	assert.False(t, hit)
	assert.Equal(t, 2, v)
}

func TestQueryCache_ResultFromOldGenerationNotStored(t *testing.T) {
	c := NewQueryCache(10, time.Minute)

	_, _, err := GetOrCompute(c, "k", func() (int, error) {
		c.Invalidate()
		return 1, nil
	})
	require.NoError(t, err)

	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestQueryCache_ErrorsNotCached(t *testing.T) {
	c := NewQueryCache(10, time.Minute)
	boom := errors.New("boom")

	_, _, err := GetOrCompute(c, "k", func() (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)

	v, hit, err := GetOrCompute(c, "k", func() (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 7, v)
}

func TestQueryCache_TTL(t *testing.T) {
	c := NewQueryCache(10, time.Millisecond)
	_, _, _ = GetOrCompute(c, "k", func() (int, error) { return 1, nil })
	time.Sleep(5 * time.Millisecond)

	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestQueryCache_Eviction(t *testing.T) {
	c := NewQueryCache(2, time.Minute)
	for _, k := range []string{"a", "b", "c"} {
		_, _, _ = GetOrCompute(c, k, func() (string, error) { return k, nil })
	}
	assert.Equal(t, 2, c.Size())
	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestQueryCache_ConcurrentComputeOnce(t *testing.T) {
	c := NewQueryCache(10, time.Minute)
	var calls atomic.Int32
	release := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, _, err := GetOrCompute(c, "k", func() (int, error) {
				calls.Add(1)
				<-release
				return 42, nil
			})
			assert.NoError(t, err)
			assert.Equal(t, 42, v)
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.LessOrEqual(t, calls.Load(), int32(8))
	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, 42, v)
}
