package cache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, capacity int) *Cache {
	t.Helper()
	c, err := New(capacity, zerolog.Nop())
	require.NoError(t, err)
	return c
}

func TestFingerprintDeterministic(t *testing.T) {
	a := Fingerprint("extract", "doc1", map[string]int{"pages": 3})
	b := Fingerprint("extract", "doc1", map[string]int{"pages": 3})
	assert.Equal(t, a, b)

	c := Fingerprint("extract", "doc2", map[string]int{"pages": 3})
	assert.NotEqual(t, a, c)

	d := Fingerprint("clean", "doc1", map[string]int{"pages": 3})
	assert.NotEqual(t, a, d, "operation name must separate keyspaces")
}

func TestGetPut(t *testing.T) {
	c := newTestCache(t, 4)

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Put("k", "v")
	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", v)

	c.Remove("k")
	_, ok = c.Get("k")
	assert.False(t, ok)
}

func TestLRUEviction(t *testing.T) {
	c := newTestCache(t, 2)

	c.Put("a", 1)
	c.Put("b", 2)
	c.Get("a") // refresh a
	c.Put("c", 3)

	_, ok := c.Get("b")
	assert.False(t, ok, "least recently used entry should be evicted")
	_, ok = c.Get("a")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
	assert.Equal(t, 2, c.Len())
}

func TestGetOrComputeSingleFlight(t *testing.T) {
	c := newTestCache(t, 8)

	var calls atomic.Int32
	release := make(chan struct{})
	compute := func(ctx context.Context) (any, error) {
		calls.Add(1)
		<-release
		return "result", nil
	}

	const n = 10
	var wg sync.WaitGroup
	results := make([]any, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, _, err := c.GetOrCompute(context.Background(), "shared", compute)
			require.NoError(t, err)
			results[i] = v
		}()
	}
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load(), "concurrent callers must share one computation")
	for _, v := range results {
		assert.Equal(t, "result", v)
	}

	// Subsequent call is a hit.
	v, hit, err := c.GetOrCompute(context.Background(), "shared", compute)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "result", v)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGetOrComputeErrorNotCached(t *testing.T) {
	c := newTestCache(t, 8)

	fail := true
	compute := func(ctx context.Context) (any, error) {
		if fail {
			return nil, fmt.Errorf("boom")
		}
		return 42, nil
	}

	_, _, err := c.GetOrCompute(context.Background(), "k", compute)
	require.Error(t, err)

	fail = false
	v, hit, err := c.GetOrCompute(context.Background(), "k", compute)
	require.NoError(t, err)
	assert.False(t, hit, "failed computation must not poison the cache")
	assert.Equal(t, 42, v)
}
