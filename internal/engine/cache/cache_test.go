package cache

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/michaelrgeary/holydrop-bible-app-sub000/pkg/config"
)

func testCache(capacity int, ttl time.Duration) *Cache {
	return New(config.CacheConfig{Capacity: capacity, TTL: ttl}, nil)
}

func TestCacheGetPut(t *testing.T) {
	c := testCache(10, time.Minute)
	if _, ok := c.Get("missing"); ok {
		t.Fatal("expected miss on empty cache")
	}
	c.put("a", "value-a")
	v, ok := c.Get("a")
	if !ok || v.(string) != "value-a" {
		t.Fatalf("Get(a) = %v, %v; want value-a, true", v, ok)
	}
}

// TestCacheLRUEviction fills the cache past capacity and checks the least
// recently used entry goes first.
func TestCacheLRUEviction(t *testing.T) {
	c := testCache(3, time.Minute)
	c.put("a", 1)
	c.put("b", 2)
	c.put("c", 3)

	// Touch "a" so "b" becomes the eviction candidate.
	c.Get("a")
	c.put("d", 4)

	if _, ok := c.Get("b"); ok {
		t.Fatal("expected 'b' to be evicted as least recently used")
	}
	for _, key := range []string{"a", "c", "d"} {
		if _, ok := c.Get(key); !ok {
			t.Errorf("expected %q to survive eviction", key)
		}
	}
	if c.Len() != 3 {
		t.Fatalf("Len() = %d, want capacity 3", c.Len())
	}
	if got := c.Stats().Evictions; got != 1 {
		t.Fatalf("Evictions = %d, want 1", got)
	}
}

// TestCacheTTLExpiry verifies entries older than the TTL read as misses and
// are dropped.
func TestCacheTTLExpiry(t *testing.T) {
	c := testCache(10, 5*time.Minute)
	now := time.Now()
	c.now = func() time.Time { return now }

	c.put("a", 1)
	now = now.Add(4 * time.Minute)
	if _, ok := c.Get("a"); !ok {
		t.Fatal("entry expired before its TTL")
	}

	now = now.Add(2 * time.Minute)
	if _, ok := c.Get("a"); ok {
		t.Fatal("entry survived past its TTL")
	}
	if c.Len() != 0 {
		t.Fatalf("Len() = %d, want 0 after expiry", c.Len())
	}
}

func TestCacheGetOrCompute(t *testing.T) {
	c := testCache(10, time.Minute)
	calls := 0
	compute := func() (any, error) {
		calls++
		return "computed", nil
	}

	v, hit, err := c.GetOrCompute("k", compute)
	if err != nil || hit || v.(string) != "computed" {
		t.Fatalf("first call = %v, %v, %v; want computed, false, nil", v, hit, err)
	}
	v, hit, err = c.GetOrCompute("k", compute)
	if err != nil || !hit || v.(string) != "computed" {
		t.Fatalf("second call = %v, %v, %v; want computed, true, nil", v, hit, err)
	}
	if calls != 1 {
		t.Fatalf("compute ran %d times, want 1", calls)
	}
}

// TestCacheGetOrComputeError verifies errors are returned and never cached.
func TestCacheGetOrComputeError(t *testing.T) {
	c := testCache(10, time.Minute)
	boom := errors.New("boom")
	_, _, err := c.GetOrCompute("k", func() (any, error) { return nil, boom })
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want boom", err)
	}
	v, _, err := c.GetOrCompute("k", func() (any, error) { return "ok", nil })
	if err != nil || v.(string) != "ok" {
		t.Fatalf("after error = %v, %v; want ok, nil", v, err)
	}
}

// TestCacheSingleflight verifies concurrent callers for one key share a
// single computation.
func TestCacheSingleflight(t *testing.T) {
	c := testCache(10, time.Minute)
	var calls atomic.Int32
	release := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, _, err := c.GetOrCompute("shared", func() (any, error) {
				calls.Add(1)
				<-release
				return "shared-value", nil
			})
			if err != nil || v.(string) != "shared-value" {
				t.Errorf("GetOrCompute = %v, %v", v, err)
			}
		}()
	}
	// Give the goroutines a moment to pile onto the flight, then release.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Fatalf("compute ran %d times, want 1", got)
	}
}

func TestCacheInvalidate(t *testing.T) {
	c := testCache(10, time.Minute)
	for i := 0; i < 5; i++ {
		c.put(fmt.Sprintf("k%d", i), i)
	}
	if dropped := c.Invalidate(); dropped != 5 {
		t.Fatalf("Invalidate() = %d, want 5", dropped)
	}
	if c.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", c.Len())
	}
}

func TestCacheStats(t *testing.T) {
	c := testCache(10, time.Minute)
	c.put("a", 1)
	c.Get("a")
	c.Get("a")
	c.Get("missing")

	s := c.Stats()
	if s.Hits != 2 || s.Misses != 1 {
		t.Fatalf("stats = %+v, want 2 hits, 1 miss", s)
	}
	if s.Size != 1 || s.Capacity != 10 {
		t.Fatalf("stats = %+v, want size 1, capacity 10", s)
	}
	wantRate := 2.0 / 3.0
	if diff := s.HitRate - wantRate; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("HitRate = %v, want %v", s.HitRate, wantRate)
	}
}
