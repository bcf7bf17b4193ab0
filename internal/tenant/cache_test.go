// internal/tenant/cache_test.go
package tenant

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/mosaic-cms/mosaic/internal/config"
	"github.com/mosaic-cms/mosaic/internal/site"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// newTestCache returns a Cache whose loader is replaced by load.
func newTestCache(t *testing.T, cfg config.Tenant, load func(ctx context.Context, host string) (*Tenant, error)) *Cache {
	t.Helper()
	c := New(nil, nil, zap.NewNop().Sugar(), cfg)
	t.Cleanup(c.Close)
	c.loadFn = load
	return c
}

func fakeTenant(host string) *Tenant {
	rec := site.Record{Host: host, RouteVersion: 1}
	rec.ID = 1
	return &Tenant{Site: rec, Config: map[string]string{}}
}

func TestGetLoadsOnceAndCanonicalizesHost(t *testing.T) {
	var loads int32
	c := newTestCache(t, config.Tenant{}, func(_ context.Context, host string) (*Tenant, error) {
		atomic.AddInt32(&loads, 1)
		return fakeTenant(host), nil
	})

	for _, h := range []string{"acme.test", "ACME.test:8080", "acme.test"} {
		ten, err := c.Get(context.Background(), h)
		if err != nil {
			t.Fatalf("Get(%q): %v", h, err)
		}
		if ten.Host() != "acme.test" {
			t.Fatalf("Host() = %q", ten.Host())
		}
	}
	if n := atomic.LoadInt32(&loads); n != 1 {
		t.Fatalf("loader ran %d times, want 1", n)
	}
	if c.Len() != 1 {
		t.Fatalf("Len = %d, want 1", c.Len())
	}
}

func TestGetCollapsesConcurrentLoads(t *testing.T) {
	var loads int32
	c := newTestCache(t, config.Tenant{}, func(_ context.Context, host string) (*Tenant, error) {
		atomic.AddInt32(&loads, 1)
		time.Sleep(20 * time.Millisecond)
		return fakeTenant(host), nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Get(context.Background(), "acme.test"); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	if n := atomic.LoadInt32(&loads); n != 1 {
		t.Fatalf("loader ran %d times, want 1", n)
	}
}

func TestGetSurfacesLoaderErrors(t *testing.T) {
	c := newTestCache(t, config.Tenant{}, func(_ context.Context, host string) (*Tenant, error) {
		return nil, ErrUnknownHost
	})

	if _, err := c.Get(context.Background(), "nope.test"); !errors.Is(err, ErrUnknownHost) {
		t.Fatalf("err = %v, want ErrUnknownHost", err)
	}
	if c.Len() != 0 {
		t.Fatal("failed load was cached")
	}
}

func TestInvalidateForcesReload(t *testing.T) {
	var loads int32
	c := newTestCache(t, config.Tenant{}, func(_ context.Context, host string) (*Tenant, error) {
		atomic.AddInt32(&loads, 1)
		return fakeTenant(host), nil
	})

	if _, err := c.Get(context.Background(), "acme.test"); err != nil {
		t.Fatal(err)
	}
	c.Invalidate("ACME.test:443") // same canonical host
	if _, err := c.Get(context.Background(), "acme.test"); err != nil {
		t.Fatal(err)
	}
	if n := atomic.LoadInt32(&loads); n != 2 {
		t.Fatalf("loader ran %d times, want 2", n)
	}
}

func TestSweepEvictsIdleTenants(t *testing.T) {
	c := newTestCache(t, config.Tenant{IdleTTL: 10 * time.Minute}, func(_ context.Context, host string) (*Tenant, error) {
		return fakeTenant(host), nil
	})

	if _, err := c.Get(context.Background(), "acme.test"); err != nil {
		t.Fatal(err)
	}
	c.sweep(time.Now().Add(5 * time.Minute))
	if c.Len() != 1 {
		t.Fatal("fresh tenant evicted")
	}
	c.sweep(time.Now().Add(11 * time.Minute))
	if c.Len() != 0 {
		t.Fatal("idle tenant survived")
	}
}

func TestSweepEnforcesLRUCap(t *testing.T) {
	c := newTestCache(t, config.Tenant{MaxEntries: 2}, func(_ context.Context, host string) (*Tenant, error) {
		return fakeTenant(host), nil
	})

	base := time.Now()
	for i, h := range []string{"a.test", "b.test", "c.test"} {
		if _, err := c.Get(context.Background(), h); err != nil {
			t.Fatal(err)
		}
		// Pin distinct recency so the LRU order is deterministic.
		v, _ := c.m.Load(h)
		atomic.StoreInt64(&v.(*entry).lastSeen, base.Add(time.Duration(i)*time.Second).UnixNano())
	}

	c.sweep(base.Add(3 * time.Second))
	if c.Len() != 2 {
		t.Fatalf("Len = %d, want 2", c.Len())
	}
	if _, ok := c.m.Load("a.test"); ok {
		t.Fatal("least recently used tenant survived")
	}
}
