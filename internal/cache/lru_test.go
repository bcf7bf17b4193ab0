// internal/cache/lru_test.go
package cache

import (
	"strconv"
	"sync"
	"testing"
)

func TestLRUEvictsOldest(t *testing.T) {
	c := New(2)
	c.Add("a", 1)
	c.Add("b", 2)
	c.Add("c", 3) // evicts "a"

	if _, ok := c.Get("a"); ok {
		t.Fatal("oldest entry survived past capacity")
	}
	if v, ok := c.Get("b"); !ok || v.(int) != 2 {
		t.Fatalf("Get(b) = %v, %v", v, ok)
	}
	if c.Len() != 2 {
		t.Fatalf("Len = %d, want 2", c.Len())
	}
}

func TestLRUGetRefreshesRecency(t *testing.T) {
	c := New(2)
	c.Add("a", 1)
	c.Add("b", 2)
	c.Get("a")    // "a" becomes MRU
	c.Add("c", 3) // evicts "b"

	if _, ok := c.Get("b"); ok {
		t.Fatal("expected b evicted after a was refreshed")
	}
	if _, ok := c.Get("a"); !ok {
		t.Fatal("refreshed entry was evicted")
	}
}

func TestLRUUpdateKeepsSingleEntry(t *testing.T) {
	c := New(2)
	c.Add("a", 1)
	c.Add("a", 9)

	if c.Len() != 1 {
		t.Fatalf("Len = %d, want 1", c.Len())
	}
	if v, _ := c.Get("a"); v.(int) != 9 {
		t.Fatalf("Get(a) = %v, want 9", v)
	}
}

func TestLRURemoveAndPurge(t *testing.T) {
	c := New(4)
	c.Add("a", 1)
	c.Add("b", 2)
	c.Remove("a")
	if _, ok := c.Get("a"); ok {
		t.Fatal("removed key still present")
	}
	c.Purge()
	if c.Len() != 0 {
		t.Fatalf("Len after Purge = %d", c.Len())
	}
}

func TestLRUConcurrentAccess(t *testing.T) {
	c := New(64)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := "k" + strconv.Itoa(i%100)
				c.Add(key, g)
				c.Get(key)
			}
		}(g)
	}
	wg.Wait()

	if c.Len() > 64 {
		t.Fatalf("Len = %d exceeds capacity", c.Len())
	}
}
