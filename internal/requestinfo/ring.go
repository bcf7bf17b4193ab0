// internal/requestinfo/ring.go
//
// Fixed-size buffer of recent request samples for the diagnostics
// dashboard.  The Enrich middleware appends one Sample per request; the
// diagnostics listener snapshots the buffer to render its "recent
// requests" table.  Samples are small value types, so holding the last
// couple hundred costs a few tens of kilobytes.
package requestinfo

import (
	"sync"
	"time"
)

// Sample is one row of the recent-requests table.
type Sample struct {
	Time    time.Time `json:"time"`
	Method  string    `json:"method"`
	Host    string    `json:"host"`
	Path    string    `json:"path"`
	IP      string    `json:"ip"`
	Country string    `json:"country"`
	Browser string    `json:"browser"`
	Device  string    `json:"device"`
	Bot     bool      `json:"bot"`
}

// Ring is a concurrency-safe circular buffer of Samples.
type Ring struct {
	mu   sync.Mutex
	buf  []Sample
	next int
	full bool
}

// NewRing returns a Ring holding the most recent n samples.
func NewRing(n int) *Ring {
	if n < 1 {
		n = 1
	}
	return &Ring{buf: make([]Sample, n)}
}

// Add records s, overwriting the oldest entry once the buffer is full.
func (r *Ring) Add(s Sample) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.buf[r.next] = s
	r.next++
	if r.next == len(r.buf) {
		r.next = 0
		r.full = true
	}
}

// Len reports how many samples the ring currently holds.
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.full {
		return len(r.buf)
	}
	return r.next
}

// Snapshot returns the stored samples, newest first.
func (r *Ring) Snapshot() []Sample {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Sample
	if r.full {
		out = make([]Sample, 0, len(r.buf))
	} else {
		out = make([]Sample, 0, r.next)
	}
	// Walk backwards from the slot before next, wrapping once when full.
	for i := r.next - 1; i >= 0; i-- {
		out = append(out, r.buf[i])
	}
	if r.full {
		for i := len(r.buf) - 1; i >= r.next; i-- {
			out = append(out, r.buf[i])
		}
	}
	return out
}

// recent is the process-wide ring the middleware feeds.
var recent = NewRing(128)

// Recent returns the latest request samples, newest first.
func Recent() []Sample { return recent.Snapshot() }
