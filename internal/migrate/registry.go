// internal/migrate/registry.go
//
// Ordered migration registry.
//
// Context
// -------
// Core schema migrations register here from init() (schema.go), and
// components may contribute their own through the component registry.  The
// runner consumes the merged, ID-sorted list.  IDs are zero-padded numeric
// prefixes plus a slug ("0004_pages"), so lexical order is application
// order.
//
// Every migration names a probe object.  The probe is what lets the runner
// decide, after an "already exists" collision, whether the schema really
// contains the migration's work and the history table simply never heard
// about it.  A migration without a probe cannot be recovered, only applied.
package migrate

import (
	"fmt"
	"sort"
	"sync"
)

// Probe names the database object whose existence proves a migration ran.
// Column is optional; when set, the probe checks for the column on Table
// instead of the table alone.  Column probes suit ALTER TABLE migrations.
type Probe struct {
	Table  string
	Column string
}

func (p Probe) zero() bool { return p.Table == "" }

// Migration is one schema change: an ID, the DDL statements to run, and the
// probe that verifies its effect.
type Migration struct {
	ID         string
	Statements []string
	Probe      Probe
}

var (
	regMu    sync.Mutex
	registry = map[string]Migration{}
)

// Register adds a migration to the global registry.  Called from init();
// duplicate IDs are a programmer error and panic immediately.
func Register(m Migration) {
	regMu.Lock()
	defer regMu.Unlock()
	if m.ID == "" {
		panic("migrate: Register with empty ID")
	}
	if _, dup := registry[m.ID]; dup {
		panic(fmt.Sprintf("migrate: duplicate migration ID %q", m.ID))
	}
	registry[m.ID] = m
}

// All returns every registered migration sorted by ID.
func All() []Migration {
	regMu.Lock()
	defer regMu.Unlock()
	out := make([]Migration, 0, len(registry))
	for _, m := range registry {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
