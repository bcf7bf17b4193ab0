// internal/entity/entity.go
//
// Shared row fragments embedded by every Mosaic record.
//
// Context
// -------
// Every catalog table carries the same bookkeeping columns: numeric primary
// key, created/updated timestamps, and (for user-facing records) a nullable
// deleted_at marker.  Embedding these fragments keeps the repositories'
// struct-scan tags consistent and gives soft deletion one definition instead
// of a per-table boolean.
package entity

import "time"

// Base is the minimal identity and audit fragment.  UpdatedAt is maintained
// by the repositories, not by triggers, so tests can assert on it.
type Base struct {
	ID        int64     `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// SoftDelete marks records that are hidden rather than destroyed.  A row with
// DeletedAt set never loads through the public query paths; only Restore and
// the admin listings see it.
type SoftDelete struct {
	DeletedAt *time.Time `db:"deleted_at"`
}

// Deleted reports whether the record has been soft-deleted.
func (s SoftDelete) Deleted() bool { return s.DeletedAt != nil }
