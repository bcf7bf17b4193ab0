package page

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

const loadRx = `(?s)SELECT id, path.+FROM\s+pages.+site_id = \?.+is_published = 1`

func pathRows(pairs ...any) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "path"})
	for i := 0; i < len(pairs); i += 2 {
		rows.AddRow(pairs[i], pairs[i+1])
	}
	return rows
}

func TestPathCacheLoadAndLookup(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(loadRx).WithArgs(int64(1)).
		WillReturnRows(pathRows(int64(1), "/", int64(2), "/about"))

	pc := NewPathCache(db, 1, time.Minute)
	if err := pc.Load(context.Background(), 3); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if id, ok := pc.Lookup("/about"); !ok || id != 2 {
		t.Fatalf("Lookup(/about) = %d, %v", id, ok)
	}
	if _, ok := pc.Lookup("/missing"); ok {
		t.Fatal("unknown path resolved")
	}
	if pc.Len() != 2 {
		t.Fatalf("Len = %d, want 2", pc.Len())
	}
}

func TestPathCacheStaleOnVersionMove(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(loadRx).WithArgs(int64(1)).WillReturnRows(pathRows(int64(1), "/"))

	pc := NewPathCache(db, 1, time.Minute)
	if err := pc.Load(context.Background(), 3); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if pc.Stale(3) {
		t.Fatal("fresh cache reported stale")
	}
	if !pc.Stale(4) {
		t.Fatal("version move not noticed")
	}
}

func TestPathCacheTTLExpiry(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(loadRx).WithArgs(int64(1)).WillReturnRows(pathRows(int64(1), "/"))

	pc := NewPathCache(db, 1, 10*time.Millisecond)
	if err := pc.Load(context.Background(), 1); err != nil {
		t.Fatalf("Load: %v", err)
	}
	time.Sleep(25 * time.Millisecond)

	if _, ok := pc.Lookup("/"); ok {
		t.Fatal("stale cache served a hit")
	}
	if !pc.Stale(1) {
		t.Fatal("expired cache reported fresh")
	}
}

func TestEnsureReloadsOnlyWhenStale(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(loadRx).WithArgs(int64(1)).WillReturnRows(pathRows(int64(1), "/"))

	pc := NewPathCache(db, 1, time.Minute)
	if err := pc.Ensure(context.Background(), 1); err != nil {
		t.Fatalf("first Ensure: %v", err)
	}
	// Same version, fresh TTL: no second query may reach the driver.
	if err := pc.Ensure(context.Background(), 1); err != nil {
		t.Fatalf("second Ensure: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}

	mock.ExpectQuery(loadRx).WithArgs(int64(1)).
		WillReturnRows(pathRows(int64(1), "/", int64(2), "/new"))
	if err := pc.Ensure(context.Background(), 2); err != nil {
		t.Fatalf("Ensure after bump: %v", err)
	}
	if id, ok := pc.Lookup("/new"); !ok || id != 2 {
		t.Fatalf("Lookup(/new) = %d, %v", id, ok)
	}
}
