package site

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

var siteColNames = []string{
	"id", "host", "name", "url_slug", "admin_email", "title", "locale",
	"theme_id", "route_version", "suspended_at", "deleted_at", "created_at",
	"updated_at",
}

func siteRow(id int64, host string, themeID any) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(siteColNames).
		AddRow(id, host, "Acme", "acme", "ops@acme.test", "Acme", "en",
			themeID, 1, nil, nil, now, now)
}

func TestByHostSkipsDeletedOnly(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(`(?s)SELECT.+FROM\s+sites.+host = \?.+deleted_at IS NULL`).
		WithArgs("acme.example.com").
		WillReturnRows(siteRow(3, "acme.example.com", int64(4)))

	rec, err := ByHost(context.Background(), db, "acme.example.com")
	if err != nil {
		t.Fatalf("ByHost: %v", err)
	}
	if rec.ID != 3 || !rec.Active() {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if rec.ThemeID == nil || *rec.ThemeID != 4 {
		t.Fatalf("theme id = %v", rec.ThemeID)
	}
}

func TestByHostReturnsSuspendedRows(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now()
	rows := sqlmock.NewRows(siteColNames).
		AddRow(int64(3), "acme.example.com", "Acme", "acme", "ops@acme.test",
			"Acme", "en", nil, 1, now, nil, now, now)
	mock.ExpectQuery(`(?s)SELECT.+FROM\s+sites.+host = \?`).
		WithArgs("acme.example.com").
		WillReturnRows(rows)

	rec, err := ByHost(context.Background(), db, "acme.example.com")
	if err != nil {
		t.Fatalf("ByHost: %v", err)
	}
	if rec.SuspendedAt == nil || rec.Active() {
		t.Fatalf("suspension not visible: %+v", rec)
	}
}

func TestInsertReturnsNewID(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec(`(?s)INSERT INTO sites.+VALUES`).
		WithArgs("acme.example.com", "Acme", "acme", "ops@acme.test", "Acme", "en", nil).
		WillReturnResult(sqlmock.NewResult(3, 1))

	rec := &Record{
		Host:       "acme.example.com",
		Name:       "Acme",
		URLSlug:    "acme",
		AdminEmail: "ops@acme.test",
		Title:      "Acme",
		Locale:     "en",
	}
	id, err := Insert(context.Background(), db, rec)
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if id != 3 {
		t.Fatalf("id = %d, want 3", id)
	}
}

func TestUpdateBumpsRouteVersion(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec(`(?s)UPDATE sites.+route_version = route_version \+ 1.+deleted_at IS NULL`).
		WithArgs("Acme", "ops@acme.test", "Acme", "en", int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec := &Record{Name: "Acme", AdminEmail: "ops@acme.test", Title: "Acme", Locale: "en"}
	rec.ID = 3
	if err := Update(context.Background(), db, rec); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestConfigBySiteBuildsMap(t *testing.T) {
	db, mock := newMockDB(t)
	rows := sqlmock.NewRows([]string{"name", "value"}).
		AddRow("tagline", "Hello").
		AddRow("footer_text", "Bye")
	mock.ExpectQuery(`(?s)SELECT name, value.+FROM\s+site_config.+site_id = \?`).
		WithArgs(int64(3)).
		WillReturnRows(rows)

	cfg, err := ConfigBySite(context.Background(), db, 3)
	if err != nil {
		t.Fatalf("ConfigBySite: %v", err)
	}
	if cfg["tagline"] != "Hello" || cfg["footer_text"] != "Bye" || len(cfg) != 2 {
		t.Fatalf("unexpected map: %v", cfg)
	}
}

func TestSetConfigUpserts(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec(`(?s)INSERT INTO site_config.+ON DUPLICATE KEY UPDATE`).
		WithArgs(int64(3), "tagline", "Hello").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := SetConfig(context.Background(), db, 3, "tagline", "Hello"); err != nil {
		t.Fatalf("SetConfig: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
