// internal/seed/seed_test.go
package seed

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/mosaic-cms/mosaic/internal/billing"
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

func expectRoles(mock sqlmock.Sqlmock) {
	mock.ExpectExec(`INSERT IGNORE INTO roles`).
		WithArgs("administrator", "editor", "member").
		WillReturnResult(sqlmock.NewResult(0, 0))
}

func themeRow() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "name", "display_name", "description", "version", "is_default",
		"created_at", "updated_at",
	}).AddRow(int64(1), "base", "Base", "", "1.0.0", true, now, now)
}

func userRow() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "email", "username", "password_hash", "display_name",
		"security_stamp", "access_failed_count", "lockout_until", "deleted_at",
		"created_at", "updated_at",
	}).AddRow(int64(1), AdminEmail, AdminUsername, "x", "Administrator",
		"stamp", 0, nil, nil, now, now)
}

func siteRow() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "host", "name", "url_slug", "admin_email", "title", "locale",
		"theme_id", "route_version", "suspended_at", "deleted_at", "created_at",
		"updated_at",
	}).AddRow(int64(1), DemoHost, "Mosaic Demo", "mosaic-demo", AdminEmail,
		"Mosaic Demo", "en", int64(1), 1, nil, nil, now, now)
}

func TestRunSkipsExistingRows(t *testing.T) {
	db, mock := newMockDB(t)
	expectRoles(mock)
	mock.ExpectQuery(`(?s)SELECT.+FROM\s+themes\s+WHERE\s+name = \?`).
		WithArgs(DefaultTheme).WillReturnRows(themeRow())
	mock.ExpectQuery(`(?s)SELECT.+FROM\s+users`).
		WithArgs(AdminEmail, AdminEmail).WillReturnRows(userRow())
	mock.ExpectQuery(`(?s)SELECT.+FROM\s+sites.+host = \?`).
		WithArgs(DemoHost).WillReturnRows(siteRow())

	if err := Run(context.Background(), db, zap.NewNop().Sugar()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestRunProvisionsDemoSite(t *testing.T) {
	db, mock := newMockDB(t)
	expectRoles(mock)
	mock.ExpectQuery(`(?s)SELECT.+FROM\s+themes\s+WHERE\s+name = \?`).
		WithArgs(DefaultTheme).WillReturnRows(themeRow())
	mock.ExpectQuery(`(?s)SELECT.+FROM\s+users`).
		WithArgs(AdminEmail, AdminEmail).WillReturnRows(userRow())
	mock.ExpectQuery(`(?s)SELECT.+FROM\s+sites.+host = \?`).
		WithArgs(DemoHost).WillReturnError(sql.ErrNoRows)

	// Provision: default theme, site row, three config rows, home page,
	// starter subscription.
	mock.ExpectQuery(`(?s)SELECT.+FROM\s+themes\s+WHERE\s+is_default = 1`).
		WillReturnRows(themeRow())
	mock.ExpectExec(`INSERT INTO sites`).
		WithArgs(DemoHost, "Mosaic Demo", "mosaic-demo", AdminEmail,
			"Mosaic Demo", "en", int64(1)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	for _, name := range []string{"tagline", "footer_text", "contact_email"} {
		mock.ExpectExec(`INSERT INTO site_config`).
			WithArgs(int64(1), name, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectExec(`INSERT INTO pages`).
		WithArgs(int64(1), nil, "Home", "home", "/", sqlmock.AnyArg(),
			"", true, true, 0).
		WillReturnResult(sqlmock.NewResult(10, 1))
	mock.ExpectExec(`UPDATE sites SET route_version`).
		WithArgs(int64(1)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO subscriptions`).
		WithArgs(int64(1), billing.PlanFree, billing.StatusTrialing, nil).
		WillReturnResult(sqlmock.NewResult(1, 1))

	// Demo extras: the about page and two assistant notes.
	mock.ExpectExec(`INSERT INTO pages`).
		WithArgs(int64(1), nil, "About", "about", "/about", sqlmock.AnyArg(),
			"", true, true, 0).
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectExec(`UPDATE sites SET route_version`).
		WithArgs(int64(1)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO training_data`).
		WithArgs(int64(1), "about", sqlmock.AnyArg(), "seed", 10, true).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO training_data`).
		WithArgs(int64(1), "contact", sqlmock.AnyArg(), "seed", 5, true).
		WillReturnResult(sqlmock.NewResult(2, 1))

	if err := Run(context.Background(), db, zap.NewNop().Sugar()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestRunCreatesMissingAdmin(t *testing.T) {
	db, mock := newMockDB(t)
	expectRoles(mock)
	mock.ExpectQuery(`(?s)SELECT.+FROM\s+themes\s+WHERE\s+name = \?`).
		WithArgs(DefaultTheme).WillReturnRows(themeRow())
	mock.ExpectQuery(`(?s)SELECT.+FROM\s+users`).
		WithArgs(AdminEmail, AdminEmail).WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(`INSERT INTO users`).
		WithArgs(AdminEmail, AdminUsername, sqlmock.AnyArg(), "Administrator", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectExec(`INSERT IGNORE INTO user_roles`).
		WithArgs(int64(7), "administrator").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`(?s)SELECT.+FROM\s+sites.+host = \?`).
		WithArgs(DemoHost).WillReturnRows(siteRow())

	if err := Run(context.Background(), db, zap.NewNop().Sugar()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
