package theme

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

var themeColNames = []string{
	"id", "name", "display_name", "description", "version", "is_default",
	"created_at", "updated_at",
}

func themeRow(id int64, name string, isDefault bool) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(themeColNames).
		AddRow(id, name, "Display "+name, "", "1.0.0", isDefault, now, now)
}

func TestDefaultPicksFlaggedRow(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(`(?s)SELECT.+FROM\s+themes.+is_default = 1`).
		WillReturnRows(themeRow(1, "base", true))

	rec, err := Default(context.Background(), db)
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	if rec.Name != "base" || !rec.IsDefault {
		t.Fatalf("unexpected record: %+v", rec)
	}
}

func TestByName(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(`(?s)SELECT.+FROM\s+themes.+WHERE\s+name = \?`).
		WithArgs("ocean").
		WillReturnRows(themeRow(2, "ocean", false))

	rec, err := ByName(context.Background(), db, "ocean")
	if err != nil {
		t.Fatalf("ByName: %v", err)
	}
	if rec.ID != 2 || rec.Name != "ocean" {
		t.Fatalf("unexpected record: %+v", rec)
	}
}

func TestInsertFillsID(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec(`INSERT INTO themes`).
		WithArgs("ocean", "Ocean", "A blue look.", "1.0.0", false).
		WillReturnResult(sqlmock.NewResult(7, 1))

	rec := &Record{Name: "ocean", DisplayName: "Ocean", Description: "A blue look.", Version: "1.0.0"}
	if err := Insert(context.Background(), db, rec); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if rec.ID != 7 {
		t.Fatalf("ID = %d, want 7", rec.ID)
	}
}

func TestSetDefaultMovesFlag(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec(`UPDATE themes SET is_default = 0`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE themes SET is_default = 1 WHERE id = \?`).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := SetDefault(context.Background(), db, 7); err != nil {
		t.Fatalf("SetDefault: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
