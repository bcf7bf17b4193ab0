// Package database centralises sqlx connection helpers for the Mosaic control
// database.  The driver is go-sql-driver/mysql; MariaDB works unchanged when
// speaking the MySQL wire protocol.
//
// Public entry points:
//
//	Open(dsn)                              – helper with conservative pool sizes.
//	OpenWithOptions(dsn, maxOpen, maxIdle) – fine-grained control.
//
// Both helpers Ping the database before returning so the staged boot in cmd
// can fail fast with the DSN problem instead of a later query error.  Callers
// should Close() the returned *sqlx.DB when no longer needed.
package database

import (
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

// Open returns a *sqlx.DB with sane defaults: 25 max open, 10 idle, and a
// 30-minute connection lifetime.  One pool serves every tenant, so the caps
// are sized for the whole process rather than per site.
func Open(dsn string) (*sqlx.DB, error) {
	return OpenWithOptions(dsn, 25, 10)
}

// OpenWithOptions lets callers tune maxOpen and maxIdle.  Used by tests and
// by deployments that front the database with a proxy-side limit.
func OpenWithOptions(dsn string, maxOpen, maxIdle int) (*sqlx.DB, error) {
	db, err := sqlx.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, err
	}
	return db, nil
}
