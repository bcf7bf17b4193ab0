// internal/database/mysqlerr.go
//
// Driver error classification.
//
// Context
// -------
// The migration engine changes behaviour on specific MySQL server errors:
// an unknown history table means a fresh database, while "already exists"
// during DDL means the schema ran ahead of the history and the migration
// should be marked applied rather than re-run.  Matching on the numeric
// code, via errors.As on *mysql.MySQLError, keeps that policy out of the
// callers and immune to message wording changes.
package database

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// MySQL server error numbers Mosaic reacts to.  The comments give the
// symbolic server name for grepping against MySQL docs.
const (
	ErrNumAccessDenied     uint16 = 1045 // ER_ACCESS_DENIED_ERROR
	ErrNumUnknownDatabase  uint16 = 1049 // ER_BAD_DB_ERROR
	ErrNumTableExists      uint16 = 1050 // ER_TABLE_EXISTS_ERROR
	ErrNumDuplicateColumn  uint16 = 1060 // ER_DUP_FIELDNAME
	ErrNumDuplicateKeyName uint16 = 1061 // ER_DUP_KEYNAME
	ErrNumDuplicateEntry   uint16 = 1062 // ER_DUP_ENTRY
	ErrNumNoSuchTable      uint16 = 1146 // ER_NO_SUCH_TABLE
)

// ErrNumber unwraps err and returns the MySQL server error number, or 0 when
// err is nil or not a *mysql.MySQLError.
func ErrNumber(err error) uint16 {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number
	}
	return 0
}

// IsNoSuchTable reports the 1146 "table doesn't exist" case.  Seen on fresh
// databases before the history table is bootstrapped, and on drifted schemas
// where a recorded migration's objects were dropped by hand.
func IsNoSuchTable(err error) bool {
	return ErrNumber(err) == ErrNumNoSuchTable
}

// IsAlreadyExists reports the DDL collisions (table, column, or index already
// present).  The migration runner treats these as evidence that the change
// was applied outside the history and marks it rather than failing.
func IsAlreadyExists(err error) bool {
	switch ErrNumber(err) {
	case ErrNumTableExists, ErrNumDuplicateColumn, ErrNumDuplicateKeyName:
		return true
	}
	return false
}

// IsDuplicateEntry reports a unique-key violation on INSERT.  Repositories
// map it to user-facing "already taken" messages.
func IsDuplicateEntry(err error) bool {
	return ErrNumber(err) == ErrNumDuplicateEntry
}

// IsAccessDenied reports bad credentials.  The config audit points at the
// DSN when boot fails with this.
func IsAccessDenied(err error) bool {
	return ErrNumber(err) == ErrNumAccessDenied
}
