// internal/identity/user.go
//
// User records and repository.
//
// Context
// -------
// One user table serves every site; membership and rights come from the
// role tables, not from row ownership.  The lockout columns
// (access_failed_count, lockout_until) and security_stamp implement the
// sign-in policy: stamps rotate on password change so stolen sessions die,
// and repeated failures lock the account for a window instead of forever.
//
// Repository functions take a context and a *sqlx.DB and return driver
// errors verbatim; the sign-in service maps them to user-facing outcomes.
package identity

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mosaic-cms/mosaic/internal/entity"
)

// Role names are a closed set; rows are created by seed and never edited.
const (
	RoleAdministrator = "administrator"
	RoleEditor        = "editor"
	RoleMember        = "member"
)

// User mirrors one row of the `users` table.
type User struct {
	entity.Base
	entity.SoftDelete
	Email             string     `db:"email"`
	Username          string     `db:"username"`
	PasswordHash      string     `db:"password_hash"`
	DisplayName       string     `db:"display_name"`
	SecurityStamp     string     `db:"security_stamp"`
	AccessFailedCount int        `db:"access_failed_count"`
	LockoutUntil      *time.Time `db:"lockout_until"`
}

// LockedOut reports whether the lockout window is still open at now.
func (u *User) LockedOut(now time.Time) bool {
	return u.LockoutUntil != nil && now.Before(*u.LockoutUntil)
}

// NewSecurityStamp returns 32 hex chars of randomness.  A fresh stamp
// invalidates every session carrying the old one.
func NewSecurityStamp() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

const userCols = `id, email, username, password_hash, display_name, security_stamp,
	       access_failed_count, lockout_until, deleted_at, created_at, updated_at`

// ByLogin fetches a live user by email or username.  Sign-in forms accept
// either, so the repository does too.
func ByLogin(ctx context.Context, db *sqlx.DB, login string) (*User, error) {
	const q = `
        SELECT ` + userCols + `
        FROM   users
        WHERE  (email = ? OR username = ?)
          AND  deleted_at IS NULL
        LIMIT  1`
	var u User
	if err := db.GetContext(ctx, &u, q, login, login); err != nil {
		return nil, err
	}
	return &u, nil
}

// ByID fetches a live user by primary key.
func ByID(ctx context.Context, db *sqlx.DB, id int64) (*User, error) {
	const q = `
        SELECT ` + userCols + `
        FROM   users
        WHERE  id = ?
          AND  deleted_at IS NULL
        LIMIT  1`
	var u User
	if err := db.GetContext(ctx, &u, q, id); err != nil {
		return nil, err
	}
	return &u, nil
}

// All returns every live user, newest first.  Admin listing only.
func All(ctx context.Context, db *sqlx.DB) ([]User, error) {
	const q = `
        SELECT ` + userCols + `
        FROM   users
        WHERE  deleted_at IS NULL
        ORDER  BY id DESC`
	var out []User
	if err := db.SelectContext(ctx, &out, q); err != nil {
		return nil, err
	}
	return out, nil
}

// Insert stores a new user and returns its ID.  Unique collisions on email
// or username surface as MySQL 1062; callers turn that into "taken".
func Insert(ctx context.Context, db *sqlx.DB, u *User) (int64, error) {
	const q = `
        INSERT INTO users (email, username, password_hash, display_name, security_stamp)
        VALUES (?, ?, ?, ?, ?)`
	res, err := db.ExecContext(ctx, q, u.Email, u.Username, u.PasswordHash, u.DisplayName, u.SecurityStamp)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Update rewrites the profile columns.  Credentials move through
// UpdatePassword so the stamp rotation cannot be skipped.
func Update(ctx context.Context, db *sqlx.DB, u *User) error {
	const q = `
        UPDATE users
        SET    email = ?, username = ?, display_name = ?
        WHERE  id = ?
          AND  deleted_at IS NULL`
	_, err := db.ExecContext(ctx, q, u.Email, u.Username, u.DisplayName, u.ID)
	return err
}

// RecordFailure bumps the failed counter and returns the new value.
func RecordFailure(ctx context.Context, db *sqlx.DB, id int64) (int, error) {
	if _, err := db.ExecContext(ctx,
		`UPDATE users SET access_failed_count = access_failed_count + 1 WHERE id = ?`, id); err != nil {
		return 0, err
	}
	var n int
	if err := db.GetContext(ctx, &n,
		`SELECT access_failed_count FROM users WHERE id = ?`, id); err != nil {
		return 0, err
	}
	return n, nil
}

// Lock opens a lockout window and zeroes the counter, matching the
// count-resets-on-lock behaviour admins expect from identity systems.
func Lock(ctx context.Context, db *sqlx.DB, id int64, until time.Time) error {
	_, err := db.ExecContext(ctx,
		`UPDATE users SET lockout_until = ?, access_failed_count = 0 WHERE id = ?`, until, id)
	return err
}

// ResetFailures clears the counter and any lockout after a good sign-in.
func ResetFailures(ctx context.Context, db *sqlx.DB, id int64) error {
	_, err := db.ExecContext(ctx,
		`UPDATE users SET access_failed_count = 0, lockout_until = NULL WHERE id = ?`, id)
	return err
}

// UpdatePassword stores a new hash and rotates the security stamp in the
// same statement, so there is no window where old sessions survive the
// new password.
func UpdatePassword(ctx context.Context, db *sqlx.DB, id int64, hash, stamp string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, security_stamp = ? WHERE id = ?`, hash, stamp, id)
	return err
}

// SoftDelete hides a user from every query path.
func SoftDelete(ctx context.Context, db *sqlx.DB, id int64) error {
	_, err := db.ExecContext(ctx,
		`UPDATE users SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`, id)
	return err
}

// Roles returns the user's role names, sorted by name.
func Roles(ctx context.Context, db *sqlx.DB, userID int64) ([]string, error) {
	const q = `
        SELECT r.name
        FROM   roles r
        JOIN   user_roles ur ON ur.role_id = r.id
        WHERE  ur.user_id = ?
        ORDER  BY r.name`
	var out []string
	if err := db.SelectContext(ctx, &out, q, userID); err != nil {
		return nil, err
	}
	return out, nil
}

// AddRole grants a role by name.  Granting an already-held role is a
// no-op via INSERT IGNORE.
func AddRole(ctx context.Context, db *sqlx.DB, userID int64, role string) error {
	const q = `
        INSERT IGNORE INTO user_roles (user_id, role_id)
        SELECT ?, id FROM roles WHERE name = ?`
	_, err := db.ExecContext(ctx, q, userID, role)
	return err
}
