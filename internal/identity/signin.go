// internal/identity/signin.go
//
// Sign-in service: credential check, lockout policy, and logging.
//
// Context
// -------
// Login failures here have historically been debugged from logs alone, so
// every decision point logs its outcome with the login name: user lookup,
// lockout state, and hash comparison.  Callers receive sentinel errors and
// map them to presentation; the messages shown to users stay generic while
// the logs stay specific.
package identity

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mosaic-cms/mosaic/internal/database"
	"github.com/mosaic-cms/mosaic/internal/metrics"
)

var (
	ErrUnknownUser    = errors.New("identity: unknown user")
	ErrBadCredentials = errors.New("identity: bad credentials")
	ErrLockedOut      = errors.New("identity: account locked out")
	ErrTaken          = errors.New("identity: email or username already taken")
	ErrWeakPassword   = errors.New("identity: password too short")
)

// MinPasswordLen matches the registration form's client-side rule.
const MinPasswordLen = 8

// Service bundles the sign-in policy knobs with the pool and logger.
type Service struct {
	db            *sqlx.DB
	log           *zap.SugaredLogger
	maxFailures   int
	lockoutWindow time.Duration
}

// NewService wires a sign-in service.  maxFailures <= 0 disables lockout.
func NewService(db *sqlx.DB, log *zap.SugaredLogger, maxFailures int, lockoutWindow time.Duration) *Service {
	return &Service{db: db, log: log, maxFailures: maxFailures, lockoutWindow: lockoutWindow}
}

// SignIn validates a login/password pair and returns the user on success.
// Failure modes, in the order they are checked: unknown user, open lockout
// window, wrong password.  Wrong passwords count toward lockout; a correct
// one resets the counter.
func (s *Service) SignIn(ctx context.Context, login, password string) (*User, error) {
	u, err := ByLogin(ctx, s.db, login)
	if errors.Is(err, sql.ErrNoRows) {
		s.log.Infow("signin: unknown user", "login", login)
		metrics.SignInTotal.WithLabelValues("unknown_user").Inc()
		return nil, ErrUnknownUser
	}
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if u.LockedOut(now) {
		s.log.Warnw("signin: account locked", "login", login, "until", u.LockoutUntil)
		metrics.SignInTotal.WithLabelValues("locked_out").Inc()
		return nil, ErrLockedOut
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		n, ferr := RecordFailure(ctx, s.db, u.ID)
		if ferr != nil {
			s.log.Errorw("signin: failure count update failed", "login", login, "err", ferr)
		}
		if s.maxFailures > 0 && n >= s.maxFailures {
			until := now.Add(s.lockoutWindow)
			if lerr := Lock(ctx, s.db, u.ID, until); lerr != nil {
				s.log.Errorw("signin: lockout update failed", "login", login, "err", lerr)
			} else {
				s.log.Warnw("signin: lockout opened", "login", login, "failures", n, "until", until)
			}
		} else {
			s.log.Infow("signin: wrong password", "login", login, "failures", n)
		}
		metrics.SignInTotal.WithLabelValues("bad_credentials").Inc()
		return nil, ErrBadCredentials
	}

	if u.AccessFailedCount > 0 || u.LockoutUntil != nil {
		if err := ResetFailures(ctx, s.db, u.ID); err != nil {
			s.log.Errorw("signin: failure reset failed", "login", login, "err", err)
		}
	}

	s.log.Infow("signin: ok", "login", login, "user_id", u.ID)
	metrics.SignInTotal.WithLabelValues("ok").Inc()
	return u, nil
}

// Register creates a user with a bcrypt hash and a fresh security stamp.
// Duplicate email or username maps to ErrTaken.
func (s *Service) Register(ctx context.Context, email, username, password, displayName string) (*User, error) {
	if len(password) < MinPasswordLen {
		return nil, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	u := &User{
		Email:         email,
		Username:      username,
		PasswordHash:  string(hash),
		DisplayName:   displayName,
		SecurityStamp: NewSecurityStamp(),
	}
	id, err := Insert(ctx, s.db, u)
	if database.IsDuplicateEntry(err) {
		return nil, ErrTaken
	}
	if err != nil {
		return nil, err
	}
	u.ID = id

	s.log.Infow("user registered", "user_id", id, "username", username)
	return u, nil
}

// ChangePassword verifies the old password, then writes the new hash and a
// rotated stamp.  Sessions pinned to the old stamp stop validating on
// their next request.
func (s *Service) ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error {
	if len(newPassword) < MinPasswordLen {
		return ErrWeakPassword
	}

	u, err := ByID(ctx, s.db, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrUnknownUser
	}
	if err != nil {
		return err
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(oldPassword)) != nil {
		s.log.Infow("password change: wrong current password", "user_id", userID)
		return ErrBadCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := UpdatePassword(ctx, s.db, userID, string(hash), NewSecurityStamp()); err != nil {
		return err
	}

	s.log.Infow("password changed, stamp rotated", "user_id", userID)
	return nil
}
