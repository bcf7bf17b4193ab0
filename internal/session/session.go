// internal/session/session.go
//
// Server-side admin sessions with signed cookie references.
//
/*
Context
--------
The admin surface authenticates with a cookie that carries only a random
session ID plus an HMAC signature; everything else (user, security stamp,
expiry) lives server-side in a Store.  Signing the ID means a forged or
truncated cookie is rejected before any store lookup, and the store never
sees attacker-controlled keys.

Sessions pin the user's security_stamp at issue time.  The middleware
re-reads the user row and drops any session whose stamp no longer matches,
which is how a password change logs out every other device on its next
request.

Lifetime policy: an absolute ExpiresAt set at issue, plus a sliding idle
window enforced at resolve time via LastSeen.

Workflow
--------
	mgr := session.NewManager(store, loader, log, session.Options{…})
	mgr.Issue(ctx, w, user)            // on login
	r.Use(mgr.Middleware)              // resolve cookie → context
	user, sess, ok := session.FromContext(ctx)
	mgr.Destroy(ctx, w, req)           // on logout

Notes
-----
  • Cookie value format: `<id>.<base64url hmac>`.
  • The codec compares in constant time.  Oxford commas, two spaces after
    periods.
*/
package session

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mosaic-cms/mosaic/internal/identity"
)

// ErrNoSession is returned by stores for missing or expired IDs.
var ErrNoSession = errors.New("session: not found")

// Session is the server-side record.
type Session struct {
	ID            string    `json:"id"`
	UserID        int64     `json:"user_id"`
	SecurityStamp string    `json:"security_stamp"`
	IssuedAt      time.Time `json:"issued_at"`
	ExpiresAt     time.Time `json:"expires_at"`
	LastSeen      time.Time `json:"last_seen"`
}

// UserLoader fetches the live user row for stamp validation.  Wired to
// identity.ByID in production; tests inject fakes.
type UserLoader func(ctx context.Context, id int64) (*identity.User, error)

// Options collects the cookie and lifetime knobs from config.
type Options struct {
	CookieName  string
	Key         []byte // HMAC key; empty means random per boot
	Lifetime    time.Duration
	IdleTimeout time.Duration
	Secure      bool
}

// Manager issues, resolves, and destroys sessions.
type Manager struct {
	store  Store
	loader UserLoader
	log    *zap.SugaredLogger
	opts   Options
}

// NewManager wires a manager.  An empty HMAC key gets a random one, which
// works but signs everyone out on restart; the config audit warns about it.
func NewManager(store Store, loader UserLoader, log *zap.SugaredLogger, opts Options) *Manager {
	if len(opts.Key) == 0 {
		opts.Key = randomBytes(32)
		log.Warnw("session key not configured, generated a per-boot key")
	}
	if opts.CookieName == "" {
		opts.CookieName = "mosaic_session"
	}
	if opts.Lifetime <= 0 {
		opts.Lifetime = 14 * 24 * time.Hour
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = 2 * time.Hour
	}
	return &Manager{store: store, loader: loader, log: log, opts: opts}
}

func randomBytes(n int) []byte {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return b
}

/*────────────────────────────── cookie codec ───────────────────────────────*/

func (m *Manager) sign(id string) string {
	mac := hmac.New(sha256.New, m.opts.Key)
	mac.Write([]byte(id))
	return id + "." + base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// parse validates the signature and returns the session ID.
func (m *Manager) parse(value string) (string, bool) {
	id, sig, ok := strings.Cut(value, ".")
	if !ok || id == "" {
		return "", false
	}
	got, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil {
		return "", false
	}
	mac := hmac.New(sha256.New, m.opts.Key)
	mac.Write([]byte(id))
	if subtle.ConstantTimeCompare(got, mac.Sum(nil)) != 1 {
		return "", false
	}
	return id, true
}

/*────────────────────────────── lifecycle ──────────────────────────────────*/

// Issue creates a session for the user and sets the cookie.
func (m *Manager) Issue(ctx context.Context, w http.ResponseWriter, u *identity.User) (*Session, error) {
	now := time.Now()
	sess := &Session{
		ID:            base64.RawURLEncoding.EncodeToString(randomBytes(32)),
		UserID:        u.ID,
		SecurityStamp: u.SecurityStamp,
		IssuedAt:      now,
		ExpiresAt:     now.Add(m.opts.Lifetime),
		LastSeen:      now,
	}
	if err := m.store.Put(ctx, sess); err != nil {
		return nil, err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.opts.CookieName,
		Value:    m.sign(sess.ID),
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   m.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})

	m.log.Infow("session issued", "user_id", u.ID)
	return sess, nil
}

// Destroy removes the session named by the request cookie and clears it.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(m.opts.CookieName); err == nil {
		if id, ok := m.parse(c.Value); ok {
			if err := m.store.Delete(ctx, id); err != nil {
				m.log.Warnw("session delete failed", "err", err)
			}
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.opts.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// resolve turns a request into (user, session) or reports why not.  The
// misses are routine (expired cookies arrive with every crawler visit), so
// they log at debug.
func (m *Manager) resolve(r *http.Request) (*identity.User, *Session, bool) {
	c, err := r.Cookie(m.opts.CookieName)
	if err != nil {
		return nil, nil, false
	}
	id, ok := m.parse(c.Value)
	if !ok {
		m.log.Debugw("session cookie signature invalid")
		return nil, nil, false
	}

	ctx := r.Context()
	sess, err := m.store.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrNoSession) {
			m.log.Warnw("session store read failed", "err", err)
		}
		return nil, nil, false
	}

	now := time.Now()
	if now.After(sess.ExpiresAt) || now.Sub(sess.LastSeen) > m.opts.IdleTimeout {
		_ = m.store.Delete(ctx, id)
		m.log.Debugw("session expired", "user_id", sess.UserID)
		return nil, nil, false
	}

	u, err := m.loader(ctx, sess.UserID)
	if err != nil {
		m.log.Debugw("session user lookup failed", "user_id", sess.UserID, "err", err)
		_ = m.store.Delete(ctx, id)
		return nil, nil, false
	}
	if u.SecurityStamp != sess.SecurityStamp {
		m.log.Infow("session stamp mismatch, dropping", "user_id", sess.UserID)
		_ = m.store.Delete(ctx, id)
		return nil, nil, false
	}

	sess.LastSeen = now
	if err := m.store.Put(ctx, sess); err != nil {
		m.log.Warnw("session touch failed", "err", err)
	}
	return u, sess, true
}
