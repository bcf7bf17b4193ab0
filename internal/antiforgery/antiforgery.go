// internal/antiforgery/antiforgery.go
//
// Mosaic – stateless antiforgery tokens, bound to the session.
//
// Context
//   Admin forms embed a hidden `csrf_token` input generated at render time.
//   The server verifies the token on POST to ensure the request originated
//   from a form it rendered for *this* session.  The token is stateless:
//
//      base64url( nonce | unixMicro | HMAC_SHA256(secret, nonce+unixMicro+sessionID) )
//
//   •  nonce – 16 random bytes.  Prevents replay across users.
//   •  unixMicro – microseconds since Unix epoch, 8 bytes, big-endian.
//   •  HMAC – includes the session ID, so a token lifted from one session
//      fails verification in another.
//
//   Validation reports a *reason* rather than a bare bool.  Antiforgery
//   400s are miserable to debug from the outside; handlers log the reason
//   (expired form left open overnight, login flow swapping sessions, real
//   forgery) before responding, so the log tells the story the 400 cannot.
//
// Workflow
//   •  Issue(sessionID)          → token string for the renderer.
//   •  Verify(tok, sessionID)    → Reason; ReasonOK means pass.
//
//------------------------------------------------------------------------------

package antiforgery

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"time"
)

const (
	tokenBytes = 16 + 8 + sha256.Size // nonce + ts + sig
	maxAge     = 2 * time.Hour        // token valid window
	maxSkew    = time.Minute          // tolerated future timestamp
)

// Reason classifies a verification outcome.
type Reason int

const (
	ReasonOK Reason = iota
	ReasonMissing
	ReasonMalformed
	ReasonExpired
	ReasonFuture
	ReasonBadSignature
)

func (r Reason) String() string {
	switch r {
	case ReasonOK:
		return "ok"
	case ReasonMissing:
		return "missing"
	case ReasonMalformed:
		return "malformed"
	case ReasonExpired:
		return "expired"
	case ReasonFuture:
		return "future_timestamp"
	default:
		return "bad_signature"
	}
}

// Guard signs and verifies tokens with one secret.  A guard is shared by
// every tenant; session binding is what isolates users.
type Guard struct {
	secret []byte
}

// New builds a guard.  An empty secret gets a random per-boot key; the
// config audit warns that restarts will then invalidate open forms.
func New(secret []byte) *Guard {
	if len(secret) == 0 {
		secret = make([]byte, 32)
		_, _ = rand.Read(secret)
	}
	return &Guard{secret: secret}
}

// Issue creates a token for the session.  Call once per form render.  An
// empty sessionID is allowed; it binds the token to the anonymous scope,
// which the login form itself uses.
func (g *Guard) Issue(sessionID string) (string, error) {
	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	ts := make([]byte, 8)
	binary.BigEndian.PutUint64(ts, uint64(time.Now().UnixMicro()))

	buf := make([]byte, 0, tokenBytes)
	buf = append(buf, nonce...)
	buf = append(buf, ts...)
	buf = append(buf, g.sig(nonce, ts, sessionID)...)

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Verify checks tok against the session and the age window.
func (g *Guard) Verify(tok, sessionID string) Reason {
	if tok == "" {
		return ReasonMissing
	}

	raw, err := base64.RawURLEncoding.DecodeString(tok)
	if err != nil || len(raw) != tokenBytes {
		return ReasonMalformed
	}

	nonce := raw[:16]
	tsBytes := raw[16:24]
	sig := raw[24:]

	issued := time.UnixMicro(int64(binary.BigEndian.Uint64(tsBytes)))
	if time.Since(issued) > maxAge {
		return ReasonExpired
	}
	if time.Until(issued) > maxSkew {
		return ReasonFuture
	}

	if !hmac.Equal(sig, g.sig(nonce, tsBytes, sessionID)) {
		return ReasonBadSignature
	}
	return ReasonOK
}

func (g *Guard) sig(nonce, ts []byte, sessionID string) []byte {
	mac := hmac.New(sha256.New, g.secret)
	mac.Write(nonce)
	mac.Write(ts)
	mac.Write([]byte(sessionID))
	return mac.Sum(nil)
}
