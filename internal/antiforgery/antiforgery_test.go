package antiforgery

import (
	"encoding/base64"
	"encoding/binary"
	"testing"
	"time"
)

func TestIssueVerifyRoundTrip(t *testing.T) {
	g := New([]byte("0123456789abcdef0123456789abcdef"))

	tok, err := g.Issue("sess-1")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if got := g.Verify(tok, "sess-1"); got != ReasonOK {
		t.Fatalf("Verify = %s, want ok", got)
	}
}

func TestTokenIsSessionBound(t *testing.T) {
	g := New([]byte("0123456789abcdef0123456789abcdef"))

	tok, err := g.Issue("sess-1")
	if err != nil {
		t.Fatal(err)
	}
	if got := g.Verify(tok, "sess-2"); got != ReasonBadSignature {
		t.Fatalf("cross-session Verify = %s, want bad_signature", got)
	}
}

func TestAnonymousScope(t *testing.T) {
	g := New(nil) // random key

	tok, err := g.Issue("")
	if err != nil {
		t.Fatal(err)
	}
	if got := g.Verify(tok, ""); got != ReasonOK {
		t.Fatalf("anonymous Verify = %s, want ok", got)
	}
	if got := g.Verify(tok, "sess-1"); got != ReasonBadSignature {
		t.Fatalf("anonymous token in session = %s, want bad_signature", got)
	}
}

func TestVerifyReasons(t *testing.T) {
	g := New([]byte("0123456789abcdef0123456789abcdef"))

	if got := g.Verify("", "s"); got != ReasonMissing {
		t.Errorf("empty = %s, want missing", got)
	}
	if got := g.Verify("!!!not-base64!!!", "s"); got != ReasonMalformed {
		t.Errorf("junk = %s, want malformed", got)
	}
	if got := g.Verify(base64.RawURLEncoding.EncodeToString([]byte("short")), "s"); got != ReasonMalformed {
		t.Errorf("short = %s, want malformed", got)
	}
}

// forgeWithTimestamp builds a correctly signed token with an arbitrary
// issue time, standing in for a form left open past the window.
func forgeWithTimestamp(g *Guard, sessionID string, issued time.Time) string {
	nonce := make([]byte, 16)
	ts := make([]byte, 8)
	binary.BigEndian.PutUint64(ts, uint64(issued.UnixMicro()))

	buf := make([]byte, 0, tokenBytes)
	buf = append(buf, nonce...)
	buf = append(buf, ts...)
	buf = append(buf, g.sig(nonce, ts, sessionID)...)
	return base64.RawURLEncoding.EncodeToString(buf)
}

func TestVerifyAgeWindow(t *testing.T) {
	g := New([]byte("0123456789abcdef0123456789abcdef"))

	old := forgeWithTimestamp(g, "s", time.Now().Add(-3*time.Hour))
	if got := g.Verify(old, "s"); got != ReasonExpired {
		t.Errorf("old token = %s, want expired", got)
	}

	future := forgeWithTimestamp(g, "s", time.Now().Add(10*time.Minute))
	if got := g.Verify(future, "s"); got != ReasonFuture {
		t.Errorf("future token = %s, want future_timestamp", got)
	}

	// Small skew stays acceptable.
	skewed := forgeWithTimestamp(g, "s", time.Now().Add(20*time.Second))
	if got := g.Verify(skewed, "s"); got != ReasonOK {
		t.Errorf("skewed token = %s, want ok", got)
	}
}

func TestDifferentSecretsDoNotCrossVerify(t *testing.T) {
	a := New([]byte("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"))
	b := New([]byte("bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"))

	tok, err := a.Issue("s")
	if err != nil {
		t.Fatal(err)
	}
	if got := b.Verify(tok, "s"); got != ReasonBadSignature {
		t.Fatalf("cross-secret Verify = %s, want bad_signature", got)
	}
}
