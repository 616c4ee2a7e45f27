package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"time"
)

// Action-token window. A token is accepted for the window it was issued in
// and the one after, giving a 12-24h useful life.
const tokenWindow = 12 * time.Hour

// TokenSource issues and verifies one-time-style action tokens bound to an
// action name and an actor key. Tokens are stateless: an HMAC over the
// action, actor, and current time window, truncated to 12 hex characters.
type TokenSource struct {
	secret []byte
	now    func() time.Time
}

// NewTokenSource creates a TokenSource keyed with the given secret.
func NewTokenSource(secret string) *TokenSource {
	return &TokenSource{secret: []byte(secret), now: time.Now}
}

// Create returns a token for the action and actor, valid for the current and
// next verification window.
func (t *TokenSource) Create(action, actorKey string) string {
	return t.tokenAt(action, actorKey, t.window())
}

// Verify reports whether the token matches the action and actor for the
// current or previous window.
func (t *TokenSource) Verify(token, action, actorKey string) bool {
	w := t.window()
	for _, candidate := range []string{t.tokenAt(action, actorKey, w), t.tokenAt(action, actorKey, w-1)} {
		if subtle.ConstantTimeCompare([]byte(token), []byte(candidate)) == 1 {
			return true
		}
	}
	return false
}

func (t *TokenSource) window() int64 {
	return t.now().Unix() / int64(tokenWindow/time.Second)
}

func (t *TokenSource) tokenAt(action, actorKey string, window int64) string {
	mac := hmac.New(sha256.New, t.secret)
	fmt.Fprintf(mac, "%s|%s|%d", action, actorKey, window)
	return hex.EncodeToString(mac.Sum(nil))[:12]
}
