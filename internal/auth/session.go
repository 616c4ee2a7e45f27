// Package auth owns session establishment and the one-time action tokens
// that gate form posts. Sessions are HS512 JWTs carried in a cookie; the
// middleware package resolves them into an ActorContext.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Steven-Gee-ally/afcglide-listings-009/internal/model"
)

// SessionCookie is the cookie name the session token travels in.
const SessionCookie = "afcglide_session"

// Session lifetimes. Remember-me logins get the long one.
const (
	SessionTTL         = 24 * time.Hour
	RememberSessionTTL = 14 * 24 * time.Hour
)

// Sessions issues and parses session tokens.
type Sessions struct {
	secret []byte
}

// NewSessions creates a Sessions signer keyed with the given secret.
func NewSessions(secret string) *Sessions {
	return &Sessions{secret: []byte(secret)}
}

// Issue returns a signed session token for the account. remember extends the
// lifetime. The second return is the token's TTL, for the cookie Max-Age.
func (s *Sessions) Issue(account *model.Account, remember bool) (string, time.Duration, error) {
	ttl := SessionTTL
	if remember {
		ttl = RememberSessionTTL
	}
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{
		"sub":   account.ID,
		"roles": []string(account.Roles),
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", 0, fmt.Errorf("Sessions.Issue: %w", err)
	}
	return signed, ttl, nil
}

// Parse verifies a session token and returns the actor it identifies.
func (s *Sessions) Parse(tokenStr string) (model.ActorContext, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		if token.Method.Alg() != "HS512" {
			return nil, fmt.Errorf("only HS512 is allowed")
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return model.ActorContext{}, fmt.Errorf("Sessions.Parse: invalid token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return model.ActorContext{}, fmt.Errorf("Sessions.Parse: invalid claims")
	}

	actor := model.ActorContext{}
	if sub, ok := claims["sub"].(string); ok {
		actor.ID = sub
	}
	if actor.ID == "" {
		return model.ActorContext{}, fmt.Errorf("Sessions.Parse: missing subject")
	}
	if rawRoles, ok := claims["roles"].([]interface{}); ok {
		for _, r := range rawRoles {
			if role, ok := r.(string); ok {
				actor.Roles = append(actor.Roles, role)
			}
		}
	}
	return actor, nil
}
