package model

import (
	"time"

	"github.com/lib/pq"
)

// Account roles.
const (
	RoleAgent     = "agent"
	RoleModerator = "moderator"
)

// Account is a registered user able to submit listings.
type Account struct {
	ID           string         `db:"id" json:"id"`
	Username     string         `db:"username" json:"username"`
	Email        string         `db:"email" json:"email"`
	PasswordHash string         `db:"password_hash" json:"-"`
	Roles        pq.StringArray `db:"roles" json:"roles"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
}

// ActorContext identifies the actor behind a request. It is built by the
// session middleware and passed explicitly into every operation; core logic
// never reads ambient request state.
type ActorContext struct {
	ID    string
	Roles []string
}

// Authenticated reports whether the actor is a logged-in account.
func (a ActorContext) Authenticated() bool {
	return a.ID != ""
}

// HasRole reports whether the actor holds the given role.
func (a ActorContext) HasRole(role string) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Moderator reports whether the actor can moderate listings.
func (a ActorContext) Moderator() bool {
	return a.HasRole(RoleModerator)
}
