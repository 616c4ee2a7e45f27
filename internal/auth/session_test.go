package auth

import (
	"testing"

	"github.com/lib/pq"

	"github.com/Steven-Gee-ally/afcglide-listings-009/internal/model"
)

func TestSessionRoundTrip(t *testing.T) {
	s := NewSessions("session-secret")
	account := &model.Account{
		ID:    "acct-1",
		Roles: pq.StringArray{model.RoleAgent, model.RoleModerator},
	}

	token, ttl, err := s.Issue(account, false)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if ttl != SessionTTL {
		t.Errorf("ttl = %v; want %v", ttl, SessionTTL)
	}

	actor, err := s.Parse(token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if actor.ID != "acct-1" {
		t.Errorf("actor id = %q; want acct-1", actor.ID)
	}
	if !actor.Moderator() {
		t.Error("moderator role should survive the round trip")
	}
}

func TestRememberMeExtendsTTL(t *testing.T) {
	s := NewSessions("session-secret")
	_, ttl, err := s.Issue(&model.Account{ID: "acct-1"}, true)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if ttl != RememberSessionTTL {
		t.Errorf("ttl = %v; want %v", ttl, RememberSessionTTL)
	}
}

func TestParseRejectsForeignToken(t *testing.T) {
	token, _, err := NewSessions("secret-a").Issue(&model.Account{ID: "acct-1"}, false)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := NewSessions("secret-b").Parse(token); err == nil {
		t.Error("token signed with another secret must not parse")
	}
	if _, err := NewSessions("secret-a").Parse("not-a-token"); err == nil {
		t.Error("garbage must not parse")
	}
}
