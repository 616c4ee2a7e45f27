package service

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/Steven-Gee-ally/afcglide-listings-009/internal/auth"
	"github.com/Steven-Gee-ally/afcglide-listings-009/internal/model"
	"github.com/Steven-Gee-ally/afcglide-listings-009/internal/validate"
)

type fakeAccountStore struct {
	byEmail   map[string]*model.Account
	usernames map[string]bool
	created   []*model.Account
	lookupErr error
}

func newFakeAccountStore() *fakeAccountStore {
	return &fakeAccountStore{
		byEmail:   map[string]*model.Account{},
		usernames: map[string]bool{},
	}
}

func (s *fakeAccountStore) add(username, email, password string) *model.Account {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	a := &model.Account{
		ID:           "acct-" + username,
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Roles:        []string{model.RoleAgent},
	}
	s.byEmail[email] = a
	s.usernames[username] = true
	return a
}

func (s *fakeAccountStore) Create(ctx context.Context, a *model.Account) error {
	s.created = append(s.created, a)
	s.byEmail[a.Email] = a
	s.usernames[a.Username] = true
	return nil
}

func (s *fakeAccountStore) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	if s.lookupErr != nil {
		return nil, s.lookupErr
	}
	return s.byEmail[email], nil
}

func (s *fakeAccountStore) UsernameExists(ctx context.Context, username string) (bool, error) {
	return s.usernames[username], nil
}

func (s *fakeAccountStore) EmailExists(ctx context.Context, email string) (bool, error) {
	_, ok := s.byEmail[email]
	return ok, nil
}

type authEnv struct {
	svc      *AuthService
	accounts *fakeAccountStore
	sessions *auth.Sessions
}

func newAuthEnv(registrationEnabled bool) *authEnv {
	accounts := newFakeAccountStore()
	sessions := auth.NewSessions("test-session-secret")
	tokens := auth.NewTokenSource("test-token-secret")
	return &authEnv{
		svc:      NewAuthService(accounts, sessions, tokens, registrationEnabled, 8),
		accounts: accounts,
		sessions: sessions,
	}
}

func (e *authEnv) login(actorKey string) LoginInput {
	return LoginInput{
		Email:    "jane@x.com",
		Password: "hunter2hunter2",
		Token:    e.svc.FormToken(ActionLogin, actorKey),
		ActorKey: actorKey,
	}
}

func (e *authEnv) register(actorKey string) RegisterInput {
	return RegisterInput{
		Username:        "jane",
		Email:           "jane@x.com",
		Password:        "hunter2hunter2",
		PasswordConfirm: "hunter2hunter2",
		Token:           e.svc.FormToken(ActionRegister, actorKey),
		ActorKey:        actorKey,
	}
}

func TestLogin(t *testing.T) {
	e := newAuthEnv(true)
	e.accounts.add("jane", "jane@x.com", "hunter2hunter2")

	session, err := e.svc.Login(context.Background(), e.login("visitor-1"))
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if session.Account.ID != "acct-jane" {
		t.Errorf("account = %q", session.Account.ID)
	}

	actor, err := e.sessions.Parse(session.Token)
	if err != nil {
		t.Fatalf("issued session token should parse: %v", err)
	}
	if actor.ID != "acct-jane" {
		t.Errorf("actor id = %q", actor.ID)
	}
}

func TestLoginRejectsBadToken(t *testing.T) {
	e := newAuthEnv(true)
	e.accounts.add("jane", "jane@x.com", "hunter2hunter2")

	in := e.login("visitor-1")
	in.Token = "000000000000"
	if _, err := e.svc.Login(context.Background(), in); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("forged token err = %v; want ErrInvalidToken", err)
	}

	// A token minted for a different actor must not transfer.
	in = e.login("visitor-1")
	in.ActorKey = "visitor-2"
	if _, err := e.svc.Login(context.Background(), in); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("transplanted token err = %v; want ErrInvalidToken", err)
	}
}

func TestLoginRequiresCredentials(t *testing.T) {
	e := newAuthEnv(true)

	for _, tt := range []struct{ email, password string }{
		{"", "hunter2hunter2"},
		{"jane@x.com", ""},
		{"", ""},
	} {
		in := e.login("visitor-1")
		in.Email, in.Password = tt.email, tt.password
		if _, err := e.svc.Login(context.Background(), in); !errors.Is(err, ErrMissingCredentials) {
			t.Errorf("email=%q password=%q: err = %v; want ErrMissingCredentials", tt.email, tt.password, err)
		}
	}
}

func TestLoginDoesNotLeakWhichPartFailed(t *testing.T) {
	e := newAuthEnv(true)
	e.accounts.add("jane", "jane@x.com", "hunter2hunter2")

	// Unknown account.
	in := e.login("visitor-1")
	in.Email = "nobody@x.com"
	_, unknownErr := e.svc.Login(context.Background(), in)

	// Known account, wrong password.
	in = e.login("visitor-1")
	in.Password = "wrong-password"
	_, wrongErr := e.svc.Login(context.Background(), in)

	if !errors.Is(unknownErr, ErrInvalidCredentials) || !errors.Is(wrongErr, ErrInvalidCredentials) {
		t.Fatalf("errs = %v / %v; want ErrInvalidCredentials for both", unknownErr, wrongErr)
	}
	if unknownErr.Error() != wrongErr.Error() {
		t.Error("unknown-account and wrong-password responses must be indistinguishable")
	}
}

func TestLoginLookupFailureReadsAsBadCredentials(t *testing.T) {
	e := newAuthEnv(true)
	e.accounts.lookupErr = errors.New("db down")

	if _, err := e.svc.Login(context.Background(), e.login("visitor-1")); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("err = %v; want ErrInvalidCredentials", err)
	}
}

func TestLoginNormalizesEmail(t *testing.T) {
	e := newAuthEnv(true)
	e.accounts.add("jane", "jane@x.com", "hunter2hunter2")

	in := e.login("visitor-1")
	in.Email = "  JANE@X.COM  "
	if _, err := e.svc.Login(context.Background(), in); err != nil {
		t.Errorf("case and whitespace in the email should not matter: %v", err)
	}
}

func TestRegister(t *testing.T) {
	e := newAuthEnv(true)

	session, err := e.svc.Register(context.Background(), e.register("visitor-1"))
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if len(e.accounts.created) != 1 {
		t.Fatalf("created %d accounts; want 1", len(e.accounts.created))
	}
	account := e.accounts.created[0]
	if account.Username != "jane" || account.Email != "jane@x.com" {
		t.Errorf("account = %+v", account)
	}
	if len(account.Roles) != 1 || account.Roles[0] != model.RoleAgent {
		t.Errorf("roles = %v; want [agent]", account.Roles)
	}
	if account.PasswordHash == "hunter2hunter2" {
		t.Error("password must be stored hashed")
	}
	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte("hunter2hunter2")) != nil {
		t.Error("stored hash should match the password")
	}

	// Registration establishes a session directly.
	if _, err := e.sessions.Parse(session.Token); err != nil {
		t.Errorf("session token should parse: %v", err)
	}
}

func TestRegisterDisabled(t *testing.T) {
	e := newAuthEnv(false)

	_, err := e.svc.Register(context.Background(), e.register("visitor-1"))
	if !errors.Is(err, ErrRegistrationDisabled) {
		t.Fatalf("err = %v; want ErrRegistrationDisabled", err)
	}
	if len(e.accounts.created) != 0 {
		t.Error("no account may be created while registration is disabled")
	}
}

func TestRegisterValidation(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*RegisterInput)
		wantErr  error
		wantKind string
	}{
		{"bad token", func(in *RegisterInput) { in.Token = "000000000000" }, ErrInvalidToken, ""},
		{"missing username", func(in *RegisterInput) { in.Username = "  " }, nil, validate.KindEmptyField},
		{"bad email", func(in *RegisterInput) { in.Email = "not-an-email" }, nil, validate.KindInvalidEmail},
		{"short password", func(in *RegisterInput) { in.Password, in.PasswordConfirm = "short", "short" }, nil, validate.KindLengthViolation},
		{"confirm mismatch", func(in *RegisterInput) { in.PasswordConfirm = "different-thing" }, ErrPasswordMismatch, ""},
	}

	for _, tt := range tests {
		e := newAuthEnv(true)
		in := e.register("visitor-1")
		tt.mutate(&in)

		_, err := e.svc.Register(context.Background(), in)
		if tt.wantErr != nil {
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("%s: err = %v; want %v", tt.name, err, tt.wantErr)
			}
		} else {
			var rule *validate.RuleError
			if !errors.As(err, &rule) || rule.Kind != tt.wantKind {
				t.Errorf("%s: err = %v; want kind %q", tt.name, err, tt.wantKind)
			}
		}
		if len(e.accounts.created) != 0 {
			t.Errorf("%s: account was created despite the failure", tt.name)
		}
	}
}

func TestRegisterUniqueness(t *testing.T) {
	e := newAuthEnv(true)
	e.accounts.add("jane", "jane@x.com", "hunter2hunter2")

	in := e.register("visitor-1")
	if _, err := e.svc.Register(context.Background(), in); !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("duplicate username err = %v; want ErrUsernameTaken", err)
	}

	in = e.register("visitor-1")
	in.Username = "janet"
	if _, err := e.svc.Register(context.Background(), in); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("duplicate email err = %v; want ErrEmailTaken", err)
	}
	if len(e.accounts.created) != 0 {
		t.Error("no account may be created on a uniqueness conflict")
	}
}

func TestFormTokenRoundTrip(t *testing.T) {
	e := newAuthEnv(true)

	token := e.svc.FormToken(ActionSubmitListing, "acct-1")
	if !e.svc.VerifyFormToken(token, ActionSubmitListing, "acct-1") {
		t.Error("fresh token should verify")
	}
	if e.svc.VerifyFormToken(token, ActionLogin, "acct-1") {
		t.Error("token must be bound to its action")
	}
}
