package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/lib/pq"
	"github.com/oklog/ulid/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/Steven-Gee-ally/afcglide-listings-009/internal/auth"
	"github.com/Steven-Gee-ally/afcglide-listings-009/internal/model"
	"github.com/Steven-Gee-ally/afcglide-listings-009/internal/sanitize"
	"github.com/Steven-Gee-ally/afcglide-listings-009/internal/validate"
)

// Form-token action names.
const (
	ActionLogin         = "afcglide_agent_login"
	ActionRegister      = "afcglide_register"
	ActionSubmitListing = "afcglide_new_listing"
)

// Auth failures. Missing-account and wrong-password deliberately collapse
// into ErrInvalidCredentials so login responses cannot be used to enumerate
// accounts.
var (
	ErrInvalidToken         = errors.New("security check failed, please try again")
	ErrMissingCredentials   = errors.New("please enter both email and password")
	ErrInvalidCredentials   = errors.New("invalid email or password, please try again")
	ErrRegistrationDisabled = errors.New("registration is currently disabled")
	ErrUsernameTaken        = errors.New("that username is already taken")
	ErrEmailTaken           = errors.New("an account with that email already exists")
	ErrPasswordMismatch     = errors.New("passwords do not match")
)

// AccountStore is the persistence surface the auth manager needs.
// *repository.AccountRepository implements it.
type AccountStore interface {
	Create(ctx context.Context, a *model.Account) error
	GetByEmail(ctx context.Context, email string) (*model.Account, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
}

// LoginInput is one login attempt. ActorKey is the flash/token key of the
// (still anonymous) requester.
type LoginInput struct {
	Email    string
	Password string
	Token    string
	Remember bool
	ActorKey string
}

// RegisterInput is one registration attempt.
type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	PasswordConfirm string
	Token           string
	ActorKey        string
}

// Session is an established session ready to be set as a cookie.
type Session struct {
	Account *model.Account
	Token   string
	TTL     time.Duration
}

// AuthService is the auth manager: login, registration, and the decisions
// around session establishment. The cookie write itself belongs to the
// handler layer.
type AuthService struct {
	accounts            AccountStore
	sessions            *auth.Sessions
	tokens              *auth.TokenSource
	registrationEnabled bool
	minPasswordLength   int
}

// NewAuthService constructs an AuthService.
func NewAuthService(accounts AccountStore, sessions *auth.Sessions, tokens *auth.TokenSource, registrationEnabled bool, minPasswordLength int) *AuthService {
	return &AuthService{
		accounts:            accounts,
		sessions:            sessions,
		tokens:              tokens,
		registrationEnabled: registrationEnabled,
		minPasswordLength:   minPasswordLength,
	}
}

// Login verifies the form token and credentials and establishes a session.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*Session, error) {
	if !s.tokens.Verify(in.Token, ActionLogin, in.ActorKey) {
		return nil, ErrInvalidToken
	}

	email := sanitize.Email(in.Email)
	if email == "" || in.Password == "" {
		return nil, ErrMissingCredentials
	}
	if err := validate.Email("email", email); err != nil {
		return nil, err
	}

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		log.Printf("[auth] account lookup for login: %v", err)
		return nil, ErrInvalidCredentials
	}
	if account == nil {
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(in.Password)) != nil {
		return nil, ErrInvalidCredentials
	}

	return s.establish(account, in.Remember)
}

// Register validates the registration form, creates an account with the
// default submission role, and establishes a session immediately (no
// separate login step).
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	if !s.registrationEnabled {
		return nil, ErrRegistrationDisabled
	}
	if !s.tokens.Verify(in.Token, ActionRegister, in.ActorKey) {
		return nil, ErrInvalidToken
	}

	username := sanitize.Text(in.Username)
	email := sanitize.Email(in.Email)

	if err := validate.Required("username", username); err != nil {
		return nil, err
	}
	if err := validate.Email("email", email); err != nil {
		return nil, err
	}
	if err := validate.MinLength("password", in.Password, s.minPasswordLength); err != nil {
		return nil, err
	}
	if in.Password != in.PasswordConfirm {
		return nil, ErrPasswordMismatch
	}

	if taken, err := s.accounts.UsernameExists(ctx, username); err != nil {
		return nil, fmt.Errorf("AuthService.Register: %w", err)
	} else if taken {
		return nil, ErrUsernameTaken
	}
	if taken, err := s.accounts.EmailExists(ctx, email); err != nil {
		return nil, fmt.Errorf("AuthService.Register: %w", err)
	} else if taken {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("AuthService.Register: hash: %w", err)
	}

	account := &model.Account{
		ID:           ulid.Make().String(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Roles:        pq.StringArray{model.RoleAgent},
		CreatedAt:    time.Now(),
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("AuthService.Register: create: %w", err)
	}

	return s.establish(account, false)
}

// FormToken issues a one-time-style token for the given action and actor.
func (s *AuthService) FormToken(action, actorKey string) string {
	return s.tokens.Create(action, actorKey)
}

// VerifyFormToken checks a submission token.
func (s *AuthService) VerifyFormToken(token, action, actorKey string) bool {
	return s.tokens.Verify(token, action, actorKey)
}

func (s *AuthService) establish(account *model.Account, remember bool) (*Session, error) {
	token, ttl, err := s.sessions.Issue(account, remember)
	if err != nil {
		return nil, fmt.Errorf("AuthService: establish session: %w", err)
	}
	return &Session{Account: account, Token: token, TTL: ttl}, nil
}
