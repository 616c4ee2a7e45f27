package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Steven-Gee-ally/afcglide-listings-009/internal/auth"
	"github.com/Steven-Gee-ally/afcglide-listings-009/internal/flash"
	"github.com/Steven-Gee-ally/afcglide-listings-009/internal/middleware"
	"github.com/Steven-Gee-ally/afcglide-listings-009/internal/service"
	"github.com/Steven-Gee-ally/afcglide-listings-009/internal/validate"
)

// AuthHandler owns login, registration, logout, and form-token issuance.
type AuthHandler struct {
	Auth  *service.AuthService
	Flash *flash.Broker

	// LoginRedirectURL is the post-login landing page unless the request
	// carries a same-origin redirect_to. LogoutRedirectURL is the login
	// surface.
	LoginRedirectURL  string
	LogoutRedirectURL string
}

// RegisterRoutes wires the auth routes. public is session-resolved but open;
// protected requires a session (logout only).
func (h *AuthHandler) RegisterRoutes(public, protected *gin.RouterGroup) {
	public.POST("/auth/login", h.Login)
	public.POST("/auth/register", h.Register)
	public.GET("/auth/token", h.FormToken)
	protected.POST("/auth/logout", h.Logout)
}

// FormToken handles GET /api/auth/token?action=... and issues the one-time
// token the submission and auth forms must echo back.
func (h *AuthHandler) FormToken(c *gin.Context) {
	action := c.Query("action")
	switch action {
	case service.ActionLogin, service.ActionRegister, service.ActionSubmitListing:
	default:
		jsonError(c, http.StatusBadRequest, "Unknown form action.")
		return
	}
	jsonSuccess(c, gin.H{"token": h.Auth.FormToken(action, middleware.ActorFlashKey(c))})
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	actorKey := middleware.ActorFlashKey(c)

	session, err := h.Auth.Login(c.Request.Context(), service.LoginInput{
		Email:    c.PostForm("email"),
		Password: c.PostForm("password"),
		Token:    c.PostForm("token"),
		Remember: c.PostForm("remember_me") != "",
		ActorKey: actorKey,
	})
	if err != nil {
		h.fail(c, actorKey, authErrStatus(err), err.Error())
		return
	}

	h.setSessionCookie(c, session)

	if wantsJSON(c) {
		jsonSuccess(c, gin.H{"message": "Welcome back, " + session.Account.Username + "."})
		return
	}
	c.Redirect(http.StatusSeeOther, safeRedirectTarget(c, c.Query("redirect_to"), h.LoginRedirectURL))
}

// Register handles POST /api/auth/register. A successful registration
// establishes a session immediately.
func (h *AuthHandler) Register(c *gin.Context) {
	actorKey := middleware.ActorFlashKey(c)

	session, err := h.Auth.Register(c.Request.Context(), service.RegisterInput{
		Username:        c.PostForm("username"),
		Email:           c.PostForm("email"),
		Password:        c.PostForm("password"),
		PasswordConfirm: c.PostForm("password_confirm"),
		Token:           c.PostForm("token"),
		ActorKey:        actorKey,
	})
	if err != nil {
		h.fail(c, actorKey, authErrStatus(err), err.Error())
		return
	}

	h.setSessionCookie(c, session)
	h.Flash.Success(session.Account.ID, "Your account has been created.")

	if wantsJSON(c) {
		jsonSuccess(c, gin.H{"message": "Your account has been created."})
		return
	}
	c.Redirect(http.StatusSeeOther, safeRedirectTarget(c, c.Query("redirect_to"), h.LoginRedirectURL))
}

// Logout handles POST /api/auth/logout: tears the session down, leaves a
// one-time success message, and sends the user to the login surface. The
// message is keyed by the visitor fingerprint, not the account id — the next
// request carries no session cookie, so that is the key the user reads with.
func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetCookie(auth.SessionCookie, "", -1, "/", "", false, true)
	h.Flash.Success(flash.VisitorKey(c.ClientIP(), c.Request.UserAgent()), "You have been logged out successfully.")

	if wantsJSON(c) {
		jsonSuccess(c, gin.H{"message": "You have been logged out successfully."})
		return
	}
	c.Redirect(http.StatusSeeOther, h.LogoutRedirectURL)
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, session *service.Session) {
	c.SetCookie(auth.SessionCookie, session.Token, int(session.TTL.Seconds()), "/", "", false, true)
}

func (h *AuthHandler) fail(c *gin.Context, actorKey string, status int, message string) {
	h.Flash.Error(actorKey, message)
	if wantsJSON(c) {
		jsonError(c, status, message)
		return
	}
	c.Redirect(http.StatusSeeOther, referer(c))
}

func authErrStatus(err error) int {
	var rule *validate.RuleError
	switch {
	case errors.Is(err, service.ErrInvalidToken):
		return http.StatusForbidden
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrRegistrationDisabled):
		return http.StatusForbidden
	case errors.Is(err, service.ErrMissingCredentials),
		errors.Is(err, service.ErrUsernameTaken),
		errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, service.ErrPasswordMismatch),
		errors.As(err, &rule):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
