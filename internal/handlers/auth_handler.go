package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"cardquiz/internal/models"
	"cardquiz/internal/security"
	"cardquiz/internal/service"
	"cardquiz/internal/validation"
)

// IdentityProvider is the account surface the auth endpoints need
type IdentityProvider interface {
	SignUp(ctx context.Context, email, password string, profile models.Profile) (*service.AuthResult, error)
	SignIn(ctx context.Context, email, password string) (*service.AuthResult, error)
	SignOut(ctx context.Context, token string) error
	OAuthSignIn(ctx context.Context, provider, subject, email, name string) (*service.AuthResult, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ConfirmPasswordReset(ctx context.Context, token, newPassword string) error
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	authService          IdentityProvider
	oauthProviders       map[string]OAuthProvider
	oauthRedirectBaseURL string
	appRedirectURL       string
	states               *security.StateSigner
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService IdentityProvider, oauthProviders map[string]OAuthProvider, oauthRedirectBaseURL, appRedirectURL string, states *security.StateSigner) *AuthHandler {
	return &AuthHandler{
		authService:          authService,
		oauthProviders:       oauthProviders,
		oauthRedirectBaseURL: oauthRedirectBaseURL,
		appRedirectURL:       appRedirectURL,
		states:               states,
	}
}

type userView struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone,omitempty"`
}

func newUserView(u *models.User) *userView {
	if u == nil {
		return nil
	}
	return &userView{ID: u.ID, Email: u.Email, FullName: u.FullName, Phone: u.Phone}
}

type authResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        *userView `json:"user"`
}

func newAuthResponse(res *service.AuthResult) authResponse {
	return authResponse{AccessToken: res.AccessToken, ExpiresAt: res.ExpiresAt, User: newUserView(res.User)}
}

type signUpRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

// SignUp creates an account and signs it in
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidRequestBody, "", nil)
		return
	}

	profile := models.Profile{FirstName: req.FirstName, LastName: req.LastName, Phone: req.Phone}
	res, err := h.authService.SignUp(r.Context(), req.Email, req.Password, profile)
	if err != nil {
		h.identityError(w, err, "Sign up failed")
		return
	}
	respondWithJSON(w, http.StatusCreated, newAuthResponse(res))
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignIn exchanges email and password for an access token
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidRequestBody, "", nil)
		return
	}

	res, err := h.authService.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		h.identityError(w, err, "Sign in failed")
		return
	}
	respondWithJSON(w, http.StatusOK, newAuthResponse(res))
}

// SignOut revokes the caller's token. Unknown tokens still succeed.
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	token := security.BearerToken(r)
	if token == "" {
		respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
		return
	}

	err := h.authService.SignOut(r.Context(), token)
	if err != nil && !errors.Is(err, service.ErrSessionNotFound) {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Sign out failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the signed-in user
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
		return
	}
	respondWithJSON(w, http.StatusOK, newUserView(user))
}

type resetRequest struct {
	Email string `json:"email"`
}

// RequestPasswordReset always answers 202 for well-formed emails
func (h *AuthHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidRequestBody, "", nil)
		return
	}

	if err := h.authService.RequestPasswordReset(r.Context(), req.Email); err != nil {
		h.identityError(w, err, "Password reset request failed")
		return
	}
	respondWithJSON(w, http.StatusAccepted, map[string]string{
		"message": "If an account exists for that email, a reset link has been sent.",
	})
}

type confirmResetRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// ConfirmPasswordReset sets a new password from an emailed token
func (h *AuthHandler) ConfirmPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req confirmResetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidRequestBody, "", nil)
		return
	}

	if err := h.authService.ConfirmPasswordReset(r.Context(), req.Token, req.NewPassword); err != nil {
		h.identityError(w, err, "Password reset failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// identityError maps account errors to inline messages
func (h *AuthHandler) identityError(w http.ResponseWriter, err error, logMsg string) {
	var verr validation.ValidationError
	switch {
	case errors.As(err, &verr):
		respondWithError(w, http.StatusBadRequest, verr.Message, "", nil)
	case errors.Is(err, service.ErrEmailTaken):
		respondWithError(w, http.StatusConflict, "An account with this email already exists", "", nil)
	case errors.Is(err, service.ErrInvalidCredentials):
		respondWithError(w, http.StatusUnauthorized, "Invalid email or password", "", nil)
	case errors.Is(err, service.ErrInvalidResetToken), errors.Is(err, service.ErrResetTokenUsed):
		respondWithError(w, http.StatusBadRequest, err.Error(), "", nil)
	default:
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, logMsg, err)
	}
}
