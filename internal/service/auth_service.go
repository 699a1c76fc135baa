package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"cardquiz/internal/models"
	"cardquiz/internal/repository"
	"cardquiz/internal/security"
	"cardquiz/internal/validation"
)

var (
	ErrEmailTaken         = errors.New("email already taken")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExpired     = errors.New("session expired")
	ErrInvalidResetToken  = errors.New("invalid or expired reset token")
	ErrResetTokenUsed     = errors.New("this reset link has already been used")
)

const resetTokenTTL = 1 * time.Hour

// Mailer delivers account emails
type Mailer interface {
	IsEnabled() bool
	SendPasswordResetEmail(ctx context.Context, toEmail, toName, resetToken string) error
	SendWelcomeEmail(ctx context.Context, toEmail, toName string) error
}

// AuthResult is returned by every successful sign-in path
type AuthResult struct {
	AccessToken string       `json:"access_token"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        *models.User `json:"-"`
	SessionID   string       `json:"-"`
}

// AuthService is the identity provider: accounts, auth sessions, access
// tokens, password reset and state-change subscription.
type AuthService struct {
	userRepo        *repository.UserRepository
	tokens          *security.TokenIssuer
	mailer          Mailer
	sessionDuration time.Duration
	hub             *authHub
}

// NewAuthService creates a new auth service. mailer may be nil.
func NewAuthService(userRepo *repository.UserRepository, tokens *security.TokenIssuer, mailer Mailer, sessionDuration time.Duration) *AuthService {
	return &AuthService{
		userRepo:        userRepo,
		tokens:          tokens,
		mailer:          mailer,
		sessionDuration: sessionDuration,
		hub:             newAuthHub(),
	}
}

// Subscribe registers a listener for identity state changes.
// The returned function unsubscribes; it is safe to call more than once.
func (s *AuthService) Subscribe(listener func(AuthEvent)) (unsubscribe func()) {
	return s.hub.subscribe(listener)
}

// SignUp creates an account with its profile and signs it in
func (s *AuthService) SignUp(ctx context.Context, email, password string, profile models.Profile) (*AuthResult, error) {
	if err := validation.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, err
	}
	if err := validation.ValidateName(profile.FirstName); err != nil {
		return nil, err
	}
	if err := validation.ValidateName(profile.LastName); err != nil {
		return nil, err
	}
	if err := validation.ValidatePhone(profile.Phone); err != nil {
		return nil, err
	}
	email = validation.NormalizeEmail(email)

	existingUser, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existingUser != nil {
		return nil, ErrEmailTaken
	}

	passwordHash, err := security.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.CreateUser(ctx, email, passwordHash, profile)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if s.mailer != nil && s.mailer.IsEnabled() {
		if err := s.mailer.SendWelcomeEmail(ctx, user.Email, user.FullName); err != nil {
			log.Printf("failed to send welcome email to user %d: %v", user.ID, err)
		}
	}

	return s.startSession(ctx, user)
}

// SignIn authenticates with email and password
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.userRepo.GetUserByEmail(ctx, validation.NormalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil || !security.CheckPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return s.startSession(ctx, user)
}

func (s *AuthService) startSession(ctx context.Context, user *models.User) (*AuthResult, error) {
	sessionID := security.GenerateSessionID()
	expiresAt := time.Now().Add(s.sessionDuration)

	if _, err := s.userRepo.CreateSession(ctx, sessionID, user.ID, expiresAt); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	token, err := s.tokens.Issue(user.ID, user.Email, sessionID, expiresAt)
	if err != nil {
		return nil, err
	}

	s.hub.emit(AuthEvent{Type: EventSignedIn, UserID: user.ID, SessionID: sessionID})

	return &AuthResult{
		AccessToken: token,
		ExpiresAt:   expiresAt,
		User:        user,
		SessionID:   sessionID,
	}, nil
}

// CurrentUser resolves an access token to its user.
// The token must be valid and its auth session still live.
func (s *AuthService) CurrentUser(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, ErrSessionNotFound
	}

	session, err := s.userRepo.GetSession(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil || session.UserID != claims.UserID {
		return nil, ErrSessionNotFound
	}
	if session.IsExpired() {
		_ = s.userRepo.DeleteSession(ctx, session.ID)
		return nil, ErrSessionExpired
	}

	user, err := s.userRepo.GetUserByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrSessionNotFound
	}
	return user, nil
}

// SignOut revokes the auth session behind token
func (s *AuthService) SignOut(ctx context.Context, token string) error {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return ErrSessionNotFound
	}
	if err := s.userRepo.DeleteSession(ctx, claims.ID); err != nil {
		return fmt.Errorf("failed to sign out: %w", err)
	}

	s.hub.emit(AuthEvent{Type: EventSignedOut, UserID: claims.UserID, SessionID: claims.ID})
	return nil
}

// CleanupExpired removes expired auth sessions and reset tokens
func (s *AuthService) CleanupExpired(ctx context.Context) error {
	if err := s.userRepo.DeleteExpiredSessions(ctx); err != nil {
		return fmt.Errorf("failed to cleanup sessions: %w", err)
	}
	if err := s.userRepo.DeleteExpiredResetTokens(ctx); err != nil {
		return fmt.Errorf("failed to cleanup reset tokens: %w", err)
	}
	return nil
}

// OAuthSignIn signs in, links or creates a user from an external provider identity
func (s *AuthService) OAuthSignIn(ctx context.Context, provider, subject, email, name string) (*AuthResult, error) {
	if provider == "" || subject == "" {
		return nil, errors.New("missing oauth provider information")
	}
	if err := validation.ValidateEmail(email); err != nil {
		return nil, err
	}
	email = validation.NormalizeEmail(email)

	user, err := s.userRepo.GetUserByOAuth(ctx, provider, subject)
	if err != nil {
		return nil, fmt.Errorf("failed to lookup oauth user: %w", err)
	}

	if user == nil {
		existingUser, err := s.userRepo.GetUserByEmail(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("failed to check existing user: %w", err)
		}

		if existingUser != nil {
			if existingUser.OAuthProvider != "" && existingUser.OAuthProvider != provider {
				return nil, ErrEmailTaken
			}
			if err := s.userRepo.LinkOAuthProvider(ctx, existingUser.ID, provider, subject); err != nil {
				return nil, fmt.Errorf("failed to link oauth provider: %w", err)
			}
			user = existingUser
			s.hub.emit(AuthEvent{Type: EventUserUpdated, UserID: user.ID})
		} else {
			if name == "" {
				name = strings.Split(email, "@")[0]
			}
			user, err = s.userRepo.CreateOAuthUser(ctx, email, name, provider, subject)
			if err != nil {
				return nil, err
			}
		}
	}

	return s.startSession(ctx, user)
}

// RequestPasswordReset emails a reset link. It never reveals whether the email exists.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	if err := validation.ValidateEmail(email); err != nil {
		return err
	}

	user, err := s.userRepo.GetUserByEmail(ctx, validation.NormalizeEmail(email))
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil
	}

	// OAuth-only accounts have no password to reset
	if user.OAuthProvider != "" && user.PasswordHash == "" {
		return nil
	}

	token, err := security.GenerateResetToken()
	if err != nil {
		return err
	}

	_ = s.userRepo.DeleteUserResetTokens(ctx, user.ID)

	if err := s.userRepo.CreateResetToken(ctx, token, user.ID, time.Now().Add(resetTokenTTL)); err != nil {
		return fmt.Errorf("failed to create reset token: %w", err)
	}

	if s.mailer != nil && s.mailer.IsEnabled() {
		if err := s.mailer.SendPasswordResetEmail(ctx, user.Email, user.FullName, token); err != nil {
			return fmt.Errorf("failed to send reset email: %w", err)
		}
	} else {
		log.Printf("password reset requested for user %d but email is disabled", user.ID)
	}

	return nil
}

// ConfirmPasswordReset sets a new password using a reset token and revokes
// every auth session of the user.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	resetToken, err := s.userRepo.GetResetToken(ctx, token)
	if err != nil {
		return fmt.Errorf("failed to get reset token: %w", err)
	}
	if resetToken == nil || resetToken.IsExpired() {
		return ErrInvalidResetToken
	}
	if resetToken.Used {
		return ErrResetTokenUsed
	}

	if err := validation.ValidatePassword(newPassword); err != nil {
		return err
	}

	passwordHash, err := security.HashPassword(newPassword)
	if err != nil {
		return err
	}

	consumed, err := s.userRepo.MarkResetTokenUsed(ctx, token)
	if err != nil {
		return err
	}
	if !consumed {
		return ErrResetTokenUsed
	}

	if err := s.userRepo.UpdatePassword(ctx, resetToken.UserID, passwordHash); err != nil {
		return err
	}
	s.hub.emit(AuthEvent{Type: EventPasswordRecovery, UserID: resetToken.UserID})

	if err := s.userRepo.DeleteUserSessions(ctx, resetToken.UserID); err != nil {
		return err
	}
	s.hub.emit(AuthEvent{Type: EventSignedOut, UserID: resetToken.UserID})

	return nil
}
