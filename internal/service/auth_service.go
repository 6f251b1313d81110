package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/oklog/ulid/v2"
	"github.com/shopworks/storefront/internal/domain"
)

// TokenVerifier defines the Firebase Auth operation we depend on.
// This allows mocking for tests.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// ErrTokenInvalid wraps any token verification failure so callers can tell it
// apart from lookup failures.
type ErrTokenInvalid struct {
	cause error
}

func (e *ErrTokenInvalid) Error() string {
	return fmt.Sprintf("token verification failed: %v", e.cause)
}

func (e *ErrTokenInvalid) Unwrap() error {
	return e.cause
}

// AuthService resolves identity tokens into storefront accounts and drives
// the login/logout session flow.
type AuthService struct {
	verifier TokenVerifier
	userRepo domain.UserRepository
	sessions domain.SessionStore
}

// NewAuthService creates a new auth service
func NewAuthService(verifier TokenVerifier, userRepo domain.UserRepository, sessions domain.SessionStore) *AuthService {
	return &AuthService{
		verifier: verifier,
		userRepo: userRepo,
		sessions: sessions,
	}
}

// Resolve verifies an identity token and looks up the matching account.
// A verification failure comes back as *ErrTokenInvalid; a valid token with
// no matching account comes back as domain.ErrNotFound.
func (s *AuthService) Resolve(ctx context.Context, idToken string) (*domain.UserAccount, error) {
	token, err := s.verifier.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, &ErrTokenInvalid{cause: err}
	}

	user, err := s.userRepo.GetByFirebaseUID(ctx, token.UID)
	if err != nil {
		if err == domain.ErrNotFound {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}

	return user, nil
}

// LoginResult carries the established session and the resolved account.
type LoginResult struct {
	SessionID string
	User      *domain.UserAccount
}

// Login resolves the token and caches the account profile in a fresh session.
func (s *AuthService) Login(ctx context.Context, idToken string) (*LoginResult, error) {
	user, err := s.Resolve(ctx, idToken)
	if err != nil {
		return nil, err
	}

	sessionID := newSessionID()
	if err := s.sessions.SetUserProfile(ctx, sessionID, user); err != nil {
		return nil, fmt.Errorf("failed to establish session: %w", err)
	}

	return &LoginResult{
		SessionID: sessionID,
		User:      user,
	}, nil
}

// Logout destroys the session. Missing sessions are not an error.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return s.sessions.Destroy(ctx, sessionID)
}

func newSessionID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}
