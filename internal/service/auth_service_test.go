package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopworks/storefront/internal/domain"
	"github.com/shopworks/storefront/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockVerifier struct {
	tokens map[string]*auth.Token
}

func (m *mockVerifier) VerifyIDToken(_ context.Context, idToken string) (*auth.Token, error) {
	if t, ok := m.tokens[idToken]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("invalid token")
}

type stubUserRepo struct {
	byUID map[string]*domain.UserAccount
	err   error
}

func (r *stubUserRepo) GetByFirebaseUID(_ context.Context, uid string) (*domain.UserAccount, error) {
	if r.err != nil {
		return nil, r.err
	}
	if u, ok := r.byUID[uid]; ok {
		return u, nil
	}
	return nil, domain.ErrNotFound
}

func (r *stubUserRepo) Create(context.Context, *domain.UserAccount) error { return nil }
func (r *stubUserRepo) GetByID(context.Context, string) (*domain.UserAccount, error) {
	return nil, domain.ErrNotFound
}
func (r *stubUserRepo) GetByEmail(context.Context, string) (*domain.UserAccount, error) {
	return nil, domain.ErrNotFound
}
func (r *stubUserRepo) Update(context.Context, *domain.UserAccount) error     { return nil }
func (r *stubUserRepo) UpdateRole(context.Context, string, domain.Role) error { return nil }
func (r *stubUserRepo) Delete(context.Context, string) error                  { return nil }
func (r *stubUserRepo) GetAll(context.Context) ([]*domain.UserAccount, error) { return nil, nil }
func (r *stubUserRepo) GetByRole(context.Context, domain.Role) ([]*domain.UserAccount, error) {
	return nil, nil
}
func (r *stubUserRepo) CountAll(context.Context) (int64, error) { return 0, nil }

func newTestService(t *testing.T, verifier TokenVerifier, users domain.UserRepository) (*AuthService, domain.SessionStore) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	sessions := repository.NewRedisSessionStore(client, time.Hour)
	return NewAuthService(verifier, users, sessions), sessions
}

func TestResolveSuccess(t *testing.T) {
	user := &domain.UserAccount{ID: "u1", FirebaseUID: "fb-1", Email: "m@x.com", Role: domain.RoleManager}
	verifier := &mockVerifier{tokens: map[string]*auth.Token{"tok": {UID: "fb-1"}}}
	svc, _ := newTestService(t, verifier, &stubUserRepo{byUID: map[string]*domain.UserAccount{"fb-1": user}})

	got, err := svc.Resolve(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "m@x.com", got.Email)
}

func TestResolveInvalidToken(t *testing.T) {
	svc, _ := newTestService(t, &mockVerifier{}, &stubUserRepo{})

	_, err := svc.Resolve(context.Background(), "bad")

	var invalid *ErrTokenInvalid
	assert.True(t, errors.As(err, &invalid), "want ErrTokenInvalid, got %v", err)
}

func TestResolveNoAccount(t *testing.T) {
	verifier := &mockVerifier{tokens: map[string]*auth.Token{"tok": {UID: "fb-unknown"}}}
	svc, _ := newTestService(t, verifier, &stubUserRepo{})

	_, err := svc.Resolve(context.Background(), "tok")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLoginEstablishesSession(t *testing.T) {
	user := &domain.UserAccount{ID: "u1", FirebaseUID: "fb-1", Email: "m@x.com", Role: domain.RoleManager}
	verifier := &mockVerifier{tokens: map[string]*auth.Token{"tok": {UID: "fb-1"}}}
	svc, sessions := newTestService(t, verifier, &stubUserRepo{byUID: map[string]*domain.UserAccount{"fb-1": user}})

	result, err := svc.Login(context.Background(), "tok")
	require.NoError(t, err)
	require.NotEmpty(t, result.SessionID)

	cached, err := sessions.GetUserProfile(context.Background(), result.SessionID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, cached.Email)
}

func TestLogoutDestroysSession(t *testing.T) {
	user := &domain.UserAccount{ID: "u1", FirebaseUID: "fb-1", Email: "m@x.com", Role: domain.RoleManager}
	verifier := &mockVerifier{tokens: map[string]*auth.Token{"tok": {UID: "fb-1"}}}
	svc, sessions := newTestService(t, verifier, &stubUserRepo{byUID: map[string]*domain.UserAccount{"fb-1": user}})

	result, err := svc.Login(context.Background(), "tok")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), result.SessionID))

	_, err = sessions.GetUserProfile(context.Background(), result.SessionID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// empty session ID is a no-op
	assert.NoError(t, svc.Logout(context.Background(), ""))
}
