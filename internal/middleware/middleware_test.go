package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopworks/storefront/internal/domain"
	"github.com/shopworks/storefront/internal/repository"
	"github.com/shopworks/storefront/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const sessionCookie = "storefront_session"

// mockVerifier implements service.TokenVerifier
type mockVerifier struct {
	tokens map[string]*auth.Token
}

func (m *mockVerifier) VerifyIDToken(_ context.Context, idToken string) (*auth.Token, error) {
	if t, ok := m.tokens[idToken]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("ID token has expired")
}

// stubUserRepo implements domain.UserRepository backed by a map keyed on
// firebase UID. Only the lookup paths matter to the middleware.
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
func (r *stubUserRepo) Update(context.Context, *domain.UserAccount) error          { return nil }
func (r *stubUserRepo) UpdateRole(context.Context, string, domain.Role) error      { return nil }
func (r *stubUserRepo) Delete(context.Context, string) error                       { return nil }
func (r *stubUserRepo) GetAll(context.Context) ([]*domain.UserAccount, error)      { return nil, nil }
func (r *stubUserRepo) GetByRole(context.Context, domain.Role) ([]*domain.UserAccount, error) {
	return nil, nil
}
func (r *stubUserRepo) CountAll(context.Context) (int64, error) { return 0, nil }

type testEnv struct {
	app      *fiber.App
	sessions *repository.RedisSessionStore
}

func newTestEnv(t *testing.T, verifier service.TokenVerifier, users domain.UserRepository) *testEnv {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	sessions := repository.NewRedisSessionStore(client, time.Hour)
	authService := service.NewAuthService(verifier, users, sessions)

	app := fiber.New()
	app.Use(SessionAuth(sessions, sessionCookie, zap.NewNop()))
	app.Use(FirebaseCookieAuth(authService, zap.NewNop()))
	app.Get("/whoami", func(c *fiber.Ctx) error {
		return c.JSON(IdentityFrom(c))
	})
	app.Get("/admin", RequireClaim(domain.ClaimCanAccessAdminPanel), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	app.Get("/branches/:id", RequireBranchAccess("id"), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	return &testEnv{app: app, sessions: sessions}
}

func doRequest(t *testing.T, app *fiber.App, path string, cookies map[string]string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	for name, value := range cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeIdentity(t *testing.T, resp *http.Response) *domain.Identity {
	t.Helper()

	var id domain.Identity
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&id))
	return &id
}

func setCookieFor(resp *http.Response, name string) string {
	for _, sc := range resp.Header.Values("Set-Cookie") {
		if strings.HasPrefix(sc, name+"=") {
			return sc
		}
	}
	return ""
}

func TestNoCredentialsIsAnonymous(t *testing.T) {
	env := newTestEnv(t, &mockVerifier{}, &stubUserRepo{})

	resp := doRequest(t, env.app, "/whoami", nil)
	id := decodeIdentity(t, resp)

	assert.False(t, id.Authenticated)
	assert.Empty(t, id.Claims)
}

func TestSessionProfileResolvesIdentity(t *testing.T) {
	env := newTestEnv(t, &mockVerifier{}, &stubUserRepo{})

	owner := &domain.UserAccount{ID: "u1", Email: "o@x.com", Role: domain.RoleOwner}
	require.NoError(t, env.sessions.SetUserProfile(context.Background(), "sess-1", owner))

	resp := doRequest(t, env.app, "/whoami", map[string]string{sessionCookie: "sess-1"})
	id := decodeIdentity(t, resp)

	require.True(t, id.Authenticated)
	for _, key := range []string{
		domain.ClaimIsOwner, domain.ClaimCanManageSettings, domain.ClaimCanManageUsers,
		domain.ClaimCanViewReports, domain.ClaimIsAdmin, domain.ClaimCanAccessAdminPanel,
	} {
		assert.True(t, id.HasTrue(key), "missing claim %s", key)
	}
	assert.Empty(t, id.BranchIDs())
}

func TestUnknownSessionStaysAnonymous(t *testing.T) {
	env := newTestEnv(t, &mockVerifier{}, &stubUserRepo{})

	resp := doRequest(t, env.app, "/whoami", map[string]string{sessionCookie: "ghost"})
	id := decodeIdentity(t, resp)

	assert.False(t, id.Authenticated)
}

func TestTokenCookieResolvesIdentity(t *testing.T) {
	staff := &domain.UserAccount{
		ID: "u2", FirebaseUID: "fb-2", Email: "s@x.com", Role: domain.RoleStaff,
		ErpUser: true, BranchAccess: map[string]bool{"jkt": true},
	}
	verifier := &mockVerifier{tokens: map[string]*auth.Token{
		"good-token": {UID: "fb-2"},
	}}
	env := newTestEnv(t, verifier, &stubUserRepo{byUID: map[string]*domain.UserAccount{"fb-2": staff}})

	resp := doRequest(t, env.app, "/whoami", map[string]string{TokenCookieName: "good-token"})
	id := decodeIdentity(t, resp)

	require.True(t, id.Authenticated)
	assert.True(t, id.HasTrue(domain.ClaimIsStaff))
	assert.Equal(t, "fb-2", id.Subject())
	assert.Equal(t, []string{"jkt"}, id.BranchIDs())
	// cookie untouched on success
	assert.Empty(t, setCookieFor(resp, TokenCookieName))
}

func TestExpiredTokenDiscardsCookie(t *testing.T) {
	env := newTestEnv(t, &mockVerifier{}, &stubUserRepo{})

	resp := doRequest(t, env.app, "/whoami", map[string]string{TokenCookieName: "expired-token"})
	id := decodeIdentity(t, resp)

	assert.False(t, id.Authenticated)

	sc := setCookieFor(resp, TokenCookieName)
	require.NotEmpty(t, sc, "expected the identity cookie to be discarded")
	assert.Contains(t, strings.ToLower(sc), "expires")
}

func TestVerifiedTokenWithoutAccountKeepsCookie(t *testing.T) {
	verifier := &mockVerifier{tokens: map[string]*auth.Token{
		"orphan-token": {UID: "fb-unknown"},
	}}
	env := newTestEnv(t, verifier, &stubUserRepo{})

	resp := doRequest(t, env.app, "/whoami", map[string]string{TokenCookieName: "orphan-token"})
	id := decodeIdentity(t, resp)

	assert.False(t, id.Authenticated)
	assert.Empty(t, setCookieFor(resp, TokenCookieName), "cookie must not be discarded on a missing account")
}

func TestLookupErrorIsSwallowed(t *testing.T) {
	verifier := &mockVerifier{tokens: map[string]*auth.Token{
		"good-token": {UID: "fb-2"},
	}}
	env := newTestEnv(t, verifier, &stubUserRepo{err: fmt.Errorf("connection reset")})

	resp := doRequest(t, env.app, "/whoami", map[string]string{TokenCookieName: "good-token"})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	id := decodeIdentity(t, resp)
	assert.False(t, id.Authenticated)
	assert.Empty(t, setCookieFor(resp, TokenCookieName))
}

func TestRequireClaim(t *testing.T) {
	env := newTestEnv(t, &mockVerifier{}, &stubUserRepo{})
	ctx := context.Background()

	owner := &domain.UserAccount{ID: "u1", Email: "o@x.com", Role: domain.RoleOwner}
	customer := &domain.UserAccount{ID: "u3", Email: "c@x.com", Role: domain.RoleCustomer}
	require.NoError(t, env.sessions.SetUserProfile(ctx, "owner-sess", owner))
	require.NoError(t, env.sessions.SetUserProfile(ctx, "customer-sess", customer))

	tests := []struct {
		name    string
		cookies map[string]string
		want    int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"customer", map[string]string{sessionCookie: "customer-sess"}, http.StatusForbidden},
		{"owner", map[string]string{sessionCookie: "owner-sess"}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doRequest(t, env.app, "/admin", tt.cookies)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestRequireBranchAccess(t *testing.T) {
	env := newTestEnv(t, &mockVerifier{}, &stubUserRepo{})

	staff := &domain.UserAccount{
		ID: "u2", Email: "s@x.com", Role: domain.RoleStaff,
		ErpUser: true, BranchAccess: map[string]bool{"jkt": true, "bdg": false},
	}
	require.NoError(t, env.sessions.SetUserProfile(context.Background(), "staff-sess", staff))
	cookies := map[string]string{sessionCookie: "staff-sess"}

	assert.Equal(t, http.StatusOK, doRequest(t, env.app, "/branches/jkt", cookies).StatusCode)
	assert.Equal(t, http.StatusForbidden, doRequest(t, env.app, "/branches/bdg", cookies).StatusCode)
	assert.Equal(t, http.StatusUnauthorized, doRequest(t, env.app, "/branches/jkt", nil).StatusCode)
}
