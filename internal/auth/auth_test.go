package auth_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evolutio/automated-orders/internal"
	"github.com/evolutio/automated-orders/internal/auth"
)

var secret = strings.Repeat("x", 32)

func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

func TestNewTokens_ShortSecret(t *testing.T) {
	t.Parallel()

	_, err := auth.NewTokens("short")
	require.ErrorIs(t, err, auth.ErrShortSecret)
}

func TestTokens_IssueVerify(t *testing.T) {
	t.Parallel()

	tokens, err := auth.NewTokens(secret, auth.WithIssuer("host"))
	require.NoError(t, err)

	token, err := tokens.Issue(auth.Identity{UserID: 7, Email: "admin@example.org", StaffSession: true}, time.Hour)
	require.NoError(t, err)

	id, err := tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, &auth.Identity{UserID: 7, Email: "admin@example.org", StaffSession: true}, id)
}

func TestTokens_VerifyFailures(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	issuer, err := auth.NewTokens(secret, auth.WithClock(fixedClock(now)))
	require.NoError(t, err)
	later, err := auth.NewTokens(secret, auth.WithClock(fixedClock(now.Add(2*time.Hour))))
	require.NoError(t, err)
	other, err := auth.NewTokens(strings.Repeat("y", 32))
	require.NoError(t, err)
	strict, err := auth.NewTokens(secret, auth.WithIssuer("host"), auth.WithClock(fixedClock(now)))
	require.NoError(t, err)

	valid, err := issuer.Issue(auth.Identity{UserID: 1}, time.Hour)
	require.NoError(t, err)

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))},
	}).SignedString([]byte(secret))
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "1", ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name   string
		tokens *auth.Tokens
		token  string
		want   error
	}{
		{"empty", issuer, " ", auth.ErrMissingToken},
		{"expired", later, valid, auth.ErrExpiredToken},
		{"wrong secret", other, valid, auth.ErrInvalidToken},
		{"missing issuer", strict, valid, auth.ErrInvalidToken},
		{"no subject", issuer, noSubject, auth.ErrInvalidToken},
		{"alg none", issuer, none, auth.ErrInvalidToken},
		{"garbage", issuer, "a.b.c", auth.ErrInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.tokens.Verify(tt.token)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestPermissions(t *testing.T) {
	t.Parallel()

	staff := &auth.Identity{UserID: 1, StaffSession: true}
	plain := &auth.Identity{UserID: 1}

	assert.True(t, auth.Permissions{ChangeOrders: true}.CanChangeOrders(plain))
	assert.False(t, auth.Permissions{ViewOrders: true}.CanChangeOrders(plain))
	assert.True(t, auth.Permissions{Staff: true}.CanChangeOrders(staff))
	assert.True(t, auth.Permissions{Staff: true}.CanViewOrders(staff))
	// Staff users without an active staff session get nothing extra.
	assert.False(t, auth.Permissions{Staff: true}.CanViewOrders(plain))
	// A staff_session claim alone is not enough.
	assert.False(t, auth.Permissions{}.CanViewOrders(staff))
	assert.False(t, auth.Permissions{Staff: true}.StaffSession(nil))
}

func TestAuthenticate(t *testing.T) {
	t.Parallel()

	tokens, err := auth.NewTokens(secret)
	require.NoError(t, err)
	token, err := tokens.Issue(auth.Identity{UserID: 42, Email: "a@example.org"}, time.Hour)
	require.NoError(t, err)

	app := internal.New(internal.WithHandlers(routes(func(r internal.Router) {
		r.Use(auth.Authenticate(tokens))
		r.GET("/", func(c internal.Context) error {
			id, err := auth.MustIdentity(c)
			if err != nil {
				return err
			}
			return c.String(http.StatusOK, id.Email)
		})
	})))

	tests := []struct {
		name   string
		setup  func(r *http.Request)
		status int
		body   string
	}{
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }, http.StatusOK, "a@example.org"},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: auth.CookieName, Value: token}) }, http.StatusOK, "a@example.org"},
		{"missing", func(*http.Request) {}, http.StatusUnauthorized, "Unauthorized"},
		{"bad", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, http.StatusUnauthorized, "Unauthorized"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.setup(req)
			rec := httptest.NewRecorder()
			app.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.body, rec.Body.String())
		})
	}
}

type routes func(r internal.Router)

func (f routes) Routes(r internal.Router) { f(r) }
