package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/nano-midea/socialsync/internal/session"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func run(t *testing.T, mw echo.MiddlewareFunc, req *http.Request) (session.Principal, error) {
	t.Helper()

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var got session.Principal
	err := mw(func(c echo.Context) error {
		got = session.FromContext(c.Request().Context())
		return nil
	})(c)
	return got, err
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	return he.Code
}

func TestJWTAuthMiddleware_ValidToken(t *testing.T) {
	p := session.Principal{UID: "u1", Email: "ada@example.com", DisplayName: "Ada"}
	token, err := IssueSessionToken(testSecret, p, time.Now())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	got, err := run(t, JWTAuthMiddleware(testSecret), req)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestJWTAuthMiddleware_QueryToken(t *testing.T) {
	token, err := IssueSessionToken(testSecret, session.Principal{UID: "u1"}, time.Now())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/live?token="+token, nil)

	got, err := run(t, JWTAuthMiddleware(testSecret), req)
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UID)
}

func TestJWTAuthMiddleware_Rejects(t *testing.T) {
	expired, err := IssueSessionToken(testSecret, session.Principal{UID: "u1"}, time.Now().Add(-2*SessionTokenTTL))
	require.NoError(t, err)
	foreign, err := IssueSessionToken("other-secret", session.Principal{UID: "u1"}, time.Now())
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
	}{
		{name: "missing header", header: ""},
		{name: "not bearer", header: "Basic abc"},
		{name: "garbage", header: "Bearer not-a-jwt"},
		{name: "expired", header: "Bearer " + expired},
		{name: "wrong secret", header: "Bearer " + foreign},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			_, err := run(t, JWTAuthMiddleware(testSecret), req)
			assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))
		})
	}
}

type fakeVerifier struct {
	token *auth.Token
	err   error
}

func (f fakeVerifier) VerifyIDToken(context.Context, string) (*auth.Token, error) {
	return f.token, f.err
}

func TestFirebaseAuthMiddleware(t *testing.T) {
	verifier := fakeVerifier{token: &auth.Token{
		UID:    "fb-1",
		Claims: map[string]interface{}{"email": "grace@example.com", "name": "Grace"},
	}}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer id-token")

	got, err := run(t, FirebaseAuthMiddleware(verifier), req)
	require.NoError(t, err)
	assert.Equal(t, session.Principal{UID: "fb-1", Email: "grace@example.com", DisplayName: "Grace"}, got)
}

func TestFirebaseAuthMiddleware_InvalidToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer id-token")

	_, err := run(t, FirebaseAuthMiddleware(fakeVerifier{err: errors.New("expired")}), req)
	assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))
}

func TestPrincipalFromToken_MissingClaims(t *testing.T) {
	p := PrincipalFromToken(&auth.Token{UID: "anon", Claims: map[string]interface{}{}})
	assert.Equal(t, session.Principal{UID: "anon"}, p)
}

func TestRequireAdmin(t *testing.T) {
	mw := RequireAdmin([]string{"root"})
	reached := func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }

	serve := func(p session.Principal) error {
		req := httptest.NewRequest(http.MethodGet, "/admin/drifts", nil)
		req = req.WithContext(session.WithPrincipal(req.Context(), p))
		c := echo.New().NewContext(req, httptest.NewRecorder())
		return mw(reached)(c)
	}

	require.NoError(t, serve(session.Principal{UID: "root"}))
	assert.Equal(t, http.StatusForbidden, statusOf(t, serve(session.Principal{UID: "someone"})))
	assert.Equal(t, http.StatusUnauthorized, statusOf(t, serve(session.Principal{})))
}
