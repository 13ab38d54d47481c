package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	a := NewAuthService("test-secret")

	token, err := a.IssueJWT(42, "editor")
	require.NoError(t, err)

	claims, err := a.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.Sub)
	assert.Equal(t, "editor", claims.Role)
	assert.Equal(t, "glagol", claims.Issuer)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	token, err := NewAuthService("secret-a").IssueJWT(1, "student")
	require.NoError(t, err)

	_, err = NewAuthService("secret-b").Parse(token)
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("пароль123")
	require.NoError(t, err)
	assert.NotEqual(t, "пароль123", hash)
	assert.True(t, CheckPassword(hash, "пароль123"))
	assert.False(t, CheckPassword(hash, "другой"))
}

func TestJWTMiddleware(t *testing.T) {
	a := NewAuthService("test-secret")
	var gotUserID int64
	var gotRole string
	handler := JWTMiddleware(a)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = UserIDFromContext(r.Context())
		gotRole = RoleFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := a.IssueJWT(7, "student")
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(7), gotUserID)
	assert.Equal(t, "student", gotRole)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
