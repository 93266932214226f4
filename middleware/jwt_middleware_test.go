package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateJWTRoundTrip(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	tokenString, err := GenerateJWT("507f1f77bcf86cd799439011", "staff@tasknest.app", "admin")
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	claims := &JwtCustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	require.True(t, token.Valid)

	assert.Equal(t, "507f1f77bcf86cd799439011", claims.UserID)
	assert.Equal(t, "staff@tasknest.app", claims.Email)
	assert.Equal(t, "admin", claims.UserType)

	// 72h lifetime, allow a little slack for test runtime
	assert.InDelta(t, time.Now().Add(72*time.Hour).Unix(), claims.ExpiresAt, 5)
}

func TestGenerateJWTWithoutSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := GenerateJWT("id", "mail", "admin")
	require.Error(t, err)
}

func TestJwtCustomClaimsValid(t *testing.T) {
	live := JwtCustomClaims{StandardClaims: jwt.StandardClaims{
		ExpiresAt: time.Now().Add(time.Hour).Unix(),
	}}
	assert.NoError(t, live.Valid())

	expired := JwtCustomClaims{StandardClaims: jwt.StandardClaims{
		ExpiresAt: time.Now().Add(-time.Minute).Unix(),
	}}
	assert.Error(t, expired.Valid())

	notYet := JwtCustomClaims{StandardClaims: jwt.StandardClaims{
		ExpiresAt: time.Now().Add(time.Hour).Unix(),
		NotBefore: time.Now().Add(time.Minute).Unix(),
	}}
	assert.Error(t, notYet.Valid())
}

func TestTokenBlacklist(t *testing.T) {
	token := "blacklist-test-token"
	assert.False(t, IsTokenBlacklisted(token))

	BlacklistToken(token, time.Now().Add(time.Hour))
	assert.True(t, IsTokenBlacklisted(token))
}

// Logout and in-flight requests touch the blacklist from different
// goroutines; run with -race.
func TestTokenBlacklistConcurrentAccess(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		token := fmt.Sprintf("concurrent-token-%d", i)
		go func() {
			defer wg.Done()
			BlacklistToken(token, time.Now().Add(time.Hour))
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				IsTokenBlacklisted(token)
			}
		}()
	}
	wg.Wait()

	for i := 0; i < 20; i++ {
		assert.True(t, IsTokenBlacklisted(fmt.Sprintf("concurrent-token-%d", i)))
	}
}

func protectedRequest(t *testing.T, token string) (int, bool, error) {
	t.Helper()
	e := echo.New()
	handlerRan := false
	h := JWTMiddleware()(func(c echo.Context) error {
		handlerRan = true
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/admin/deposits/1/approve", nil)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	err := h(e.NewContext(req, rec))
	return rec.Code, handlerRan, err
}

func TestJWTMiddlewareAllowsValidToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	token, err := GenerateJWT("507f1f77bcf86cd799439011", "staff@tasknest.app", "admin")
	require.NoError(t, err)

	code, handlerRan, herr := protectedRequest(t, token)
	require.NoError(t, herr)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, handlerRan)
}

// A revoked token must not reach the handler at all: writing a 401 while
// still executing the settlement endpoint would let a logged-out admin keep
// moving money until the token's natural expiry.
func TestJWTMiddlewareBlocksBlacklistedToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	token, err := GenerateJWT("507f191e810c19729de860ea", "revoked@tasknest.app", "admin")
	require.NoError(t, err)
	BlacklistToken(token, time.Now().Add(72*time.Hour))

	_, handlerRan, herr := protectedRequest(t, token)
	assert.False(t, handlerRan)

	var httpErr *echo.HTTPError
	require.ErrorAs(t, herr, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestJWTMiddlewareRejectsMissingToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	_, handlerRan, herr := protectedRequest(t, "")
	assert.False(t, handlerRan)

	var httpErr *echo.HTTPError
	require.ErrorAs(t, herr, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestJWTMiddlewareRejectsForgedToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, &JwtCustomClaims{
		UserID:   "507f1f77bcf86cd799439011",
		UserType: "admin",
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(time.Hour).Unix(),
		},
	})
	tokenString, err := forged.SignedString([]byte("wrong-secret"))
	require.NoError(t, err)

	_, handlerRan, herr := protectedRequest(t, tokenString)
	assert.False(t, handlerRan)

	var httpErr *echo.HTTPError
	require.ErrorAs(t, herr, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}
