package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"

	"listing-site-backend/internal/middleware"
)

const secret = "test-secret-key-for-jwt-signing-must-be-long-enough"

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(middleware.AuthMiddleware(secret))
	router.GET("/test", func(c *gin.Context) {
		id, ok := middleware.OwnerID(c)
		assert.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"owner": id})
	})
	return router
}

func sign(t *testing.T, claims jwt.MapClaims, key string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	assert.NoError(t, err)
	return s
}

func call(router *gin.Engine, header string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest("GET", "/test", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware_NoToken(t *testing.T) {
	w := call(newRouter(t), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	w := call(newRouter(t), "Bearer invalid-token")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_WrongScheme(t *testing.T) {
	w := call(newRouter(t), "Token abc")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_WrongSecret(t *testing.T) {
	w := call(newRouter(t), "Bearer "+sign(t, jwt.MapClaims{"sub": "42"}, "other-secret"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "signature")
}

func TestAuthMiddleware_Expired(t *testing.T) {
	tok := sign(t, jwt.MapClaims{"sub": "42", "exp": time.Now().Add(-time.Hour).Unix()}, secret)
	w := call(newRouter(t), "Bearer "+tok)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "expired")
}

func TestAuthMiddleware_NonNumericSubject(t *testing.T) {
	w := call(newRouter(t), "Bearer "+sign(t, jwt.MapClaims{"sub": "user-123"}, secret))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	w := call(newRouter(t), "Bearer "+sign(t, jwt.MapClaims{"sub": "42"}, secret))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"owner":42}`, w.Body.String())
}
