package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"listing-site-backend/internal/models"
)

// UserIDKey holds the authenticated owner id (int64) in the gin context.
const UserIDKey = "user_id"

// AuthMiddleware accepts HS256 tokens signed with secret whose "sub" claim is
// the Telegram id of the listing owner.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abort(c, "missing authorization header", "")
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			abort(c, "invalid authorization header format", "")
			return
		}
		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			abort(c, "empty token", "")
			return
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			if secret == "" {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		}, jwt.WithValidMethods([]string{"HS256"}))
		if err != nil {
			var msg string
			switch {
			case errors.Is(err, jwt.ErrTokenSignatureInvalid):
				msg = "token signature is invalid"
			case errors.Is(err, jwt.ErrTokenExpired):
				msg = "token has expired"
			case errors.Is(err, jwt.ErrTokenMalformed):
				msg = "token is malformed"
			default:
				msg = err.Error()
			}
			abort(c, "invalid token", msg)
			return
		}

		sub, err := token.Claims.GetSubject()
		if err != nil || sub == "" {
			abort(c, "missing user id in token", "")
			return
		}
		ownerID, err := strconv.ParseInt(sub, 10, 64)
		if err != nil {
			abort(c, "invalid user id in token", "subject must be a numeric Telegram user id")
			return
		}

		c.Set(UserIDKey, ownerID)
		c.Next()
	}
}

// OwnerID returns the id stored by AuthMiddleware.
func OwnerID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(UserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

func abort(c *gin.Context, reason, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Error: reason, Message: message})
}
