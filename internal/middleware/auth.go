package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tutorhub/tutorhub-backend/internal/common"
	"github.com/tutorhub/tutorhub-backend/pkg/jwt"
)

// JWTAuth JWT authentication middleware. The engine only records the
// identity carried in the token; it performs no account lookups.
func JWTAuth(jwtManager *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			common.ErrorResponse(c, 401, "Missing authorization header", nil)
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			common.ErrorResponse(c, 401, "Invalid authorization header format", nil)
			c.Abort()
			return
		}

		claims, err := jwtManager.VerifyToken(parts[1])
		if err != nil {
			if errors.Is(err, jwt.ErrExpiredToken) {
				common.ErrorResponse(c, 401, "Token expired", err)
			} else {
				common.ErrorResponse(c, 401, "Invalid token", err)
			}
			c.Abort()
			return
		}

		c.Set("userID", claims.UserID)
		c.Set("nickname", claims.Nickname)
		c.Set("isReviewer", claims.IsReviewer())

		c.Next()
	}
}

// OptionalJWTAuth populates identity from a Bearer token when one is
// present and valid, but never rejects the request.
func OptionalJWTAuth(jwtManager *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			if claims, err := jwtManager.VerifyToken(parts[1]); err == nil {
				c.Set("userID", claims.UserID)
				c.Set("nickname", claims.Nickname)
				c.Set("isReviewer", claims.IsReviewer())
			}
		}
		c.Next()
	}
}

// RequireReviewer rejects requests whose token lacks reviewer rights. Must
// run after JWTAuth, which derives the flag from the token claims.
func RequireReviewer() gin.HandlerFunc {
	return func(c *gin.Context) {
		flag, exists := c.Get("isReviewer")
		if allowed, ok := flag.(bool); !exists || !ok || !allowed {
			common.ErrorResponse(c, 403, "Reviewer role required", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetUserID extracts user ID from context
func GetUserID(c *gin.Context) string {
	userID, exists := c.Get("userID")
	if !exists {
		return ""
	}
	if str, ok := userID.(string); ok {
		return str
	}
	return ""
}
