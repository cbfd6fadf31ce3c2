package middleware

import (
	"net/http"
	"strings"

	"assessment-service/internal/dto"
	"assessment-service/pkg/jwt"

	"github.com/gin-gonic/gin"
)

func JWTAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			dto.JsonError(c, http.StatusUnauthorized, "Authorization header is required")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			dto.JsonError(c, http.StatusUnauthorized, "Invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := jwt.ValidateAccessToken(parts[1], secret)
		if err != nil {
			dto.JsonError(c, http.StatusUnauthorized, "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("email", claims.Email)
		c.Set("role", claims.Role)
		c.Set("email_verified", claims.EmailVerified)

		c.Next()
	}
}

// RequireVerifiedEmail gates assessment routes behind a verified address.
func RequireVerifiedEmail() gin.HandlerFunc {
	return func(c *gin.Context) {
		verified := c.GetBool("email_verified")
		if !verified {
			dto.JsonError(c, http.StatusForbidden, "Email verification is required")
			c.Abort()
			return
		}
		c.Next()
	}
}

func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString("role") != role {
			dto.JsonError(c, http.StatusForbidden, "Insufficient permissions")
			c.Abort()
			return
		}
		c.Next()
	}
}
