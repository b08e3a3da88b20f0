package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"todoapi/internal/adapter/http/helper"
	"todoapi/internal/core/domain"
	"todoapi/internal/core/port"
	ct "todoapi/pkg/context"
)

const (
	UserIDKey    = "x-user-id"
	UserEmailKey = "x-user-email"
)

// AuthMiddleware verifies the bearer token and exposes the caller's subject
// and email to the handlers.
func AuthMiddleware(verifier port.IdentityVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))

		if token == "" {
			helper.SendError(c, domain.NewAuthenticationError(domain.CodeTokenMissing, "Authentication token is required"))
			return
		}

		identity, err := verifier.Verify(c.Request.Context(), token)

		if err != nil {
			helper.SendError(c, err)
			return
		}

		c.Set(UserIDKey, identity.Subject)
		c.Set(UserEmailKey, identity.Email)

		current := GetCurrent(c)
		current.Set(ct.UserIDKey, identity.Subject)
		current.Set(ct.UserEmailKey, identity.Email)

		c.Next()
	}
}

func bearerToken(header string) string {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")

	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}

	return strings.TrimSpace(token)
}

// UserID is the authenticated subject. Empty outside AuthMiddleware.
func UserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}

func UserEmail(c *gin.Context) string {
	return c.GetString(UserEmailKey)
}
