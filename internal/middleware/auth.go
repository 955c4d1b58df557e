package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/khoido2003/natour-api/internal/models"
	"github.com/khoido2003/natour-api/pkg/response"
)

const (
	// ContextUserKey is the gin context key storing the authenticated user.
	ContextUserKey = "currentUser"
	// ContextClaimsKey is the gin context key storing the verified token claims.
	ContextClaimsKey = "currentClaims"
)

// SessionResolver turns a raw token into the user it belongs to.
type SessionResolver interface {
	Protect(ctx context.Context, token string) (*models.User, *models.JWTClaims, error)
}

// Protect requires a valid session token, read from the Authorization bearer
// header or, failing that, from the session cookie.
func Protect(resolver SessionResolver, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, claims, err := resolver.Protect(c.Request.Context(), TokenFromRequest(c, cookieName))
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextUserKey, user)
		c.Set(ContextClaimsKey, claims)
		c.Next()
	}
}

// TokenFromRequest extracts the session token. A cookie holding "loggedout" counts as absent.
func TokenFromRequest(c *gin.Context, cookieName string) string {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if cookieName == "" {
		return ""
	}
	if token, err := c.Cookie(cookieName); err == nil && token != LoggedOutCookieValue {
		return token
	}
	return ""
}

// LoggedOutCookieValue overwrites the session cookie on logout.
const LoggedOutCookieValue = "loggedout"

// CurrentUser returns the user stored by Protect.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil, false
	}
	user, ok := value.(*models.User)
	return user, ok && user != nil
}
