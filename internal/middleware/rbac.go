package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/khoido2003/natour-api/internal/models"
	appErrors "github.com/khoido2003/natour-api/pkg/errors"
	"github.com/khoido2003/natour-api/pkg/response"
)

// RestrictTo lets through only users holding one of roles. It must run after Protect.
func RestrictTo(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "You are not logged in! Please log in to get access."))
			c.Abort()
			return
		}

		if _, ok := allowed[user.Role]; !ok {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}

		c.Next()
	}
}
