package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/khoido2003/natour-api/internal/service"
)

// AliasTopTours rewrites the request query into the top-5-cheap listing.
func AliasTopTours() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.URL.RawQuery = service.TopCheapQuery(c.Request.URL.Query()).Encode()
		c.Next()
	}
}
