package tenant

import (
	"github.com/gin-gonic/gin"

	"crmcore_backend/platform/httpkit"
)

// Middleware rejects requests whose JWT tenant claim is not on the
// allow-list. Runs after authentication, before any repository call.
func Middleware(directory Directory) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := httpkit.MustGetIdentity(c)
		if identity == nil {
			return
		}
		if err := directory.Validate(c.Request.Context(), identity.TenantID()); err != nil {
			httpkit.HandleError(c, err)
			c.Abort()
			return
		}
		c.Next()
	}
}
