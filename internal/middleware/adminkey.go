package middleware

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	appErrors "github.com/openchecklist/checklist-api/pkg/errors"
	"github.com/openchecklist/checklist-api/pkg/response"
)

// AdminKeyHeader carries the shared admin secret.
const AdminKeyHeader = "X-Admin-Key"

// AdminKey gates admin routes behind a shared-secret header. An empty
// configured key disables the whole admin surface rather than leaving it
// open.
func AdminKey(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		supplied := c.GetHeader(AdminKeyHeader)
		if key == "" || subtle.ConstantTimeCompare([]byte(supplied), []byte(key)) != 1 {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		c.Next()
	}
}
