package middleware

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	appErrors "github.com/ndtutor/tutor-api/pkg/errors"
	"github.com/ndtutor/tutor-api/pkg/response"
)

// SharedSecretHeader authenticates scheduler-triggered endpoints.
const SharedSecretHeader = "X-Review-Secret"

// RequireSharedSecret guards endpoints meant for the review scheduler, not
// end users. Comparison is constant time.
func RequireSharedSecret(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		provided := c.GetHeader(SharedSecretHeader)
		if subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}
