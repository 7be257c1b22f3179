package middleware

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	"github.com/hatchery-inc/hatchery/internal/shared/errors"
	"github.com/hatchery-inc/hatchery/internal/shared/logger"
	"github.com/hatchery-inc/hatchery/internal/shared/utils"
)

// RequireToken rejects requests whose header does not carry expected.
// An empty expected token rejects everything.
func RequireToken(header, expected string, log logger.Interface) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader(header)
		if expected == "" || subtle.ConstantTimeCompare([]byte(got), []byte(expected)) != 1 {
			log.Warnw("rejected request with invalid token",
				"header", header,
				"path", c.Request.URL.Path,
				"client_ip", c.ClientIP())
			utils.ErrorResponseWithError(c, errors.NewUnauthorizedError("invalid or missing " + header))
			c.Abort()
			return
		}
		c.Next()
	}
}
