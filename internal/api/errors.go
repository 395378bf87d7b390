package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/steemit/agora/internal/errs"
)

// statusFor maps an error class to its HTTP status. Conflicts are reported as
// 400 like any other rejected request.
func statusFor(kind errs.Kind) int {
	switch kind {
	case errs.Unauthenticated:
		return http.StatusUnauthorized
	case errs.Forbidden:
		return http.StatusForbidden
	case errs.NotFound:
		return http.StatusNotFound
	case errs.Invalid, errs.Conflict:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes {"error": message}. Internal failures are logged in full
// and reported to the client with a generic message.
func respondError(c *gin.Context, err error) {
	kind := errs.KindOf(err)
	status := statusFor(kind)
	if status == http.StatusInternalServerError {
		requestLogger(c).Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}
	c.AbortWithStatusJSON(status, gin.H{"error": errs.Message(err)})
}

func badRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": message})
}
