package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/steemit/agora/internal/auth"
	"github.com/steemit/agora/internal/cache"
)

const (
	ctxUserID = "user_id"
	ctxWallet = "wallet"
)

// Sessions is the single-active-session store; *cache.Cache implements it
type Sessions interface {
	GetSession(ctx context.Context, userID int64) (string, error)
	ExtendSession(ctx context.Context, userID int64) error
}

// authenticate requires a valid bearer token. When sessions are stored, the
// token must also be the user's current one and its expiry is pushed out.
func authenticate(issuer *auth.Issuer, sessions Sessions) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if header == "" || token == header {
			unauthorized(c, "missing bearer token")
			return
		}

		claims, err := issuer.Parse(token)
		if err != nil {
			if errors.Is(err, auth.ErrTokenExpired) {
				unauthorized(c, "token expired")
				return
			}
			unauthorized(c, "invalid token")
			return
		}

		if sessions != nil {
			ctx := c.Request.Context()
			current, err := sessions.GetSession(ctx, claims.UserID)
			switch {
			case errors.Is(err, cache.ErrCacheDisabled):
			case errors.Is(err, cache.ErrSessionNotFound):
				unauthorized(c, "session ended")
				return
			case err != nil:
				requestLogger(c).Error("session lookup failed", zap.Int64("user_id", claims.UserID), zap.Error(err))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
				return
			case current != token:
				unauthorized(c, "session replaced by a newer login")
				return
			default:
				if err := sessions.ExtendSession(ctx, claims.UserID); err != nil {
					requestLogger(c).Warn("failed to extend session", zap.Int64("user_id", claims.UserID), zap.Error(err))
				}
			}
		}

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxWallet, claims.Wallet)
		c.Next()
	}
}

func unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": message})
}

// currentUser returns the authenticated user's id
func currentUser(c *gin.Context) int64 {
	return c.GetInt64(ctxUserID)
}
