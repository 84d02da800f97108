package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"bill-scan-go/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CronAuth accepts either the cron secret as a bearer token or the admin API
// key in x-api-key. With neither configured every request is let through.
func CronAuth(auth models.AuthConfig) gin.HandlerFunc {
	if auth.CronSecret == "" && auth.AdminAPIKey == "" {
		zap.L().Warn("CRON_SECRET and ADMIN_API_KEY unset, scan endpoint is unauthenticated")
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		bearer, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if ok && auth.CronSecret != "" && secretEqual(bearer, auth.CronSecret) {
			c.Next()
			return
		}
		if auth.AdminAPIKey != "" && secretEqual(c.GetHeader("x-api-key"), auth.AdminAPIKey) {
			c.Next()
			return
		}
		zap.L().Warn("Rejected unauthorized scan request", zap.String("client_ip", c.ClientIP()))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Unauthorized"})
	}
}

func secretEqual(got, want string) bool {
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

// RequestLogger logs every request through the global zap logger
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		zap.L().Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}

// Recovery turns a handler panic into a JSON 500
func Recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		zap.L().Error("Panic in handler", zap.Any("panic", recovered), zap.String("path", c.Request.URL.Path))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Internal server error"})
	})
}
