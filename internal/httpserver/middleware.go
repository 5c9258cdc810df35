package httpserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	authsvc "cryptomart/internal/service/auth"
	"cryptomart/internal/tracing"
)

const claimsKey = "claims"

const (
	msgAuthInvalid   = "Authentication invalid"
	msgNotAuthorized = "Not authorized to access this route"
)

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		fields := []zap.Field{
			zap.String("trace_id", tracing.TraceID(c.Request.Context())),
			zap.Int("status", c.Writer.Status()),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.String("ip", c.ClientIP()),
			zap.Duration("latency", time.Since(start)),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Error("http request", fields...)
			return
		}
		logger.Info("http request", fields...)
	}
}

// authMiddleware requires a valid "Bearer <token>" header and stores the
// verified claims on the context.
func authMiddleware(auth AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			abortWith(c, http.StatusUnauthorized, msgAuthInvalid)
			return
		}
		claims, err := auth.Authenticate(c.Request.Context(), strings.TrimSpace(token))
		if err != nil {
			abortWith(c, http.StatusUnauthorized, msgAuthInvalid)
			return
		}
		c.Set(claimsKey, claims)
		c.Next()
	}
}

func adminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := claimsFrom(c)
		if !ok || !claims.IsAdmin() {
			abortWith(c, http.StatusForbidden, msgNotAuthorized)
			return
		}
		c.Next()
	}
}

func claimsFrom(c *gin.Context) (authsvc.Claims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return authsvc.Claims{}, false
	}
	claims, ok := v.(authsvc.Claims)
	return claims, ok
}
