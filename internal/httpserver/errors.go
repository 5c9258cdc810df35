package httpserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"cryptomart/internal/domain"
	"cryptomart/internal/pricing"
	authsvc "cryptomart/internal/service/auth"
)

func abortWith(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "msg": msg})
}

// writeError maps service errors onto status codes. notFound is the message
// used for domain.ErrNotFound.
func (h *handlers) writeError(c *gin.Context, err error, notFound string) {
	var (
		priceErr *pricing.ValidationError
		fieldErr *domain.ValidationError
	)
	switch {
	case errors.As(err, &priceErr):
		abortWith(c, http.StatusBadRequest, priceErr.Message)
	case errors.As(err, &fieldErr):
		abortWith(c, http.StatusBadRequest, strings.Join(fieldErr.Problems, "; "))
	case errors.Is(err, authsvc.ErrInvalidCredentials):
		abortWith(c, http.StatusUnauthorized, "Invalid credentials. Please try again.")
	case errors.Is(err, authsvc.ErrInvalidToken):
		abortWith(c, http.StatusUnauthorized, msgAuthInvalid)
	case errors.Is(err, domain.ErrForbidden):
		abortWith(c, http.StatusForbidden, msgNotAuthorized)
	case errors.Is(err, domain.ErrNotFound):
		abortWith(c, http.StatusNotFound, notFound)
	case errors.Is(err, domain.ErrAlreadyExists):
		abortWith(c, http.StatusConflict, "Resource already exists")
	case errors.Is(err, domain.ErrInsufficientStock):
		abortWith(c, http.StatusConflict, "Not enough stock to complete the sale")
	default:
		h.logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		abortWith(c, http.StatusInternalServerError, "Something went wrong")
	}
}
