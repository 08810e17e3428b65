package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"snatch/internal/services"
)

const accountIDKey = "account_id"

// AuthRequired rejects requests without a valid bearer token
func AuthRequired(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		claims, err := auth.ValidateToken(strings.TrimSpace(token))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(accountIDKey, claims.AccountID)
		c.Next()
	}
}

func accountID(c *gin.Context) string {
	return c.GetString(accountIDKey)
}

// respondError maps service errors onto HTTP status codes
func respondError(c *gin.Context, err error) {
	var quota *services.QuotaExceededError
	switch {
	case errors.As(err, &quota):
		c.JSON(http.StatusPaymentRequired, gin.H{
			"error":    "free search limit reached, upgrade to continue",
			"limit":    quota.Limit,
			"used":     quota.Used,
			"reset_at": quota.ResetAt,
		})
	case errors.Is(err, services.ErrQuotaExceeded):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrDuplicateAccount), errors.Is(err, services.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": services.ErrInvalidCredentials.Error()})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, services.ErrInvalidTerm),
		errors.Is(err, services.ErrInvalidPlan),
		errors.Is(err, services.ErrInvalidName),
		errors.Is(err, services.ErrInvalidEmail),
		errors.Is(err, services.ErrWeakPassword):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
