package middleware

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/soonsulleng/guide-backend/internal/app/model"
	"github.com/soonsulleng/guide-backend/internal/app/service"
	"github.com/soonsulleng/guide-backend/internal/errors"
)

// Context keys for caller information
const (
	CallerKey     = "caller"
	UserIDKey     = "user_id"
	CredentialKey = "credential"
)

// CallerResolver maps a bearer credential to a user
type CallerResolver interface {
	ResolveCaller(ctx context.Context, credential string) (*model.User, error)
}

type AuthMiddleware struct {
	resolver CallerResolver
}

func NewAuthMiddleware(resolver CallerResolver) *AuthMiddleware {
	return &AuthMiddleware{
		resolver: resolver,
	}
}

// ExtractCredential removes every "Bearer " occurrence from the header value
func ExtractCredential(header string) string {
	return strings.TrimSpace(strings.ReplaceAll(header, "Bearer ", ""))
}

// RequireCaller resolves the caller from the Authorization header. When the
// caller cannot be resolved, onUnresolved writes the response and the chain stops.
func (m *AuthMiddleware) RequireCaller(onUnresolved gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		credential := ExtractCredential(c.GetHeader("Authorization"))
		caller, err := m.resolver.ResolveCaller(c.Request.Context(), credential)
		if err != nil {
			if stderrors.Is(err, service.ErrUnauthenticated) {
				log.Warn("Caller could not be resolved", map[string]interface{}{
					"path":  c.Request.URL.Path,
					"error": err.Error(),
				})
			} else {
				log.Error("Caller resolution failed", err, map[string]interface{}{
					"path": c.Request.URL.Path,
				})
			}
			onUnresolved(c)
			c.Abort()
			return
		}

		c.Set(CallerKey, caller)
		c.Set(UserIDKey, caller.ID)
		c.Set(CredentialKey, credential)

		log.Debug("Caller resolved", map[string]interface{}{
			"user_id": caller.ID,
			"email":   caller.Email,
		})

		c.Next()
	}
}

// Authenticate rejects unresolved callers with 401 JSON
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return m.RequireCaller(func(c *gin.Context) {
		errors.Unauthorized(c, "")
	})
}

// GetCaller extracts the resolved user from context
func GetCaller(c *gin.Context) (*model.User, bool) {
	caller, exists := c.Get(CallerKey)
	if !exists {
		return nil, false
	}
	user, ok := caller.(*model.User)
	return user, ok
}

// GetUserID extracts user ID from context
func GetUserID(c *gin.Context) (uint, bool) {
	userID, exists := c.Get(UserIDKey)
	if !exists {
		return 0, false
	}
	return userID.(uint), true
}

// GetCredential returns the bearer token the caller was resolved from
func GetCredential(c *gin.Context) string {
	return c.GetString(CredentialKey)
}
