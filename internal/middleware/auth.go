package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-api/internal/handler"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/service/rbac"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

const (
	ContextUser   = "user"
	ContextUserID = "user_id"
	ContextToken  = "token"
)

// Authenticator resolves a bearer token to its current user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (model.User, error)
}

type AuthMiddleware struct {
	auth Authenticator
}

func NewAuthMiddleware(auth Authenticator) *AuthMiddleware {
	return &AuthMiddleware{auth: auth}
}

// BearerToken extracts the token from an Authorization header.
func BearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// Authenticate loads the caller on every request so role changes and
// deactivation take effect immediately.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c)
		if token == "" {
			handler.RespondError(c, apperrors.Unauthenticated(""))
			return
		}
		user, err := m.auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			handler.RespondError(c, err)
			return
		}
		c.Set(ContextUser, user)
		c.Set(ContextUserID, user.ID())
		c.Set(ContextToken, token)
		c.Next()
	}
}

// CurrentUser returns the user set by Authenticate.
func CurrentUser(c *gin.Context) model.User {
	if v, ok := c.Get(ContextUser); ok {
		if u, ok := v.(model.User); ok {
			return u
		}
	}
	return model.User{Record: model.Record{}}
}

// Authorize checks the role policy for collection and op.
func Authorize(collection string, op rbac.Operation) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rbac.Allowed(collection, op, CurrentUser(c).Role()) {
			handler.RespondError(c, apperrors.Forbidden(""))
			return
		}
		c.Next()
	}
}

// RequireRole admits only the listed roles.
func RequireRole(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := CurrentUser(c).Role()
		for _, r := range roles {
			if r == role {
				c.Next()
				return
			}
		}
		handler.RespondError(c, apperrors.Forbidden(""))
	}
}
