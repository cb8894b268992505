package ginserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"apexrentals/internal/app/services/auth"
	domainauth "apexrentals/internal/domain/auth"
	domainuser "apexrentals/internal/domain/user"
)

const principalContextKey = "apexrentals.principal"

type principal struct {
	ID    string
	Role  domainuser.Role
	Token string
	User  *domainuser.User
}

func (p principal) Is(roles ...domainuser.Role) bool {
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}

// AuthMiddleware resolves a bearer token into a principal. Requests without a
// valid token continue anonymously; routes decide whether that is enough.
type AuthMiddleware struct {
	Service *auth.Service
	Logger  *slog.Logger
}

func (m AuthMiddleware) Handle(c *gin.Context) {
	token := extractBearerToken(c.GetHeader("Authorization"))
	if token == "" || m.Service == nil {
		c.Next()
		return
	}
	resolved, err := m.Service.ResolveToken(c.Request.Context(), token)
	if err != nil {
		if !errors.Is(err, domainauth.ErrSessionNotFound) && m.Logger != nil {
			m.Logger.Debug("token validation failed", "error", err)
		}
		c.Next()
		return
	}
	setPrincipal(c, principal{
		ID:    string(resolved.User.ID),
		Role:  resolved.User.Role,
		Token: token,
		User:  resolved.User,
	})
	c.Next()
}

func setPrincipal(c *gin.Context, p principal) {
	c.Set(principalContextKey, p)
}

func currentPrincipal(c *gin.Context) (principal, bool) {
	val, exists := c.Get(principalContextKey)
	if !exists {
		return principal{}, false
	}
	p, ok := val.(principal)
	return p, ok
}

// requireRole answers 401 without a principal and 403 when none of the roles
// match. No roles means any authenticated user.
func requireRole(c *gin.Context, roles ...domainuser.Role) (principal, bool) {
	p, ok := currentPrincipal(c)
	if !ok {
		abortWith(c, http.StatusUnauthorized, CodeUnauthenticated, "auth required")
		return principal{}, false
	}
	if len(roles) > 0 && !p.Is(roles...) {
		abortWith(c, http.StatusForbidden, CodeNotAuthorized, "insufficient permissions")
		return principal{}, false
	}
	return p, true
}

func extractBearerToken(header string) string {
	if header == "" {
		return ""
	}
	if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
