package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/flicky/agri-backoffice/internal/service"
)

const (
	userIDKey    = "userID"
	principalKey = "principal"
	tokenKey     = "token"
)

// Authenticator resolves a bearer token into an administrator.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*service.Principal, error)
}

func AuthMiddleware(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		p, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrUnauthenticated):
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			case errors.Is(err, service.ErrAccessDenied):
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": service.AccessDeniedMessage})
			default:
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			}
			return
		}

		c.Set(userIDKey, p.User.ID)
		c.Set(principalKey, p)
		c.Set(tokenKey, token)
		c.Next()
	}
}

// AdminOnly guards routes mounted behind AuthMiddleware.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		p := GetPrincipal(c)
		if p == nil || p.User == nil || !p.User.HasAdminRights() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": service.AccessDeniedMessage})
			return
		}
		c.Next()
	}
}

// BearerToken extracts the token from the Authorization header, or "".
func BearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(header[len("Bearer "):])
}

func GetUserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

func GetToken(c *gin.Context) string {
	return c.GetString(tokenKey)
}

func GetPrincipal(c *gin.Context) *service.Principal {
	v, _ := c.Get(principalKey)
	p, _ := v.(*service.Principal)
	return p
}
