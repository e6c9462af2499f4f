package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"storefront/apperror"
	"storefront/models"
)

const (
	actorKey = "actor"
	tokenKey = "token"
)

// Authenticator resolves a bearer token to the calling actor.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (models.Actor, error)
}

// BearerToken returns the token of the Authorization header, with or
// without the "Bearer " prefix.
func BearerToken(c *gin.Context) string {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return header
}

func AuthMiddleware(authn Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c)
		if token == "" {
			abort(c, http.StatusUnauthorized, "Token required")
			return
		}

		actor, err := authn.Authenticate(c.Request.Context(), token)
		if err != nil {
			appErr := apperror.From(err)
			abort(c, appErr.Kind.HTTPStatus(), appErr.Message)
			return
		}

		c.Set(actorKey, actor)
		c.Set(tokenKey, token)
		c.Set("userId", actor.UserID.Hex())
		c.Set("role", string(actor.Role))
		c.Next()
	}
}

// RequireRole lets the request through only for actors holding one of roles.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := CurrentActor(c)
		if !ok {
			abort(c, http.StatusUnauthorized, "Token required")
			return
		}
		for _, role := range roles {
			if actor.Role == role {
				c.Next()
				return
			}
		}
		abort(c, http.StatusForbidden, "Access denied: "+string(roles[0])+" only")
	}
}

func AdminMiddleware() gin.HandlerFunc {
	return RequireRole(models.RoleAdmin)
}

// CurrentActor returns the actor stored by AuthMiddleware.
func CurrentActor(c *gin.Context) (models.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return models.Actor{}, false
	}
	actor, ok := v.(models.Actor)
	return actor, ok
}

// CurrentToken returns the raw token the request authenticated with.
func CurrentToken(c *gin.Context) string {
	return c.GetString(tokenKey)
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": message})
}
