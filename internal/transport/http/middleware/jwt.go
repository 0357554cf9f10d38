package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"hierarag/internal/pkg/jwtutil"
	"hierarag/internal/transport/http/response"
)

const ContextSubjectKey = "subject"

// AuthJWT requires a bearer token carrying scope.
func AuthJWT(secret, scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if authHeader == "" {
			response.Error(c, 401, response.CodeUnauthorized, "missing authorization header")
			c.Abort()
			return
		}

		const prefix = "Bearer "
		if !strings.HasPrefix(authHeader, prefix) {
			response.Error(c, 401, response.CodeUnauthorized, "invalid authorization scheme")
			c.Abort()
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, prefix))
		claims, err := jwtutil.ParseToken(secret, token)
		if err != nil {
			response.Error(c, 401, response.CodeUnauthorized, "invalid or expired token")
			c.Abort()
			return
		}
		if !claims.HasScope(scope) {
			response.Error(c, 403, response.CodeForbidden, "token lacks scope "+scope)
			c.Abort()
			return
		}

		c.Set(ContextSubjectKey, claims.Subject)
		c.Next()
	}
}
