package webapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/CompilationErrror/library-auth/internal/domain/auth"
	httptransport "github.com/CompilationErrror/library-auth/internal/transport/http"
)

const contextClaimsKey = "auth.claims"

// AuthMiddleware rejects requests without a valid bearer token and puts
// the verified claims on the request context for downstream handlers.
func AuthMiddleware(sessions *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			httptransport.RespondError(c, http.StatusUnauthorized, "missing bearer token")
			return
		}

		claims, err := sessions.VerifyAccess(c.Request.Context(), token)
		if err != nil {
			httptransport.RespondError(c, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		c.Set(contextClaimsKey, claims)
		c.Next()
	}
}

// AdminMiddleware allows only administrators past. It must run after
// AuthMiddleware.
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := claimsFromContext(c)
		if claims == nil {
			httptransport.RespondError(c, http.StatusUnauthorized, "not authenticated")
			return
		}
		if claims.Role != "Admin" {
			httptransport.RespondError(c, http.StatusForbidden, "administrator role required")
			return
		}
		c.Next()
	}
}

func claimsFromContext(c *gin.Context) *auth.Claims {
	value, ok := c.Get(contextClaimsKey)
	if !ok {
		return nil
	}
	claims, ok := value.(*auth.Claims)
	if !ok {
		return nil
	}
	return claims
}
