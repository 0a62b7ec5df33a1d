package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"

	iauth "github.com/hireloop/hireloop/internal/auth"
	"github.com/hireloop/hireloop/pkg/errors"
	"github.com/hireloop/hireloop/pkg/response"
)

const (
	CtxClaimsKey = "authClaims"
	CtxUserIDKey = "userID"
	CtxRoleKey   = "userRole"

	internalTokenHeader = "X-Internal-Token"
)

// Auth enforces JWT authentication using the supplied JWT service.
func Auth(jwt *iauth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if len(authz) < 8 || !strings.EqualFold(authz[:7], "Bearer ") {
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		token := strings.TrimSpace(authz[7:])
		claims, err := jwt.ValidateAccessToken(token)
		if err != nil {
			// Normalise all validation failures to 401
			c.Header("WWW-Authenticate", "Bearer")
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		// Propagate identity into request context
		c.Set(CtxClaimsKey, claims)
		c.Set(CtxUserIDKey, claims.UserID)
		if claims.Role != "" {
			c.Set(CtxRoleKey, claims.Role)
		}

		c.Next()
	}
}

// InternalAuth guards service-to-service endpoints with a shared token.
func InternalAuth(token string) gin.HandlerFunc {
	expected := []byte(strings.TrimSpace(token))

	return func(c *gin.Context) {
		if len(expected) == 0 {
			response.Error(c, errors.ErrForbidden)
			c.Abort()
			return
		}

		presented := []byte(strings.TrimSpace(c.GetHeader(internalTokenHeader)))
		if len(presented) != len(expected) || subtle.ConstantTimeCompare(presented, expected) != 1 {
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		c.Next()
	}
}

// UserID extracts the authenticated user id placed by Auth.
func UserID(c *gin.Context) (string, bool) {
	value, ok := c.Get(CtxUserIDKey)
	if !ok {
		return "", false
	}
	id, ok := value.(string)
	return id, ok && id != ""
}
