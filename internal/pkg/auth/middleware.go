package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	chat "go-roomchat/internal/pkg/chat/application/domain"

	"github.com/gin-gonic/gin"
)

const principalKey = "auth.principal"

// Verifier is satisfied by JWTGate.
type Verifier interface {
	Verify(ctx context.Context, credential string) (chat.Principal, error)
}

// RequireBearer rejects requests without a valid Authorization bearer token
// and stores the principal on the gin context.
func RequireBearer(v Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		p, err := v.Verify(c.Request.Context(), header)
		if errors.Is(err, ErrUnauthorized) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.Set(principalKey, p)
		c.Next()
	}
}

// PrincipalFrom returns the principal stored by RequireBearer.
func PrincipalFrom(c *gin.Context) (chat.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return chat.Principal{}, false
	}
	p, ok := v.(chat.Principal)
	return p, ok
}

// Credential extracts a token from the token query parameter or the
// Authorization header, for transports that cannot set headers.
func Credential(c *gin.Context) string {
	if t := strings.TrimSpace(c.Query("token")); t != "" {
		return t
	}
	return strings.TrimSpace(c.GetHeader("Authorization"))
}
