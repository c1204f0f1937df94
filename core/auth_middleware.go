package core

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// authHeader is the legacy token header. No Bearer prefix: the deployed SPA
// sends the raw token.
const authHeader = "x-auth-token"

const authUserKey = "auth_user_id"

// AuthMiddleware gates protected routes. It extracts the bearer token from
// the x-auth-token header, verifies it, and stores the authenticated user id
// in the gin context for handlers to read via AuthUserID.
func AuthMiddleware(issuer *TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader(authHeader)
		if token == "" {
			respondMsg(c, http.StatusUnauthorized, "No token, authorization denied")
			c.Abort()
			return
		}

		userID, err := issuer.Verify(token)
		if err != nil {
			respondMsg(c, http.StatusUnauthorized, "Token is not valid")
			c.Abort()
			return
		}

		c.Set(authUserKey, userID)
		c.Next()
	}
}

// AuthUserID returns the user id set by AuthMiddleware. Empty outside
// protected routes.
func AuthUserID(c *gin.Context) string {
	id, _ := c.Get(authUserKey)
	s, _ := id.(string)
	return s
}
