package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tabbli/accounts/internal/application"
	"github.com/tabbli/accounts/pkg/helpers"
	"github.com/tabbli/accounts/pkg/response"
)

// Auth validates the access-token cookie and checks that its session id
// still matches the live session. Sets userID and sessionID in the Gin
// context on success.
func Auth(sessions application.SessionStore, jwt *helpers.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie("access_token")
		if err != nil || token == "" {
			resp := response.Error[any](c, http.StatusUnauthorized, "missing access token", nil)
			c.AbortWithStatusJSON(resp.Status, resp)
			return
		}
		claims, err := jwt.ParseAccessToken(token)
		if err != nil {
			resp := response.Error[any](c, http.StatusUnauthorized, "invalid access token", nil)
			c.AbortWithStatusJSON(resp.Status, resp)
			return
		}

		sid, err := sessions.Get(c.Request.Context(), claims.UserID)
		if err != nil || sid != claims.SessionID {
			resp := response.Error[any](c, http.StatusUnauthorized, "session expired", nil)
			c.AbortWithStatusJSON(resp.Status, resp)
			return
		}

		c.Set("userID", claims.UserID)
		c.Set("sessionID", claims.SessionID)
		c.Next()
	}
}
