package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tabbli/accounts/internal/domain/repository"
	"github.com/tabbli/accounts/pkg/response"
)

// RequireAdmin gates admin routes. Must run after Auth. Administrator,
// staff and superuser flags all qualify; readonly does not subtract
// access here, handlers enforce write restrictions themselves.
func RequireAdmin(users repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := c.GetString("userID")
		u, err := users.GetByID(uid)
		if err != nil || !u.IsActive {
			resp := response.Error[any](c, http.StatusForbidden, "forbidden", nil)
			c.AbortWithStatusJSON(resp.Status, resp)
			return
		}
		if !(u.IsAdministrator || u.IsStaff || u.IsSuperuser) {
			resp := response.Error[any](c, http.StatusForbidden, "forbidden", nil)
			c.AbortWithStatusJSON(resp.Status, resp)
			return
		}
		c.Set("adminUser", u)
		c.Set("isReadonly", u.IsReadonly)
		c.Next()
	}
}
