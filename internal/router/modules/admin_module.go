package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/tabbli/accounts/internal/application"
	"github.com/tabbli/accounts/internal/domain/repository"
	handlers "github.com/tabbli/accounts/internal/interface/http"
	"github.com/tabbli/accounts/internal/interface/middleware"
	"github.com/tabbli/accounts/pkg/helpers"
)

// AdminModule wires user, invite and group management under /api/admin,
// behind the auth and admin gates.
type AdminModule struct {
	Handler  *handlers.AdminHandler
	Users    repository.UserRepository
	Sessions application.SessionStore
	JWT      *helpers.JWTManager
	RDB      *redis.Client
}

func NewAdminModule(h *handlers.AdminHandler, users repository.UserRepository, sessions application.SessionStore, jwt *helpers.JWTManager, rdb *redis.Client) *AdminModule {
	return &AdminModule{Handler: h, Users: users, Sessions: sessions, JWT: jwt, RDB: rdb}
}

func (m *AdminModule) Register(rg *gin.RouterGroup) {
	admin := rg.Group("/admin")
	admin.Use(
		middleware.Auth(m.Sessions, m.JWT),
		middleware.RequireAdmin(m.Users),
		middleware.RateLimit(m.RDB, 120, time.Minute, middleware.KeyByUserID(), middleware.AllowPrivateIP()),
	)
	{
		admin.GET("/users", m.Handler.ListUsers)
		admin.POST("/users", m.Handler.CreateUser)
		admin.GET("/users/:id", m.Handler.GetUser)
		admin.PUT("/users/:id", m.Handler.UpdateUser)
		admin.DELETE("/users/:id", m.Handler.DeleteUser)
		admin.POST("/users/:id/active", m.Handler.SetActive)
		admin.POST("/users/:id/password", m.Handler.SetPassword)

		admin.GET("/invites", m.Handler.ListInvites)
		admin.POST("/invites", m.Handler.CreateInvite)
		admin.POST("/invites/:id/resend", m.Handler.ResendInvite)

		admin.GET("/groups", m.Handler.ListGroups)
		admin.POST("/groups", m.Handler.CreateGroup)
		admin.PUT("/groups/:id", m.Handler.RenameGroup)
		admin.DELETE("/groups/:id", m.Handler.DeleteGroup)
	}
}
