package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/tabbli/accounts/internal/application"
	handlers "github.com/tabbli/accounts/internal/interface/http"
	"github.com/tabbli/accounts/internal/interface/middleware"
	"github.com/tabbli/accounts/pkg/helpers"
)

// UserModule wires the signed-in user's own routes.
// Protected: GET/PUT /api/profile, POST/DELETE /api/profile/avatar,
// GET /api/users/search
type UserModule struct {
	Handler  *handlers.UserHandler
	Sessions application.SessionStore
	JWT      *helpers.JWTManager
	RDB      *redis.Client
}

func NewUserModule(h *handlers.UserHandler, sessions application.SessionStore, jwt *helpers.JWTManager, rdb *redis.Client) *UserModule {
	return &UserModule{Handler: h, Sessions: sessions, JWT: jwt, RDB: rdb}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/")
	auth.Use(middleware.Auth(m.Sessions, m.JWT))
	auth.Use(
		middleware.RateLimit(m.RDB, 300, time.Minute, middleware.KeyByIP(), nil),
		middleware.RateLimit(m.RDB, 120, time.Minute, middleware.KeyByUserID(), nil),
	)
	{
		auth.GET("/profile", m.Handler.GetProfile)
		auth.PUT("/profile", m.Handler.UpdateProfile)
		auth.POST("/profile/avatar", m.Handler.UploadAvatar)
		auth.DELETE("/profile/avatar", m.Handler.RemoveAvatar)
		auth.GET("/users/search", m.Handler.Search)
	}
}
