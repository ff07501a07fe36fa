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

// AuthModule wires the public authentication surface and the session
// lifecycle.
// Public: POST /api/login, /api/register, /api/login/facebook,
// /api/login/google, /api/refresh, GET /api/invites/:code
// Protected: POST /api/logout
type AuthModule struct {
	Auth     *handlers.AuthHandler
	Invites  *handlers.InviteHandler
	Sessions application.SessionStore
	JWT      *helpers.JWTManager
	RDB      *redis.Client
}

func NewAuthModule(auth *handlers.AuthHandler, invites *handlers.InviteHandler, sessions application.SessionStore, jwt *helpers.JWTManager, rdb *redis.Client) *AuthModule {
	return &AuthModule{Auth: auth, Invites: invites, Sessions: sessions, JWT: jwt, RDB: rdb}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	loginLimiter := middleware.RateLimit(m.RDB, 10, time.Minute, middleware.KeyByIPAndPath(), nil)
	registerLimiter := middleware.RateLimit(m.RDB, 10, time.Minute, middleware.KeyByIPAndPath(), nil)
	refreshLimiter := middleware.RateLimit(m.RDB, 60, time.Minute, middleware.KeyByIP(), nil)

	rg.POST("/login", loginLimiter, m.Auth.Login)
	rg.POST("/login/facebook", loginLimiter, m.Auth.SocialFacebook)
	rg.POST("/login/google", loginLimiter, m.Auth.SocialGoogle)
	rg.POST("/register", registerLimiter, m.Auth.Register)
	rg.POST("/refresh", refreshLimiter, m.Auth.Refresh)
	rg.GET("/invites/:code", registerLimiter, m.Invites.Lookup)

	auth := rg.Group("/")
	auth.Use(middleware.Auth(m.Sessions, m.JWT))
	auth.POST("/logout", m.Auth.Logout)
}
