package router

import (
	"expvar"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tabbli/accounts/internal/container"
	handlers "github.com/tabbli/accounts/internal/interface/http"
	"github.com/tabbli/accounts/internal/interface/middleware"
	"github.com/tabbli/accounts/internal/router/modules"
)

// InitModules wires every feature module into the registry. Called once
// at startup.
func InitModules(r *Registry, c *container.Container) {
	authHandler := handlers.NewAuthHandler(c.UserSvc, c.Log, c.Cfg.CookieDomain, c.Cfg.CookieSecure)
	inviteHandler := handlers.NewInviteHandler(c.InviteSvc, c.Log)
	userHandler := handlers.NewUserHandler(c.UserSvc, c.Log)
	adminHandler := handlers.NewAdminHandler(c.UserSvc, c.InviteSvc, c.GroupSvc, c.Log)

	r.Add(modules.NewAuthModule(authHandler, inviteHandler, c.Sessions, c.JWT, c.Redis))
	r.Add(modules.NewUserModule(userHandler, c.Sessions, c.JWT, c.Redis))
	r.Add(modules.NewAdminModule(adminHandler, c.Users, c.Sessions, c.JWT, c.Redis))
	if c.Cfg.DebugMetricsEnabled {
		rl := middleware.RateLimit(c.Redis, 120, time.Minute, middleware.KeyByIP(), nil)
		r.Add(ModuleFunc(func(rg *gin.RouterGroup) {
			rg.GET("/debug/vars", rl, gin.WrapH(expvar.Handler()))
		}))
	}
}
