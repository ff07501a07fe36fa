package router

import "github.com/gin-gonic/gin"

// Module is one routable feature area (auth, user profile, admin, debug).
// Each registers its own routes and per-group middleware under /api.
type Module interface {
	Register(rg *gin.RouterGroup)
}

// ModuleFunc adapts a bare function to the Module interface, for modules
// too small to deserve a struct.
type ModuleFunc func(rg *gin.RouterGroup)

func (f ModuleFunc) Register(rg *gin.RouterGroup) { f(rg) }
