package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const apiBasePath = "/api"

// Registry collects feature modules and mounts them under /api in one
// pass, so route registration order is explicit and middleware shared by
// every module is applied exactly once.
type Registry struct {
	Engine      *gin.Engine
	API         *gin.RouterGroup
	middlewares []gin.HandlerFunc
	modules     []Module
}

func NewRegistry(engine *gin.Engine) *Registry {
	r := &Registry{Engine: engine, API: engine.Group(apiBasePath)}
	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return r
}

// Use adds middleware applied to the whole /api group, ahead of any
// module routes.
func (r *Registry) Use(mw ...gin.HandlerFunc) {
	r.middlewares = append(r.middlewares, mw...)
}

func (r *Registry) Add(mod Module) {
	r.modules = append(r.modules, mod)
}

// RegisterAll mounts everything. Must run after all Use/Add calls; gin
// applies group middleware only to routes registered afterwards.
func (r *Registry) RegisterAll() {
	if len(r.middlewares) > 0 {
		r.API.Use(r.middlewares...)
	}
	for _, m := range r.modules {
		m.Register(r.API)
	}
}
