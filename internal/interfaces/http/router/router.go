// Package router assembles the shop's gin routes from domain groups.
package router

import (
	"net/http"
	"path"

	"github.com/bignstrong/RailGuard/internal/interfaces/http/dto"
	"github.com/bignstrong/RailGuard/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// RouteRegistrar attaches its routes below a parent group.
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router mounts registrars under a common base path.
type Router struct {
	engine     *gin.Engine
	basePath   string
	registrars []RouteRegistrar
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithBasePath replaces the default "/api" prefix.
func WithBasePath(p string) RouterOption {
	return func(r *Router) { r.basePath = p }
}

func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{engine: engine, basePath: "/api"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register queues registrar for Setup.
func (r *Router) Register(registrar RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrar)
	return r
}

// Setup mounts every registrar and answers unknown paths with 404 and
// known paths hit with the wrong method with 405, both as JSON.
func (r *Router) Setup() {
	base := r.engine.Group(r.basePath)
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(base)
	}

	r.engine.HandleMethodNotAllowed = true
	r.engine.NoMethod(methodNotAllowed)
	r.engine.NoRoute(notFound)
}

func methodNotAllowed(c *gin.Context) {
	c.JSON(http.StatusMethodNotAllowed, dto.NewMessageResponse(dto.MsgMethodNotAllowed))
}

func notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, dto.NewErrorResponse(dto.ErrCodeNotFound, dto.MsgNotFound, middleware.GetRequestID(c)))
}

// DomainGroup collects the routes of one area (orders, cart, ...) together
// with middleware that applies only to them, such as the order rate limit.
type DomainGroup struct {
	name   string
	prefix string
	mw     []gin.HandlerFunc
	routes []route
	nested []*DomainGroup
}

type route struct {
	method   string
	path     string
	handlers []gin.HandlerFunc
}

func NewDomainGroup(name, prefix string) *DomainGroup {
	return &DomainGroup{name: name, prefix: prefix}
}

func (g *DomainGroup) Name() string   { return g.name }
func (g *DomainGroup) Prefix() string { return g.prefix }

// Use adds group-scoped middleware.
func (g *DomainGroup) Use(mw ...gin.HandlerFunc) *DomainGroup {
	g.mw = append(g.mw, mw...)
	return g
}

func (g *DomainGroup) Handle(method, relPath string, handlers ...gin.HandlerFunc) *DomainGroup {
	g.routes = append(g.routes, route{method: method, path: relPath, handlers: handlers})
	return g
}

func (g *DomainGroup) GET(p string, h ...gin.HandlerFunc) *DomainGroup {
	return g.Handle(http.MethodGet, p, h...)
}

func (g *DomainGroup) POST(p string, h ...gin.HandlerFunc) *DomainGroup {
	return g.Handle(http.MethodPost, p, h...)
}

func (g *DomainGroup) PATCH(p string, h ...gin.HandlerFunc) *DomainGroup {
	return g.Handle(http.MethodPatch, p, h...)
}

func (g *DomainGroup) DELETE(p string, h ...gin.HandlerFunc) *DomainGroup {
	return g.Handle(http.MethodDelete, p, h...)
}

// Group returns a nested group that inherits this group's middleware.
func (g *DomainGroup) Group(name, prefix string) *DomainGroup {
	child := NewDomainGroup(name, prefix)
	g.nested = append(g.nested, child)
	return child
}

// RegisterRoutes implements RouteRegistrar.
func (g *DomainGroup) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group(g.prefix, g.mw...)
	for _, rt := range g.routes {
		group.Handle(rt.method, rt.path, rt.handlers...)
	}
	for _, child := range g.nested {
		child.RegisterRoutes(group)
	}
}

// Routes lists "METHOD /path" for every route relative to the parent
// group, nested groups included.
func (g *DomainGroup) Routes() []string {
	return g.routesUnder("")
}

func (g *DomainGroup) routesUnder(parent string) []string {
	prefix := joinPath(parent, g.prefix)
	var out []string
	for _, rt := range g.routes {
		out = append(out, rt.method+" "+joinPath(prefix, rt.path))
	}
	for _, child := range g.nested {
		out = append(out, child.routesUnder(prefix)...)
	}
	return out
}

func joinPath(prefix, rel string) string {
	if rel == "" {
		return prefix
	}
	return path.Join(prefix, rel)
}
