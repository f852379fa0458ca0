package gee

import (
	"log/slog"
	"net/http"
)

// Engine routes requests through one global middleware chain to the handlers
// registered for the matched pattern. It implements http.Handler.
type Engine struct {
	router      *router
	middlewares []HandlerFunc
	noMethod    []HandlerFunc
	noRoute     []HandlerFunc
}

func New() *Engine {
	return &Engine{
		router: newRouter(),
		noRoute: []HandlerFunc{func(ctx *Context) {
			ctx.String(http.StatusNotFound, "404 NOT FOUND %s", ctx.Path)
		}},
		noMethod: []HandlerFunc{func(ctx *Context) {
			ctx.String(http.StatusMethodNotAllowed, "405 Method Not Allowed %s", ctx.Path)
		}},
	}
}

// Use appends middlewares run before every route, including 404 and 405.
func (e *Engine) Use(middlewares ...HandlerFunc) {
	e.middlewares = append(e.middlewares, middlewares...)
}

// NoRoute replaces the handlers run when no pattern matches the path.
func (e *Engine) NoRoute(handlers ...HandlerFunc) {
	e.noRoute = handlers
}

// NoMethod replaces the handlers run when the path matches under another method.
// The Allow header is set before they run.
func (e *Engine) NoMethod(handlers ...HandlerFunc) {
	e.noMethod = handlers
}

func (e *Engine) GET(pattern string, handlers ...HandlerFunc) {
	e.handle(http.MethodGet, pattern, handlers)
}

func (e *Engine) POST(pattern string, handlers ...HandlerFunc) {
	e.handle(http.MethodPost, pattern, handlers)
}

func (e *Engine) handle(method, pattern string, handlers []HandlerFunc) {
	slog.Debug("route registered", "method", method, "pattern", pattern)
	e.router.addRoute(method, pattern, handlers...)
}

func (e *Engine) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	ctx := newContext(w, req)
	ctx.handlers = append(make([]HandlerFunc, 0, len(e.middlewares)+2), e.middlewares...)
	ctx.engine = e
	e.router.handle(ctx)
}
