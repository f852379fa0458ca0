package httpapi

import (
	"net/http"
	"time"

	"rotalink.local/gee"
	"rotalink.local/internal/platform/httpmiddleware"
	"rotalink.local/internal/platform/ratelimit"
)

// Deps is what the share routes need from cmd/api.
type Deps struct {
	Issuer   Issuer
	Resolver Resolver

	// PublicHosts are the Host values (host[:port]) the API is served on.
	// Issue requests for any other Host are rejected.
	PublicHosts []string

	// Limiter may be nil to disable issue rate limiting.
	Limiter        *ratelimit.Limiter
	IssuePerMinute int

	StoreTimeout time.Duration
}

// RegisterRoutes mounts the share API, the redirect entry point and the
// health check on the public engine.
//
// Paths matched under another method answer 405 with an Allow header and a
// JSON error body.
func RegisterRoutes(engine *gee.Engine, d Deps) {
	engine.NoMethod(func(ctx *gee.Context) {
		ctx.AbortWithError(http.StatusMethodNotAllowed, "method not allowed")
	})

	engine.POST("/api/share",
		httpmiddleware.RateLimit(d.Limiter, "share", d.IssuePerMinute, time.Minute),
		NewIssueHandler(d.Issuer, d.PublicHosts, d.StoreTimeout))
	engine.GET("/s/:id", NewRedirectHandler(d.Resolver, d.StoreTimeout))

	engine.GET("/healthz", func(ctx *gee.Context) {
		ctx.String(http.StatusOK, "ok")
	})
}
