package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"rotalink.local/gee"
	"rotalink.local/internal/app/sharelink"
	"rotalink.local/internal/platform/httpmiddleware"
)

// Issuer is the part of sharelink.Issuer the handlers use.
type Issuer interface {
	Issue(ctx context.Context, longURL, origin string) (sharelink.Issued, error)
}

// Resolver is the part of sharelink.Resolver the handlers use.
type Resolver interface {
	Resolve(ctx context.Context, id string) (string, error)
}

type ShareRequest struct {
	LongURL string `json:"longUrl"`
}

type ShareResponse struct {
	ShortURL  string    `json:"shortUrl"`
	ShareID   string    `json:"shareId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// msgUnknownHost is returned when the request Host is not a public host.
// The Host header picks the origin the allow-list admits, so it must not come
// from the client unchecked.
const msgUnknownHost = "request host is not a public share host"

// NewIssueHandler serves POST /api/share. Requests whose Host is not one of
// publicHosts are rejected before the body is read.
func NewIssueHandler(issuer Issuer, publicHosts []string, storeTimeout time.Duration) gee.HandlerFunc {
	hosts := make(map[string]struct{}, len(publicHosts))
	for _, h := range publicHosts {
		hosts[strings.ToLower(h)] = struct{}{}
	}

	return func(ctx *gee.Context) {
		if _, ok := hosts[strings.ToLower(ctx.Req.Host)]; !ok {
			slog.Warn("share issue from unknown host",
				"request_id", ctx.Req.Header.Get("X-Request-ID"),
				"host", ctx.Req.Host)
			ctx.AbortWithError(http.StatusBadRequest, msgUnknownHost)
			return
		}

		var req ShareRequest
		if err := ctx.BindJSON(&req); err != nil {
			return
		}

		c, cancel := context.WithTimeout(ctx.Req.Context(), storeTimeout)
		defer cancel()
		issued, err := issuer.Issue(c, req.LongURL, RequestOrigin(ctx.Req))
		if err != nil {
			if sharelink.IsClientError(err) {
				ctx.AbortWithError(http.StatusBadRequest, err.Error())
				return
			}
			slog.Error("share issue failed",
				"request_id", ctx.Req.Header.Get("X-Request-ID"),
				"err", err)
			ctx.AbortWithError(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
			return
		}

		ctx.JSON(http.StatusOK, ShareResponse{
			ShortURL:  issued.ShortURL,
			ShareID:   issued.ShareID,
			ExpiresAt: issued.ExpiresAt.UTC(),
		})
	}
}

// NewRedirectHandler serves GET /s/:id. Every failure is a plain 404.
func NewRedirectHandler(resolver Resolver, storeTimeout time.Duration) gee.HandlerFunc {
	return func(ctx *gee.Context) {
		c, cancel := context.WithTimeout(ctx.Req.Context(), storeTimeout)
		defer cancel()
		longURL, err := resolver.Resolve(c, ctx.Param("id"))
		if err != nil {
			if !errors.Is(err, sharelink.ErrNotFound) {
				slog.Error("share resolve failed", "err", err)
			}
			ctx.Fail(http.StatusNotFound, "not found")
			return
		}
		ctx.SetHeader("Cache-Control", "no-store")
		ctx.Redirect(http.StatusFound, longURL)
	}
}

// RequestOrigin rebuilds scheme://host[:port] as the client saw it.
// X-Forwarded-Proto is honored only from a trusted proxy, so TLS terminated
// there still yields https.
func RequestOrigin(req *http.Request) string {
	if req.Host == "" {
		return ""
	}
	scheme := "http"
	if req.TLS != nil {
		scheme = "https"
	}
	if httpmiddleware.FromTrustedProxy(req) {
		if p := strings.ToLower(strings.TrimSpace(req.Header.Get("X-Forwarded-Proto"))); p == "http" || p == "https" {
			scheme = p
		}
	}
	return scheme + "://" + req.Host
}
