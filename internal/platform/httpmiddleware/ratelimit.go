package httpmiddleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"rotalink.local/gee"
	"rotalink.local/internal/platform/ratelimit"
)

// limiterTimeout caps the Redis round trip added to a rate-limited request.
const limiterTimeout = 50 * time.Millisecond

var rateLimitMemberSeq atomic.Uint64

// trustedProxies are peers whose forwarding headers are believed:
// loopback, RFC 1918 and IPv6 ULA.
var trustedProxies = []netip.Prefix{
	netip.MustParsePrefix("127.0.0.0/8"),
	netip.MustParsePrefix("::1/128"),
	netip.MustParsePrefix("10.0.0.0/8"),
	netip.MustParsePrefix("172.16.0.0/12"),
	netip.MustParsePrefix("192.168.0.0/16"),
	netip.MustParsePrefix("fc00::/7"),
}

// ClientIP returns the client address used for rate limiting.
//
// Forwarding headers are honored only when the direct peer is a trusted proxy;
// otherwise a client could spoof X-Forwarded-For to dodge per-IP limits.
// Precedence: CF-Connecting-IP, left-most X-Forwarded-For, X-Real-IP.
func ClientIP(req *http.Request) string {
	remoteHost := peerHost(req)
	if !isTrustedProxy(remoteHost) {
		return remoteHost
	}

	candidates := []string{req.Header.Get("CF-Connecting-IP")}
	if xff := req.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		candidates = append(candidates, first)
	}
	candidates = append(candidates, req.Header.Get("X-Real-IP"))

	for _, c := range candidates {
		if addr, err := netip.ParseAddr(strings.TrimSpace(c)); err == nil {
			return addr.String()
		}
	}
	return remoteHost
}

// FromTrustedProxy reports whether the direct peer of req is a trusted proxy,
// i.e. whether its X-Forwarded-* headers may be believed.
func FromTrustedProxy(req *http.Request) bool {
	return isTrustedProxy(peerHost(req))
}

func peerHost(req *http.Request) string {
	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		return req.RemoteAddr
	}
	return host
}

func isTrustedProxy(host string) bool {
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range trustedProxies {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// RateLimit allows limit requests per window per client IP under prefix.
// A nil limiter disables the check. Limiter errors fail open so a Redis
// outage does not take issuance down with it.
func RateLimit(limiter *ratelimit.Limiter, prefix string, limit int, window time.Duration) gee.HandlerFunc {
	return func(ctx *gee.Context) {
		if limiter == nil {
			ctx.Next()
			return
		}
		key := "rl:" + prefix + ":" + ClientIP(ctx.Req)

		// ZADD overwrites an existing member, so each request needs a unique one.
		// UnixNano alone can repeat on coarse clocks.
		member := strconv.FormatInt(time.Now().UnixNano(), 10) + "-" + strconv.FormatUint(rateLimitMemberSeq.Add(1), 10)

		rlCtx, cancel := context.WithTimeout(ctx.Req.Context(), limiterTimeout)
		defer cancel()
		allowed, retryAfter, err := limiter.Allow(rlCtx, key, limit, window, member)
		if err != nil {
			slog.Error("rate limit check failed", "err", err, "prefix", prefix)
			ctx.Next()
			return
		}
		if !allowed {
			if retryAfter > 0 {
				secs := int64((retryAfter + time.Second - 1) / time.Second)
				ctx.SetHeader("Retry-After", strconv.FormatInt(secs, 10))
			}
			ctx.AbortWithError(http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		ctx.Next()
	}
}
