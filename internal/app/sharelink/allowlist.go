package sharelink

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// originLabel is what a '*' in a preview pattern may stand for.
const originLabel = `[A-Za-z0-9-]+`

// AllowList decides which long URLs may be shortened.
//
// A URL passes when any one of these holds:
//   - it starts with the origin of the issuing request;
//   - its origin matches a deployment preview pattern;
//   - it contains the production host.
type AllowList struct {
	previews       []*regexp.Regexp
	productionHost string
}

// NewAllowList compiles preview origin patterns such as
// "https://rota-*.vercel.app". productionHost may be empty.
func NewAllowList(previewPatterns []string, productionHost string) (*AllowList, error) {
	a := &AllowList{productionHost: strings.TrimSpace(productionHost)}
	for _, p := range previewPatterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		re, err := CompileOriginPattern(p)
		if err != nil {
			return nil, err
		}
		a.previews = append(a.previews, re)
	}
	return a, nil
}

// CompileOriginPattern turns a scheme://host[:port] pattern into an anchored
// regexp. Each '*' matches one or more letters, digits or hyphens.
func CompileOriginPattern(pattern string) (*regexp.Regexp, error) {
	scheme, host, ok := strings.Cut(pattern, "://")
	if !ok || (scheme != "http" && scheme != "https") {
		return nil, fmt.Errorf("preview origin %q: scheme must be http or https", pattern)
	}
	if host == "" || strings.ContainsAny(host, "/?#@ ") {
		return nil, fmt.Errorf("preview origin %q: want scheme://host[:port]", pattern)
	}

	parts := strings.Split(host, "*")
	for i, part := range parts {
		parts[i] = regexp.QuoteMeta(strings.ToLower(part))
	}
	return regexp.Compile("^" + scheme + "://" + strings.Join(parts, originLabel) + "$")
}

// Allowed reports whether rawURL, already parsed as u, may be shortened for a
// request that arrived on origin.
func (a *AllowList) Allowed(rawURL string, u *url.URL, origin string) bool {
	if hasOriginPrefix(rawURL, origin) {
		return true
	}
	if len(a.previews) > 0 {
		o := strings.ToLower(u.Scheme + "://" + u.Host)
		for _, re := range a.previews {
			if re.MatchString(o) {
				return true
			}
		}
	}
	return a.productionHost != "" && strings.Contains(rawURL, a.productionHost)
}

// hasOriginPrefix requires the origin to end at a path, query or fragment
// boundary, so https://example.com does not admit https://example.com.evil.io.
func hasOriginPrefix(rawURL, origin string) bool {
	origin = strings.TrimSuffix(origin, "/")
	if origin == "" || !strings.HasPrefix(rawURL, origin) {
		return false
	}
	rest := rawURL[len(origin):]
	return rest == "" || strings.ContainsRune("/?#", rune(rest[0]))
}
