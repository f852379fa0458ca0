package sharelink

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllowList(t *testing.T) {
	allow, err := NewAllowList([]string{"https://rota-*.vercel.app", " "}, "rota.example.org")
	require.NoError(t, err)

	tests := []struct {
		name   string
		url    string
		origin string
		want   bool
	}{
		{"same origin", "https://example.com/shared/abc", "https://example.com", true},
		{"same origin with port", "http://localhost:3000/shared/abc", "http://localhost:3000", true},
		{"origin is only a prefix of the host", "https://example.com.evil.io/x", "https://example.com", false},
		{"foreign domain", "https://evil.example/phish", "https://example.com", false},
		{"preview deployment", "https://rota-git-main-team.vercel.app/shared/x", "https://example.com", true},
		{"preview needs a label", "https://rota-.vercel.app/shared/x", "https://example.com", false},
		{"preview pattern is anchored", "https://rota-x.vercel.app.evil.io/", "https://example.com", false},
		{"production host", "https://rota.example.org/shared/x", "https://example.com", true},
		{"no origin", "https://evil.example/", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := url.Parse(tt.url)
			require.NoError(t, err)
			assert.Equal(t, tt.want, allow.Allowed(tt.url, u, tt.origin))
		})
	}
}

func TestCompileOriginPatternRejectsBadPatterns(t *testing.T) {
	for _, p := range []string{
		"rota-*.vercel.app",
		"ftp://rota-*.vercel.app",
		"https://",
		"https://rota-*.vercel.app/path",
	} {
		_, err := CompileOriginPattern(p)
		assert.Error(t, err, p)
	}
}
