package sharelink

import (
	"crypto/rand"
	"regexp"
)

// ShareIDLength is the fixed length of a share id.
const ShareIDLength = 8

// shareIDAlphabet has exactly 64 symbols, so masking a random byte with 63
// picks each one with equal probability.
const shareIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

var shareIDRe = regexp.MustCompile(`^[A-Za-z0-9_-]{8}$`)

// IDFunc produces a new share id.
type IDFunc func() string

// NewShareID returns 8 random URL-safe characters (48 bits of entropy).
// There is no shared counter; every call is independent.
func NewShareID() string {
	var buf [ShareIDLength]byte
	// crypto/rand.Read never returns an error; it aborts the process instead.
	_, _ = rand.Read(buf[:])
	for i, b := range buf {
		buf[i] = shareIDAlphabet[b&63]
	}
	return string(buf[:])
}

// ValidShareID reports whether id has the shape of an issued share id.
func ValidShareID(id string) bool {
	return shareIDRe.MatchString(id)
}
