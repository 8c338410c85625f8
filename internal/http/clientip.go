// Package http carries shared gin middleware for the API surface.
package http

import (
	"regexp"
	"strings"

	"github.com/Criztiandev/criztiandev-blogs/internal/security"
	"github.com/gin-gonic/gin"
)

// IdentityKey is the gin context key holding the hashed caller identity.
const IdentityKey = "callerIdentity"

// ipHeaders are tried in order of preference before falling back to the
// socket address.
var ipHeaders = []string{
	"X-Forwarded-For",
	"X-Real-IP",
	"X-Client-IP",
	"CF-Connecting-IP",
	"Fastly-Client-IP",
	"X-Cluster-Client-IP",
	"X-Forwarded",
	"Forwarded-For",
}

// forwardedForPattern extracts the for= token of an RFC 7239 Forwarded header.
var forwardedForPattern = regexp.MustCompile(`for=([^;,\s]+)`)

// CallerIdentityMiddleware resolves the client IP and stores its one-way hash
// in the request context. The raw address is never retained.
func CallerIdentityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(IdentityKey, security.HashIdentity(resolveClientIP(c)))
		c.Next()
	}
}

// CallerIdentity reads the hashed identity set by the middleware.
func CallerIdentity(c *gin.Context) string {
	value, ok := c.Get(IdentityKey)
	if !ok {
		return security.HashIdentity(c.ClientIP())
	}
	identity, ok := value.(string)
	if !ok || identity == "" {
		return security.HashIdentity(c.ClientIP())
	}
	return identity
}

// resolveClientIP walks the proxy header preference chain.
func resolveClientIP(c *gin.Context) string {
	for _, header := range ipHeaders {
		value := strings.TrimSpace(c.GetHeader(header))
		if value == "" {
			continue
		}
		// X-Forwarded-For may list client, proxy1, proxy2; the first entry
		// is the original client.
		if first := strings.TrimSpace(strings.SplitN(value, ",", 2)[0]); first != "" {
			return first
		}
	}

	if forwarded := c.GetHeader("Forwarded"); forwarded != "" {
		if match := forwardedForPattern.FindStringSubmatch(forwarded); len(match) == 2 {
			return strings.Trim(match[1], `"`)
		}
	}

	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	return "unknown"
}
