package http

import (
	"net/http/httptest"
	"testing"

	"github.com/Criztiandev/criztiandev-blogs/internal/security"
	"github.com/gin-gonic/gin"
)

func identityFor(t *testing.T, headers map[string]string) string {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var got string
	engine := gin.New()
	engine.Use(CallerIdentityMiddleware())
	engine.GET("/probe", func(c *gin.Context) {
		got = CallerIdentity(c)
		c.Status(200)
	})

	req := httptest.NewRequest("GET", "/probe", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	engine.ServeHTTP(httptest.NewRecorder(), req)
	return got
}

func TestCallerIdentityFromForwardedFor(t *testing.T) {
	got := identityFor(t, map[string]string{
		"X-Forwarded-For": "203.0.113.7, 10.0.0.1, 10.0.0.2",
	})
	if got != security.HashIdentity("203.0.113.7") {
		t.Fatalf("expected hash of first forwarded entry, got %q", got)
	}
}

func TestCallerIdentityHeaderPreference(t *testing.T) {
	got := identityFor(t, map[string]string{
		"X-Real-IP":        "198.51.100.4",
		"CF-Connecting-IP": "192.0.2.9",
	})
	if got != security.HashIdentity("198.51.100.4") {
		t.Fatalf("expected X-Real-IP to win over CF header, got %q", got)
	}
}

func TestCallerIdentityRFC7239Forwarded(t *testing.T) {
	got := identityFor(t, map[string]string{
		"Forwarded": `for="203.0.113.60";proto=https;by=203.0.113.43`,
	})
	if got != security.HashIdentity("203.0.113.60") {
		t.Fatalf("expected Forwarded for= entry, got %q", got)
	}
}

func TestCallerIdentityFallsBackToSocket(t *testing.T) {
	got := identityFor(t, nil)
	if got == "" {
		t.Fatal("expected a non-empty identity without proxy headers")
	}
	if got == security.HashIdentity("") {
		t.Fatal("expected socket address, not empty-string hash")
	}
}

func TestCallerIdentityNeverExposesRawIP(t *testing.T) {
	got := identityFor(t, map[string]string{"X-Real-IP": "198.51.100.4"})
	if got == "198.51.100.4" {
		t.Fatal("identity must be hashed")
	}
	if len(got) != 64 {
		t.Fatalf("expected sha256 hex identity, got %q", got)
	}
}
