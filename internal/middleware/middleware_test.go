package middleware

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRateLimiter_RefillsPerInterval(t *testing.T) {
	rl := NewRateLimiter(t.Context(), 2, time.Minute)
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"), "buckets are per key")

	now = now.Add(time.Minute)
	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
}

func TestRateLimiter_CleanupEvictsIdle(t *testing.T) {
	rl := NewRateLimiter(t.Context(), 1, time.Minute)
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.Allow("a")
	now = now.Add(5 * time.Minute)
	rl.cleanup()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.Empty(t, rl.visitors)
}

func serveWith(t *testing.T, mw gin.HandlerFunc, body string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	r := gin.New()
	r.Use(mw)
	r.GET("/x", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json", []byte(body))
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestBrotli_CompressesLargeBodies(t *testing.T) {
	body := `{"items":"` + strings.Repeat("abc", 1000) + `"}`
	rec := serveWith(t, Brotli(), body, http.Header{"Accept-Encoding": {"gzip, br"}})

	require.Equal(t, "br", rec.Header().Get("Content-Encoding"))
	plain, err := io.ReadAll(brotli.NewReader(bytes.NewReader(rec.Body.Bytes())))
	require.NoError(t, err)
	assert.Equal(t, body, string(plain))
}

func TestBrotli_LeavesSmallBodiesAlone(t *testing.T) {
	rec := serveWith(t, Brotli(), `{"ok":true}`, http.Header{"Accept-Encoding": {"br"}})

	assert.Empty(t, rec.Header().Get("Content-Encoding"))
	assert.Equal(t, `{"ok":true}`, rec.Body.String())
}

func TestBrotli_RespectsAcceptEncoding(t *testing.T) {
	body := strings.Repeat("x", 4096)

	rec := serveWith(t, Brotli(), body, http.Header{"Accept-Encoding": {"gzip"}})
	assert.Empty(t, rec.Header().Get("Content-Encoding"))

	rec = serveWith(t, Brotli(), body, http.Header{"Accept-Encoding": {"br;q=0, gzip"}})
	assert.Empty(t, rec.Header().Get("Content-Encoding"))
	assert.Equal(t, body, rec.Body.String())
}

func TestCacheHeaders(t *testing.T) {
	rec := serveWith(t, CacheControl(60), "{}", nil)
	assert.Equal(t, "private, max-age=60", rec.Header().Get("Cache-Control"))

	rec = serveWith(t, NoStore(), "{}", nil)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}
