package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCompressRouter(body string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Compress(CompressConfig{MinLength: 64, SkipPaths: []string{"/raw"}}))
	handler := func(c *gin.Context) { c.String(http.StatusOK, body) }
	r.GET("/text", handler)
	r.GET("/raw", handler)
	r.GET("/chunks", func(c *gin.Context) {
		c.Status(http.StatusOK)
		for i := 0; i < 10; i++ {
			_, _ = c.Writer.WriteString(strings.Repeat("x", 20))
		}
	})
	return r
}

func getWithEncoding(r http.Handler, path, acceptEncoding string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if acceptEncoding != "" {
		req.Header.Set("Accept-Encoding", acceptEncoding)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBrotli(t *testing.T, body io.Reader) string {
	t.Helper()
	raw, err := io.ReadAll(brotli.NewReader(body))
	require.NoError(t, err)
	return string(raw)
}

func TestCompressEncodesLargeBodies(t *testing.T) {
	body := strings.Repeat("question bank ", 20)
	w := getWithEncoding(newCompressRouter(body), "/text", "gzip, br")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "br", w.Header().Get("Content-Encoding"))
	assert.Equal(t, "Accept-Encoding", w.Header().Get("Vary"))
	assert.Equal(t, body, decodeBrotli(t, w.Body))
}

func TestCompressLeavesSmallBodiesPlain(t *testing.T) {
	w := getWithEncoding(newCompressRouter("short"), "/text", "br")

	assert.Empty(t, w.Header().Get("Content-Encoding"))
	assert.Equal(t, "short", w.Body.String())
}

func TestCompressRespectsAcceptEncoding(t *testing.T) {
	body := strings.Repeat("a", 200)
	r := newCompressRouter(body)

	for _, ae := range []string{"", "gzip", "br;q=0"} {
		w := getWithEncoding(r, "/text", ae)
		assert.Empty(t, w.Header().Get("Content-Encoding"), ae)
		assert.Equal(t, body, w.Body.String(), ae)
	}
}

func TestCompressSkipsConfiguredPaths(t *testing.T) {
	body := strings.Repeat("a", 200)
	w := getWithEncoding(newCompressRouter(body), "/raw", "br")

	assert.Empty(t, w.Header().Get("Content-Encoding"))
	assert.Equal(t, body, w.Body.String())
}

func TestCompressJoinsChunkedWrites(t *testing.T) {
	w := getWithEncoding(newCompressRouter(""), "/chunks", "br")

	assert.Equal(t, "br", w.Header().Get("Content-Encoding"))
	assert.Equal(t, strings.Repeat("x", 200), decodeBrotli(t, w.Body))
}
