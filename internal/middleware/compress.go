package middleware

import (
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
)

const defaultCompressMinLength = 1024

// CompressConfig tunes Compress.
type CompressConfig struct {
	Quality   int
	MinLength int
	// SkipPaths lists route patterns (as gin reports them in FullPath) that
	// are always served uncompressed.
	SkipPaths []string
}

type writeMode int

const (
	modePending writeMode = iota
	modeCompressed
	modePlain
)

// compressWriter holds the body back until MinLength bytes are seen. Short
// bodies go out as written; longer ones are brotli encoded.
type compressWriter struct {
	gin.ResponseWriter
	enc       *brotli.Writer
	buf       []byte
	quality   int
	minLength int
	mode      writeMode
}

func (w *compressWriter) Write(data []byte) (int, error) {
	switch w.mode {
	case modeCompressed:
		return w.enc.Write(data)
	case modePlain:
		return w.ResponseWriter.Write(data)
	}

	w.buf = append(w.buf, data...)
	if len(w.buf) < w.minLength {
		return len(data), nil
	}

	w.mode = modeCompressed
	h := w.ResponseWriter.Header()
	h.Set("Content-Encoding", "br")
	h.Del("Content-Length")
	w.enc = brotli.NewWriterLevel(w.ResponseWriter, w.quality)
	if _, err := w.enc.Write(w.buf); err != nil {
		return 0, err
	}
	w.buf = nil
	return len(data), nil
}

func (w *compressWriter) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

// Flush commits the body so far. A body still below MinLength is sent plain
// and the rest of the response follows uncompressed.
func (w *compressWriter) Flush() {
	switch w.mode {
	case modeCompressed:
		_ = w.enc.Flush()
	case modePending:
		_ = w.commitPlain()
	}
	w.ResponseWriter.Flush()
}

func (w *compressWriter) commitPlain() error {
	w.mode = modePlain
	if len(w.buf) == 0 {
		return nil
	}
	_, err := w.ResponseWriter.Write(w.buf)
	w.buf = nil
	return err
}

func (w *compressWriter) finish() error {
	switch w.mode {
	case modeCompressed:
		return w.enc.Close()
	case modePending:
		return w.commitPlain()
	}
	return nil
}

// Compress encodes large responses with brotli for clients that accept it.
// Streams (SSE, WebSocket upgrades) pass through untouched.
func Compress(cfg CompressConfig) gin.HandlerFunc {
	if cfg.Quality < brotli.BestSpeed || cfg.Quality > brotli.BestCompression {
		cfg.Quality = brotli.DefaultCompression
	}
	if cfg.MinLength <= 0 {
		cfg.MinLength = defaultCompressMinLength
	}
	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := skip[c.FullPath()]; ok || isStream(c) || !acceptsBrotli(c.Request) {
			c.Next()
			return
		}

		c.Header("Vary", "Accept-Encoding")
		w := &compressWriter{
			ResponseWriter: c.Writer,
			quality:        cfg.Quality,
			minLength:      cfg.MinLength,
		}
		c.Writer = w
		defer func() {
			if err := w.finish(); err != nil {
				_ = c.Error(err)
			}
			c.Writer = w.ResponseWriter
		}()

		c.Next()
	}
}

func isStream(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "text/event-stream") ||
		strings.EqualFold(c.GetHeader("Upgrade"), "websocket")
}

// acceptsBrotli reports whether Accept-Encoding lists br without q=0.
func acceptsBrotli(r *http.Request) bool {
	for _, enc := range strings.Split(r.Header.Get("Accept-Encoding"), ",") {
		name, params, _ := strings.Cut(strings.TrimSpace(enc), ";")
		if !strings.EqualFold(strings.TrimSpace(name), "br") {
			continue
		}
		q := strings.ReplaceAll(params, " ", "")
		return q != "q=0" && q != "q=0.0"
	}
	return false
}
