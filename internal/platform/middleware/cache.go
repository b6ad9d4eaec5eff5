package middleware

import (
	"bytes"
	"fmt"
	"hash/fnv"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// CacheConfig controls the Cache-Control and ETag headers set on GET
// responses. Practice data is always private; only the max-age and the
// skip list vary per deployment.
type CacheConfig struct {
	MaxAge    int      // max-age in seconds
	NoStore   bool     // no-store for sensitive endpoints
	SkipPaths []string // exact paths left untouched, e.g. /metrics
}

func DefaultCacheConfig() CacheConfig {
	return CacheConfig{MaxAge: 120}
}

// etagWriter buffers the body so the hash can be computed before anything
// reaches the client.
type etagWriter struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (w *etagWriter) Write(b []byte) (int, error) { return w.body.Write(b) }

func (w *etagWriter) WriteHeader(code int) { w.status = code }

func (w *etagWriter) flush() error {
	w.ResponseWriter.WriteHeader(w.status)
	if w.body.Len() == 0 {
		return nil
	}
	_, err := w.ResponseWriter.Write(w.body.Bytes())
	return err
}

// HTTPCache sets Cache-Control, Vary and a weak ETag on successful GET and
// HEAD responses, and answers If-None-Match revalidations with 304.
func HTTPCache(cfg CacheConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.Method != http.MethodGet && req.Method != http.MethodHead {
				return next(c)
			}
			for _, p := range cfg.SkipPaths {
				if req.URL.Path == p {
					return next(c)
				}
			}

			res := c.Response()
			orig := res.Writer
			ew := &etagWriter{ResponseWriter: orig, status: http.StatusOK}
			res.Writer = ew

			err := next(c)
			res.Writer = orig
			if err != nil {
				return err
			}
			if ew.status >= 400 {
				return ew.flush()
			}

			res.Header().Set("Cache-Control", cacheControl(cfg))
			res.Header().Set("Vary", "Accept, Authorization")

			tag := weakETag(ew.body.Bytes())
			res.Header().Set("ETag", tag)
			if match := req.Header.Get("If-None-Match"); match != "" && etagMatch(match, tag) {
				orig.WriteHeader(http.StatusNotModified)
				return nil
			}
			return ew.flush()
		}
	}
}

func cacheControl(cfg CacheConfig) string {
	if cfg.NoStore {
		return "no-store"
	}
	return fmt.Sprintf("private, max-age=%d", cfg.MaxAge)
}

func weakETag(body []byte) string {
	h := fnv.New64a()
	h.Write(body)
	return fmt.Sprintf(`W/"%x"`, h.Sum64())
}

// etagMatch compares an If-None-Match header against a tag. Handles the
// wildcard and comma-separated lists; weak and strong forms compare equal.
func etagMatch(header, tag string) bool {
	header = strings.TrimSpace(header)
	if header == "*" {
		return true
	}
	for _, cand := range strings.Split(header, ",") {
		if strings.TrimPrefix(strings.TrimSpace(cand), "W/") == strings.TrimPrefix(tag, "W/") {
			return true
		}
	}
	return false
}
