// Package middleware adapts chi middleware and adds the in house ones
package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	chicors "github.com/go-chi/cors"
)

// RequestID attaches or propagates X-Request-ID
func RequestID() func(http.Handler) http.Handler { return chimw.RequestID }

// RealIP sets RemoteAddr from X-Forwarded-For / X-Real-IP
func RealIP() func(http.Handler) http.Handler { return chimw.RealIP }

// Timeout cancels the request context after d
func Timeout(d time.Duration) func(http.Handler) http.Handler { return chimw.Timeout(d) }

// NoCache disables client and proxy caching
func NoCache() func(http.Handler) http.Handler { return chimw.NoCache }

// Compress wraps chi's compressor at level
func Compress(level int) func(http.Handler) http.Handler {
	c := chimw.NewCompressor(level)
	return c.Handler
}

// StripSlashes strips a trailing slash from the request path
func StripSlashes() func(http.Handler) http.Handler { return chimw.StripSlashes }

// Heartbeat answers GET path with 200 before routing
func Heartbeat(path string) func(http.Handler) http.Handler { return chimw.Heartbeat(path) }

// CORSOptions is the narrow surface over go-chi/cors
type CORSOptions struct {
	AllowedOrigins []string
	MaxAge         int
}

// CORS allows read-only cross origin calls; the API has no state changing routes
// that a browser would send with credentials
func CORS(o CORSOptions) func(http.Handler) http.Handler {
	origins := o.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return chicors.Handler(chicors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         o.MaxAge,
	})
}
