package httpkit

import (
	"compress/flate"
	"net/http"
	"time"

	"ghdigest/internal/platform/metrics"
	"ghdigest/internal/platform/net/middleware"
)

// StackOptions tunes CommonStack
type StackOptions struct {
	Origins []string
	Timeout time.Duration
	Slow    time.Duration
	Metrics metrics.Emitter
}

// CommonStack is the baseline middleware for the API root
func CommonStack(o StackOptions) []func(http.Handler) http.Handler {
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	return []func(http.Handler) http.Handler{
		middleware.RequestID(),
		middleware.RealIP(),
		middleware.AccessLog(middleware.AccessLogOptions{Slow: o.Slow, Metrics: o.Metrics}),
		middleware.RecoverJSON,
		middleware.NoCache(),
		middleware.CORS(middleware.CORSOptions{AllowedOrigins: o.Origins}),
		middleware.Compress(flate.BestSpeed),
		middleware.Heartbeat("/ping"),
		middleware.StripSlashes(),
		middleware.Timeout(o.Timeout),
	}
}
