package middleware

import (
	"net/http"
	"strconv"
	"time"

	"ghdigest/internal/platform/logger"
	"ghdigest/internal/platform/metrics"
	pnet "ghdigest/internal/platform/net"
)

// AccessLogOptions configures AccessLog
type AccessLogOptions struct {
	// Slow marks requests taking >= Slow as warn; 0 disables
	Slow    time.Duration
	Metrics metrics.Emitter
}

type captureWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (cw *captureWriter) WriteHeader(code int) {
	cw.status = code
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	n, err := cw.ResponseWriter.Write(b)
	cw.bytes += n
	return n, err
}

// AccessLog tags the context logger with the request id, then logs and counts each request.
// Mount it after RequestID
func AccessLog(opt AccessLogOptions) func(http.Handler) http.Handler {
	em := opt.Metrics
	if em == nil {
		em = metrics.Nop{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := logger.WithRequest(r.Context(), pnet.RequestID(r.Context()))
			r = r.WithContext(ctx)
			cw := &captureWriter{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()

			next.ServeHTTP(cw, r)

			elapsed := time.Since(start)
			em.Inc(metrics.HTTPRequests, r.Method, statusClass(cw.status))

			log := logger.C(ctx)
			evt := log.Info()
			if opt.Slow > 0 && elapsed >= opt.Slow {
				evt = log.Warn()
			}
			evt.Int("status", cw.status).
				Dur("elapsed", elapsed).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("bytes", cw.bytes).
				Msg("request done")
		})
	}
}

func statusClass(code int) string {
	return strconv.Itoa(code/100) + "xx"
}
