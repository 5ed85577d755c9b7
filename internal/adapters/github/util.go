package github

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// GHStatusError carries a non-2xx GitHub response
type GHStatusError struct {
	Status int
	Body   string
}

// Error interface
func (e *GHStatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("github status %d", e.Status)
	}
	return fmt.Sprintf("github status %d: %s", e.Status, e.Body)
}

// HTTPStatus interface
func (e *GHStatusError) HTTPStatus() int { return e.Status }

func parseRateHeaders(h http.Header) (remaining int, hasRemaining bool, reset time.Time, retryAfter int) {
	if v := h.Get("X-RateLimit-Remaining"); v != "" {
		remaining, hasRemaining = atoi(v), true
	}
	if sec := atoi(h.Get("X-RateLimit-Reset")); sec > 0 {
		reset = time.Unix(int64(sec), 0).UTC()
	}
	retryAfter = atoi(h.Get("Retry-After"))
	return
}

// computeWait decides how long to wait based on headers
func computeWait(remaining int, reset time.Time, retryAfter int, now time.Time) time.Duration {
	if retryAfter > 0 {
		return time.Duration(retryAfter) * time.Second
	}
	if remaining <= 0 && !reset.IsZero() && reset.After(now) {
		return reset.Sub(now)
	}
	return 0
}

// nextLink extracts the rel="next" target of a Link header
func nextLink(h http.Header) string {
	for part := range strings.SplitSeq(h.Get("Link"), ",") {
		url, params, ok := strings.Cut(strings.TrimSpace(part), ";")
		if !ok {
			continue
		}
		if strings.Contains(params, `rel="next"`) {
			return strings.Trim(strings.TrimSpace(url), "<>")
		}
	}
	return ""
}

func statusClass(code int) string {
	return strconv.Itoa(code/100) + "xx"
}

func atoi(s string) int {
	i, _ := strconv.Atoi(strings.TrimSpace(s))
	return i
}

func drainAndClose(rc io.ReadCloser) error {
	_, _ = io.Copy(io.Discard, io.LimitReader(rc, 512))
	return rc.Close()
}
