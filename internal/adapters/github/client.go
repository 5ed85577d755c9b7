// Package github provides the rate limited, circuit broken GitHub REST v3 client the poller reads from
package github

import (
	"context"
	stderrs "errors"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	perr "ghdigest/internal/platform/errors"
	"ghdigest/internal/platform/logger"
	"ghdigest/internal/platform/metrics"
)

const (
	baseURLDefault   = "https://api.github.com"
	defaultTimeout   = 10 * time.Second
	defaultUA        = "ghdigest-checker"
	defaultMaxRetry  = 3
	defaultRetryBase = 500 * time.Millisecond
	defaultPerPage   = 100
	defaultMaxPages  = 10

	// follower lists are diffed whole, so their walk gets a far larger cap
	defaultFollowerPages = 200
)

// Options configures the Client
type Options struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration

	// Retry config for transient and rate limited responses
	MaxRetries int
	RetryBase  time.Duration

	// Client side budget shared by every recipient; zero means unlimited
	RatePerSec float64
	Burst      int

	PerPage  int
	MaxPages int

	// FollowerPages caps the follower walk; a list longer than this fails the fetch
	FollowerPages int

	// Breaker trips after this many consecutive transport or 5xx failures
	BreakerFailures uint32
	BreakerCooldown time.Duration
}

// Client is a minimal GitHub REST client; the token is supplied per call
// because every recipient polls with their own OAuth grant
type Client struct {
	http    *http.Client
	opts    Options
	limiter *rate.Limiter
	cb      *gobreaker.CircuitBreaker[*http.Response]
	log     logger.Logger
	em      metrics.Emitter
	now     func() time.Time
	sleep   func(time.Duration)
}

// errServerStatus marks a 5xx so the breaker counts it as a failure
var errServerStatus = stderrs.New("github server error")

// NewClient creates a new Client with sane defaults
func NewClient(o Options, em metrics.Emitter) *Client {
	if o.BaseURL == "" {
		o.BaseURL = baseURLDefault
	}
	if o.UserAgent == "" {
		o.UserAgent = defaultUA
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	} else if o.MaxRetries == 0 {
		o.MaxRetries = defaultMaxRetry
	}
	if o.RetryBase <= 0 {
		o.RetryBase = defaultRetryBase
	}
	if o.PerPage <= 0 || o.PerPage > 100 {
		o.PerPage = defaultPerPage
	}
	if o.MaxPages <= 0 {
		o.MaxPages = defaultMaxPages
	}
	if o.FollowerPages <= 0 {
		o.FollowerPages = defaultFollowerPages
	}
	if o.BreakerFailures == 0 {
		o.BreakerFailures = 5
	}
	if o.BreakerCooldown <= 0 {
		o.BreakerCooldown = 30 * time.Second
	}
	if em == nil {
		em = metrics.Nop{}
	}

	lim := rate.NewLimiter(rate.Inf, 0)
	if o.RatePerSec > 0 {
		burst := o.Burst
		if burst <= 0 {
			burst = 1
		}
		lim = rate.NewLimiter(rate.Limit(o.RatePerSec), burst)
	}

	c := &Client{
		http:    &http.Client{Timeout: o.Timeout},
		opts:    o,
		limiter: lim,
		log:     *logger.Named("github"),
		em:      em,
		now:     time.Now,
		sleep:   time.Sleep,
	}
	c.cb = gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        "github",
		MaxRequests: 1,
		Timeout:     o.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= o.BreakerFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("github breaker state change")
		},
	})
	return c
}

// Do issues an authenticated GET-style request with retries, rate limit handling
// and the circuit breaker. The caller owns the body of a returned response
func (c *Client) Do(ctx context.Context, method, path, token string) (*http.Response, error) {
	url := path
	if len(path) > 0 && path[0] == '/' {
		url = c.opts.BaseURL + path
	}
	attempts := 0
	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, method, url, nil)
		if err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "github new request failed")
		}
		req.Header.Set("User-Agent", c.opts.UserAgent)
		req.Header.Set("Accept", "application/vnd.github+json")
		if token != "" {
			req.Header.Set("Authorization", "token "+token)
		}

		start := c.now()
		resp, err := c.cb.Execute(func() (*http.Response, error) {
			r, err := c.http.Do(req)
			if err != nil {
				return nil, err
			}
			if r.StatusCode >= 500 {
				return r, errServerStatus
			}
			return r, nil
		})
		lat := c.now().Sub(start)

		if stderrs.Is(err, gobreaker.ErrOpenState) || stderrs.Is(err, gobreaker.ErrTooManyRequests) {
			c.em.Inc(metrics.GitHubRequests, "breaker_open")
			return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "github breaker open")
		}
		if err != nil && resp == nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.em.Inc(metrics.GitHubRequests, "transport_error")
			if !c.shouldRetry(attempts) {
				return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "github do failed")
			}
			back := c.backoff(attempts)
			c.log.Warn().Dur("retry_in", back).Int("attempt", attempts).Msg("github transport error retrying")
			c.sleep(back)
			attempts++
			continue
		}

		rem, hasRem, reset, retryAfter := parseRateHeaders(resp.Header)
		c.em.Inc(metrics.GitHubRequests, statusClass(resp.StatusCode))
		c.log.Debug().
			Str("method", method).
			Str("path", path).
			Int("status", resp.StatusCode).
			Int("attempt", attempts).
			Dur("latency", lat).
			Int("rate_remaining", rem).
			Time("rate_reset", reset).
			Int("retry_after_s", retryAfter).
			Msg("github http response")

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			return resp, nil
		case resp.StatusCode == http.StatusNotFound:
			return nil, perr.Wrap(statusErr(resp), perr.ErrorCodeNotFound, "github not found")
		case resp.StatusCode == http.StatusUnauthorized:
			return nil, perr.Wrap(statusErr(resp), perr.ErrorCodeUnauthorized, "github rejected token")
		case resp.StatusCode == http.StatusTooManyRequests,
			resp.StatusCode == http.StatusForbidden && (retryAfter > 0 || (hasRem && rem == 0)):
			// Respect Retry-After and X-RateLimit-Reset when present
			wait := computeWait(rem, reset, retryAfter, c.now())
			if wait <= 0 {
				wait = c.backoff(attempts)
			}
			_ = drainAndClose(resp.Body)
			if !c.shouldRetry(attempts) {
				return nil, perr.Newf(perr.ErrorCodeTooManyRequests, "github rate limited")
			}
			c.log.Warn().Dur("sleep", wait).Msg("github rate limited backing off")
			c.sleep(wait)
			attempts++
			continue
		case resp.StatusCode == http.StatusForbidden:
			return nil, perr.Wrap(statusErr(resp), perr.ErrorCodeForbidden, "github forbidden")
		case resp.StatusCode >= 500:
			_ = drainAndClose(resp.Body)
			if !c.shouldRetry(attempts) {
				return nil, perr.Newf(perr.ErrorCodeUpstream, "github server error %d", resp.StatusCode)
			}
			back := c.backoff(attempts)
			c.log.Warn().Dur("retry_in", back).Int("attempt", attempts).Msg("github transient error retrying")
			c.sleep(back)
			attempts++
			continue
		default:
			return nil, perr.Wrap(statusErr(resp), perr.ErrorCodeUpstream, "github unexpected status")
		}
	}
}

// statusErr reads a small tail for diagnostics and closes the body
func statusErr(resp *http.Response) *GHStatusError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	_ = resp.Body.Close()
	return &GHStatusError{Status: resp.StatusCode, Body: string(body)}
}

func (c *Client) backoff(attempt int) time.Duration {
	ms := int64(c.opts.RetryBase/time.Millisecond) << uint(attempt)
	ms = min(ms, int64(30*time.Second/time.Millisecond))
	return time.Duration(ms) * time.Millisecond
}

func (c *Client) shouldRetry(attempt int) bool {
	return attempt < c.opts.MaxRetries
}
