// Package httpkit gives modules handler and routing helpers without importing
// internal/platform/net/http directly
package httpkit

import (
	"net/http"

	phttp "ghdigest/internal/platform/net/http"
)

type (
	// Envelope is the response body type
	Envelope = phttp.Envelope

	// Response is the return-style handler result
	Response = phttp.Response

	// Handler is the platform handler type
	Handler = phttp.Handler

	// Router is the platform router seam
	Router = phttp.Router
)

// OK returns a 200 response
func OK(data any) Response { return phttp.OK(data) }

// Error returns a response mapped from err
func Error(err error) Response { return phttp.Error(err) }

// Call adapts fn; a returned Response is passed through, anything else is wrapped in OK
func Call(fn func(*http.Request) (any, error)) Handler {
	return phttp.Handle(func(r *http.Request) Response {
		out, err := fn(r)
		if err != nil {
			return phttp.Error(err)
		}
		if resp, ok := out.(Response); ok {
			return resp
		}
		return phttp.OK(out)
	})
}
