// Package net carries request scoped values shared by the HTTP layers
package net

import (
	"context"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// WithRequestID stores id where chi's RequestID middleware would; empty ids leave ctx untouched
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, chimw.RequestIDKey, id)
}

// RequestID returns the request id on ctx, empty when none was assigned
func RequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	return chimw.GetReqID(ctx)
}
