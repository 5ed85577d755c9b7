package modkit

import "net/http"

// Option mutates module build configuration
type Option func(*Built)

// Built is what modules read back after applying options
type Built struct {
	Name   string
	Prefix string
	Mw     []func(http.Handler) http.Handler
}

// WithName sets the module name used in logs
func WithName(name string) Option { return func(b *Built) { b.Name = name } }

// WithPrefix sets the path the module mounts under
func WithPrefix(prefix string) Option { return func(b *Built) { b.Prefix = prefix } }

// WithMiddlewares appends per module middleware in order
func WithMiddlewares(mw ...func(http.Handler) http.Handler) Option {
	return func(b *Built) { b.Mw = append(b.Mw, mw...) }
}

// Build applies opts in order; later options win
func Build(opts ...Option) Built {
	var b Built
	for _, o := range opts {
		o(&b)
	}
	return b
}
