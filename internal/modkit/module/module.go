// Package module defines the contract every service module satisfies
package module

import (
	phttp "ghdigest/internal/platform/net/http"
)

// Module is what composition roots hold. Worker-only modules embed NoRoutes;
// the api binary mounts the rest
type Module interface {
	MountRoutes(r phttp.Router)
	Ports() any
	Name() string
}

// NoRoutes satisfies MountRoutes for modules that are only reached through their ports
type NoRoutes struct{}

// MountRoutes mounts nothing
func (NoRoutes) MountRoutes(phttp.Router) {}
