package httpkit

import (
	"net/http"
	"strings"
)

// MountUnder scopes mw to the routes mount adds under prefix.
// An empty or "/" prefix mounts on r itself, still keeping mw out of r's other routes
func MountUnder(r Router, prefix string, mw []func(http.Handler) http.Handler, mount func(Router)) {
	scoped := func(sub Router) {
		if len(mw) > 0 {
			sub.Use(mw...)
		}
		mount(sub)
	}
	if p := strings.TrimSuffix(prefix, "/"); p != "" {
		r.Route("/"+strings.TrimPrefix(p, "/"), scoped)
		return
	}
	r.Group(scoped)
}
