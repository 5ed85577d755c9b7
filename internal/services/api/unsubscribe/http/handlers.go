// Package http serves the unsubscribe link
package http

import (
	"net/http"
	"strconv"

	"ghdigest/internal/modkit/httpkit"
	perr "ghdigest/internal/platform/errors"
	"ghdigest/internal/platform/net/http/bind"

	"ghdigest/internal/services/api/unsubscribe/domain"
)

// LinkQuery is the query string of an unsubscribe link
type LinkQuery struct {
	ID     string `query:"id" validate:"required,numeric"`
	Expiry string `query:"expiry" validate:"required,numeric"`
	MAC    string `query:"v" validate:"required,hexadecimal,len=128"`
}

type handlers struct{ svc domain.UnsubscribePort }

// Register mounts GET / on r
func Register(r httpkit.Router, svc domain.UnsubscribePort) {
	h := &handlers{svc: svc}
	r.Get("/", httpkit.Call(h.unsubscribe))
}

func (h *handlers) unsubscribe(r *http.Request) (any, error) {
	q, err := bind.Query[LinkQuery](r)
	if err != nil {
		return nil, err
	}
	expiry, err := strconv.ParseInt(q.Expiry, 10, 64)
	if err != nil {
		return nil, perr.WithField(perr.InvalidArgf("expiry out of range"), "expiry")
	}
	return h.svc.Unsubscribe(r.Context(), domain.Link{ID: q.ID, Expiry: expiry, MAC: q.MAC})
}
