// Package http holds the router seam, the JSON envelope and the server wrapper
package http

import (
	stdhttp "net/http"

	json "github.com/goccy/go-json"

	perr "ghdigest/internal/platform/errors"
	pnet "ghdigest/internal/platform/net"
)

// Envelope is the response body of every JSON endpoint
type Envelope struct {
	StatusCode int            `json:"status_code"`
	Status     string         `json:"status"`
	Code       perr.ErrorCode `json:"code,omitempty"`
	Error      string         `json:"error,omitempty"`
	Field      string         `json:"field,omitempty"`
	RequestID  string         `json:"request_id,omitempty"`
	Data       any            `json:"data,omitempty"`
}

// JSON writes v as application/json with status
func JSON(w stdhttp.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// RespondOK writes a 200 envelope around data
func RespondOK(w stdhttp.ResponseWriter, r *stdhttp.Request, data any) {
	JSON(w, stdhttp.StatusOK, success(stdhttp.StatusOK, data, pnet.RequestID(r.Context())))
}

// RespondError maps err onto a status and an error envelope
func RespondError(w stdhttp.ResponseWriter, r *stdhttp.Request, err error) {
	status, env := failure(err, pnet.RequestID(r.Context()))
	JSON(w, status, env)
}

// Response is what return-style handlers produce
type Response struct {
	Status int
	// Body is the payload, or an error to be mapped
	Body   any
	Header stdhttp.Header
}

// Handle adapts a Response-returning function to a Handler
func Handle(h func(r *stdhttp.Request) Response) Handler {
	return func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		h(r).write(w, r)
	}
}

func (resp Response) write(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	for k, vv := range resp.Header {
		for _, v := range vv {
			w.Header().Add(k, v)
		}
	}
	status := resp.Status
	if status == 0 {
		status = stdhttp.StatusOK
	}
	if status == stdhttp.StatusNoContent {
		w.WriteHeader(status)
		return
	}
	reqID := pnet.RequestID(r.Context())
	if err, ok := resp.Body.(error); ok && err != nil {
		code, env := failure(err, reqID)
		JSON(w, code, env)
		return
	}
	JSON(w, status, success(status, resp.Body, reqID))
}

// OK returns a 200 response
func OK(data any) Response { return Response{Status: stdhttp.StatusOK, Body: data} }

// NoContent returns a 204 response
func NoContent() Response { return Response{Status: stdhttp.StatusNoContent} }

// Error returns a response whose status comes from err's code
func Error(err error) Response { return Response{Body: err} }

func success(status int, data any, reqID string) Envelope {
	return Envelope{
		StatusCode: status,
		Status:     stdhttp.StatusText(status),
		RequestID:  reqID,
		Data:       data,
	}
}

func failure(err error, reqID string) (int, Envelope) {
	status, wire := perr.HTTP(err)
	return status, Envelope{
		StatusCode: status,
		Status:     stdhttp.StatusText(status),
		Code:       wire.Code,
		Error:      wire.Message,
		Field:      wire.Field,
		RequestID:  reqID,
	}
}
