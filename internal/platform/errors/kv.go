package errors

// Redis helpers: classify go-redis replies into ErrorCodes and retry semantics

import (
	stderrs "errors"
	"io"
	"net"
	"strings"

	"github.com/redis/go-redis/v9"
)

// IsNil reports a missing key or field (redis.Nil) anywhere in the chain
func IsNil(err error) bool { return stderrs.Is(err, redis.Nil) }

// IsNoSuchKey reports the "ERR no such key" reply RENAME gives for a missing source
func IsNoSuchKey(err error) bool {
	var rerr redis.Error
	return stderrs.As(err, &rerr) && strings.Contains(strings.ToLower(rerr.Error()), "no such key")
}

// KVErrorCode maps a redis error to an ErrorCode
func KVErrorCode(err error) ErrorCode {
	switch {
	case err == nil:
		return ErrorCodeUnknown
	case IsNil(err), IsNoSuchKey(err):
		return ErrorCodeNotFound
	case isKVConnErr(err):
		return ErrorCodeUnavailable
	}
	var rerr redis.Error
	if stderrs.As(err, &rerr) {
		msg := rerr.Error()
		switch {
		case strings.HasPrefix(msg, "WRONGTYPE"):
			return ErrorCodeConfig
		case strings.HasPrefix(msg, "LOADING"), strings.HasPrefix(msg, "BUSY"),
			strings.HasPrefix(msg, "TRYAGAIN"), strings.HasPrefix(msg, "READONLY"):
			return ErrorCodeUnavailable
		}
	}
	return ErrorCodeKV
}

// FromKV wraps a redis error with its mapped code; nil stays nil
func FromKV(err error, msg string) error {
	if err == nil {
		return nil
	}
	return Wrap(err, KVErrorCode(err), msg)
}

// FromKVf is the formatted variant of FromKV
func FromKVf(err error, format string, a ...any) error {
	if err == nil {
		return nil
	}
	return Wrapf(err, KVErrorCode(err), format, a...)
}

// IsRetryableKV reports transient redis conditions
func IsRetryableKV(err error) bool {
	if err == nil {
		return false
	}
	return KVErrorCode(Root(err)) == ErrorCodeUnavailable
}

func isKVConnErr(err error) bool {
	if stderrs.Is(err, redis.ErrClosed) || stderrs.Is(err, io.EOF) || stderrs.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var nerr net.Error
	return stderrs.As(err, &nerr)
}
