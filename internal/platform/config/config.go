// Package config reads typed settings from environment variables.
// Must* accessors panic through the logger; May* accessors fall back to a default
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"ghdigest/internal/platform/logger"
)

// Conf is a namespaced view over env vars, e.g. New().Prefix("CHECKER_")
type Conf struct{ prefix string }

// New returns the root Conf
func New() Conf { return Conf{} }

// Prefix returns a child Conf with p appended to the prefix
func (c Conf) Prefix(p string) Conf { return Conf{prefix: c.prefix + p} }

func (c Conf) key(k string) string { return c.prefix + k }

func (c Conf) lookup(k string) string { return strings.TrimSpace(os.Getenv(c.key(k))) }

// MustString panics when key is missing or blank
func (c Conf) MustString(key string) string {
	v := c.lookup(key)
	if v == "" {
		logger.Get().Panic().Str("key", c.key(key)).Msg("missing required env")
	}
	return v
}

// MustSecret is MustString with a minimum length; the value is never logged
func (c Conf) MustSecret(key string, minLen int) string {
	v := c.MustString(key)
	if len(v) < minLen {
		logger.Get().Panic().Str("key", c.key(key)).Int("min_len", minLen).Msg("secret too short")
	}
	return v
}

// MustPort returns ":<port>" after checking 1..65535
func (c Conf) MustPort(key string) string {
	s := c.MustString(key)
	p, err := strconv.Atoi(s)
	if err != nil || p < 1 || p > 65535 {
		logger.Get().Panic().Str("key", c.key(key)).Str("value", s).Msg("invalid TCP port")
	}
	return ":" + s
}

// MayString returns the value or def
func (c Conf) MayString(key, def string) string {
	if v := c.lookup(key); v != "" {
		return v
	}
	return def
}

// MayInt returns the value or def; invalid values warn and use def
func (c Conf) MayInt(key string, def int) int {
	s := c.lookup(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		logger.Get().Warn().Str("key", c.key(key)).Str("value", s).Int("default", def).Msg("invalid int; using default")
		return def
	}
	return v
}

// MayBool returns the value or def; invalid values warn and use def
func (c Conf) MayBool(key string, def bool) bool {
	s := c.lookup(key)
	if s == "" {
		return def
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		logger.Get().Warn().Str("key", c.key(key)).Str("value", s).Bool("default", def).Msg("invalid bool; using default")
		return def
	}
	return v
}

// MayDuration returns the value or def; invalid values warn and use def
func (c Conf) MayDuration(key string, def time.Duration) time.Duration {
	s := c.lookup(key)
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		logger.Get().Warn().Str("key", c.key(key)).Str("value", s).Dur("default", def).Msg("invalid duration; using default")
		return def
	}
	return d
}

// MayCSV splits a comma list, dropping blanks; def when nothing is left
func (c Conf) MayCSV(key string, def []string) []string {
	var out []string
	for _, p := range strings.Split(c.lookup(key), ",") {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

// MayEnum returns the lower-cased value if it is one of allowed, def when empty.
// Anything else panics
func (c Conf) MayEnum(key, def string, allowed ...string) string {
	v := c.MayString(key, def)
	if v == "" {
		return v
	}
	for _, a := range allowed {
		if strings.EqualFold(v, a) {
			return strings.ToLower(a)
		}
	}
	logger.Get().Panic().Str("key", c.key(key)).Str("value", v).Strs("allowed", allowed).Msg("invalid enum value")
	return ""
}
