// Package raw reads environment variables without touching the logger.
// The logger bootstraps from it, so it must stay dependency free
package raw

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Conf is a prefixed view over the environment
type Conf struct{ prefix string }

// New returns an unprefixed Conf
func New() Conf { return Conf{} }

// Prefix nests an additional prefix, e.g. "LOG_"
func (c Conf) Prefix(p string) Conf { return Conf{prefix: c.prefix + p} }

func (c Conf) lookup(key string) string {
	return strings.TrimSpace(os.Getenv(c.prefix + key))
}

// Get returns the trimmed value or def
func (c Conf) Get(key, def string) string {
	if v := c.lookup(key); v != "" {
		return v
	}
	return def
}

// GetBool treats 1, true and yes as true; empty means def
func (c Conf) GetBool(key string, def bool) bool {
	switch v := strings.ToLower(c.lookup(key)); v {
	case "":
		return def
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}

// GetInt returns a non-negative int or def when empty or unparsable
func (c Conf) GetInt(key string, def int) int {
	n, err := strconv.Atoi(c.lookup(key))
	if err != nil || n < 0 {
		return def
	}
	return n
}

// GetDuration returns a parsed duration or def
func (c Conf) GetDuration(key string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(c.lookup(key))
	if err != nil {
		return def
	}
	return d
}
