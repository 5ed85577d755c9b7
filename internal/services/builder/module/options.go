package module

import (
	"time"

	"ghdigest/internal/platform/config"
	"ghdigest/internal/platform/logger"
)

// Options controls digest rendering
type Options struct {
	Domain   string
	Secret   string
	Location *time.Location
}

// FromConfig reads CORE_DOMAIN, CORE_SECRET and BUILDER_TIMEZONE
func FromConfig(cfg config.Conf) Options {
	core := cfg.Prefix("CORE_")
	tz := cfg.Prefix("BUILDER_").MayString("TIMEZONE", "UTC")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		logger.Get().Warn().Str("timezone", tz).Err(err).Msg("unknown timezone, using UTC")
		loc = time.UTC
	}
	return Options{
		Domain:   core.MayString("DOMAIN", "localhost"),
		Secret:   core.MustSecret("SECRET", 16),
		Location: loc,
	}
}
