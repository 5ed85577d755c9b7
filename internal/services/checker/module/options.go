package module

import (
	"time"

	"ghdigest/internal/platform/config"
)

// Options controls the poller
type Options struct {
	LockTTL         time.Duration
	HistoryCap      int64
	ConflictRebuild time.Duration
}

// FromConfig reads options using the CHECKER_ prefix
func FromConfig(cfg config.Conf) Options {
	c := cfg.Prefix("CHECKER_")
	return Options{
		LockTTL:         c.MayDuration("LOCK_TTL", 210*time.Second),
		HistoryCap:      int64(c.MayInt("HISTORY_CAP", 0)),
		ConflictRebuild: c.MayDuration("CONFLICT_REBUILD", time.Hour),
	}
}
