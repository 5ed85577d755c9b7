package module

import (
	"time"

	"ghdigest/internal/platform/config"
)

// Options controls the scheduler
type Options struct {
	Spec        string
	ScanBatch   int64
	RunOnStart  bool
	TickTimeout time.Duration
}

// FromConfig reads options using the SCHEDULER_ prefix
func FromConfig(cfg config.Conf) Options {
	c := cfg.Prefix("SCHEDULER_")
	return Options{
		Spec:        c.MayString("SPEC", "@every 5m"),
		ScanBatch:   int64(c.MayInt("SCAN_BATCH", 500)),
		RunOnStart:  c.MayBool("RUN_ON_START", true),
		TickTimeout: c.MayDuration("TICK_TIMEOUT", 4*time.Minute),
	}
}
