package module

import (
	"time"

	"ghdigest/internal/platform/config"
)

// Options controls queue consumption. Values may also be read from env
type Options struct {
	PollInterval   time.Duration
	MaxAttempts    int
	CheckerWorkers int
	BuilderWorkers int
	MailerWorkers  int
}

// FromConfig reads options using the JOBS_ prefix
func FromConfig(cfg config.Conf) Options {
	j := cfg.Prefix("JOBS_")
	return Options{
		PollInterval:   j.MayDuration("POLL_INTERVAL", time.Second),
		MaxAttempts:    j.MayInt("MAX_ATTEMPTS", 5),
		CheckerWorkers: j.MayInt("CHECKER_WORKERS", 4),
		BuilderWorkers: j.MayInt("BUILDER_WORKERS", 2),
		MailerWorkers:  j.MayInt("MAILER_WORKERS", 2),
	}
}
