package github

import "ghdigest/internal/platform/config"

// FromConfig reads GITHUB_* under cfg; unset values fall back to NewClient defaults
func FromConfig(cfg config.Conf) Options {
	c := cfg.Prefix("GITHUB_")
	return Options{
		BaseURL:         c.MayString("BASE_URL", ""),
		UserAgent:       c.MayString("USER_AGENT", ""),
		Timeout:         c.MayDuration("TIMEOUT", 0),
		MaxRetries:      c.MayInt("MAX_RETRIES", 0),
		RetryBase:       c.MayDuration("RETRY_BASE", 0),
		RatePerSec:      float64(c.MayInt("RPS", 0)),
		Burst:           c.MayInt("BURST", 0),
		PerPage:         c.MayInt("PER_PAGE", 0),
		MaxPages:        c.MayInt("MAX_PAGES", 0),
		FollowerPages:   c.MayInt("FOLLOWER_PAGES", 0),
		BreakerFailures: uint32(c.MayInt("BREAKER_FAILURES", 0)),
		BreakerCooldown: c.MayDuration("BREAKER_COOLDOWN", 0),
	}
}
