package store

import (
	"time"

	"ghdigest/internal/platform/config"
)

// Config aggregates backend configuration
type Config struct {
	AppName string

	RDS RedisConfig
	PG  PGConfig
}

// RedisConfig configures redis connectivity
type RedisConfig struct {
	Addr        string
	Username    string
	Password    string
	DB          int
	PoolSize    int
	PingRetries int
	PingTimeout time.Duration
}

// PGConfig configures the optional postgres audit log
type PGConfig struct {
	Enabled     bool
	URL         string
	MaxConns    int32
	PingRetries int
	PingTimeout time.Duration
}

// FromEnv reads STORE_RDS_* and STORE_PG_* under c
func FromEnv(c config.Conf, appName string) Config {
	rds := c.Prefix("RDS_")
	pgc := c.Prefix("PG_")
	return Config{
		AppName: appName,
		RDS: RedisConfig{
			Addr:        rds.MayString("ADDR", "127.0.0.1:6379"),
			Username:    rds.MayString("USERNAME", ""),
			Password:    rds.MayString("PASSWORD", ""),
			DB:          rds.MayInt("DB", 0),
			PoolSize:    rds.MayInt("POOL_SIZE", 0),
			PingRetries: rds.MayInt("PING_RETRIES", 10),
			PingTimeout: rds.MayDuration("PING_TIMEOUT", 3*time.Second),
		},
		PG: PGConfig{
			Enabled:     pgc.MayBool("ENABLED", false),
			URL:         pgc.MayString("URL", ""),
			MaxConns:    int32(pgc.MayInt("MAX_CONNS", 4)),
			PingRetries: pgc.MayInt("PING_RETRIES", 10),
			PingTimeout: pgc.MayDuration("PING_TIMEOUT", 3*time.Second),
		},
	}
}
