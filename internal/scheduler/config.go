package scheduler

import (
	"time"

	"github.com/smallbiznis/fieldwatch/internal/config"
)

// Config controls scheduler intervals and job bounds.
type Config struct {
	RunInterval time.Duration
	// JobTimeout bounds a single job; zero lets a tick run to completion.
	JobTimeout  time.Duration
	LockTTL     time.Duration
	EnabledJobs []string
}

func DefaultConfig() Config {
	return Config{
		RunInterval: 10 * time.Second,
		LockTTL:     30 * time.Second,
	}
}

func ProvideConfig(cfg config.Config) Config {
	return Config{RunInterval: cfg.SensorRefreshInterval}.withDefaults()
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RunInterval <= 0 {
		c.RunInterval = defaults.RunInterval
	}
	if c.JobTimeout < 0 {
		c.JobTimeout = 0
	}
	if c.LockTTL <= 0 {
		c.LockTTL = defaults.LockTTL
	}
	return c
}
