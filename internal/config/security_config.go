package config

import "time"

type SecurityConfig interface {
	GetSessionTTL() time.Duration
	GetMaxSessionLifetime() time.Duration
	GetSweepInterval() time.Duration
	GetRateLimitPerMinute() int
}

var _ SecurityConfig = mainConfig{}

// GetSessionTTL is the sliding-expiry window extended on each guarded access.
func (c mainConfig) GetSessionTTL() time.Duration {
	return c.vars.SessionTTL
}

// GetMaxSessionLifetime caps sliding expiry at an absolute age from creation.
func (c mainConfig) GetMaxSessionLifetime() time.Duration {
	return c.vars.MaxSessionLifetime
}

func (c mainConfig) GetSweepInterval() time.Duration {
	return c.vars.SweepInterval
}

func (c mainConfig) GetRateLimitPerMinute() int {
	return c.vars.RateLimitPerMin
}
