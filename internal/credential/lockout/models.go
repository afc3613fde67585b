package lockout

import (
	"net/url"
	"time"
)

// Record tracks failed sign-in attempts for one identifier.
type Record struct {
	Identifier    string     `json:"identifier"`     // email + client IP composite key
	FailureCount  int        `json:"failure_count"`  // failures in the current window
	DailyFailures int        `json:"daily_failures"` // failures in the last 24h, drives the hard lock
	LockedUntil   *time.Time `json:"locked_until,omitempty"`
	LastFailureAt time.Time  `json:"last_failure_at"`
}

// IsLockedAt reports whether a hard lock is active at now.
func (r *Record) IsLockedAt(now time.Time) bool {
	return r.LockedUntil != nil && now.Before(*r.LockedUntil)
}

// FailuresInWindow counts failures since windowStart. Stores only reset the
// counter on the next failure, so an idle record may still hold an old count.
func (r *Record) FailuresInWindow(windowStart time.Time) int {
	if r.LastFailureAt.Before(windowStart) {
		return 0
	}
	return r.FailureCount
}

// Key builds the store key for an email and client IP. Segments are escaped
// so an identifier containing ':' cannot address another client's record.
func Key(identifier, ip string) string {
	return url.QueryEscape(identifier) + ":" + url.QueryEscape(ip)
}

// Result is the outcome of a lockout check.
type Result struct {
	Allowed      bool
	Remaining    int
	RetryAfter   time.Duration
	FailureCount int
}

// Config holds the lockout thresholds.
type Config struct {
	AttemptsPerWindow int           `mapstructure:"attempts"`
	WindowDuration    time.Duration `mapstructure:"window"`
	HardLockThreshold int           `mapstructure:"hard_lock_threshold"` // daily failures
	HardLockDuration  time.Duration `mapstructure:"hard_lock_duration"`
}

// DefaultConfig allows 5 attempts per 15 minutes and hard-locks for 15
// minutes after 10 failures in a day.
func DefaultConfig() Config {
	return Config{
		AttemptsPerWindow: 5,
		WindowDuration:    15 * time.Minute,
		HardLockThreshold: 10,
		HardLockDuration:  15 * time.Minute,
	}
}

const dayWindow = 24 * time.Hour

// Retention is how long a record stays relevant after its last failure.
func (c Config) Retention() time.Duration {
	return dayWindow + c.HardLockDuration
}
