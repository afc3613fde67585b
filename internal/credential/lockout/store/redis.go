package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"campusid/internal/credential/lockout"
)

const keyPrefix = "lockout:"

// recordFailureScript increments both counters in one step, restarting each
// when the previous failure falls before its window start. Times are unix
// milliseconds.
//
//	KEYS[1] record hash
//	ARGV    now, windowStart, dayStart, ttl (ms)
var recordFailureScript = redis.NewScript(`
local last = tonumber(redis.call('HGET', KEYS[1], 'last_failure_at') or '0')
local failures = tonumber(redis.call('HGET', KEYS[1], 'failure_count') or '0')
local daily = tonumber(redis.call('HGET', KEYS[1], 'daily_failures') or '0')
if last < tonumber(ARGV[2]) then failures = 0 end
if last < tonumber(ARGV[3]) then daily = 0 end
failures = failures + 1
daily = daily + 1
redis.call('HSET', KEYS[1], 'failure_count', failures, 'daily_failures', daily, 'last_failure_at', ARGV[1])
redis.call('PEXPIRE', KEYS[1], ARGV[4])
return redis.call('HGETALL', KEYS[1])
`)

// Redis stores each record as a hash that expires once it can no longer
// affect a decision.
type Redis struct {
	client    *redis.Client
	retention time.Duration
}

func NewRedis(client *redis.Client, cfg lockout.Config) *Redis {
	return &Redis{client: client, retention: cfg.Retention()}
}

func (s *Redis) Get(ctx context.Context, identifier string) (*lockout.Record, error) {
	fields, err := s.client.HGetAll(ctx, keyPrefix+identifier).Result()
	if err != nil {
		return nil, fmt.Errorf("get lockout record: %w", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}
	return parseRecord(identifier, fields)
}

func (s *Redis) RecordFailure(ctx context.Context, identifier string, now, windowStart, dayStart time.Time) (*lockout.Record, error) {
	raw, err := recordFailureScript.Run(ctx, s.client, []string{keyPrefix + identifier},
		now.UnixMilli(), windowStart.UnixMilli(), dayStart.UnixMilli(), s.retention.Milliseconds(),
	).StringSlice()
	if err != nil {
		return nil, fmt.Errorf("record lockout failure: %w", err)
	}
	fields := make(map[string]string, len(raw)/2)
	for i := 0; i+1 < len(raw); i += 2 {
		fields[raw[i]] = raw[i+1]
	}
	return parseRecord(identifier, fields)
}

func (s *Redis) Update(ctx context.Context, record *lockout.Record) error {
	if record == nil {
		return fmt.Errorf("lockout record is required")
	}
	key := keyPrefix + record.Identifier
	values := map[string]any{
		"failure_count":   record.FailureCount,
		"daily_failures":  record.DailyFailures,
		"last_failure_at": record.LastFailureAt.UnixMilli(),
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, values)
		if record.LockedUntil != nil {
			pipe.HSet(ctx, key, "locked_until", record.LockedUntil.UnixMilli())
		} else {
			pipe.HDel(ctx, key, "locked_until")
		}
		pipe.PExpire(ctx, key, s.retention)
		return nil
	})
	if err != nil {
		return fmt.Errorf("update lockout record: %w", err)
	}
	return nil
}

func (s *Redis) Clear(ctx context.Context, identifier string) error {
	if err := s.client.Del(ctx, keyPrefix+identifier).Err(); err != nil {
		return fmt.Errorf("clear lockout record: %w", err)
	}
	return nil
}

func parseRecord(identifier string, fields map[string]string) (*lockout.Record, error) {
	rec := &lockout.Record{Identifier: identifier}
	var err error
	if rec.FailureCount, err = atoi(fields["failure_count"]); err != nil {
		return nil, fmt.Errorf("parse failure_count: %w", err)
	}
	if rec.DailyFailures, err = atoi(fields["daily_failures"]); err != nil {
		return nil, fmt.Errorf("parse daily_failures: %w", err)
	}
	last, err := strconv.ParseInt(orZero(fields["last_failure_at"]), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse last_failure_at: %w", err)
	}
	rec.LastFailureAt = time.UnixMilli(last).UTC()
	if v, ok := fields["locked_until"]; ok && v != "" {
		until, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse locked_until: %w", err)
		}
		t := time.UnixMilli(until).UTC()
		rec.LockedUntil = &t
	}
	return rec, nil
}

func atoi(v string) (int, error) {
	return strconv.Atoi(orZero(v))
}

func orZero(v string) string {
	if v == "" {
		return "0"
	}
	return v
}
