// Package cache holds the Redis-backed send counters that arbitrate concurrent
// feedback sends by the same user.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/beckershow/colaborador-portal/internal/domain"
	"github.com/beckershow/colaborador-portal/internal/rules"
)

const (
	sendCounterPrefix = "feedback:sent:"
	// keyBuffer keeps a counter alive briefly after its window ends.
	keyBuffer = time.Hour
)

// reserveScript raises each counter to at least the database count, then takes
// one slot in both the day and week counters. Nothing is kept when either cap
// is exceeded. Returns {status, day, week}; status 0 ok, 1 daily, 2 weekly.
var reserveScript = redis.NewScript(`
local day_key = KEYS[1]
local week_key = KEYS[2]
local seed_day = tonumber(ARGV[1])
local seed_week = tonumber(ARGV[2])
local max_day = tonumber(ARGV[3])
local max_week = tonumber(ARGV[4])
local day_ttl = tonumber(ARGV[5])
local week_ttl = tonumber(ARGV[6])

local function raise(key, floor, ttl)
	local current = tonumber(redis.call('GET', key) or '0')
	if floor > current then
		redis.call('SET', key, floor, 'EX', ttl)
	end
end

raise(day_key, seed_day, day_ttl)
raise(week_key, seed_week, week_ttl)

local day = tonumber(redis.call('GET', day_key) or '0')
local week = tonumber(redis.call('GET', week_key) or '0')
if day + 1 > max_day then
	return {1, day, week}
end
if week + 1 > max_week then
	return {2, day, week}
end

day = redis.call('INCR', day_key)
week = redis.call('INCR', week_key)
redis.call('EXPIRE', day_key, day_ttl)
redis.call('EXPIRE', week_key, week_ttl)
return {0, day, week}
`)

// releaseScript gives back one slot without going below zero.
var releaseScript = redis.NewScript(`
for i, key in ipairs(KEYS) do
	local current = tonumber(redis.call('GET', key) or '0')
	if current > 0 then
		redis.call('DECR', key)
	end
end
return 1
`)

// SendCounter tracks per-user sends in the current day and ISO week.
type SendCounter struct {
	client redis.UniversalClient
	now    func() time.Time
}

// NewSendCounter creates a counter backed by client.
func NewSendCounter(client redis.UniversalClient) *SendCounter {
	return &SendCounter{client: client, now: time.Now}
}

// Reserve takes one slot for userID within windows. seed is the count already
// persisted, used as a floor for the Redis counters.
func (c *SendCounter) Reserve(ctx context.Context, userID string, windows rules.SendWindows, limits rules.EffectiveLimits, seed domain.SendCounters) (rules.SendDecision, error) {
	if !limits.Enabled {
		return rules.SendDecision{Allowed: true}, nil
	}
	now := c.now()
	res, err := reserveScript.Run(ctx, c.client,
		[]string{DayKey(userID, windows), WeekKey(userID, windows)},
		seed.SentToday,
		seed.SentThisWeek,
		limits.MaxPerDay,
		limits.MaxPerWeek,
		ttlSeconds(windows.DayEnd, now),
		ttlSeconds(windows.WeekEnd, now),
	).Int64Slice()
	if err != nil {
		return rules.SendDecision{}, fmt.Errorf("reserve send slot: %w", err)
	}
	if len(res) == 0 {
		return rules.SendDecision{}, fmt.Errorf("reserve send slot: empty script result")
	}

	switch res[0] {
	case 1:
		return rules.SendDecision{Allowed: false, Reason: rules.ReasonDailyLimit}, nil
	case 2:
		return rules.SendDecision{Allowed: false, Reason: rules.ReasonWeeklyLimit}, nil
	default:
		return rules.SendDecision{Allowed: true}, nil
	}
}

// Release returns a slot taken by Reserve, or frees the slot of a deleted
// feedback. The day counter is only touched when includeDay is set.
func (c *SendCounter) Release(ctx context.Context, userID string, windows rules.SendWindows, includeDay bool) error {
	keys := []string{WeekKey(userID, windows)}
	if includeDay {
		keys = append(keys, DayKey(userID, windows))
	}
	if err := releaseScript.Run(ctx, c.client, keys).Err(); err != nil {
		return fmt.Errorf("release send slot: %w", err)
	}
	return nil
}

// DayKey is the Redis key of userID's daily counter. The user id is a hash tag
// so both counters of a user share a cluster slot.
func DayKey(userID string, windows rules.SendWindows) string {
	return sendCounterPrefix + "{" + userID + "}:day:" + windows.DayKey()
}

// WeekKey is the Redis key of userID's weekly counter.
func WeekKey(userID string, windows rules.SendWindows) string {
	return sendCounterPrefix + "{" + userID + "}:week:" + windows.WeekKey()
}

func ttlSeconds(windowEnd, now time.Time) int64 {
	ttl := windowEnd.Sub(now) + keyBuffer
	if ttl < keyBuffer {
		ttl = keyBuffer
	}
	return int64(ttl / time.Second)
}
