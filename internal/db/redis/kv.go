package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/rueidis"

	"github.com/mylost-cloud/mylost/internal/db"
)

// GetInt reads a counter value. A missing key reads as 0.
func (s *Store) GetInt(ctx context.Context, key string) (int64, error) {
	cmd := s.b().Get().Key(key).Build()
	n, err := s.do(ctx, cmd).AsInt64()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return 0, nil
		}
		return 0, &db.Error{Op: db.OpGet, Err: err}
	}
	return n, nil
}

// incrWithLimitScript increments the counter, sets the TTL on first use and
// rolls back when the new value would exceed the limit. Runs server-side so
// the check-and-increment is a single linearizable step.
var incrWithLimitScript = rueidis.NewLuaScript(`
local c = redis.call('INCR', KEYS[1])
if c == 1 and tonumber(ARGV[2]) > 0 then
  redis.call('EXPIRE', KEYS[1], ARGV[2])
end
if c > tonumber(ARGV[1]) then
  redis.call('DECR', KEYS[1])
  return {c - 1, 0}
end
return {c, 1}
`)

// IncrWithLimit atomically increments key unless the result would exceed
// limit. Returns the resulting count and whether the increment was applied.
func (s *Store) IncrWithLimit(
	ctx context.Context, key string, limit int64, ttl time.Duration,
) (int64, bool, error) {
	res := incrWithLimitScript.Exec(ctx, s.client,
		[]string{key},
		[]string{strconv.FormatInt(limit, 10), strconv.FormatInt(int64(ttl.Seconds()), 10)},
	)
	vals, err := res.AsIntSlice()
	if err != nil {
		return 0, false, &db.Error{Op: db.OpIncr, Err: err}
	}
	if len(vals) != 2 {
		return 0, false, &db.Error{Op: db.OpIncr, Err: fmt.Errorf("unexpected script reply of %d values", len(vals))}
	}
	return vals[0], vals[1] == 1, nil
}

// DecrBy decrements a counter key by the given amount.
func (s *Store) DecrBy(ctx context.Context, key string, val int64) error {
	cmd := s.b().Decrby().Key(key).Decrement(val).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpDecrBy, Err: err}
	}
	return nil
}
