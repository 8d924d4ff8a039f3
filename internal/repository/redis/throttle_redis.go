package redis

import (
	"context"
	"errors"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// hitScript increments the window counter and arms its expiry in one step. A counter left
// without a TTL is given one on the next hit.
var hitScript = goredis.NewScript(`
local count = redis.call('INCR', KEYS[1])
if redis.call('PTTL', KEYS[1]) < 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return count
`)

// Throttle is a fixed-window counter: once a key exceeds limit hits within window it is
// blocked for blockFor.
type Throttle struct {
	client   goredis.UniversalClient
	prefix   string
	limit    int
	window   time.Duration
	blockFor time.Duration
}

func NewClient(addr, password string) *goredis.Client {
	return goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
}

func NewThrottle(client goredis.UniversalClient, prefix string, limit int, window, blockFor time.Duration) (*Throttle, error) {
	if client == nil {
		return nil, errors.New("throttle: nil redis client")
	}
	if limit <= 0 {
		return nil, errors.New("throttle: limit must be positive")
	}
	if window <= 0 {
		return nil, errors.New("throttle: window must be positive")
	}
	if blockFor <= 0 {
		blockFor = window
	}
	return &Throttle{
		client:   client,
		prefix:   strings.TrimSuffix(prefix, ":"),
		limit:    limit,
		window:   window,
		blockFor: blockFor,
	}, nil
}

func (t *Throttle) Hit(ctx context.Context, key string) (bool, time.Duration, error) {
	countKey := t.prefix + ":count:" + key
	blockKey := t.prefix + ":block:" + key

	ttl, err := t.client.TTL(ctx, blockKey).Result()
	if err != nil {
		return false, 0, err
	}
	if ttl > 0 {
		return false, ttl, nil
	}

	count, err := hitScript.Run(ctx, t.client, []string{countKey}, t.window.Milliseconds()).Int64()
	if err != nil {
		return false, 0, err
	}

	if count > int64(t.limit) {
		if err := t.client.Set(ctx, blockKey, "1", t.blockFor).Err(); err != nil {
			return false, 0, err
		}
		return false, t.blockFor, nil
	}
	return true, 0, nil
}
