package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const unlockScript = "if redis.call('get', KEYS[1]) == ARGV[1] then return redis.call('del', KEYS[1]) else return 0 end"

var errHeld = errors.New("lock held")

// RedisLocker is a SETNX lock with an owner token and a TTL so a crashed holder
// cannot block a key forever.
type RedisLocker struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	wait   time.Duration
	token  func() string
}

// NewRedisLocker builds a locker namespaced under prefix.
func NewRedisLocker(client redis.UniversalClient, prefix string, ttl, wait time.Duration) *RedisLocker {
	return &RedisLocker{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		wait:   wait,
		token:  uuid.NewString,
	}
}

// Acquire polls SETNX with exponential backoff until the wait budget is spent.
func (l *RedisLocker) Acquire(ctx context.Context, key string) (Release, error) {
	name := l.prefix + key
	owner := l.token()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 10 * time.Millisecond
	b.MaxInterval = 250 * time.Millisecond
	b.MaxElapsedTime = l.wait

	op := func() error {
		ok, err := l.client.SetNX(ctx, name, owner, l.ttl).Result()
		if err != nil {
			return backoff.Permanent(fmt.Errorf("setnx %s: %w", name, err))
		}
		if !ok {
			return errHeld
		}
		return nil
	}

	if err := backoff.Retry(op, backoff.WithContext(b, ctx)); err != nil {
		if errors.Is(err, errHeld) {
			return nil, fmt.Errorf("%w: %s", ErrTimeout, name)
		}
		return nil, err
	}

	return func(ctx context.Context) error {
		res, err := l.client.Eval(ctx, unlockScript, []string{name}, owner).Result()
		if err != nil {
			return fmt.Errorf("unlock %s: %w", name, err)
		}
		if res == int64(0) {
			return fmt.Errorf("unlock %s: lock expired or taken over", name)
		}
		return nil
	}, nil
}
