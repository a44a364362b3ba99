package alerts

import (
	"context"
	"errors"
	"time"

	"github.com/bsm/redislock"

	pkgredis "github.com/shelfwatch/shelfwatch-backend/pkg/redis"
)

// ErrLockHeld signals that another worker is already alerting for the tenant.
var ErrLockHeld = errors.New("alert lock already held")

// Lock is a held distributed lock.
type Lock interface {
	Release(ctx context.Context) error
}

// Locker serializes alert evaluation per tenant across processes.
type Locker interface {
	Obtain(ctx context.Context, key string, ttl time.Duration) (Lock, error)
}

type redisLocker struct {
	client *redislock.Client
}

// NewRedisLocker builds a redislock-backed Locker.
func NewRedisLocker(client *pkgredis.Client) Locker {
	return &redisLocker{client: redislock.New(client.Raw())}
}

func (l *redisLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (Lock, error) {
	lock, err := l.client.Obtain(ctx, key, ttl, nil)
	if err != nil {
		if errors.Is(err, redislock.ErrNotObtained) {
			return nil, ErrLockHeld
		}
		return nil, err
	}
	return lock, nil
}
