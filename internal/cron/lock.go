package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const defaultLockTTL = 25 * time.Hour

// Locker hands out per-job leases so replicas of the worker never run the same
// job at once. Acquire returns a nil lease when another worker holds the job.
type Locker interface {
	Acquire(ctx context.Context, job string) (Lease, error)
}

type Lease interface {
	Release(ctx context.Context) error
}

type lockStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	DeleteIfValue(ctx context.Context, key, value string) (bool, error)
	CronLockKey(env, job string) string
}

// RedisLocker takes leases with SET NX and releases them with an atomic
// compare-and-delete, so an expired lease cannot free a successor's lock.
type RedisLocker struct {
	store lockStore
	env   string
	ttl   time.Duration
}

func NewRedisLocker(store lockStore, env string, ttl time.Duration) (*RedisLocker, error) {
	if store == nil {
		return nil, errors.New("redis client required for cron locks")
	}
	if env == "" {
		env = "local"
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisLocker{store: store, env: env, ttl: ttl}, nil
}

func (l *RedisLocker) Acquire(ctx context.Context, job string) (Lease, error) {
	key := l.store.CronLockKey(l.env, job)
	owner := uuid.NewString()
	ok, err := l.store.SetNX(ctx, key, owner, l.ttl)
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", job, err)
	}
	if !ok {
		return nil, nil
	}
	return &redisLease{store: l.store, key: key, owner: owner}, nil
}

type redisLease struct {
	store lockStore
	key   string
	owner string
}

func (l *redisLease) Release(ctx context.Context) error {
	if _, err := l.store.DeleteIfValue(ctx, l.key, l.owner); err != nil {
		return fmt.Errorf("unlock %s: %w", l.key, err)
	}
	return nil
}
