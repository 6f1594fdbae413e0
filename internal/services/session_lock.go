package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var ErrLockNotAcquired = errors.New("failed to acquire lock")

type DistributedLock struct {
	Key        string        `json:"key"`
	Value      string        `json:"value"`
	Expiration time.Duration `json:"expiration"`
	CreatedAt  time.Time     `json:"created_at"`
}

// SessionLocker serialises capture and refund on one session.
type SessionLocker interface {
	Lock(ctx context.Context, key string) (*DistributedLock, error)
	Unlock(ctx context.Context, lock *DistributedLock) error
}

// LockStore is the subset of pkg/cache the Redis locker needs.
type LockStore interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error)
	CompareAndDelete(ctx context.Context, key string, value interface{}) (bool, error)
}

type RedisSessionLocker struct {
	store LockStore
	ttl   time.Duration
}

func NewRedisSessionLocker(store LockStore, ttl time.Duration) *RedisSessionLocker {
	return &RedisSessionLocker{store: store, ttl: ttl}
}

func (l *RedisSessionLocker) Lock(ctx context.Context, key string) (*DistributedLock, error) {
	lockKey := fmt.Sprintf("lock:session:%s", key)
	lockValue := uuid.NewString()

	ok, err := l.store.SetNX(ctx, lockKey, lockValue, l.ttl)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock %s: %w", lockKey, err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", lockKey, ErrLockNotAcquired)
	}

	return &DistributedLock{
		Key:        lockKey,
		Value:      lockValue,
		Expiration: l.ttl,
		CreatedAt:  time.Now(),
	}, nil
}

// Unlock releases the lock only if this holder still owns it.
func (l *RedisSessionLocker) Unlock(ctx context.Context, lock *DistributedLock) error {
	if lock == nil {
		return nil
	}
	if _, err := l.store.CompareAndDelete(ctx, lock.Key, lock.Value); err != nil {
		return fmt.Errorf("failed to release lock %s: %w", lock.Key, err)
	}
	return nil
}
