// Package lock serializes critical sections either within the process or across
// replicas sharing a Redis instance.
package lock

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bsm/redislock"
)

// ErrNotObtained is returned when the lock could not be taken before the context ended.
var ErrNotObtained = errors.New("lock not obtained")

// Lock is a held lock.
type Lock interface {
	Release(ctx context.Context) error
}

// Locker hands out locks by key.
type Locker interface {
	Obtain(ctx context.Context, key string) (Lock, error)
}

// Local is an in-process Locker. The zero value is ready to use.
type Local struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

// NewLocal returns an in-process Locker.
func NewLocal() *Local {
	return &Local{}
}

func (l *Local) slot(key string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.slots == nil {
		l.slots = make(map[string]chan struct{})
	}
	ch, ok := l.slots[key]
	if !ok {
		ch = make(chan struct{}, 1)
		l.slots[key] = ch
	}
	return ch
}

// Obtain blocks until key is free or ctx ends.
func (l *Local) Obtain(ctx context.Context, key string) (Lock, error) {
	ch := l.slot(key)
	select {
	case ch <- struct{}{}:
		return &localLock{ch: ch}, nil
	case <-ctx.Done():
		return nil, errors.Join(ErrNotObtained, ctx.Err())
	}
}

type localLock struct {
	once sync.Once
	ch   chan struct{}
}

func (l *localLock) Release(context.Context) error {
	l.once.Do(func() { <-l.ch })
	return nil
}

// Redis is a Locker shared by every process talking to the same Redis.
type Redis struct {
	client  *redislock.Client
	ttl     time.Duration
	backoff time.Duration
}

// NewRedis returns a Locker whose locks expire after ttl if never released.
func NewRedis(client redislock.RedisClient, ttl time.Duration) *Redis {
	return &Redis{
		client:  redislock.New(client),
		ttl:     ttl,
		backoff: 25 * time.Millisecond,
	}
}

// Obtain retries until the lock is taken, ctx ends or one ttl has passed.
func (r *Redis) Obtain(ctx context.Context, key string) (Lock, error) {
	ctx, cancel := context.WithTimeout(ctx, r.ttl)
	defer cancel()

	l, err := r.client.Obtain(ctx, key, r.ttl, &redislock.Options{
		RetryStrategy: redislock.LinearBackoff(r.backoff),
	})
	if errors.Is(err, redislock.ErrNotObtained) || errors.Is(err, context.DeadlineExceeded) {
		return nil, errors.Join(ErrNotObtained, err)
	}
	if err != nil {
		return nil, err
	}
	return l, nil
}
